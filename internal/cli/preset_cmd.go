package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go5chan/boardkeeper/internal/modconfig"
	"github.com/go5chan/boardkeeper/internal/preset"
)

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetApplyCmd)
}

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Apply a bundled community-defaults preset",
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bundled presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := preset.List()
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var presetApplyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Apply a bundled preset onto the global defaults block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := preset.Load(args[0])
		if err != nil {
			return err
		}
		cfg, err := modconfig.LoadConfig(configDirFlag)
		if err != nil {
			return err
		}
		global := cfg.Global
		defaults := p.AsDefaults()
		global.Defaults = &defaults
		return modconfig.SaveGlobalConfig(configDirFlag, global)
	},
}
