package cli

import (
	"github.com/spf13/cobra"

	"github.com/go5chan/boardkeeper/internal/modconfig"
)

func init() {
	rootCmd.AddCommand(defaultsCmd)
	defaultsCmd.AddCommand(defaultsSetCmd)

	defaultsSetCmd.Flags().StringVar(&defaultsRPCURL, "rpc-url", "", "set the global rpcUrl")
	defaultsSetCmd.Flags().StringVar(&defaultsUserAgent, "user-agent", "", "set the global userAgent")
	defaultsSetCmd.Flags().IntVar(&defaultsPerPage, "per-page", 0, "set the global default perPage")
	defaultsSetCmd.Flags().IntVar(&defaultsPages, "pages", 0, "set the global default pages")
	defaultsSetCmd.Flags().IntVar(&defaultsBumpLimit, "bump-limit", 0, "set the global default bumpLimit")
	defaultsSetCmd.Flags().Int64Var(&defaultsArchivePurgeSeconds, "archive-purge-seconds", 0, "set the global default archivePurgeSeconds")
}

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Manage global default tunables",
}

var (
	defaultsRPCURL              string
	defaultsUserAgent           string
	defaultsPerPage             int
	defaultsPages               int
	defaultsBumpLimit           int
	defaultsArchivePurgeSeconds int64
)

var defaultsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update global defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := modconfig.LoadConfig(configDirFlag)
		if err != nil {
			return err
		}
		global := cfg.Global
		if cmd.Flags().Changed("rpc-url") {
			global.RPCUrl = defaultsRPCURL
		}
		if cmd.Flags().Changed("user-agent") {
			global.UserAgent = defaultsUserAgent
		}
		if global.Defaults == nil {
			global.Defaults = &modconfig.Defaults{}
		}
		if cmd.Flags().Changed("per-page") {
			global.Defaults.PerPage = &defaultsPerPage
		}
		if cmd.Flags().Changed("pages") {
			global.Defaults.Pages = &defaultsPages
		}
		if cmd.Flags().Changed("bump-limit") {
			global.Defaults.BumpLimit = &defaultsBumpLimit
		}
		if cmd.Flags().Changed("archive-purge-seconds") {
			v := int(defaultsArchivePurgeSeconds)
			global.Defaults.ArchivePurgeSeconds = &v
		}
		return modconfig.SaveGlobalConfig(configDirFlag, global)
	},
}
