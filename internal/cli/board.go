package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go5chan/boardkeeper/internal/modconfig"
)

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.AddCommand(boardAddCmd)
	boardCmd.AddCommand(boardRemoveCmd)
	boardCmd.AddCommand(boardEditCmd)
	boardCmd.AddCommand(boardListCmd)

	boardEditCmd.Flags().IntVar(&editPerPage, "per-page", 0, "set perPage (0 = leave unset)")
	boardEditCmd.Flags().IntVar(&editPages, "pages", 0, "set pages (0 = leave unset)")
	boardEditCmd.Flags().IntVar(&editBumpLimit, "bump-limit", 0, "set bumpLimit (0 = leave unset)")
	boardEditCmd.Flags().Int64Var(&editArchivePurgeSeconds, "archive-purge-seconds", 0, "set archivePurgeSeconds (0 = leave unset)")
	boardEditCmd.Flags().StringSliceVar(&editResetFields, "reset", nil, "field names to clear back to global/built-in defaults")
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage declared boards",
}

var boardAddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "Declare a new board with default tunables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return modconfig.SaveBoardConfig(configDirFlag, modconfig.Board{Address: args[0]})
	},
}

var boardRemoveCmd = &cobra.Command{
	Use:   "remove <address>",
	Short: "Remove a declared board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return modconfig.DeleteBoardConfig(configDirFlag, args[0])
	},
}

var (
	editPerPage             int
	editPages               int
	editBumpLimit           int
	editArchivePurgeSeconds int64
	editResetFields         []string
)

var boardEditCmd = &cobra.Command{
	Use:   "edit <address>",
	Short: "Change a declared board's tunables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := args[0]
		cfg, err := modconfig.LoadConfig(configDirFlag)
		if err != nil {
			return err
		}
		var board modconfig.Board
		found := false
		for _, b := range cfg.Boards {
			if b.Address == address {
				board, found = b, true
				break
			}
		}
		if !found {
			return fmt.Errorf("board %q not declared", address)
		}

		updates := modconfig.FieldUpdates{}
		if cmd.Flags().Changed("per-page") {
			updates.PerPage = &editPerPage
		}
		if cmd.Flags().Changed("pages") {
			updates.Pages = &editPages
		}
		if cmd.Flags().Changed("bump-limit") {
			updates.BumpLimit = &editBumpLimit
		}
		if cmd.Flags().Changed("archive-purge-seconds") {
			v := int(editArchivePurgeSeconds)
			updates.ArchivePurgeSeconds = &v
		}

		updated, err := modconfig.UpdateBoardConfig(board, updates, editResetFields)
		if err != nil {
			return err
		}
		return modconfig.SaveBoardConfig(configDirFlag, updated)
	},
}

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List declared boards and their effective tunables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := modconfig.LoadConfig(configDirFlag)
		if err != nil {
			return err
		}
		return printBoardList(cmd.OutOrStdout(), cfg)
	},
}
