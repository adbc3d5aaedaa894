package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/go5chan/boardkeeper/internal/boardrpc"
	"github.com/go5chan/boardkeeper/internal/modlog"
	"github.com/go5chan/boardkeeper/internal/supervisor"
)

func init() {
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the moderation daemon for every declared board",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sup := supervisor.New(configDirFlag, dialRPC)

	if err := sup.Start(ctx); err != nil {
		return err
	}
	for address, err := range sup.Errors() {
		fmt.Fprintf(os.Stderr, "FAILED: %s — %v\n", address, err)
	}

	if err := sup.Watch(ctx); err != nil {
		modlog.Logf("supervisor", "filesystem watch disabled: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	sup.Stop(ctx)
	return nil
}

func dialRPC(rpcURL, userAgent string) (boardrpc.Transport, error) {
	return boardrpc.Dial(rpcURL, userAgent)
}
