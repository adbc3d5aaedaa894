package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/go5chan/boardkeeper/internal/modconfig"
	"github.com/go5chan/boardkeeper/internal/options"
)

// printBoardList renders each declared board's effective tunables,
// showing archivePurgeSeconds as a human-friendly relative time
// ("2 days from now")
// rather than a raw second count.
func printBoardList(w io.Writer, cfg modconfig.MultiBoardConfig) error {
	if len(cfg.Boards) == 0 {
		fmt.Fprintln(w, "no boards declared")
		return nil
	}
	for _, board := range cfg.Boards {
		opts := options.Resolve(board, cfg.Global, "", "")
		retention := humanize.Time(time.Now().Add(time.Duration(opts.ArchivePurgeSeconds) * time.Second))
		fmt.Fprintf(w, "%-30s perPage=%-4d pages=%-4d bumpLimit=%-6d archived threads purge %s\n",
			board.Address, opts.PerPage, opts.Pages, opts.BumpLimit, retention)
	}
	return nil
}
