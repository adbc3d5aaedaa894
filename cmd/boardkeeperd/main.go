// boardkeeperd is the moderation daemon for a federated imageboard
// platform: it enforces per-board capacity, bump-limit, and retention
// rules against a plebbit-style RPC.
package main

import "github.com/go5chan/boardkeeper/internal/cli"

func main() {
	cli.Execute()
}
