package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/botman/internal/feed"
)

func init() {
	cmd := &cobra.Command{
		Use:   "feed FILE...",
		Short: "Learn text files",
		Long:  "Learn every non-blank line of the given UTF-8 text files.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runFeed,
	}

	RootCmd.AddCommand(cmd)
}

func runFeed(cmd *cobra.Command, args []string) {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer rt.Close()

	res, err := feed.New(rt.engine, rt.logger).FeedFiles(cmd.Context(), args...)
	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
	if err != nil {
		exitErr("feed", err)
	}
}
