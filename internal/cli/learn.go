package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "learn [text]",
		Short: "Learn one line",
		Long:  "Learn one line of text. Text can be a positional arg or piped via stdin.",
		Run:   runLearn,
	}

	RootCmd.AddCommand(cmd)
}

func runLearn(cmd *cobra.Command, args []string) {
	// Get text: positional arg first, then check stdin
	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = strings.TrimRight(string(b), "\r\n")
		}
	}

	if strings.TrimSpace(text) == "" {
		exitErr("learn", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	rt, err := openRuntime(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer rt.Close()

	res, err := rt.engine.Ingest(cmd.Context(), text)
	if err != nil {
		exitErr("learn", err)
	}

	b, _ := json.Marshal(res)
	fmt.Println(string(b))
}
