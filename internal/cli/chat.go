package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/botman/internal/bot"
	"github.com/rcliao/botman/internal/feed"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot on stdin",
		Long:  "Read messages from stdin, one per line, and print the bot's replies. Every line is handled like a chat message.",
		Run:   runChat,
	}

	cmd.Flags().StringP("conversation", "c", "console", "Conversation identifier")
	cmd.Flags().String("name", "", "Extra name the bot answers to in this session")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	conversation, _ := cmd.Flags().GetString("conversation")
	name, _ := cmd.Flags().GetString("name")

	rt, err := openRuntime(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer rt.Close()

	if name != "" {
		rt.responder.AddAlias(name)
	}

	ctx := cmd.Context()
	sc := bufio.NewScanner(cmd.InOrStdin())
	sc.Buffer(make([]byte, 0, 64*1024), feed.MaxLineSize)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		out, err := rt.responder.Receive(ctx, bot.Message{Conversation: conversation, Text: sc.Text()})
		if err != nil {
			rt.logger.Error("Message failed", zap.Error(err))
			continue
		}
		if out.Sent {
			fmt.Fprintln(cmd.OutOrStdout(), out.Text)
		}
	}
	if err := sc.Err(); err != nil {
		exitErr("read stdin", err)
	}
}
