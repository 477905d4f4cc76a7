package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/botman/internal/engine"
)

func init() {
	cmd := &cobra.Command{
		Use:   "phrase [seed]",
		Short: "Make up a sentence",
		Long:  "Make up a sentence, optionally continuing from a seed phrase (or leading up to it with --invert).",
		Run:   runPhrase,
	}

	cmd.Flags().BoolP("invert", "i", false, "Build the sentence backward, ending with the seed")
	cmd.Flags().IntP("count", "c", 1, "Number of sentences")

	RootCmd.AddCommand(cmd)
}

func runPhrase(cmd *cobra.Command, args []string) {
	invert, _ := cmd.Flags().GetBool("invert")
	count, _ := cmd.Flags().GetInt("count")

	rt, err := openRuntime(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer rt.Close()

	p := engine.GenerateParams{Seed: strings.Join(args, " "), Invert: invert}
	for i := 0; i < count; i++ {
		sentence, err := rt.engine.Generate(cmd.Context(), p)
		if err != nil {
			exitErr("phrase", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), sentence)
	}
}
