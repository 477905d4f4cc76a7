package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/botman/internal/store"
)

func init() {
	wordsCmd := &cobra.Command{
		Use:   "words [substring]",
		Short: "Search learned words",
		Run:   runWords,
	}
	wordsCmd.Flags().IntP("limit", "l", 20, "Max results")

	edgesCmd := &cobra.Command{
		Use:   "edges WORD",
		Short: "Show what precedes and follows a word",
		Args:  cobra.ExactArgs(1),
		Run:   runEdges,
	}

	RootCmd.AddCommand(wordsCmd, edgesCmd)
}

func runWords(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.SearchWords(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		exitErr("words", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}

func runEdges(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	tr, err := s.Neighbors(cmd.Context(), args[0])
	if errors.Is(err, store.ErrNotFound) {
		exitErr("edges", fmt.Errorf("%q has never been seen", args[0]))
	}
	if err != nil {
		exitErr("edges", err)
	}

	b, _ := json.MarshalIndent(tr, "", "  ")
	fmt.Println(string(b))
}
