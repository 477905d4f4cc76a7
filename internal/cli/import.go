package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/botman/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge a JSON snapshot",
		Long:  "Merge a snapshot from stdin into the database. Transition counts are added; expects the format produced by export.",
		Run:   runImport,
	}

	cmd.Flags().Bool("settings", false, "Also overwrite settings from the snapshot")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	withSettings, _ := cmd.Flags().GetBool("settings")

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		exitErr("parse json", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res, err := s.Import(cmd.Context(), &snap, withSettings)
	if err != nil {
		exitErr("import", err)
	}

	b, _ := json.Marshal(res)
	fmt.Println(string(b))
}
