package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/botman/internal/settings"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Settings management",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Run:   runConfigList,
	}
	getCmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		Run:   runConfigGet,
	}
	setCmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store one setting",
		Args:  cobra.ExactArgs(2),
		Run:   runConfigSet,
	}
	loadCmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Store every setting of a YAML file",
		Args:  cobra.ExactArgs(1),
		Run:   runConfigLoad,
	}
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the settings as YAML",
		Run:   runConfigDump,
	}

	configCmd.AddCommand(listCmd, getCmd, setCmd, loadCmd, dumpCmd)
	RootCmd.AddCommand(configCmd)
}

func loadSettings(cmd *cobra.Command) (*settings.Settings, func()) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	st, err := settings.Load(cmd.Context(), s)
	if err != nil {
		exitErr("load settings", err)
	}
	return st, func() { s.Close() }
}

func runConfigList(cmd *cobra.Command, args []string) {
	st, done := loadSettings(cmd)
	defer done()

	b, _ := json.MarshalIndent(st.All(), "", "  ")
	fmt.Println(string(b))
}

func runConfigGet(cmd *cobra.Command, args []string) {
	st, done := loadSettings(cmd)
	defer done()

	v, ok := st.Get(args[0])
	if !ok {
		exitErr("get", fmt.Errorf("setting %q is not set", args[0]))
	}
	fmt.Println(v)
}

func runConfigSet(cmd *cobra.Command, args []string) {
	st, done := loadSettings(cmd)
	defer done()

	if err := st.Set(cmd.Context(), args[0], args[1]); err != nil {
		exitErr("set", err)
	}
	// Surface values the bot would ignore.
	if _, err := st.ReplyRate(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if _, err := st.HighlightMultiplier(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"key":%q}`+"\n", args[0])
}

func runConfigLoad(cmd *cobra.Command, args []string) {
	st, done := loadSettings(cmd)
	defer done()

	f, err := os.Open(args[0])
	if err != nil {
		exitErr("open", err)
	}
	defer f.Close()

	n, err := st.LoadYAML(cmd.Context(), f)
	if err != nil {
		exitErr("load", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"loaded":%d}`+"\n", n)
}

func runConfigDump(cmd *cobra.Command, args []string) {
	st, done := loadSettings(cmd)
	defer done()

	if err := st.DumpYAML(cmd.OutOrStdout()); err != nil {
		exitErr("dump", err)
	}
}
