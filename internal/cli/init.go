package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/botman/internal/settings"
	"github.com/rcliao/botman/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a fresh database",
		Long:  "Create a fresh database, optionally seeding settings. An existing database is only replaced with --force.",
		Run:   runInit,
	}

	cmd.Flags().Bool("force", false, "Delete the existing database first")
	cmd.Flags().String("aliases", "", "Comma-separated names the bot answers to")
	cmd.Flags().Int("reply-rate", settings.DefaultReplyRate, "Percent chance of an unsolicited reply")
	cmd.Flags().Bool("highlight-learn", true, "Learn messages that mention the bot")
	cmd.Flags().String("command-sign", settings.DefaultCommandSign, "Prefix for bot commands")

	RootCmd.AddCommand(cmd)
}

func runInit(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")
	aliases, _ := cmd.Flags().GetString("aliases")
	rate, _ := cmd.Flags().GetInt("reply-rate")
	learn, _ := cmd.Flags().GetBool("highlight-learn")
	sign, _ := cmd.Flags().GetString("command-sign")

	if rate < 0 || rate > 100 {
		exitErr("init", fmt.Errorf("reply rate %d out of range [0,100]", rate))
	}

	path := getDBPath()
	if _, err := os.Stat(path); err == nil {
		if !force {
			exitErr("init", fmt.Errorf("%s already exists (use --force to replace it)", path))
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
				exitErr("remove old database", err)
			}
		}
	}

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		exitErr("create database", err)
	}
	defer s.Close()

	learnValue := "y"
	if !learn {
		learnValue = "n"
	}
	initial := map[string]string{
		settings.KeyReplyRate:      fmt.Sprint(rate),
		settings.KeyHighlightLearn: learnValue,
		settings.KeyCommandSign:    sign,
	}
	if aliases != "" {
		initial[settings.KeyAliases] = aliases
	}

	for k, v := range initial {
		if err := s.PutSetting(cmd.Context(), k, v); err != nil {
			exitErr("init settings", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"db":%q}`+"\n", path)
}
