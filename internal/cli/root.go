// Package cli implements the botman CLI commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/botman/internal/bot"
	"github.com/rcliao/botman/internal/dice"
	"github.com/rcliao/botman/internal/engine"
	"github.com/rcliao/botman/internal/reply"
	"github.com/rcliao/botman/internal/settings"
	"github.com/rcliao/botman/internal/store"
)

var (
	dbPath  string
	verbose bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "botman",
	Short: "Markov chain chat bot",
	Long:  "Learns which words follow which from chat lines and makes up new sentences from them. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $BOTMAN_DB or ~/.botman/botman.db)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("BOTMAN_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".botman", "botman.db")
}

var errNoDB = errors.New(`database not found, run "botman init" first`)

// openStore opens an existing database.
func openStore() (*store.SQLiteStore, error) {
	path := getDBPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, errNoDB)
	}
	return store.NewSQLiteStore(path)
}

func newLogger() *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// runtime is a fully wired bot.
type runtime struct {
	store     *store.SQLiteStore
	settings  *settings.Settings
	policy    *reply.Policy
	engine    *engine.Engine
	responder *bot.Responder
	logger    *zap.Logger
}

func openRuntime(ctx context.Context) (*runtime, error) {
	s, err := openStore()
	if err != nil {
		return nil, err
	}
	logger := newLogger()

	st, err := settings.Load(ctx, s)
	if err != nil {
		s.Close()
		return nil, err
	}
	src := dice.System()
	policy := reply.New(st, src, logger)
	eng := engine.New(s, policy, src, logger)
	return &runtime{
		store:     s,
		settings:  st,
		policy:    policy,
		engine:    eng,
		responder: bot.New(eng, policy, st, logger),
		logger:    logger,
	}, nil
}

func (r *runtime) Close() error {
	r.logger.Sync()
	return r.store.Close()
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
