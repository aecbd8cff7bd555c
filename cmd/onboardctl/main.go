// Command onboardctl runs maintenance tasks against the onboarding store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

var timeout time.Duration

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:           "onboardctl",
	Short:         "Maintenance tool for the onboarding backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(questionsCmd)
}

func main() {
	logging.Setup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is what a command needs from the configured deployment.
type env struct {
	cfg   *config.Config
	store store.Store
	set   *questions.Set
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	registry, err := questions.LoadFromFile(cfg.QuestionSetPath)
	if err != nil {
		return nil, err
	}
	set, err := registry.Get(cfg.QuestionSetVersion)
	if err != nil {
		return nil, err
	}
	st, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, store: st, set: set}, nil
}

func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.store.Close(ctx)
}

// withEnv runs fn with a configured store and the command timeout.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(ctx, e)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
