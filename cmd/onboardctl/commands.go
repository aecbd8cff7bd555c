package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

var (
	dryRun        bool
	statsQuestion string
	setVersion    string
	questionsFile string
)

// migrateCmd rewrites legacy documents into the nested layout
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rewrite legacy onboarding documents into the nested answers layout",
	Long: `Finds stored onboarding documents without an "answers" field, extracts
their answers from the "responses" sub-document or the top level, validates
them against the active question set and rewrites valid ones in place.

Invalid documents are reported and left untouched.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			migrator, ok := e.store.(store.LegacyMigrator)
			if !ok {
				return errors.New("the " + e.cfg.StoreDriver + " store has no legacy documents to migrate")
			}
			report, err := services.NewMigrationService(migrator, e.set).Run(ctx, dryRun)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		})
	},
}

// statsCmd prints answer distributions
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print answer distributions for the active question set",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			stats, err := services.NewStatsService(e.store, e.set).Compute(ctx, statsQuestion)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		})
	},
}

// collectionsCmd lists collections or tables with their sizes
var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collections (or tables) and document counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			info, err := e.store.Describe(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "DRIVER\t%s\nDATABASE\t%s\n\n", info.Driver, info.Database)
			fmt.Fprintln(w, "NAME\tTYPE\tCOUNT")
			for _, c := range info.Collections {
				fmt.Fprintf(w, "%s\t%s\t%d\n", c.Name, c.Type, c.Count)
			}
			return w.Flush()
		})
	},
}

// questionsCmd prints question sets as YAML; it needs no store
var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print the configured question sets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := loadRegistry()
		if err != nil {
			return err
		}
		versions := registry.Versions()
		if setVersion != "" {
			versions = []string{setVersion}
		}

		sets := make([]*questions.Set, 0, len(versions))
		for _, v := range versions {
			s, err := registry.Get(v)
			if err != nil {
				return err
			}
			sets = append(sets, s)
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(map[string]any{"questionSets": sets})
	},
}

func loadRegistry() (*questions.Registry, error) {
	return questions.LoadFromFile(questionsFile)
}

func init() {
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	statsCmd.Flags().StringVar(&statsQuestion, "question", "", "Restrict to one question key")
	questionsCmd.Flags().StringVar(&setVersion, "version", "", "Print only this question set")
	questionsCmd.Flags().StringVar(&questionsFile, "file", "", "Question set YAML file (default: built-in sets)")
}
