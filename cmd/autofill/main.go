// Package main provides a command line front end to species autofill.
//
// Usage:
//
//	go run ./cmd/autofill match "Solanum lycopersicum"
//	go run ./cmd/autofill resolve 2930137
//	go run ./cmd/autofill cache stats
//	go run ./cmd/autofill cache clear
//
// Configuration comes from the environment and .env, like the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seedcatalog/seedcatalog-server/internal/config"
	"github.com/seedcatalog/seedcatalog-server/internal/domain"
	"github.com/seedcatalog/seedcatalog-server/internal/gbif"
	"github.com/seedcatalog/seedcatalog-server/internal/logger"
	"github.com/seedcatalog/seedcatalog-server/internal/service"
	"github.com/seedcatalog/seedcatalog-server/internal/store"
	"github.com/seedcatalog/seedcatalog-server/internal/store/sqlite"
)

type options struct {
	envFile string
	json    bool
	verbose bool
}

// app holds what every subcommand needs. close releases it all.
type app struct {
	autofill *service.AutofillService
	cache    store.CacheBackend
	close    func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "autofill",
		Short:        "Look up plant species in GBIF through the autofill cache",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to .env file")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "Print JSON instead of a table")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or empty the lookup cache",
	}
	cacheCmd.AddCommand(cacheStatsCommand(opts), cacheClearCommand(opts))

	root.AddCommand(matchCommand(opts), resolveCommand(opts), cacheCmd)
	return root
}

func matchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "match <name>",
		Short: "Find species candidates for a plant name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.close()

			candidates := rt.autofill.FindCandidates(cmd.Context(), strings.Join(args, " "))
			if opts.json {
				return printJSON(cmd.OutOrStdout(), candidates)
			}
			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no candidates")
				return nil
			}
			printCandidates(cmd.OutOrStdout(), candidates)
			return nil
		},
	}
}

func resolveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <usageKey>",
		Short: "Resolve a usage key into names, taxonomy and attributions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usageKey, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || usageKey <= 0 {
				return fmt.Errorf("usage key must be a positive integer, got %q", args[0])
			}

			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.close()

			result := rt.autofill.ResolveSelection(cmd.Context(), domain.SpeciesMatchCandidate{UsageKey: usageKey, Confidence: 1})
			if result == nil {
				return fmt.Errorf("species %d is unavailable right now", usageKey)
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), result)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Accepted name\t%s\n", result.AcceptedScientificName)
			fmt.Fprintf(w, "Family\t%s\n", result.Taxonomy.Family)
			fmt.Fprintf(w, "Genus\t%s\n", result.Taxonomy.Genus)
			fmt.Fprintf(w, "Common names\t%s\n", strings.Join(result.VernacularNames, ", "))
			fmt.Fprintf(w, "Source\t%s\n", result.SourceURL)
			return w.Flush()
		},
	}
}

func cacheStatsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count cached lookups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.close()

			stats, err := rt.cache.LookupCacheStats(cmd.Context())
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "name matches:    %d\nspecies details: %d\n", stats.NameMatches, stats.SpeciesDetails)
			return nil
		},
	}
}

func cacheClearCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached lookup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.cache.ClearLookupCache(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "lookup cache cleared")
			return nil
		},
	}
}

func setup(opts *options) (*app, error) {
	cfg, err := config.LoadFromEnv(opts.envFile)
	if err != nil {
		return nil, err
	}

	level := logger.ParseLevel(cfg.Logger.Level)
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Level:       level,
		Environment: cfg.App.Environment,
	})

	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sqlite.Open(cfg.Data.DatabasePath(), log.Component("sqlite"))
	if err != nil {
		return nil, err
	}
	closers := []func() error{db.Close}

	var backend store.CacheBackend = db
	if cfg.Cache.Backend == config.CacheBackendBadger {
		badgerStore, err := store.New(cfg.Data.BadgerPath(), log.Component("badger"))
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		backend = badgerStore
		closers = append(closers, badgerStore.Close)
	}

	client := gbif.New(gbif.Config{
		BaseURL:        cfg.GBIF.BaseURL,
		ConnectTimeout: cfg.GBIF.ConnectTimeout,
		ReadTimeout:    cfg.GBIF.ReadTimeout,
		RPS:            cfg.GBIF.RateLimitRPS,
		Burst:          cfg.GBIF.RateLimitBurst,
		UserAgent:      cfg.GBIF.UserAgent,
	}, log.Component("gbif"))

	svc := service.NewAutofillService(client, backend, db, cfg.Cache.CandidateTTL, log.Component("autofill"))

	return &app{
		autofill: svc,
		cache:    backend,
		close: func() {
			client.Close()
			for i := len(closers) - 1; i >= 0; i-- {
				if err := closers[i](); err != nil {
					log.Warn("close failed", "error", err)
				}
			}
		},
	}, nil
}

func printCandidates(out io.Writer, candidates []domain.SpeciesMatchCandidate) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USAGE KEY\tSCIENTIFIC NAME\tRANK\tSTATUS\tFAMILY\tCONFIDENCE")
	for _, c := range candidates {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.2f\n",
			c.UsageKey, c.ScientificName, c.Rank, c.TaxonomicStatus, c.Taxonomy.Family, c.Confidence)
	}
	_ = w.Flush()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
