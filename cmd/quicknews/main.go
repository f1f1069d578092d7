// QuickNews aggregates English and Hindi RSS feeds, answers keyword
// questions against them and counts clicks on tracked links.
//
// Usage:
//
//	quicknews serve          # run the HTTP API
//	quicknews fetch          # fetch every feed once and report
//	quicknews ask <words>    # rank the current headlines for a question
//	quicknews stats          # print the click ledger
//	quicknews summary        # send today's click summary
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/RobinCoderZhao/quicknews/internal/api"
	"github.com/RobinCoderZhao/quicknews/internal/feeds"
	"github.com/RobinCoderZhao/quicknews/internal/ledger"
	"github.com/RobinCoderZhao/quicknews/internal/newsdesk/config"
	"github.com/RobinCoderZhao/quicknews/internal/rank"
	"github.com/RobinCoderZhao/quicknews/pkg/htmltext"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var cfgPath string
	var cfg config.Config

	rootCmd := &cobra.Command{
		Use:           "quicknews",
		Short:         "RSS headline aggregator with click tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			setupLogger(cfg, stderr)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "config file")

	cfgFn := func() config.Config { return cfg }
	rootCmd.AddCommand(serveCmd(cfgFn))
	rootCmd.AddCommand(fetchCmd(cfgFn))
	rootCmd.AddCommand(askCmd(cfgFn))
	rootCmd.AddCommand(statsCmd(cfgFn))
	rootCmd.AddCommand(summaryCmd(cfgFn))
	rootCmd.AddCommand(hashPasswordCmd())
	rootCmd.AddCommand(tokenCmd(cfgFn))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func serveCmd(cfg func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg())
		},
	}
}

func runServe(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.newScheduler()
	if err != nil {
		return err
	}
	sched.Start(ctx)

	opts := api.OptionsFromConfig(cfg)
	opts.Started = time.Now()
	server := api.NewServer(a.cache, a.tracker, a.store, a.summary, opts)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "port", cfg.Server.Port, "feeds", len(cfg.Feeds.URLs), "ledger", cfg.Ledger.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := withTimeout(cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	sched.Stop()
	return nil
}

func fetchCmd(cfg func() config.Config) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch every feed once and report per source",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg())
			if err != nil {
				return err
			}
			defer a.Close()

			results := a.registry.FetchAll(cmd.Context())
			if outputJSON {
				return printJSON(feeds.Merge(results))
			}
			for _, res := range results {
				if res.Err != nil {
					fmt.Printf("FAIL %-60s %v\n", res.Source, res.Err)
					continue
				}
				fmt.Printf("ok   %-60s %3d items  %s\n", res.Source, len(res.Items), res.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&outputJSON, "json", false, "print the merged item list as JSON")
	return cmd
}

func askCmd(cfg func() config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Rank current headlines against a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			a, err := newApp(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer a.Close()

			if limit <= 0 {
				limit = c.News.AskLimit
			}
			question := strings.Join(args, " ")
			for i, it := range rank.Rank(question, a.cache.Items(cmd.Context()), limit) {
				fmt.Printf("%d. %s\n   %s | %s\n", i+1, it.Title, it.Source, it.Link)
				if it.Description != "" {
					fmt.Printf("   %s\n", htmltext.Truncate(it.Description, 160))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of results (default news.ask_limit)")
	return cmd
}

func statsCmd(cfg func() config.Config) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the click ledger, or one day's totals with --date",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ledger.Open(cmd.Context(), cfg().Ledger)
			if err != nil {
				return err
			}
			defer store.Close()

			l := store.Read(cmd.Context())
			if date == "" {
				return printJSON(l)
			}
			fmt.Printf("%s  total=%d  unique=%d\n", date, l.Total(date), l.Unique(date))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "ISO date (YYYY-MM-DD)")
	return cmd
}

func summaryCmd(cfg func() config.Config) *cobra.Command {
	var date string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Send the daily click summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg())
			if err != nil {
				return err
			}
			defer a.Close()

			if date == "" {
				date = a.summary.Today()
			}
			if dryRun {
				fmt.Println(a.summary.Render(a.summary.Compute(cmd.Context(), date)).Body)
				return nil
			}
			sum, err := a.summary.SendFor(cmd.Context(), date)
			if err != nil {
				return err
			}
			fmt.Printf("sent summary for %s via %v: total=%d unique=%d\n", sum.Date, a.notifier.Channels(), sum.Total, sum.Unique)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "ISO date (default today, UTC)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the report instead of sending it")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for admin.password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := api.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}
}

func tokenCmd(cfg func() config.Config) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			admin := cfg().Admin
			if !admin.Enabled() {
				return fmt.Errorf("admin.jwt_secret is not configured")
			}
			if ttl <= 0 {
				ttl = admin.TokenTTL
			}
			token, err := api.IssueToken([]byte(admin.JWTSecret), admin.Username, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default admin.token_ttl)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quicknews %s\n", version)
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
