// Package main provides the grant-sentinel CLI: one-shot crawls and the
// resident watch mode.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"GrantSentinel/internal/config"
	"GrantSentinel/internal/model"
	"GrantSentinel/internal/notifier"
	"GrantSentinel/internal/recorder"
	"GrantSentinel/internal/scheduler"
)

var (
	flagConfig     string
	flagDryRun     bool
	flagExplain    bool
	flagWatch      bool
	flagTestNotify string
)

var rootCmd = &cobra.Command{
	Use:   "grant-sentinel",
	Short: "SBIR/STTR funding opportunity crawler",
	Long:  "grant-sentinel crawls federal SBIR/STTR funding sources, scores opportunities against configured keywords, and delivers new matches to Discord.",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to config.yaml")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print matches to stdout instead of notifying")
	rootCmd.Flags().BoolVar(&flagExplain, "explain", false, "print the match decision for every opportunity")
	rootCmd.Flags().BoolVar(&flagWatch, "watch", false, "stay resident and crawl on the cron schedule")
	rootCmd.Flags().StringVar(&flagTestNotify, "test-notify", "", "send a test Discord message and exit")
	rootCmd.Flags().Lookup("test-notify").NoOptDefVal = "grant-sentinel test message"
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Path(flagConfig))
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	if flagDryRun {
		cfg.Notify.DryRun = true
	}

	if cmd.Flags().Changed("test-notify") {
		if err := notifier.New(&cfg.Notify).Test(flagTestNotify); err != nil {
			return err
		}
		fmt.Println("Discord test message sent.")
		return nil
	}

	rec, err := recorder.New(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		rec = &recorder.NoopRecorder{}
	}
	defer rec.Close()

	runner, err := scheduler.NewRunner(cfg, rec, flagExplain)
	if err != nil {
		log.Fatalf("[FATAL] init runner: %v", err)
	}

	if flagWatch {
		return watch(cfg, runner)
	}

	summary, err := runner.Run()
	if err != nil {
		return err
	}
	report(summary, cfg.ShowWarnings)
	return nil
}

func watch(cfg *config.Config, runner *scheduler.Runner) error {
	sched := scheduler.NewScheduler(runner)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing crawl now")
		go sched.RunNow()
	}

	log.Printf("[INFO] grant-sentinel watching on schedule %q. Press Ctrl+C to stop.", cfg.Schedule.Cron)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}

func report(summary *model.RunSummary, showWarnings bool) {
	if len(summary.Errors) > 0 && showWarnings {
		fmt.Fprintln(os.Stderr, "Warnings:")
		for _, msg := range summary.Errors {
			fmt.Fprintf(os.Stderr, "- %s\n", msg)
		}
	}

	for _, evaluation := range summary.Evaluations {
		printEvaluation(evaluation)
	}

	sources := make([]string, 0, len(summary.Sources))
	for _, src := range summary.Sources {
		sources = append(sources, src.String())
	}
	fmt.Printf("SBIR crawl complete: opportunities=%d matches=%d new=%d skipped=%d sources=%s\n",
		summary.TotalOpportunities, summary.Matched, summary.NewMatches,
		summary.Skipped, strings.Join(sources, ","))
}

func printEvaluation(evaluation model.Evaluation) {
	opp := evaluation.Opportunity
	reason := evaluation.Reason
	if reason == "" {
		reason = "matched"
	}
	payload := map[string]any{
		"id":               opp.ID,
		"source":           opp.Source,
		"title":            opp.Title(),
		"agency":           opp.Agency,
		"open_date":        opp.OpenDate,
		"close_date":       opp.CloseDate,
		"score":            evaluation.Score,
		"matched_keywords": evaluation.MatchedKeywords,
		"reason":           reason,
		"url":              opp.URL,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Printf("[WARN] marshal evaluation: %v", err)
		return
	}
	fmt.Println(string(data))
}
