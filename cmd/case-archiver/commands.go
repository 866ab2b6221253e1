package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hochfrequenz/case-archiver/internal/archive"
	"github.com/hochfrequenz/case-archiver/internal/archiver"
	"github.com/hochfrequenz/case-archiver/internal/caseexport"
	"github.com/hochfrequenz/case-archiver/internal/config"
	"github.com/hochfrequenz/case-archiver/internal/domain"
	"github.com/hochfrequenz/case-archiver/internal/history"
	"github.com/hochfrequenz/case-archiver/internal/notify"
	"github.com/hochfrequenz/case-archiver/internal/property"
	"github.com/hochfrequenz/case-archiver/internal/runlock"
	"github.com/hochfrequenz/case-archiver/internal/scheduler"
	"github.com/hochfrequenz/case-archiver/web/api"
)

const dateLayout = "2006-01-02"

var (
	runStartDate  string
	runEndDate    string
	historyStatus string
	servePort     int
)

func init() {
	// run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch over a date window",
		RunE:  runBatch,
	}
	runCmd.Flags().StringVar(&runStartDate, "start", "", "first closing date (YYYY-MM-DD, default yesterday)")
	runCmd.Flags().StringVar(&runEndDate, "end", "", "last closing date (YYYY-MM-DD, default yesterday)")
	rootCmd.AddCommand(runCmd)

	// rerun command
	rerunCmd := &cobra.Command{
		Use:   "rerun RUN_ID",
		Short: "Rerun an unfinished batch over its original window",
		Args:  cobra.ExactArgs(1),
		RunE:  rerunBatch,
	}
	rootCmd.AddCommand(rerunCmd)

	// history command
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List batch runs",
		RunE:  runHistory,
	}
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "filter by status (completed, not_completed)")
	rootCmd.AddCommand(historyCmd)

	// attempts command
	attemptsCmd := &cobra.Command{
		Use:   "attempts RUN_ID",
		Short: "List the archive attempts of a batch run",
		Args:  cobra.ExactArgs(1),
		RunE:  runAttempts,
	}
	rootCmd.AddCommand(attemptsCmd)

	// serve command
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduler and the web API",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

// buildService wires the archival service from configuration
func buildService(cfg *config.Config, log *zap.Logger) (*archiver.Service, *history.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.General.DatabasePath), 0o755); err != nil {
		return nil, nil, err
	}
	store, err := history.New(cfg.General.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	notifier := notify.NewEmailNotifier(cfg.Messaging.URL, cfg.Messaging.SenderName, cfg.Messaging.SenderAddress)

	svc := archiver.New(
		store,
		caseexport.NewHTTPClient(cfg.Source.URL),
		archive.NewHTTPClient(cfg.Archive.URL),
		property.NewHTTPClient(cfg.Property.URL),
		notifier,
		runlock.New(),
		log,
		archiver.Options{
			ArchiveBaseURL:          cfg.Archive.PublicURL,
			GeoRecipient:            cfg.Messaging.GeoRecipient,
			ManualHandlingRecipient: cfg.Messaging.ManualHandlingRecipient,
		},
	)
	return svc, store, nil
}

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	yesterday := time.Now().AddDate(0, 0, -1).Format(dateLayout)
	if runStartDate == "" {
		runStartDate = yesterday
	}
	if runEndDate == "" {
		runEndDate = yesterday
	}

	start, err := time.Parse(dateLayout, runStartDate)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.Parse(dateLayout, runEndDate)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("--end must not precede --start")
	}

	svc, store, err := buildService(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := svc.RunBatch(context.Background(), start, end, domain.TriggerManual)
	if err != nil {
		if run != nil {
			fmt.Printf("Batch %s failed with status %s: %v\n", run.ID, run.Status, err)
			fmt.Printf("Recover with: case-archiver rerun %s\n", run.ID)
		}
		return err
	}

	fmt.Printf("Batch %s finished: %s\n", run.ID, run.Status)
	if run.Status == domain.StatusNotCompleted {
		fmt.Printf("Some documents failed. Recover with: case-archiver rerun %s\n", run.ID)
	}
	return nil
}

func rerunBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	svc, store, err := buildService(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := svc.RerunBatch(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Batch %s finished: %s\n", run.ID, run.Status)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.New(cfg.General.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(history.ListOptions{Status: domain.Status(historyStatus)})
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No batch runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWINDOW\tTRIGGER\tSTATUS\tCREATED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s..%s\t%s\t%s\t%s\n",
			run.ID,
			run.Start.Format(dateLayout), run.End.Format(dateLayout),
			run.Trigger, run.Status,
			run.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runAttempts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.New(cfg.General.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(args[0])
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("batch run %s not found", args[0])
	}

	attempts, err := store.AttemptsByRun(run.ID)
	if err != nil {
		return err
	}

	if len(attempts) == 0 {
		fmt.Println("No archive attempts")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOCUMENT\tCASE\tTYPE\tSTATUS\tARCHIVE ID")
	for _, a := range attempts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.DocumentID, a.CaseID, a.DocumentType, a.Status, a.ArchiveID)
	}
	return w.Flush()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	svc, store, err := buildService(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	port := cfg.Web.Port
	if servePort != 0 {
		port = servePort
	}
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, port)

	server := api.NewServer(store, svc, addr)
	svc.SetEvents(server.HandleArchiverEvent)

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(svc, cfg.Scheduler.Cron, log)
		if err != nil {
			return fmt.Errorf("invalid scheduler cron expression: %w", err)
		}
		go sched.Start(context.Background())
		defer sched.Stop()
	}

	log.Info("web API listening", zap.String("addr", addr))
	return server.Start()
}
