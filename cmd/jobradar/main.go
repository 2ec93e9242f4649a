// jobradar runs one collection pass: harvest every enabled source, dedupe,
// filter, rank, store, then write and optionally mail the daily report.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jobradar-engine/internal/adapter"
	"jobradar-engine/internal/adapter/boards"
	"jobradar-engine/internal/adapter/linkareer"
	"jobradar-engine/internal/adapter/remoteok"
	"jobradar-engine/internal/config"
	"jobradar-engine/internal/dedup"
	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/filter"
	"jobradar-engine/internal/harvest"
	"jobradar-engine/internal/health"
	"jobradar-engine/internal/httpx"
	"jobradar-engine/internal/mailer"
	"jobradar-engine/internal/rank"
	"jobradar-engine/internal/report"
	"jobradar-engine/internal/secrets"
	"jobradar-engine/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "config file path (default: <data_dir>/config.yml, bootstrapped from config/config.yml)")
	setPassword := flag.Bool("set-smtp-password", false, "store the SMTP app password in the OS keychain and exit")
	deletePassword := flag.Bool("delete-smtp-password", false, "remove the stored SMTP app password and exit")
	flag.Parse()

	config.LoadDotenv()

	dataDir := os.Getenv("JOBRADAR_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	path := *cfgPath
	if path == "" {
		var err error
		path, err = config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
		if err != nil {
			log.Fatalf("config bootstrap failed: %v", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load failed path=%s err=%v", path, err)
	}
	config.ApplyEnvOverrides(&cfg)
	cfg, validation := config.NormalizeAndValidate(cfg)
	for _, w := range validation.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !validation.OK() {
		for _, e := range validation.Errors {
			log.Printf("[config] error: %s", e)
		}
		os.Exit(1)
	}

	if *setPassword || *deletePassword {
		os.Exit(manageSMTPPassword(cfg.Email, *setPassword))
	}

	setupLogging(cfg.Paths.LogFile)
	log.Printf("[jobradar] started config=%s", path)

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("[jobradar] run failed: %v", err)
	}
	log.Printf("[jobradar] finished")
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := store.Open(cfg.Paths.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	tracker := health.Load(health.Config{
		Enabled:            cfg.Collection.SourceHealth.Enabled,
		Path:               cfg.Paths.HealthFile,
		ZeroYieldThreshold: cfg.Collection.SourceHealth.ZeroYieldThreshold,
		TransientThreshold: cfg.Collection.SourceHealth.TransientThreshold,
	})

	limiter := httpx.NewHostLimiter(cfg.Network.RatePerHost, 2)
	dumper := &httpx.Dumper{Root: cfg.Paths.DebugDir, Enabled: cfg.Network.DebugDumpEnabled}
	client := httpx.NewClient(limiter, dumper)

	runner := &harvest.Runner{
		Client:   client,
		Health:   tracker,
		Sources:  descriptors(cfg),
		Workers:  cfg.Collection.Workers,
		MaxItems: cfg.Collection.MaxItemsPerSource,
		Timeout:  cfg.NetworkTimeout(),
		Retries:  cfg.Network.Retry,
	}

	results := runner.Run(ctx)
	collected := harvest.Postings(results)
	log.Printf("[jobradar] collected total=%d", len(collected))
	logSourceBreakdown("collected", results)

	deduped := dedup.Deduplicate(collected, cfg.Dedup)
	log.Printf("[jobradar] deduplicated total=%d", len(deduped))

	if deleted, err := db.PruneClosed(ctx, deduped); err != nil {
		log.Printf("[jobradar] prune closed failed err=%v", err)
	} else if deleted > 0 {
		log.Printf("[jobradar] pruned closed jobs deleted=%d", deleted)
	}

	filtered := filter.Apply(deduped, cfg.RuleFilter)
	log.Printf("[jobradar] rule filtered total=%d", len(filtered))

	assessed := rank.Assess(filtered)
	if err := db.UpsertAssessments(ctx, assessed); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	data := report.Build(assessed, cfg.Report, time.Now())
	if err := report.Write(cfg.Paths.ReportOutput, data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	sent := false
	if cfg.Email.SkipIfEmpty && len(assessed) == 0 {
		log.Printf("[jobradar] email skipped, nothing to report")
	} else {
		html, err := report.Render(data)
		if err != nil {
			return err
		}
		subject := fmt.Sprintf("[jobradar] 로봇SW 채용 리포트 %s", time.Now().Format("2006-01-02"))
		sent, err = mailer.Send(cfg.Email, subject, html)
		if err != nil {
			log.Printf("[jobradar] email failed err=%v", err)
		}
	}
	log.Printf("[jobradar] report written path=%s email_sent=%v", cfg.Paths.ReportOutput, sent)

	if n, err := db.CountJobs(ctx); err == nil {
		log.Printf("[jobradar] stored rows=%d", n)
	}
	return nil
}

// descriptors wires the configured crawlers to their adapters. Unknown
// names are logged and skipped so a config typo costs one source, not the
// run.
func descriptors(cfg config.Config) []adapter.Descriptor {
	var out []adapter.Descriptor
	for name, c := range cfg.Crawlers {
		d := adapter.Descriptor{
			Name:    name,
			Tier:    c.Tier,
			Enabled: c.Enabled,
			Options: adapter.Options(c.Options),
		}
		switch name {
		case "remoteok":
			d.Crawler = remoteok.New()
		case "boards":
			a := boards.New()
			d.Lister, d.Detailer = a, a
		case "linkareer":
			a := linkareer.New()
			d.Lister, d.Detailer = a, a
		default:
			log.Printf("[jobradar] unknown crawler %q, skipping", name)
			continue
		}
		out = append(out, d)
	}
	return out
}

// manageSMTPPassword services the keychain maintenance flags. The password
// is read from stdin so it never lands in shell history or process lists.
func manageSMTPPassword(cfg mailer.Config, set bool) int {
	if cfg.Sender == "" {
		log.Printf("[jobradar] email.sender must be configured before managing the SMTP password")
		return 1
	}
	account := secrets.SMTPAccount(cfg.Sender, cfg.Host())

	if !set {
		if err := secrets.DeleteSMTPPassword(account); err != nil {
			log.Printf("[jobradar] keychain delete failed account=%s err=%v", account, err)
			return 1
		}
		log.Printf("[jobradar] keychain entry removed account=%s", account)
		return 0
	}

	fmt.Fprintf(os.Stderr, "SMTP password for %s: ", account)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		log.Printf("[jobradar] password read failed err=%v", err)
		return 1
	}
	if err := secrets.SetSMTPPassword(account, strings.TrimSpace(line)); err != nil {
		log.Printf("[jobradar] keychain set failed account=%s err=%v", account, err)
		return 1
	}
	log.Printf("[jobradar] keychain entry stored account=%s", account)
	return 0
}

func logSourceBreakdown(stage string, results []domain.SourceResult) {
	for _, res := range results {
		switch {
		case res.Skipped:
			log.Printf("[jobradar] %s source=%s skipped=breaker", stage, res.Source)
		case res.Err != nil:
			log.Printf("[jobradar] %s source=%s failed err=%v", stage, res.Source, res.Err)
		default:
			log.Printf("[jobradar] %s source=%s count=%d", stage, res.Source, len(res.Postings))
		}
	}
}

func setupLogging(logFile string) {
	if logFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		log.Printf("[jobradar] log dir create failed err=%v", err)
		return
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("[jobradar] log file open failed err=%v", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}
