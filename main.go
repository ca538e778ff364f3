package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/pflag"

	"github.com/example/masterybot/internal/api"
	"github.com/example/masterybot/internal/bot"
	"github.com/example/masterybot/internal/cache"
	"github.com/example/masterybot/internal/config"
	"github.com/example/masterybot/internal/database"
	"github.com/example/masterybot/internal/engine"
	"github.com/example/masterybot/internal/excel"
	"github.com/example/masterybot/internal/logger"
	"github.com/example/masterybot/internal/personalization"
	"github.com/example/masterybot/internal/scheduler"
)

const usage = `usage: masterybot <command> [flags]

commands:
  serve             run the HTTP API, reminder scheduler and Telegram bot (default)
  import-concepts   load concepts for a learner from an .xlsx or .csv file
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return serve(args)
	case "import-concepts":
		return importConcepts(args)
	case "help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *sqlx.DB
	engine   *engine.Engine
	learners *database.LearnerRepository
	closers  []func() error
}

func newApp(envFile string) (*app, error) {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode, cfg.LogHashSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a := &app{cfg: cfg, log: log, db: db, closers: []func() error{db.Close}}

	var paramCache cache.ParamCache = cache.NewMemoryParamCache(cfg.ParamCacheTTL)
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisParamCache(cfg.RedisAddr, cfg.ParamCacheTTL, log)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		paramCache = rc
		a.closers = append(a.closers, rc.Close)
	}

	opts := engine.Options{
		Records:       database.NewRecordRepository(db),
		Profiles:      database.NewProfileRepository(db),
		Sessions:      database.NewSessionRepository(db),
		RemoteTimeout: cfg.PersonalizationTimeout,
		Cache:         paramCache,
		WriteRetries:  cfg.WriteRetries,
		Log:           log,
	}
	// only set when configured; a typed nil client would look remote-enabled
	if cfg.PersonalizationURL != "" {
		opts.Remote = personalization.New(cfg.PersonalizationURL, cfg.PersonalizationTimeout, log)
		log.Info("remote personalization enabled", "url", cfg.PersonalizationURL)
	}
	a.engine = engine.New(opts)
	a.learners = database.NewLearnerRepository(db)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.log.Sync()
}

func serve(args []string) error {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	envFile := flags.String("env-file", "", "optional .env file to load")
	addr := flags.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	noBot := flags.Bool("no-bot", false, "do not start the Telegram bot")
	if err := flags.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*envFile)
	if err != nil {
		return err
	}
	defer a.close()
	if *addr != "" {
		a.cfg.HTTPAddr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.LogMode == "prod" || a.cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           api.NewRouter(a.engine, a.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var notifier scheduler.Notifier
	if !*noBot && a.cfg.TelegramBotToken != "" {
		botCfg := bot.DefaultConfig()
		botCfg.Token = a.cfg.TelegramBotToken
		b, err := bot.New(botCfg, a.learners, a.engine, a.log)
		if err != nil {
			return err
		}
		notifier = b
		go func() {
			if err := b.Start(ctx); err != nil {
				a.log.Error("bot stopped", "error", err)
			}
		}()
	} else {
		a.log.Info("telegram bot disabled, reminders will not be sent")
	}

	if notifier != nil {
		sched := scheduler.New(scheduler.Options{
			Learners:  a.learners,
			Summaries: a.engine,
			Notifier:  notifier,
			StartHour: a.cfg.NotificationStartHour,
			EndHour:   a.cfg.NotificationEndHour,
			Log:       a.log,
		})
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func importConcepts(args []string) error {
	flags := pflag.NewFlagSet("import-concepts", pflag.ContinueOnError)
	envFile := flags.String("env-file", "", "optional .env file to load")
	learnerID := flags.String("learner", "", "learner id to initialize concepts for")
	cfg := excel.DefaultImportConfig()
	flags.StringVar(&cfg.FilePath, "file", "", "path to the .xlsx or .csv file")
	flags.StringVar(&cfg.SheetName, "sheet", "", "sheet name (default: first sheet)")
	flags.IntVar(&cfg.StartRow, "start-row", cfg.StartRow, "first data row, 1-based")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *learnerID == "" || cfg.FilePath == "" {
		return fmt.Errorf("--learner and --file are required")
	}

	a, err := newApp(*envFile)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := excel.ImportConcepts(context.Background(), a.engine, *learnerID, cfg)
	if res != nil {
		for _, c := range res.Courses {
			fmt.Printf("%s: %d rows, %d concepts in course\n", c.CourseID, c.Submitted, c.TotalConcepts)
		}
		for _, e := range res.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
		fmt.Printf("processed %d rows, skipped %d\n", res.TotalProcessed, res.Skipped)
	}
	return err
}
