package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/auth"
	"github.com/blankon/sitetrack/internal/config"
	"github.com/blankon/sitetrack/internal/monitoring"
	"github.com/blankon/sitetrack/internal/tracker/endpoint"
	"github.com/blankon/sitetrack/internal/tracker/tasks"
)

var version string

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app := cli.NewApp()
	app.Name = "sitetrack"
	app.Usage = "site issue escalation and MEP progress tracker"
	app.Author = "BlankOn Developer"
	app.Email = "blankon-dev@googlegroups.com"
	app.Version = version

	app.Commands = []cli.Command{
		{
			Name:    "serve",
			Aliases: []string{"s"},
			Usage:   "Run the HTTP API",
			Action: func(c *cli.Context) error {
				return withDeps(serve)
			},
		},
		{
			Name:    "worker",
			Aliases: []string{"w"},
			Usage:   "Run the export worker",
			Action: func(c *cli.Context) error {
				return withDeps(work)
			},
		},
		{
			Name:  "hash-secret",
			Usage: "Hash an admin secret for admin.secret_hash",
			Action: func(c *cli.Context) error {
				return hashSecret()
			},
		},
	}

	app.Action = func(c *cli.Context) error {
		return withDeps(serve)
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func withDeps(run func(ctx context.Context, cfg config.SitetrackConfig, d *deps, logger *zap.Logger) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("couldn't load config : %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.close(logger)

	return run(ctx, cfg, d, logger)
}

func serve(ctx context.Context, cfg config.SitetrackConfig, d *deps, logger *zap.Logger) error {
	var instances endpoint.InstanceLister
	if d.registry != nil {
		instances = d.registry
		go d.registry.Heartbeat(ctx, time.Duration(cfg.Worker.HeartbeatInterval)*time.Second,
			instanceInfo(monitoring.InstanceTypeServer, cfg.Storage.Workdir, 0, nil, time.Now()))
	}

	mux := http.NewServeMux()
	endpoint.NewTrackerHTTPEndpoint(d.tracker, d.admin, instances, endpoint.SiteInfo{
		Title:    cfg.UI.Title,
		Theme:    cfg.UI.Theme,
		Layout:   cfg.UI.Layout,
		Timezone: d.tracker.Options.Location.String(),
		Roster:   cfg.Roster,
	}, version, logger).Routes(mux)

	if d.fileBlobs != nil {
		uploadsFs := http.FileServer(http.Dir(d.fileBlobs.UploadsDir()))
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", uploadsFs))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("sitetrack now live", zap.String("address", cfg.Server.Address), zap.String("version", version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func work(ctx context.Context, cfg config.SitetrackConfig, d *deps, logger *zap.Logger) error {
	if !cfg.Worker.Enabled {
		return errors.New("export worker is disabled, set worker.enabled in the config")
	}
	if d.server == nil {
		return errors.New("export worker needs redis and a machinery server")
	}

	exporter := tasks.NewExporter(d.tracker, 10*time.Minute, logger)
	if err := exporter.Register(d.server); err != nil {
		return fmt.Errorf("could not register export task: %w", err)
	}

	if d.registry != nil {
		go d.registry.Heartbeat(ctx, time.Duration(cfg.Worker.HeartbeatInterval)*time.Second,
			instanceInfo(monitoring.InstanceTypeWorker, cfg.Storage.Workdir, cfg.Worker.Concurrency, exporter.Active, time.Now()))
	}

	worker := d.server.NewWorker("sitetrack-export", cfg.Worker.Concurrency)
	errCh := make(chan error, 1)
	worker.LaunchAsync(errCh)
	logger.Info("export worker started", zap.String("queue", cfg.Worker.Queue), zap.Int("concurrency", cfg.Worker.Concurrency))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		worker.Quit()
		return nil
	}
}

func hashSecret() error {
	prompt := promptui.Prompt{
		Label: "Admin secret",
		Mask:  '*',
		Validate: func(s string) error {
			if len(s) < 8 {
				return errors.New("use at least 8 characters")
			}
			return nil
		},
	}
	secret, err := prompt.Run()
	if err != nil {
		return err
	}

	confirm := promptui.Prompt{Label: "Repeat secret", Mask: '*'}
	again, err := confirm.Run()
	if err != nil {
		return err
	}
	if again != secret {
		return errors.New("secrets do not match")
	}

	hash, err := auth.HashSecret(secret)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
