package main

import (
	"context"
	"fmt"
	"os"
	"time"

	machinery "github.com/RichardKnop/machinery/v1"
	machineryConfig "github.com/RichardKnop/machinery/v1/config"
	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/auth"
	"github.com/blankon/sitetrack/internal/config"
	"github.com/blankon/sitetrack/internal/export"
	"github.com/blankon/sitetrack/internal/monitoring"
	"github.com/blankon/sitetrack/internal/notification"
	"github.com/blankon/sitetrack/internal/storage"
	"github.com/blankon/sitetrack/internal/tracker/repository"
	"github.com/blankon/sitetrack/internal/tracker/usecase"
)

// deps holds everything built from the config, closed in reverse order.
type deps struct {
	db        *storage.DB
	fileBlobs *repository.FileBlobStore
	server    *machinery.Server
	registry  *monitoring.Registry
	webhook   *notification.Webhook
	limiter   *auth.RedisLimiter
	tracker   *usecase.TrackerUsecase
	admin     *usecase.AdminUsecase
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func newMachineryServer(cfg config.SitetrackConfig) (*machinery.Server, error) {
	return machinery.NewServer(
		&machineryConfig.Config{
			Broker:          cfg.Redis,
			ResultBackend:   cfg.Redis,
			DefaultQueue:    cfg.Worker.Queue,
			ResultsExpireIn: 24 * 3600,
		},
	)
}

func buildDeps(ctx context.Context, cfg config.SitetrackConfig, logger *zap.Logger) (*deps, error) {
	if err := os.MkdirAll(cfg.Storage.Workdir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workdir: %w", err)
	}

	d := &deps{}
	var err error
	d.db, err = storage.NewDB(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	var blobs usecase.BlobStore
	switch cfg.Blob.Backend {
	case "minio":
		blobs, err = repository.NewMinioBlobStore(ctx, repository.MinioOptions{
			Endpoint:  cfg.Blob.Minio.Endpoint,
			AccessKey: cfg.Blob.Minio.AccessKey,
			SecretKey: cfg.Blob.Minio.SecretKey,
			Bucket:    cfg.Blob.Minio.Bucket,
			UseSSL:    cfg.Blob.Minio.UseSSL,
			PublicURL: cfg.Blob.Minio.PublicURL,
		})
		if err != nil {
			d.close(logger)
			return nil, err
		}
	default:
		d.fileBlobs = repository.NewFileBlobStore(cfg.Storage.Workdir, cfg.Server.BaseURL)
		if err := os.MkdirAll(d.fileBlobs.UploadsDir(), 0755); err != nil {
			d.close(logger)
			return nil, fmt.Errorf("failed to create uploads dir: %w", err)
		}
		blobs = d.fileBlobs
	}

	var queue usecase.ExportQueue
	if cfg.Redis != "" && cfg.Worker.Enabled {
		d.server, err = newMachineryServer(cfg)
		if err != nil {
			logger.Warn("could not create machinery server, async export disabled", zap.Error(err))
		} else {
			queue = repository.NewMachineryExportQueue(d.server)
		}
	}

	if cfg.Redis != "" {
		ttl := 3 * time.Duration(cfg.Worker.HeartbeatInterval) * time.Second
		d.registry, err = monitoring.NewRegistry(ctx, cfg.Redis, ttl, logger)
		if err != nil {
			logger.Warn("monitoring registry unavailable", zap.Error(err))
		}

		lockout := time.Duration(cfg.Admin.LockoutSeconds) * time.Second
		d.limiter, err = auth.NewRedisLimiter(cfg.Redis, cfg.Admin.MaxAttempts, lockout)
		if err != nil {
			logger.Warn("login limiter unavailable, failed logins are not throttled", zap.Error(err))
		}
	}

	loc, _ := cfg.Location()
	fetcher := export.NewHTTPFetcher(time.Duration(cfg.Export.FetchTimeout)*time.Second, cfg.Export.Retries(), logger)
	sheets := &export.XLSXWriter{
		Fetcher: fetcher,
		Scale:   cfg.Export.ImageScale,
		OffsetX: cfg.Export.ImageOffsetX,
		OffsetY: cfg.Export.ImageOffsetY,
		Logger:  logger,
	}

	d.webhook = notification.NewWebhook(cfg.Notification.WebhookURL, logger)
	issues := storage.NewIssueStore(d.db)
	progress := storage.NewProgressStore(d.db)
	d.tracker = usecase.NewTrackerUsecase(
		issues,
		progress,
		blobs,
		d.webhook,
		sheets,
		queue,
		usecase.TrackerOptions{
			Roster:        cfg.Roster,
			Location:      loc,
			MaxPhotoBytes: cfg.Server.MaxPhotoBytes,
		},
		logger,
	)

	var limiter auth.Limiter
	if d.limiter != nil {
		limiter = d.limiter
	}
	ttl, _ := cfg.Admin.TTL()
	authenticator, err := auth.NewAuthenticator(cfg.Admin.SecretHash, cfg.Admin.TokenKey, ttl, limiter)
	if err != nil {
		d.close(logger)
		return nil, err
	}
	d.admin = usecase.NewAdminUsecase(issues, progress, authenticator, logger)

	return d, nil
}

func (d *deps) close(logger *zap.Logger) {
	if d.webhook != nil {
		d.webhook.Wait()
	}
	if d.limiter != nil {
		d.limiter.Close()
	}
	if d.registry != nil {
		d.registry.Close()
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}
}

func instanceInfo(instanceType monitoring.InstanceType, workdir string, concurrency int, active func() int, start time.Time) func() monitoring.InstanceInfo {
	id := monitoring.GenerateInstanceID(instanceType)
	return func() monitoring.InstanceInfo {
		metrics := monitoring.CollectMetrics(workdir)
		info := monitoring.InstanceInfo{
			InstanceID:   id,
			InstanceType: instanceType,
			Hostname:     monitoring.GetHostname(),
			PID:          os.Getpid(),
			StartTime:    start,
			Concurrency:  concurrency,
			MemoryUsage:  metrics.MemoryUsage,
			MemoryTotal:  metrics.MemoryTotal,
			DiskUsage:    metrics.DiskUsage,
			DiskTotal:    metrics.DiskTotal,
			Version:      version,
		}
		if active != nil {
			info.ActiveTasks = active()
		}
		return info
	}
}
