package main

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/auth"
	"github.com/blankon/sitetrack/internal/config"
	"github.com/blankon/sitetrack/internal/monitoring"
	"github.com/blankon/sitetrack/internal/tracker/entity"
	"github.com/blankon/sitetrack/internal/tracker/usecase"
)

func TestNewLogger(t *testing.T) {
	for _, cfg := range []config.LogConfig{
		{Level: "debug", Format: "console"},
		{Level: "warn", Format: "json"},
	} {
		logger, err := newLogger(cfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}

func TestBuildDeps_FileBackend(t *testing.T) {
	hash, err := auth.HashSecret("site-admin-secret")
	require.NoError(t, err)

	cfg := config.SitetrackConfig{
		Server:  config.ServerConfig{Address: ":0", BaseURL: "http://localhost:8080"},
		Storage: config.StorageConfig{Workdir: t.TempDir()},
		Admin:   config.AdminConfig{SecretHash: hash, TokenKey: "0123456789abcdef0123"},
		Export:  config.ExportConfig{ImageScale: 0.2, FetchTimeout: 5},
		Roster:  []string{"Anan"},
	}
	cfg.Storage.DBPath = cfg.Storage.Workdir + "/sitetrack.db"

	d, err := buildDeps(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer d.close(zap.NewNop())

	assert.NotNil(t, d.fileBlobs)
	assert.Nil(t, d.server)
	assert.Nil(t, d.registry)
	assert.Equal(t, []string{"Anan"}, d.tracker.Options.Roster)

	_, err = os.Stat(d.fileBlobs.UploadsDir())
	assert.NoError(t, err)
}

func TestBuildDeps_WorkerDisabledSkipsQueue(t *testing.T) {
	hash, err := auth.HashSecret("site-admin-secret")
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := config.SitetrackConfig{
		Server:  config.ServerConfig{Address: ":0", BaseURL: "http://localhost:8080"},
		Storage: config.StorageConfig{Workdir: t.TempDir()},
		Admin:   config.AdminConfig{SecretHash: hash, TokenKey: "0123456789abcdef0123"},
		Redis:   "redis://" + addr + "/0",
		Worker:  config.WorkerConfig{Enabled: false, Queue: "sitetrack", HeartbeatInterval: 30},
	}
	cfg.Storage.DBPath = cfg.Storage.Workdir + "/sitetrack.db"

	d, err := buildDeps(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer d.close(zap.NewNop())

	assert.Nil(t, d.server)
	assert.Nil(t, d.tracker.Exports)
	_, err = d.tracker.EnqueueExport(context.Background(), entity.ExportRequest{Kind: entity.KindIssue})
	assert.Equal(t, usecase.ErrExportDisabled, err)

	err = work(context.Background(), cfg, d, zap.NewNop())
	assert.EqualError(t, err, "export worker is disabled, set worker.enabled in the config")
}

func TestInstanceInfo(t *testing.T) {
	start := time.Now()
	build := instanceInfo(monitoring.InstanceTypeWorker, t.TempDir(), 3, func() int { return 2 }, start)

	info := build()
	assert.Equal(t, monitoring.InstanceTypeWorker, info.InstanceType)
	assert.Equal(t, 3, info.Concurrency)
	assert.Equal(t, 2, info.ActiveTasks)
	assert.Equal(t, os.Getpid(), info.PID)
	assert.Equal(t, start, info.StartTime)
}
