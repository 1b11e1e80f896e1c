package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relex/gotils/logger"

	"github.com/relex/logcore/config"
	"github.com/relex/logcore/defs"
	"github.com/relex/logcore/level"
	"github.com/relex/logcore/manager"
	"github.com/relex/logcore/metrics"
)

type runCommandState struct {
	Config      string `help:"Configuration file path"`
	MetricsAddr string `help:"The listener address to expose Prometheus metrics and debug information"`
	TestMode    bool   `help:"Use test mode config: small pool and hazard tables, short flush and shutdown timeouts"`
}

var runCmd runCommandState = runCommandState{
	Config:      "config.yml",
	MetricsAddr: ":9335",
	TestMode:    false,
}

func (cmd *runCommandState) run(args []string) {
	if cmd.TestMode {
		defs.EnableTestMode()
	}

	cfg, err := config.Load(cmd.Config)
	if err != nil {
		logger.Fatalf("failed to load config %s: %s", cmd.Config, err.Error())
	}

	// Sizing knobs must land in defs before Initialize builds the pool/hazard domain; both read
	// defs.PoolInitialChunkSize/defs.HazardMaxPointers exactly once, at construction time.
	if cfg.RecordPoolInitialChunk > 0 {
		defs.PoolInitialChunkSize = cfg.RecordPoolInitialChunk
	}
	if cfg.HazardTableSize > 0 {
		defs.HazardMaxPointers = cfg.HazardTableSize
	}

	m := manager.Instance()
	if err := m.Initialize(); err != nil {
		logger.Fatalf("failed to initialize manager: %s", err.Error())
	}

	if cfg.DefaultLevel != "" {
		if lvl, ok := level.ParseLevel(cfg.DefaultLevel); ok {
			m.SetDefaultLevel(lvl)
		}
	}

	if cfg.Workers > 0 {
		if err := m.SetThreadPoolSize(cfg.Workers); err != nil {
			logger.Errorf("failed to set thread pool size to %d: %s", cfg.Workers, err.Error())
		}
	}

	format, err := cfg.BuildFormat()
	if err != nil {
		logger.Fatalf("failed to build default format: %s", err.Error())
	}
	m.SetDefaultFormat(format)

	sinks, err := cfg.BuildSinks()
	if err != nil {
		logger.Fatalf("failed to build sinks: %s", err.Error())
	}
	for _, s := range sinks {
		if err := m.RegisterSink(s); err != nil {
			logger.Errorf("failed to register sink: %s", err.Error())
		}
	}

	collectors := metrics.NewCollectors()
	m.SetMetrics(collectors)
	stopSampler := make(chan struct{})
	collectors.StartSampler(m.RecordPool(), m.DispatchPool(), m.HazardDomain(), time.Second, stopSampler)

	stopFlusher := make(chan struct{})
	go runPeriodicFlush(m, defs.SinkFlushInterval, stopFlusher)

	msrv := metrics.LaunchListener(cmd.MetricsAddr)

	logger.Infof("logcore running, config=%s metrics=%s", cmd.Config, cmd.MetricsAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Infof("shutting down")
	close(stopFlusher)
	close(stopSampler)
	if err := m.Shutdown(true, 10*time.Second); err != nil {
		logger.Errorf("error shutting down manager: %s", err.Error())
	}
	if err := msrv.Shutdown(context.Background()); err != nil {
		logger.Errorf("error shutting down metrics listener: %s", err.Error())
	}
}

// runPeriodicFlush asks every logger to flush its sinks every interval, until stop is closed.
// Covers sinks that buffer internally (e.g. os.File's page cache) between caller-driven flushes.
func runPeriodicFlush(m *manager.Manager, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.FlushAll()
		}
	}
}
