// Command sigtak-bridge relays Signal messenger chat markers to a TAK
// endpoint as Cursor-on-Target events.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/sigtak/bridge/internal/bridge"
	"github.com/sigtak/bridge/internal/config"
	"github.com/sigtak/bridge/internal/cot"
	"github.com/sigtak/bridge/internal/daemon"
	"github.com/sigtak/bridge/internal/geo"
	"github.com/sigtak/bridge/internal/handlers"
	"github.com/sigtak/bridge/internal/influx"
	"github.com/sigtak/bridge/internal/logging"
	"github.com/sigtak/bridge/internal/monitor"
	intOtel "github.com/sigtak/bridge/internal/otel"
	"github.com/sigtak/bridge/internal/parser"
	"github.com/sigtak/bridge/internal/queue"
	"github.com/sigtak/bridge/internal/signal"
	"github.com/sigtak/bridge/internal/tak"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   string = "0.1.0"
	BuildDate string = "unknown"
)

func main() {
	configDir := flag.String("config", ".", "directory containing sigtak_bridge.cfg.json")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sigtak-bridge %s (built %s)\n", Version, BuildDate)
		return
	}

	if err := run(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, "sigtak-bridge:", err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	// Console-only logging until the config tells us where the log file
	// lives.
	slogManager := logging.NewSlogManager()
	slogManager.Setup(nil, "info", nil)
	logger := slogManager.Logger()

	if err := config.Load(configDir); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Info("Loaded config", "dir", configDir)

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		logger.Error("Failed to create logs directory, console only", "error", err, "path", logsDir)
	}

	logFilePath := filepath.Join(logsDir,
		fmt.Sprintf("sigtak_bridge.%s.log", time.Now().Format("20060102_150405")))
	// Typed as io.Writer so a failed open stays a true nil for Setup.
	var logFile io.Writer
	if f, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666); err != nil {
		logger.Error("Failed to create log file, console only", "error", err, "path", logFilePath)
	} else {
		defer f.Close()
		logFile = f
	}

	// OTel provider (after the log file exists, it receives OTel output)
	var otelProvider *intOtel.Provider
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		provider, err := intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			otelProvider = provider
			logger.Info("OTel provider initialized", "file", logFilePath, "endpoint", otelCfg.Endpoint)
		}
	}

	var extraHandlers []slog.Handler
	graylogCfg := config.GetGraylogConfig()
	if graylogCfg.Enabled {
		gelfHandler, err := logging.NewGELFHandler(graylogCfg.Address, slog.LevelInfo)
		if err != nil {
			logger.Error("Failed to connect GELF handler", "error", err, "address", graylogCfg.Address)
		} else {
			extraHandlers = append(extraHandlers, gelfHandler)
			logger.Info("Shipping logs to Graylog", "address", graylogCfg.Address)
		}
	}

	// Re-setup logging with file output, optional OTel and GELF
	var otelLogProvider *sdklog.LoggerProvider
	if otelProvider != nil {
		otelLogProvider = otelProvider.LoggerProvider()
	}
	slogManager.Setup(logFile, config.GetString("logLevel"), otelLogProvider, extraHandlers...)
	logger = slogManager.Logger()
	logger.Info("sigtak-bridge starting", "version", Version, "buildDate", BuildDate)

	// Pipeline wiring
	geoCfg := config.GetGeoConfig()
	projector, err := geo.NewProjector(geoCfg.InputEPSG)
	if err != nil {
		return fmt.Errorf("configuring input projection: %w", err)
	}

	takCfg := config.GetTAKConfig()
	q := queue.New[[]byte]()

	handler, err := handlers.NewService(handlers.Dependencies{
		Parser: parser.New(projector),
		Queue:  q,
		Logger: logger,
		EncodeOpts: []cot.Option{
			cot.WithStale(takCfg.Stale()),
			cot.WithCircularError(takCfg.CircularError),
			cot.WithLinearError(takCfg.LinearError),
		},
	})
	if err != nil {
		return fmt.Errorf("creating handler service: %w", err)
	}

	sigCfg := config.GetSignalConfig()
	client, err := signal.NewClient(sigCfg.DaemonHost, sigCfg.DaemonPort, logger)
	if err != nil {
		return fmt.Errorf("creating daemon client: %w", err)
	}

	sender, err := tak.NewSender(takCfg.CotURL, q, logger)
	if err != nil {
		return fmt.Errorf("creating CoT sender: %w", err)
	}

	// Stamp live bridge state on every log record
	slogManager.IsDaemonConnected = client.Connected
	slogManager.QueueDepth = q.Len

	// Optional stats reporting
	var influxManager *influx.Manager
	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		influxManager = influx.NewManager(influxCfg, zlog, filepath.Join(logsDir, "bridge_stats.gz"))
		if err := influxManager.Connect(); err != nil {
			logger.Warn("InfluxDB stats reporting unavailable", "error", err)
			influxManager = nil
		} else {
			defer influxManager.Close()
		}
	}

	monitorService := monitor.NewService(monitor.Dependencies{
		Handler:    handler,
		Queue:      q,
		Client:     client,
		Logger:     logger,
		Influx:     influxManager,
		StatusPath: filepath.Join(logsDir, "status.json"),
		Interval:   influxCfg.ReportInterval,
	})
	monitorService.Start()
	defer monitorService.Stop()

	var daemonCommand string
	if sigCfg.ManageDaemon {
		if sigCfg.PhoneNumber == "" {
			return errors.New("signal.phoneNumber is required when signal.manageDaemon is true")
		}
		daemonCommand = daemon.Command(sigCfg.PhoneNumber)
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := bridge.Run(ctx, bridge.Dependencies{
		DaemonCommand: daemonCommand,
		Client:        client,
		Handler:       handler,
		Sender:        sender,
		Logger:        logger,
	})

	if otelProvider != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("OTel shutdown failed", "error", err)
		}
		cancel()
	}

	if errors.Is(runErr, context.Canceled) {
		logger.Info("Shutdown complete")
		return nil
	}
	return runErr
}
