// Command j1939server receives CAN frames over TCP and decodes them.
//
// Usage:
//
//	j1939server [-config server.yaml] [-host 0.0.0.0] [-port 8080]
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	j1939parser "github.com/anand2532/SAE-J1939-parser"
	"github.com/anand2532/SAE-J1939-parser/config"
	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path of the YAML configuration file")
	host := flag.String("host", "", "address to listen on, overrides the configuration")
	port := flag.Uint("port", 0, "port to listen on, overrides the configuration")
	flag.Parse()

	logger := internal.NewLogger("cmd", "j1939server")

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load configuration", err)
			os.Exit(1)
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.TCP.Host = *host
		case "port":
			cfg.TCP.Port = uint16(*port)
		}
	})

	level, err := internal.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid log level", err)
		os.Exit(1)
	}
	internal.SetLogLevel(level)

	ctx, cancelCtx := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelCtx()

	if cfg.Telemetry.Enabled {
		providers, err := telemetry.Init(ctx, cfg.Telemetry)
		if err != nil {
			logger.Error("failed to init telemetry", err)
			os.Exit(1)
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := providers.Close(shutdownCtx); err != nil {
				logger.Error("failed to close telemetry", err)
			}
		}()
	}

	srv := j1939parser.NewServer(cfg)
	if err := srv.Init(ctx); err != nil {
		logger.Error("failed to init server", err)
		os.Exit(1)
	}

	srv.Run(ctx)
	logger.Info("server started", "address", srv.Addr().String(),
		"vin", cfg.Vehicle.VIN, "make", cfg.Vehicle.Make, "model", cfg.Vehicle.Model)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := srv.Close(); err != nil {
		logger.Error("failed to close server", err)
	}
}
