// Command fpsctl is an interactive shell and one-shot CLI for a GT-511C3
// fingerprint sensor.
//
//	fpsctl --port /dev/ttyUSB0              # interactive shell
//	fpsctl --port /dev/ttyUSB0 led on       # run one command and exit
//	fpsctl --simulate                       # in-memory sensor, no hardware
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

	"github.com/spf13/pflag"

	"github.com/arloliu/go-fps/fps"
	"github.com/arloliu/go-fps/logger"
	"github.com/arloliu/go-fps/metrics"
	"github.com/arloliu/go-fps/simulator"
	"github.com/arloliu/go-fps/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "fpsctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}

	log, closer := newLogger(cfg.Logging, os.Stderr)
	if closer != nil {
		defer closer.Close()
	}
	logger.SetLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if _, err := a.sensor.Close(context.WithoutCancel(ctx)); err != nil {
			log.Debug("close sensor", "error", err)
		}
	}()

	if cfg.Metrics.Addr != "" {
		srv := startMetrics(cfg.Metrics, a.sensor, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	sh := newShell(ctx, a)
	if fs.NArg() > 0 {
		return sh.Process(fs.Args()...)
	}

	sh.Println("GT-511C3 shell on", a.sensor.PortName(), "- type help for commands")
	sh.Run()

	return nil
}

// newApp opens the sensor, or a simulated one. A sensor that cannot be
// opened is still returned so commands report the failure.
func newApp(ctx context.Context, cfg *Config, log logger.Logger) (*app, error) {
	opts := append(cfg.Sensor.sensorOptions(), fps.WithLogger(log))

	a := &app{
		timeout: cfg.Sensor.CommandTimeout,
		ports:   transport.ListPortDetails,
	}
	if cfg.Sensor.Simulate {
		a.sim = simulator.New(simulator.WithBaudRate(cfg.Sensor.Baud), simulator.WithAutoRelease())
		opts = append(opts, fps.WithOpener(a.sim.Opener()))
	}

	sensorCfg, err := fps.NewConfig(cfg.Sensor.Port, opts...)
	if err != nil {
		return nil, err
	}

	a.sensor, err = fps.NewSensor(ctx, sensorCfg)
	if err != nil {
		log.Warn("sensor not connected", "port", cfg.Sensor.Port, "error", err)
	}

	return a, nil
}

func startMetrics(cfg MetricsConfig, sensor *fps.Sensor, log logger.Logger) *http.Server {
	reg := metrics.NewRegistry()
	reg.MustRegister(metrics.NewCollector(sensor))

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler(reg))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "addr", cfg.Addr, "error", err)
		}
	}()
	log.Info("serving metrics", "addr", cfg.Addr, "path", cfg.Path)

	return srv
}
