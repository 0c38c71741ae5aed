package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/arloliu/go-fps/fps"
)

// SensorConfig selects and tunes the sensor session.
type SensorConfig struct {
	Port             string        `mapstructure:"port"`
	Baud             int           `mapstructure:"baud"`
	ReadTimeout      time.Duration `mapstructure:"readTimeout"`
	Settle           time.Duration `mapstructure:"settle"`
	BaudChangeSettle time.Duration `mapstructure:"baudChangeSettle"`
	MaxDrainRounds   int           `mapstructure:"maxDrainRounds"`
	CommandTimeout   time.Duration `mapstructure:"commandTimeout"`
	Simulate         bool          `mapstructure:"simulate"`
}

// LumberjackConfig configures the rotating log file.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig configures log level and outputs.
type LoggingConfig struct {
	Level string           `mapstructure:"level"`
	File  LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

// Config is the fpsctl configuration.
type Config struct {
	Sensor  SensorConfig  `mapstructure:"sensor"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// newFlagSet declares the command line flags. Flags override the config file
// and FPS_* environment variables.
func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("fpsctl", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to a YAML/TOML/JSON config file")
	fs.StringP("port", "p", fps.DefaultPortName, "serial device of the sensor")
	fs.IntP("baud", "b", fps.DefaultBaudRate, "baud rate the sensor currently listens at")
	fs.Duration("settle", fps.DefaultSettleInterval, "wait between a request and its response poll")
	fs.Duration("timeout", 30*time.Second, "timeout of a single shell command")
	fs.Bool("simulate", false, "talk to an in-memory sensor instead of a serial port")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("log-file", "", "also write logs to this rotating file")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")

	return fs
}

var flagKeys = map[string]string{
	"port":         "sensor.port",
	"baud":         "sensor.baud",
	"settle":       "sensor.settle",
	"timeout":      "sensor.commandTimeout",
	"simulate":     "sensor.simulate",
	"log-level":    "logging.level",
	"log-file":     "logging.file.filename",
	"metrics-addr": "metrics.addr",
}

// loadConfig merges defaults, the config file, the environment and fs.
func loadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix("FPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Sensor.CommandTimeout <= 0 {
		return nil, errors.New("sensor.commandTimeout must be positive")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sensor.port", fps.DefaultPortName)
	v.SetDefault("sensor.baud", fps.DefaultBaudRate)
	v.SetDefault("sensor.readTimeout", fps.DefaultReadTimeout)
	v.SetDefault("sensor.settle", fps.DefaultSettleInterval)
	v.SetDefault("sensor.baudChangeSettle", fps.DefaultBaudChangeSettle)
	v.SetDefault("sensor.maxDrainRounds", fps.DefaultMaxDrainRounds)
	v.SetDefault("sensor.commandTimeout", "30s")
	v.SetDefault("sensor.simulate", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 28)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.path", "/metrics")
}

// sensorOptions converts the sensor section into fps options.
func (c SensorConfig) sensorOptions() []fps.Option {
	return []fps.Option{
		fps.WithBaudRate(c.Baud),
		fps.WithReadTimeout(c.ReadTimeout),
		fps.WithSettleInterval(c.Settle),
		fps.WithBaudChangeSettle(c.BaudChangeSettle),
		fps.WithMaxDrainRounds(c.MaxDrainRounds),
	}
}
