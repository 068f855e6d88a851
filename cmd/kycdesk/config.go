package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// consoleConfig is read from ~/.kycdesk.yaml, KYCDESK_* variables and flags,
// flags winning.
type consoleConfig struct {
	Server   string        `mapstructure:"server"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Reviewer string        `mapstructure:"reviewer"`
	Lang     string        `mapstructure:"lang"`
	LogLevel string        `mapstructure:"log_level"`
	Session  struct {
		Store   string `mapstructure:"store"`
		Path    string `mapstructure:"path"`
		Profile string `mapstructure:"profile"`
	} `mapstructure:"session"`
	Redis struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"redis"`
}

// commandFlags are per-invocation options that never come from config.
type commandFlags struct {
	password string
	status   string
	comment  string
	reason   string
	quick    int64
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kycdesk-session.json"
	}
	return filepath.Join(home, ".kycdesk", "session.json")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("lang", "en")
	v.SetDefault("log_level", "warn")
	v.SetDefault("session.store", "file")
	v.SetDefault("session.path", defaultSessionPath())
	v.SetDefault("session.profile", "default")
	v.SetDefault("reviewer", "")
	v.SetDefault("redis.url", "")
}

// loadConfig parses args and returns the merged config, the per-command
// flags and the positional arguments.
func loadConfig(args []string) (*consoleConfig, *commandFlags, []string, error) {
	fs := pflag.NewFlagSet("kycdesk", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configFile := fs.String("config", "", "config file (default ~/.kycdesk.yaml)")
	fs.String("server", "", "backend base URL")
	fs.Duration("timeout", 0, "request timeout")
	fs.String("reviewer", "", "reviewer name recorded on decisions")
	fs.String("lang", "", "message language (en or id)")
	fs.String("session-store", "", "session storage: file or redis")
	fs.String("profile", "", "session profile name")

	var cf commandFlags
	fs.StringVar(&cf.password, "password", "", "password for login and register")
	fs.StringVar(&cf.status, "status", "", "filter applications by status")
	fs.StringVar(&cf.comment, "comment", "", "reviewer comment")
	fs.StringVar(&cf.reason, "reason", "", "rejection reason")
	fs.Int64Var(&cf.quick, "quick", 0, "customer id for a quick agent assessment")

	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, err
	}

	v := viper.New()
	setDefaults(v)
	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".kycdesk")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && *configFile != "" {
			return nil, nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("KYCDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		"server":          "server",
		"timeout":         "timeout",
		"reviewer":        "reviewer",
		"lang":            "lang",
		"session.store":   "session-store",
		"session.profile": "profile",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, nil, nil, err
		}
	}

	var cfg consoleConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("decode config: %w", err)
	}
	if cf.password == "" {
		cf.password = os.Getenv("KYCDESK_PASSWORD")
	}
	return &cfg, &cf, fs.Args(), nil
}
