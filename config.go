package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort       = 8080
	defaultStaticDir  = "static"
	defaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"
	defaultIconURL    = "https://openweathermap.org/img/wn/"
	defaultTimeout    = 15 * time.Second

	userAgent = "weather-proxy/1.0"
)

var errMissingAPIKey = errors.New("OPENWEATHER_API_KEY is not set")

type config struct {
	APIKey           string        `yaml:"api_key"`
	Port             int           `yaml:"port"`
	StaticDir        string        `yaml:"static_dir"`
	WeatherURL       string        `yaml:"weather_url"`
	IconBaseURL      string        `yaml:"icon_base_url"`
	Units            string        `yaml:"units"`
	Lang             string        `yaml:"lang"`
	WeatherHTTPCache bool          `yaml:"weather_http_cache"`
	UpstreamTimeout  time.Duration `yaml:"upstream_timeout"`
	MetricsPath      string        `yaml:"metrics_path"`
	Debug            bool          `yaml:"debug"`
}

func defaultConfig() config {
	return config{
		Port:            defaultPort,
		StaticDir:       defaultStaticDir,
		WeatherURL:      defaultWeatherURL,
		IconBaseURL:     defaultIconURL,
		Units:           "metric",
		Lang:            "pt",
		UpstreamTimeout: defaultTimeout,
		MetricsPath:     "/metrics",
	}
}

// loadConfig layers defaults, the optional YAML file, the environment and
// explicitly set flags, in that order.
func loadConfig(args []string, getenv func(string) string) (config, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("weather-proxy", flag.ContinueOnError)
	path := fs.String("config", "", "Path to a YAML configuration file")
	flags := cfg
	fs.IntVar(&flags.Port, "port", cfg.Port, "Listening port")
	fs.StringVar(&flags.StaticDir, "static-dir", cfg.StaticDir, "Directory holding the front-end")
	fs.StringVar(&flags.WeatherURL, "weather-url", cfg.WeatherURL, "Weather API endpoint")
	fs.StringVar(&flags.IconBaseURL, "icon-url", cfg.IconBaseURL, "Weather icon base URL")
	fs.StringVar(&flags.Units, "units", cfg.Units, "Unit system requested from the weather API")
	fs.StringVar(&flags.Lang, "lang", cfg.Lang, "Language requested from the weather API")
	fs.BoolVar(&flags.WeatherHTTPCache, "weather-http-cache", cfg.WeatherHTTPCache, "Cache weather responses per upstream Cache-Control")
	fs.DurationVar(&flags.UpstreamTimeout, "upstream-timeout", cfg.UpstreamTimeout, "Overall timeout of an upstream request")
	fs.StringVar(&flags.MetricsPath, "metrics-path", cfg.MetricsPath, "Path of the Prometheus endpoint")
	fs.BoolVar(&flags.Debug, "debug", cfg.Debug, "sets log level to debug")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *path != "" {
		data, err := os.ReadFile(*path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %v", err)
		}
	}

	if v := getenv("OPENWEATHER_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PORT %q: %v", v, err)
		}
		cfg.Port = port
	}
	if v := getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = flags.Port
		case "static-dir":
			cfg.StaticDir = flags.StaticDir
		case "weather-url":
			cfg.WeatherURL = flags.WeatherURL
		case "icon-url":
			cfg.IconBaseURL = flags.IconBaseURL
		case "units":
			cfg.Units = flags.Units
		case "lang":
			cfg.Lang = flags.Lang
		case "weather-http-cache":
			cfg.WeatherHTTPCache = flags.WeatherHTTPCache
		case "upstream-timeout":
			cfg.UpstreamTimeout = flags.UpstreamTimeout
		case "metrics-path":
			cfg.MetricsPath = flags.MetricsPath
		case "debug":
			cfg.Debug = flags.Debug
		}
	})

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return cfg, errMissingAPIKey
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.UpstreamTimeout <= 0 {
		return cfg, fmt.Errorf("invalid upstream timeout %s", cfg.UpstreamTimeout)
	}
	return cfg, nil
}
