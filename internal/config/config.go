package config

import (
	"github.com/spf13/viper"
)

// Settings are process-level knobs read from the environment. They never
// change while the prober runs; the monitored URL set lives in Monitor and is
// reloaded every cycle.
type Settings struct {
	SnapshotPath   string // JSON snapshot written each cycle and served by the viewer
	LogDir         string // operational (zap) logs directory
	LogLevel       string // debug | info | warn | error
	ViewerAddr     string // viewer bind address, e.g. "127.0.0.1:8080" or ":8080" (Docker)
	ViewerRateLim  int    // viewer requests per minute per client IP; 0 disables
	MaxConcurrency int    // cap on in-flight probes per cycle; 0 means no cap
	NoColor        bool   // disable console coloring
}

const envPrefix = "PROBER"

func FromEnv() Settings {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("snapshot_path", "data.json")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("log_level", "info")
	v.SetDefault("viewer_addr", "127.0.0.1:8080")
	v.SetDefault("viewer_rate_limit", 120)
	v.SetDefault("max_concurrency", 0)
	v.SetDefault("no_color", false)

	maxConc := max(v.GetInt("max_concurrency"), 0)
	rateLim := max(v.GetInt("viewer_rate_limit"), 0)

	return Settings{
		SnapshotPath:   v.GetString("snapshot_path"),
		LogDir:         v.GetString("log_dir"),
		LogLevel:       v.GetString("log_level"),
		ViewerAddr:     v.GetString("viewer_addr"),
		ViewerRateLim:  rateLim,
		MaxConcurrency: maxConc,
		NoColor:        v.GetBool("no_color"),
	}
}
