package configwatcher

import "github.com/bft-labs/rrship/pkg/rrship"

// WithConfigWatcher returns an rrship Option that reloads the config file
// at cfg.Path while the recorder runs.
//
// Usage:
//
//	rec, err := rrship.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path:          "/home/me/.rrship/config.toml",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) rrship.Option {
	return rrship.WithPlugin(New(cfg))
}

// WithDefaultConfigWatcher watches ~/.rrship/config.toml.
func WithDefaultConfigWatcher() rrship.Option {
	return WithConfigWatcher(DefaultConfig())
}
