package throttle

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Endpoint categories with a built-in configuration.
const (
	CategoryAuth       = "auth"
	CategoryProfile    = "profile"
	CategoryContact    = "contact"
	CategoryAPI        = "api"
	CategoryNewsletter = "newsletter"
)

// maxBlockDuration caps every block, base or escalated. It matches
// DefaultRetention, so the idle sweep cannot evict an entry that is still
// blocked.
const maxBlockDuration = time.Hour

// Config is the throttling policy for one endpoint category.
type Config struct {
	MaxRequests        int64         // max calls allowed per window
	Window             time.Duration // window length, anchored at its first call
	BlockDuration      time.Duration // base penalty once the limit is exceeded
	ExponentialBackoff bool          // double the penalty for a key already blocked
}

var (
	// AuthConfig is strict to slow down credential guessing.
	AuthConfig = Config{MaxRequests: 5, Window: time.Minute, BlockDuration: 5 * time.Minute, ExponentialBackoff: true}
	// ProfileConfig throttles profile updates moderately.
	ProfileConfig = Config{MaxRequests: 10, Window: time.Minute, BlockDuration: time.Minute}
	// ContactConfig keeps the contact form from being used for spam.
	ContactConfig = Config{MaxRequests: 3, Window: 5 * time.Minute, BlockDuration: 15 * time.Minute, ExponentialBackoff: true}
	// APIConfig applies to general API calls and unknown categories.
	APIConfig = Config{MaxRequests: 60, Window: time.Minute, BlockDuration: time.Minute}
	// NewsletterConfig allows two signups per hour.
	NewsletterConfig = Config{MaxRequests: 2, Window: time.Hour, BlockDuration: time.Hour}
)

// DefaultConfigs returns a fresh copy of the built-in category table.
func DefaultConfigs() map[string]Config {
	return map[string]Config{
		CategoryAuth:       AuthConfig,
		CategoryProfile:    ProfileConfig,
		CategoryContact:    ContactConfig,
		CategoryAPI:        APIConfig,
		CategoryNewsletter: NewsletterConfig,
	}
}

type configFile struct {
	Categories map[string]categoryConfig `yaml:"categories"`
}

type categoryConfig struct {
	MaxRequests        *int64 `yaml:"max_requests"`
	Window             string `yaml:"window"`
	BlockDuration      string `yaml:"block_duration"`
	ExponentialBackoff *bool  `yaml:"exponential_backoff"`
}

// LoadConfigs reads a YAML category table and merges it over DefaultConfigs.
// Fields left out of a category keep the built-in value, or zero for a new
// category. Durations use Go duration syntax ("90s", "15m").
//
//	categories:
//	  contact:
//	    max_requests: 5
//	    block_duration: 30m
func LoadConfigs(r io.Reader) (map[string]Config, error) {
	var f configFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("throttle: decode config: %w", err)
	}

	out := DefaultConfigs()
	for name, cc := range f.Categories {
		cfg := out[name]
		if cc.MaxRequests != nil {
			cfg.MaxRequests = *cc.MaxRequests
		}
		if cc.Window != "" {
			d, err := time.ParseDuration(cc.Window)
			if err != nil {
				return nil, fmt.Errorf("throttle: category %q: window: %w", name, err)
			}
			cfg.Window = d
		}
		if cc.BlockDuration != "" {
			d, err := time.ParseDuration(cc.BlockDuration)
			if err != nil {
				return nil, fmt.Errorf("throttle: category %q: block_duration: %w", name, err)
			}
			cfg.BlockDuration = d
		}
		if cc.ExponentialBackoff != nil {
			cfg.ExponentialBackoff = *cc.ExponentialBackoff
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("throttle: category %q: %w", name, err)
		}
		out[name] = cfg
	}
	return out, nil
}

// Validate reports whether c can be used for admission checks.
// MaxRequests may be zero, which blocks the first call of every window.
func (c Config) Validate() error {
	switch {
	case c.MaxRequests < 0:
		return fmt.Errorf("max_requests must not be negative, got %d", c.MaxRequests)
	case c.Window <= 0:
		return fmt.Errorf("window must be positive, got %s", c.Window)
	case c.BlockDuration <= 0:
		return fmt.Errorf("block_duration must be positive, got %s", c.BlockDuration)
	case c.BlockDuration > maxBlockDuration:
		return fmt.Errorf("block_duration must not exceed %s, got %s", maxBlockDuration, c.BlockDuration)
	}
	return nil
}
