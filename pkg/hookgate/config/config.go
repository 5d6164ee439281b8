// Package config loads and validates hookgate configuration.
//
// Configuration is a nested mapping: daemon settings at the top level and a
// handlers tree keyed by event kind, then by handler config key:
//
//	version: 1
//	daemon:
//	  idle_timeout: 300s
//	handlers:
//	  PreToolUse:
//	    enable_tags: [security]
//	    disable_tags: []
//	    bash_guard:
//	      enabled: true
//	      priority: 10
//
// The Config type wraps map[string]any with typed accessors that return
// defaults for missing or mistyped values; validation is a separate pass
// (Validate) that reports human-readable error strings instead of failing.
package config

import "time"

// Reserved keys inside a per-kind handler subtree.
const (
	KeyEnableTags  = "enable_tags"
	KeyDisableTags = "disable_tags"
)

// Config wraps a map[string]any for type-safe value extraction.
// All accessors return default values if the key is missing or the value
// cannot be converted to the requested type.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string value for key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal.
//
// Accepts int, int64, and float64 without a fractional part (YAML and JSON
// decoders disagree on number types).
func (c Config) Int(key string, defaultVal int) int {
	switch val := c.data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal.
//
// Accepts a duration string ("300s"), or a number interpreted as seconds.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	}
	return defaultVal
}

// StringSlice returns the string slice for key, or defaultVal.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	switch val := c.data[key].(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out = append(out, s)
		}
		return out
	}
	return defaultVal
}

// Section returns the nested mapping under key as a Config. Missing or
// mistyped sections yield an empty Config, so chained lookups never fail.
func (c Config) Section(key string) Config {
	if m, ok := c.data[key].(map[string]any); ok {
		return New(m)
	}
	return New(nil)
}

// Has reports whether the key exists.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Keys returns the top-level keys in unspecified order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Raw returns the underlying map. The returned map must not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

// Handlers returns the handlers subtree.
func (c Config) Handlers() Config {
	return c.Section("handlers")
}

// Kind returns the handler subtree for one event kind.
func (c Config) Kind(kind string) Config {
	return c.Handlers().Section(kind)
}

// Daemon returns the daemon settings subtree.
func (c Config) Daemon() Config {
	return c.Section("daemon")
}

// HandlerSettings is the per-handler configuration record.
type HandlerSettings struct {
	// Enabled defaults to true; an explicitly disabled handler is skipped
	// at registration time.
	Enabled bool

	// Priority overrides the handler's built-in priority when set.
	Priority    int
	HasPriority bool

	// Options carries handler-specific settings untouched.
	Options Config
}

// Settings extracts the HandlerSettings for a config key inside a per-kind
// subtree. Absent handlers get the defaults (enabled, no override).
func (c Config) Settings(configKey string) HandlerSettings {
	sub := c.Section(configKey)
	return HandlerSettings{
		Enabled:     sub.Bool("enabled", true),
		Priority:    sub.Int("priority", 0),
		HasPriority: sub.Has("priority"),
		Options:     sub,
	}
}

// EnableTags returns the per-kind enable_tags allow-list.
func (c Config) EnableTags() []string {
	return c.StringSlice(KeyEnableTags, nil)
}

// DisableTags returns the per-kind disable_tags deny-list.
func (c Config) DisableTags() []string {
	return c.StringSlice(KeyDisableTags, nil)
}
