package config

import (
	"fmt"
	"sort"

	"github.com/randalmurphal/hookgate/pkg/hookgate/hook"
)

// Validate checks a loaded Config against the expected schema and returns a
// list of human-readable error strings. An empty list means the config is
// valid. Validation never fails hard: the controller treats any returned
// errors (or a panicking validator) as grounds for degraded mode, so the
// report has to be a plain value.
func Validate(c Config) []string {
	var errs []string

	if !c.Has("version") {
		errs = append(errs, "Missing required field: version")
	} else if c.Int("version", -1) < 1 {
		errs = append(errs, "Invalid version: must be a positive integer")
	}

	errs = append(errs, validateDaemon(c.Daemon())...)
	errs = append(errs, validateHandlers(c)...)

	return errs
}

func validateDaemon(d Config) []string {
	var errs []string

	for _, key := range []string{"socket_path", "pid_path", "log_level"} {
		if d.Has(key) {
			if _, ok := d.Raw()[key].(string); !ok {
				errs = append(errs, fmt.Sprintf("daemon.%s must be a string", key))
			}
		}
	}
	if d.Has("idle_timeout") && d.Duration("idle_timeout", -1) < 0 {
		errs = append(errs, "daemon.idle_timeout must be a duration string or seconds")
	}

	return errs
}

func validateHandlers(c Config) []string {
	var errs []string

	raw := c.Handlers().Raw()
	kinds := make([]string, 0, len(raw))
	for kind := range raw {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		if !hook.KindFromString(kind).Known() {
			errs = append(errs, fmt.Sprintf("handlers.%s: unknown event kind", kind))
			continue
		}

		sub, ok := raw[kind].(map[string]any)
		if !ok {
			errs = append(errs, fmt.Sprintf("handlers.%s must be a mapping", kind))
			continue
		}
		errs = append(errs, validateKind(kind, New(sub))...)
	}

	return errs
}

func validateKind(kind string, sub Config) []string {
	var errs []string

	keys := sub.Keys()
	sort.Strings(keys)

	for _, key := range keys {
		if key == KeyEnableTags || key == KeyDisableTags {
			if sub.StringSlice(key, nil) == nil {
				errs = append(errs, fmt.Sprintf("handlers.%s.%s must be a list of strings", kind, key))
			}
			continue
		}

		entry, ok := sub.Raw()[key].(map[string]any)
		if !ok {
			errs = append(errs, fmt.Sprintf("handlers.%s.%s must be a mapping", kind, key))
			continue
		}

		ec := New(entry)
		if ec.Has("enabled") {
			if _, ok := entry["enabled"].(bool); !ok {
				errs = append(errs, fmt.Sprintf("handlers.%s.%s.enabled must be a boolean", kind, key))
			}
		}
		if ec.Has("priority") && ec.Int("priority", -1<<30) == -1<<30 {
			errs = append(errs, fmt.Sprintf("handlers.%s.%s.priority must be an integer", kind, key))
		}
	}

	return errs
}
