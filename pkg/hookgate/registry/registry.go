// Package registry discovers handler implementations and applies
// configuration-driven filtering before handing them to the router.
//
// Discovery is an explicit startup-time catalog: each event kind maps to an
// ordered list of handler builders. There is no reflection or namespace
// scanning; adding a handler means adding its builder to the catalog.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/hookgate/pkg/hookgate/config"
	"github.com/randalmurphal/hookgate/pkg/hookgate/handler"
	"github.com/randalmurphal/hookgate/pkg/hookgate/hook"
	"github.com/randalmurphal/hookgate/pkg/hookgate/project"
)

// Builder constructs one handler instance for the given project context.
type Builder func(project.Context) (handler.Handler, error)

// Catalog maps each event kind to its ordered handler builders.
type Catalog map[hook.EventKind][]Builder

// Router is the registration target; satisfied by router.Router.
type Router interface {
	Register(kind hook.EventKind, h handler.Handler)
}

// Registry instantiates the catalog and registers the configured subset
// into a router. Handlers are constructed once per process lifetime and
// exclusively owned by the chain they end up in.
type Registry struct {
	proj       project.Context
	logger     *slog.Logger
	discovered map[hook.EventKind][]handler.Handler
}

// New creates a registry bound to a project context.
func New(proj project.Context, logger *slog.Logger) *Registry {
	return &Registry{
		proj:       proj,
		logger:     logger,
		discovered: make(map[hook.EventKind][]handler.Handler),
	}
}

// Discover instantiates every builder in the catalog and returns the count
// of handlers constructed. A failing builder is logged and skipped;
// discovery as a whole never fails.
func (r *Registry) Discover(catalog Catalog) int {
	count := 0
	for _, kind := range hook.Kinds {
		for _, build := range catalog[kind] {
			h, err := build(r.proj)
			if err != nil {
				if r.logger != nil {
					r.logger.Warn("handler construction failed",
						slog.String("event", kind.String()),
						slog.String("error", err.Error()),
					)
				}
				continue
			}
			r.discovered[kind] = append(r.discovered[kind], h)
			count++
		}
	}
	return count
}

// Discovered returns the instantiated handlers for one event kind, in
// catalog order.
func (r *Registry) Discovered(kind hook.EventKind) []handler.Handler {
	return r.discovered[kind]
}

// Counts returns the number of discovered handlers per event kind.
func (r *Registry) Counts() map[string]int {
	counts := make(map[string]int, len(r.discovered))
	for kind, hs := range r.discovered {
		counts[kind.String()] = len(hs)
	}
	return counts
}

// RegisterAll filters the discovered handlers through configuration and
// registers the survivors into the router. Returns the count registered.
//
// Per handler, in order: an explicit `enabled: false` skips it (default
// enabled); a non-empty enable_tags allow-list skips handlers with no tag
// in the list (OR semantics); disable_tags is evaluated after enable_tags
// and any intersection is a final exclusion; a configured priority
// overrides the built-in one before registration.
func (r *Registry) RegisterAll(router Router, cfg config.Config) int {
	count := 0
	for _, kind := range hook.Kinds {
		kindCfg := cfg.Kind(kind.String())
		enableTags := kindCfg.EnableTags()
		disableTags := kindCfg.DisableTags()

		for _, h := range r.discovered[kind] {
			key := handler.ConfigKey(h.Name())
			settings := kindCfg.Settings(key)

			if !settings.Enabled {
				r.skip(kind, key, "disabled by config")
				continue
			}
			if len(enableTags) > 0 && !handler.TagsIntersect(h.Tags(), enableTags) {
				r.skip(kind, key, "not in enable_tags")
				continue
			}
			// disable_tags always wins, even over an explicit enable.
			if handler.TagsIntersect(h.Tags(), disableTags) {
				r.skip(kind, key, "excluded by disable_tags")
				continue
			}

			if settings.HasPriority {
				h.SetPriority(settings.Priority)
			}

			router.Register(kind, h)
			count++
		}
	}
	return count
}

func (r *Registry) skip(kind hook.EventKind, key, why string) {
	if r.logger != nil {
		r.logger.Debug("handler skipped",
			slog.String("event", kind.String()),
			slog.String("handler", key),
			slog.String("reason", why),
		)
	}
}

// Info describes one discovered handler, for introspection endpoints.
type Info struct {
	Name     string   `json:"name"`
	Key      string   `json:"key"`
	Priority int      `json:"priority"`
	Terminal bool     `json:"terminal"`
	Tags     []string `json:"tags,omitempty"`
}

// Describe returns introspection records for every discovered handler,
// grouped by event kind.
func (r *Registry) Describe() map[string][]Info {
	out := make(map[string][]Info, len(r.discovered))
	for kind, hs := range r.discovered {
		infos := make([]Info, 0, len(hs))
		for _, h := range hs {
			infos = append(infos, Info{
				Name:     h.Name(),
				Key:      handler.ConfigKey(h.Name()),
				Priority: h.Priority(),
				Terminal: h.Terminal(),
				Tags:     h.Tags(),
			})
		}
		out[kind.String()] = infos
	}
	return out
}

// String implements fmt.Stringer for log lines.
func (r *Registry) String() string {
	total := 0
	for _, hs := range r.discovered {
		total += len(hs)
	}
	return fmt.Sprintf("registry(%d handlers, root=%s)", total, r.proj.Root)
}
