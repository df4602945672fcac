package plugin

import (
	"context"
	"sort"
	"strings"
	"sync"

	mberror "github.com/manebot/manebot/foundation/core/error"
	"github.com/manebot/manebot/foundation/command"
	"github.com/manebot/manebot/pkg/core/logging"
	"github.com/manebot/manebot/pkg/core/version"
)

// Options configures a Manager
type Options struct {
	Commands    *command.Manager
	Logger      *logging.Logger
	CoreVersion string
}

// Status describes a registered plugin
type Status struct {
	Manifest Manifest
	Enabled  bool
	Commands []string
}

type entry struct {
	plugin  Plugin
	ctx     *Context
	enabled bool
}

// Manager enables and disables plugins in dependency order
type Manager struct {
	mu      sync.Mutex
	plugins map[string]*entry
	order   []string
	opts    Options
	logger  *logging.Logger
}

// NewManager creates a plugin manager registering commands in opts.Commands
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = logging.New("plugin")
	}
	if opts.CoreVersion == "" {
		opts.CoreVersion = version.Core
	}
	return &Manager{
		plugins: make(map[string]*entry),
		opts:    opts,
		logger:  opts.Logger,
	}
}

// Register adds a plugin in the disabled state
func (m *Manager) Register(p Plugin) error {
	manifest := p.Manifest()
	if err := manifest.Validate(); err != nil {
		return err
	}
	name := strings.ToLower(manifest.Name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plugins[name]; exists {
		return mberror.Newf("plugin already registered: %s", name).
			WithCode(mberror.CodeDuplicate).
			WithDetail("plugin", name)
	}
	m.plugins[name] = &entry{plugin: p}

	m.logger.Debug("Plugin registered", "plugin", name, "version", manifest.Version)
	return nil
}

// Enable enables name after its dependencies
func (m *Manager) Enable(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enable(ctx, strings.ToLower(name), nil)
}

func (m *Manager) enable(ctx context.Context, name string, path []string) error {
	e, ok := m.plugins[name]
	if !ok {
		return mberror.Newf("unknown plugin: %s", name).
			WithCode(mberror.CodePlugin).
			WithDetail("plugin", name)
	}
	if e.enabled {
		return nil
	}
	for _, p := range path {
		if p == name {
			return mberror.Newf("dependency cycle: %s", strings.Join(append(path, name), " -> ")).
				WithCode(mberror.CodePlugin)
		}
	}

	manifest := e.plugin.Manifest()
	if manifest.MinCoreVersion != "" && !coreSatisfies(m.opts.CoreVersion, manifest.MinCoreVersion) {
		return mberror.Newf("plugin %s requires core %s, running %s", name, manifest.MinCoreVersion, m.opts.CoreVersion).
			WithCode(mberror.CodePlugin).
			WithDetail("plugin", name)
	}

	deps, err := manifest.Dependencies()
	if err != nil {
		return err
	}
	for _, dep := range deps {
		if err := m.enable(ctx, dep.Name, append(path, name)); err != nil {
			return mberror.Wrap(err, "enabling "+name)
		}
		depManifest := m.plugins[dep.Name].plugin.Manifest()
		if !depManifest.AtLeast(dep.MinVersion) {
			return mberror.Newf("plugin %s requires %s %s, found %s", name, dep.Name, dep.MinVersion, depManifest.Version).
				WithCode(mberror.CodePlugin).
				WithDetail("plugin", name)
		}
	}

	pc := &Context{
		name:     name,
		commands: m.opts.Commands,
		logger:   m.logger.With("plugin", name),
	}
	if err := e.plugin.Enable(ctx, pc); err != nil {
		pc.unregisterAll()
		return mberror.Wrap(err, "enabling plugin "+name).WithCode(mberror.CodePlugin)
	}

	e.ctx = pc
	e.enabled = true
	m.order = append(m.order, name)

	m.logger.Info("Plugin enabled", "plugin", name, "version", manifest.Version, "commands", len(pc.registered))
	return nil
}

func coreSatisfies(core, min string) bool {
	return version.Canonical(core) != "" && Manifest{Version: core}.AtLeast(min)
}

// Disable disables name. Plugins depending on it must be disabled first.
func (m *Manager) Disable(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disable(ctx, strings.ToLower(name))
}

func (m *Manager) disable(ctx context.Context, name string) error {
	e, ok := m.plugins[name]
	if !ok {
		return mberror.Newf("unknown plugin: %s", name).WithCode(mberror.CodePlugin)
	}
	if !e.enabled {
		return nil
	}

	for other, oe := range m.plugins {
		if !oe.enabled || other == name {
			continue
		}
		deps, _ := oe.plugin.Manifest().Dependencies()
		for _, dep := range deps {
			if dep.Name == name {
				return mberror.Newf("plugin %s is required by %s", name, other).
					WithCode(mberror.CodePlugin).
					WithDetail("plugin", name)
			}
		}
	}

	err := e.plugin.Disable(ctx)
	e.ctx.unregisterAll()
	e.enabled = false
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	if err != nil {
		m.logger.Warn("Plugin disabled with error", "plugin", name, "error", err)
		return mberror.Wrap(err, "disabling plugin "+name).WithCode(mberror.CodePlugin)
	}
	m.logger.Info("Plugin disabled", "plugin", name)
	return nil
}

// EnableAll enables the named plugins, or every registered plugin when
// names is empty. It stops at the first failure.
func (m *Manager) EnableAll(ctx context.Context, names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(names) == 0 {
		for name := range m.plugins {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	for _, name := range names {
		if err := m.enable(ctx, strings.ToLower(name), nil); err != nil {
			return err
		}
	}
	return nil
}

// DisableAll disables every enabled plugin in reverse enable order and
// returns the first error
func (m *Manager) DisableAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	for len(m.order) > 0 {
		name := m.order[len(m.order)-1]
		if err := m.disable(ctx, name); err != nil {
			if first == nil {
				first = err
			}
			// disable removes name from order even on plugin errors; a
			// refusal leaves it, so drop it to make progress
			if len(m.order) > 0 && m.order[len(m.order)-1] == name {
				m.order = m.order[:len(m.order)-1]
			}
		}
	}
	return first
}

// List returns the status of every registered plugin sorted by name
func (m *Manager) List() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Status, 0, len(m.plugins))
	for _, e := range m.plugins {
		st := Status{Manifest: e.plugin.Manifest(), Enabled: e.enabled}
		if e.enabled {
			st.Commands = e.ctx.Commands()
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Manifest.Name) < strings.ToLower(out[j].Manifest.Name)
	})
	return out
}

// Enabled reports whether name is enabled
func (m *Manager) Enabled(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.plugins[strings.ToLower(name)]
	return ok && e.enabled
}
