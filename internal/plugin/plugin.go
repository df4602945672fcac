// Package plugin manages the lifecycle of bot plugins and the commands
// they register.
package plugin

import (
	"context"
	"strings"

	"golang.org/x/mod/semver"

	mberror "github.com/manebot/manebot/foundation/core/error"
	"github.com/manebot/manebot/foundation/command"
	"github.com/manebot/manebot/pkg/core/logging"
	"github.com/manebot/manebot/pkg/core/version"
)

// Manifest describes a plugin
type Manifest struct {
	Name           string
	Version        string
	MinCoreVersion string

	// Depends lists plugin names, optionally with a minimum version as
	// "name@1.2.0"
	Depends []string

	Description string
}

// Dependency is a parsed entry of Manifest.Depends
type Dependency struct {
	Name       string
	MinVersion string
}

// Dependencies parses Depends
func (m Manifest) Dependencies() ([]Dependency, error) {
	deps := make([]Dependency, 0, len(m.Depends))
	for _, raw := range m.Depends {
		name, min, _ := strings.Cut(strings.TrimSpace(raw), "@")
		name = strings.ToLower(name)
		if name == "" {
			return nil, manifestError(m, "empty dependency")
		}
		if min != "" && version.Canonical(min) == "" {
			return nil, manifestError(m, "invalid version for dependency "+name+": "+min)
		}
		deps = append(deps, Dependency{Name: name, MinVersion: min})
	}
	return deps, nil
}

// Validate checks the name and the semantic versions of the manifest
func (m Manifest) Validate() error {
	if strings.TrimSpace(m.Name) == "" || strings.ContainsAny(m.Name, " \t@") {
		return manifestError(m, "invalid plugin name")
	}
	if version.Canonical(m.Version) == "" {
		return manifestError(m, "invalid version: "+m.Version)
	}
	if m.MinCoreVersion != "" && version.Canonical(m.MinCoreVersion) == "" {
		return manifestError(m, "invalid core version: "+m.MinCoreVersion)
	}
	_, err := m.Dependencies()
	return err
}

// AtLeast reports whether the manifest version is at least min
func (m Manifest) AtLeast(min string) bool {
	if min == "" {
		return true
	}
	return semver.Compare(version.Canonical(m.Version), version.Canonical(min)) >= 0
}

func manifestError(m Manifest, reason string) error {
	return mberror.Newf("plugin %q: %s", m.Name, reason).
		WithCode(mberror.CodePlugin).
		WithDetail("plugin", m.Name)
}

// Plugin is a unit of bot functionality
type Plugin interface {
	Manifest() Manifest

	// Enable registers the plugin's commands through ctx
	Enable(ctx context.Context, pc *Context) error

	// Disable releases resources. Commands are unregistered by the manager.
	Disable(ctx context.Context) error
}

// Context is handed to a plugin while it is enabled
type Context struct {
	name     string
	commands *command.Manager
	logger   *logging.Logger

	registered []string
}

// Name returns the plugin name
func (c *Context) Name() string {
	return c.name
}

// Logger returns a logger named after the plugin
func (c *Context) Logger() *logging.Logger {
	return c.logger
}

// Command registers a command owned by the plugin, together with aliases
func (c *Context) Command(label string, executor command.Executor, aliases ...string) error {
	reg, err := c.commands.Register(label, executor)
	if err != nil {
		return err
	}
	c.registered = append(c.registered, reg.Label())

	for _, alias := range aliases {
		if _, err := reg.Alias(alias); err != nil {
			return err
		}
	}
	return nil
}

// Commands returns the labels registered by the plugin
func (c *Context) Commands() []string {
	return append([]string(nil), c.registered...)
}

func (c *Context) unregisterAll() {
	for _, label := range c.registered {
		c.commands.Unregister(label)
	}
	c.registered = nil
}

// Func builds a Plugin from functions
type Func struct {
	Info      Manifest
	OnEnable  func(ctx context.Context, pc *Context) error
	OnDisable func(ctx context.Context) error
}

// Manifest implements Plugin
func (f *Func) Manifest() Manifest {
	return f.Info
}

// Enable implements Plugin
func (f *Func) Enable(ctx context.Context, pc *Context) error {
	if f.OnEnable == nil {
		return nil
	}
	return f.OnEnable(ctx, pc)
}

// Disable implements Plugin
func (f *Func) Disable(ctx context.Context) error {
	if f.OnDisable == nil {
		return nil
	}
	return f.OnDisable(ctx)
}
