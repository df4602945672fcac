// File: manager.go
// Title: Command Manager
// Description: Thread-safe label registry with aliases, and the line
//              dispatcher that splits input and invokes executors.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package command

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	mberror "github.com/manebot/manebot/foundation/core/error"
	mblog "github.com/manebot/manebot/foundation/core/log"
	"github.com/manebot/manebot/foundation/utils/stringx"
)

// DefaultPrefix marks a chat message as a command
const DefaultPrefix = "!"

// Options configures a Manager
type Options struct {
	Logger *mblog.Logger
	Prefix string
}

type entry struct {
	label    string
	executor Executor
	aliasOf  string
}

// Manager maps labels to executors and dispatches command lines
type Manager struct {
	entries map[string]*entry
	prefix  string
	logger  *mblog.Logger
	mutex   sync.RWMutex
}

// Registration is the handle returned by Register
type Registration struct {
	manager  *Manager
	label    string
	executor Executor
}

// NewManager creates an empty command manager
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = mblog.GetDefault()
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}

	return &Manager{
		entries: make(map[string]*entry),
		prefix:  opts.Prefix,
		logger:  opts.Logger.WithField("component", "command-manager"),
	}
}

// Prefix returns the command prefix
func (m *Manager) Prefix() string {
	return m.prefix
}

// IsCommand reports whether a chat message is a command line
func (m *Manager) IsCommand(message string) bool {
	trimmed := strings.TrimLeftFunc(message, unicode.IsSpace)
	return strings.HasPrefix(trimmed, m.prefix) && !stringx.IsBlank(trimmed[len(m.prefix):])
}

// Register binds executor to label
func (m *Manager) Register(label string, executor Executor) (*Registration, error) {
	return m.register(label, executor, "")
}

func (m *Manager) register(label string, executor Executor, aliasOf string) (*Registration, error) {
	key, err := normalizeLabel(label)
	if err != nil {
		return nil, err
	}
	if executor == nil {
		return nil, mberror.Newf("executor for %q cannot be nil", key).
			WithCode(mberror.CodeRegistration)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if existing, ok := m.entries[key]; ok {
		return nil, mberror.Newf("command %q is already registered", key).
			WithCode(mberror.CodeDuplicate).
			WithDetail("existing", existing.label)
	}

	m.entries[key] = &entry{label: key, executor: executor, aliasOf: aliasOf}

	m.logger.Debug("Command registered", mblog.Fields{
		"label":   key,
		"aliasOf": aliasOf,
	})

	return &Registration{manager: m, label: key, executor: executor}, nil
}

// Label returns the registered label
func (r *Registration) Label() string {
	return r.label
}

// Alias registers alias as another label for the same executor. The
// executor still receives the original label. Alias returns r itself, not
// a registration of the alias, so chained calls always alias the original
// label and never an alias of an alias.
func (r *Registration) Alias(alias string) (*Registration, error) {
	if _, err := r.manager.register(alias, &aliasExecutor{target: r.executor, label: r.label}, r.label); err != nil {
		return nil, err
	}
	return r, nil
}

// Unregister removes label and every alias pointing at it
func (m *Manager) Unregister(label string) bool {
	key := strings.ToLower(strings.TrimSpace(label))

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	for k, e := range m.entries {
		if e.aliasOf == key {
			delete(m.entries, k)
		}
	}

	m.logger.Debug("Command unregistered", mblog.Fields{"label": key})
	return true
}

// Lookup returns the executor for a label or alias, and the label the
// executor was registered under.
func (m *Manager) Lookup(label string) (Executor, string, bool) {
	key := strings.ToLower(strings.TrimSpace(label))

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, "", false
	}
	if e.aliasOf != "" {
		return e.executor, e.aliasOf, true
	}
	return e.executor, e.label, true
}

// Labels returns the registered labels without aliases, sorted
func (m *Manager) Labels() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	labels := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		if e.aliasOf == "" {
			labels = append(labels, e.label)
		}
	}
	sort.Strings(labels)
	return labels
}

// Aliases returns the aliases registered for label, sorted
func (m *Manager) Aliases(label string) []string {
	key := strings.ToLower(strings.TrimSpace(label))

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var aliases []string
	for _, e := range m.entries {
		if e.aliasOf == key {
			aliases = append(aliases, e.label)
		}
	}
	sort.Strings(aliases)
	return aliases
}

// Dispatch runs one command line for sender. The prefix is optional.
func (m *Manager) Dispatch(ctx context.Context, sender Sender, line string) error {
	label, args, err := m.split(line)
	if err != nil {
		return err
	}

	executor, _, ok := m.Lookup(label)
	if !ok {
		return unknownCommand(label)
	}

	m.logger.WithSender(sender.Username()).Debug("Dispatching command", mblog.Fields{
		"label": label,
		"args":  len(args),
	})

	return executor.Execute(ctx, sender, strings.ToLower(label), args)
}

// Help returns the help lines of the command named by line
func (m *Manager) Help(ctx context.Context, sender Sender, line string) ([]string, error) {
	label, args, err := m.split(line)
	if err != nil {
		return nil, err
	}

	executor, registered, ok := m.Lookup(label)
	if !ok {
		return nil, unknownCommand(label)
	}

	return executor.Help(ctx, sender, registered, args)
}

func (m *Manager) split(line string) (string, []string, error) {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, m.prefix)

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, mberror.New("No command specified.").WithCode(mberror.CodeUnknownCommand)
	}
	return fields[0], fields[1:], nil
}

func normalizeLabel(label string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	if stringx.IsBlank(key) || strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return "", mberror.Newf("invalid command label %q", label).
			WithCode(mberror.CodeRegistration)
	}
	return key, nil
}

func unknownCommand(label string) error {
	return mberror.Newf("Unknown command: %s", label).
		WithCode(mberror.CodeUnknownCommand).
		WithDetail("label", label)
}
