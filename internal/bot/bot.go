// Package bot wires the store, the command and plugin managers and the
// chat platforms into a running bot.
package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/manebot/manebot/foundation/command"
	mberror "github.com/manebot/manebot/foundation/core/error"
	"github.com/manebot/manebot/foundation/utils/stringx"
	"github.com/manebot/manebot/internal/chat"
	"github.com/manebot/manebot/internal/plugin"
	"github.com/manebot/manebot/internal/store"
	"github.com/manebot/manebot/pkg/core/config"
	"github.com/manebot/manebot/pkg/core/health"
	"github.com/manebot/manebot/pkg/core/logging"
	"github.com/manebot/manebot/pkg/core/version"
)

// AdminGroup receives every core permission on start
const AdminGroup = "admins"

const genericFailure = "An internal error occurred while running that command."

const maxLoggedLine = 200

// Options configures a Bot
type Options struct {
	Config *config.Config
	Store  *store.Store
	Logger *logging.Logger

	// Plugins are registered next to the core plugin
	Plugins []plugin.Plugin
}

// Bot handles chat messages from every attached platform
type Bot struct {
	cfg       *config.Config
	store     *store.Store
	commands  *command.Manager
	plugins   *plugin.Manager
	health    *health.Registry
	logger    *logging.Logger
	platforms []chat.Platform

	mu      sync.Mutex
	started bool
	cfgMu   sync.RWMutex
}

// New creates a bot. The core plugin and opts.Plugins are registered but
// not enabled until Start.
func New(opts Options) (*Bot, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Store == nil {
		return nil, mberror.New("bot requires a store").WithCode(mberror.CodeConfig)
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("bot")
	}

	commands := command.NewManager(command.Options{
		Logger: opts.Logger.Foundation(),
		Prefix: opts.Config.Bot.CommandPrefix,
	})

	b := &Bot{
		cfg:      opts.Config,
		store:    opts.Store,
		commands: commands,
		plugins: plugin.NewManager(plugin.Options{
			Commands: commands,
			Logger:   opts.Logger.With("component", "plugins"),
		}),
		health: health.NewRegistry(opts.Config.General.Name, version.Core),
		logger: opts.Logger,
	}

	if err := b.plugins.Register(newCorePlugin(b)); err != nil {
		return nil, err
	}
	for _, p := range opts.Plugins {
		if err := b.plugins.Register(p); err != nil {
			return nil, err
		}
	}

	b.health.Register(health.PingCheck("database", opts.Store, 2*time.Second))
	b.health.RegisterFunc("commands", b.commandsHealth)

	return b, nil
}

// Commands returns the command manager
func (b *Bot) Commands() *command.Manager { return b.commands }

// Plugins returns the plugin manager
func (b *Bot) Plugins() *plugin.Manager { return b.plugins }

// Store returns the entity store
func (b *Bot) Store() *store.Store { return b.store }

// Health returns the health registry
func (b *Bot) Health() *health.Registry { return b.health }

// AddPlatform attaches a chat platform. It must be called before Run.
func (b *Bot) AddPlatform(p chat.Platform) {
	b.platforms = append(b.platforms, p)
}

// Start enables the core plugin and the configured plugins, then grants the
// admin group every core permission. It is a no-op once started.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}

	names := append([]string{corePluginName}, b.config().Bot.Plugins...)
	if err := b.plugins.EnableAll(ctx, names...); err != nil {
		return err
	}
	if err := b.setupAdmins(ctx); err != nil {
		return err
	}

	b.started = true
	b.logger.Info("Bot started", "commands", len(b.commands.Labels()), "prefix", b.commands.Prefix())
	return nil
}

// Stop disables every plugin
func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	b.started = false
	return b.plugins.DisableAll(ctx)
}

// Reload applies a changed configuration. Page size, admins and plugins
// take effect immediately; the command prefix needs a restart.
func (b *Bot) Reload(ctx context.Context, cfg *config.Config) error {
	old := b.config()
	if cfg.Bot.CommandPrefix != old.Bot.CommandPrefix {
		b.logger.Warn("Command prefix change requires a restart",
			"current", old.Bot.CommandPrefix, "configured", cfg.Bot.CommandPrefix)
	}

	b.cfgMu.Lock()
	b.cfg = cfg
	b.cfgMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	if len(cfg.Bot.Plugins) > 0 {
		if err := b.plugins.EnableAll(ctx, cfg.Bot.Plugins...); err != nil {
			return err
		}
	}
	if err := b.setupAdmins(ctx); err != nil {
		return err
	}

	b.logger.Info("Configuration reloaded", "page_size", cfg.Bot.PageSize, "admins", len(cfg.Bot.Admins))
	return nil
}

func (b *Bot) config() *config.Config {
	b.cfgMu.RLock()
	defer b.cfgMu.RUnlock()
	return b.cfg
}

// setupAdmins puts the console user and the configured admins into the
// admin group
func (b *Bot) setupAdmins(ctx context.Context) error {
	if _, err := b.store.CreateGroup(ctx, AdminGroup); err != nil && !mberror.HasCode(err, mberror.CodeDuplicate) {
		return err
	}
	for _, perm := range corePermissions {
		if err := b.store.SetGrant(ctx, store.SubjectGroup, AdminGroup, perm, allow); err != nil {
			return err
		}
	}

	cfg := b.config()
	admins := cfg.Bot.Admins
	if cfg.Bot.ConsoleUser != "" {
		admins = append([]string{cfg.Bot.ConsoleUser}, admins...)
	}
	for _, name := range admins {
		if _, err := b.store.EnsureUser(ctx, name, ""); err != nil {
			return err
		}
		if err := b.store.AddMember(ctx, AdminGroup, name); err != nil && !mberror.HasCode(err, mberror.CodeDuplicate) {
			return err
		}
	}
	return nil
}

// Run starts the bot and serves every platform until ctx is cancelled or a
// platform fails. Plugins are disabled on return.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.Stop(stopCtx); err != nil {
			b.logger.Warn("Failed to disable plugins", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range b.platforms {
		p := p
		g.Go(func() error {
			b.logger.Info("Platform started", "platform", p.Name())
			if err := p.Run(gctx, b.Handle); err != nil {
				return mberror.Wrap(err, "platform "+p.Name()).WithCode(mberror.CodePlatform)
			}
			b.logger.Info("Platform stopped", "platform", p.Name())
			return nil
		})
	}
	return g.Wait()
}

// Handle runs msg as a command when it carries the command prefix. Replies
// are buffered and sent as one message.
func (b *Bot) Handle(ctx context.Context, msg *chat.Message) {
	if !b.commands.IsCommand(msg.Text) {
		return
	}

	logger := b.logger.With("platform", msg.Chat.Platform(), "chat", msg.Chat.ID(), "user", msg.Username)

	user, err := b.store.EnsureUser(ctx, msg.Username, msg.DisplayName)
	if err != nil {
		logger.Error("Failed to resolve user", "error", err)
		if sendErr := msg.Chat.Send(ctx, mberror.UserMessage(err, genericFailure)); sendErr != nil {
			logger.Warn("Failed to send message", "error", sendErr)
		}
		return
	}

	sender := chat.NewSender(user.Username, user.Name(), msg.Chat, b.store.Checker(user.Username))
	sender.Begin()
	defer sender.End(ctx)

	if err := b.Execute(ctx, sender, msg.Text); err != nil {
		b.report(logger, sender, msg.Text, err)
	}
}

// Execute dispatches line for sender unless the sender is banned
func (b *Bot) Execute(ctx context.Context, sender command.Sender, line string) error {
	ban, err := b.store.ActiveBan(ctx, sender.Username())
	if err != nil {
		return err
	}
	if ban != nil {
		return bannedError(ban)
	}
	return b.commands.Dispatch(ctx, sender, line)
}

func bannedError(ban *store.Ban) error {
	msg := "You are banned from using commands"
	if ban.Reason != "" {
		msg += ": " + ban.Reason
	}
	if ban.EndsAt != nil {
		msg += " (until " + ban.EndsAt.Format(time.RFC3339) + ")"
	}
	return mberror.New(msg + ".").
		WithCode(mberror.CodeBanned).
		WithDetail("ban", ban.ID)
}

func (b *Bot) report(logger *logging.Logger, sender command.Sender, line string, err error) {
	code := mberror.GetCode(err)
	line = stringx.Truncate(line, maxLoggedLine, "...")
	if code.UserFacing() {
		logger.Debug("Command refused", "line", line, "code", code.String(), "error", err)
	} else {
		logger.Error("Command failed", "line", line, "code", code.String(), "error", err)
	}
	sender.SendMessage(mberror.UserMessage(err, genericFailure))
}

func (b *Bot) commandsHealth(context.Context) health.CheckResult {
	labels := b.commands.Labels()
	if len(labels) == 0 {
		return health.CheckResult{Status: health.StatusDegraded, Message: "no commands registered"}
	}
	return health.CheckResult{
		Status:  health.StatusHealthy,
		Message: strings.Join(labels, ", "),
		Details: map[string]interface{}{"count": len(labels)},
	}
}
