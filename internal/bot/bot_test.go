package bot

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mblog "github.com/manebot/manebot/foundation/core/log"
	"github.com/manebot/manebot/internal/chat"
	"github.com/manebot/manebot/internal/plugin"
	"github.com/manebot/manebot/internal/store"
	"github.com/manebot/manebot/pkg/core/config"
	"github.com/manebot/manebot/pkg/core/health"
	"github.com/manebot/manebot/pkg/core/logging"
)

// recordingChat keeps every message sent to it
type recordingChat struct {
	mu       sync.Mutex
	messages []string
}

func (c *recordingChat) ID() string       { return "test" }
func (c *recordingChat) Platform() string { return "test" }

func (c *recordingChat) Send(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, text)
	return nil
}

func (c *recordingChat) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return ""
	}
	return c.messages[len(c.messages)-1]
}

func (c *recordingChat) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func newTestBot(t *testing.T, plugins ...plugin.Plugin) *Bot {
	t.Helper()

	cfg := config.Default()
	cfg.Bot.Admins = []string{"root"}
	cfg.Bot.PageSize = 2

	s, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "manebot.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	b, err := New(Options{
		Config:  cfg,
		Store:   s,
		Logger:  logging.Wrap(mblog.Discard()),
		Plugins: plugins,
	})
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { b.Stop(context.Background()) })
	return b
}

// say sends text as username and returns the reply
func say(b *Bot, c *recordingChat, username, text string) string {
	before := c.count()
	b.Handle(context.Background(), &chat.Message{Chat: c, Username: username, Text: text})
	if c.count() == before {
		return ""
	}
	return c.last()
}

func TestStartRegistersCoreCommands(t *testing.T) {
	b := newTestBot(t)

	assert.Equal(t,
		[]string{"ban", "group", "help", "permission", "plugin", "search", "unban", "user"},
		b.Commands().Labels())
	assert.True(t, b.Plugins().Enabled("core"))

	// a second start changes nothing
	require.NoError(t, b.Start(context.Background()))

	members, err := b.Store().Members(context.Background(), AdminGroup)
	require.NoError(t, err)
	assert.Equal(t, []string{"console", "root"}, members)
}

func TestHandleIgnoresPlainMessages(t *testing.T) {
	b := newTestBot(t)
	c := &recordingChat{}

	assert.Empty(t, say(b, c, "alice", "hello there"))
	assert.Empty(t, say(b, c, "alice", "!"))
}

func TestHandleBuffersReplies(t *testing.T) {
	b := newTestBot(t)
	c := &recordingChat{}

	reply := say(b, c, "alice", "!help")
	assert.Equal(t, 1, c.count(), "replies are sent as one message")

	lines := strings.Split(reply, "\n")
	assert.Len(t, lines, 8)
	assert.Equal(t, "alice -> !ban", lines[0])
	assert.Contains(t, reply, "!help (?)")
	assert.Contains(t, reply, "!permission (perm)")
}

func TestHelpForCommand(t *testing.T) {
	b := newTestBot(t)
	c := &recordingChat{}

	reply := say(b, c, "alice", "!? unban")
	assert.Equal(t, "alice -> !unban <user>: ends the active bans of a user", reply)

	reply = say(b, c, "alice", "!help group add")
	assert.Equal(t, "alice -> !group add <group> <user>: adds a user to a group", reply)

	reply = say(b, c, "alice", "!help nope")
	assert.Equal(t, "alice -> Unknown command: nope", reply)
}

func TestUnknownCommand(t *testing.T) {
	b := newTestBot(t)
	c := &recordingChat{}

	assert.Equal(t, "alice -> Unknown command: frobnicate", say(b, c, "alice", "!frobnicate now"))
}

func TestNoMatch(t *testing.T) {
	b := newTestBot(t)
	c := &recordingChat{}

	reply := say(b, c, "alice", "!group explode")
	assert.Equal(t, "alice -> Arguments not acceptable; see command help for more information.", reply)
}

func TestBanRequiresPermission(t *testing.T) {
	b := newTestBot(t)
	c := &recordingChat{}

	say(b, c, "bob", "!help")
	reply := say(b, c, "alice", "!ban bob spamming")
	assert.Equal(t, "alice -> You do not have permission to do that (system.ban).", reply)

	ban, err := b.Store().ActiveBan(context.Background(), "bob")
	require.NoError(t, err)
	assert.Nil(t, ban)
}

func TestBanAndUnban(t *testing.T) {
	b := newTestBot(t)
	c := &recordingChat{}

	say(b, c, "bob", "!help")

	reply := say(b, c, "root", "!ban bob spamming the channel")
	assert.Equal(t, "root -> Banned bob by root: spamming the channel", reply)

	reply = say(b, c, "bob", "!help")
	assert.Equal(t, "bob -> You are banned from using commands: spamming the channel.", reply)

	reply = say(b, c, "root", "!ban list")
	assert.Equal(t, "root -> Banned bob by root: spamming the channel", reply)

	reply = say(b, c, "root", "!unban bob")
	assert.Equal(t, "root -> Unbanned bob (1 ban(s) ended).", reply)

	reply = say(b, c, "bob", "!unban bob")
	assert.Equal(t, "bob -> You do not have permission to do that (system.ban).", reply)

	reply = say(b, c, "root", "!unban bob")
	assert.Contains(t, reply, "root -> ")
	assert.NotContains(t, reply, "internal error")
}

func TestTempBan(t *testing.T) {
	b := newTestBot(t)
	c := &recordingChat{}

	say(b, c, "bob", "!help")

	reply := say(b, c, "root", "!ban bob for 30 flooding")
	assert.Contains(t, reply, "root -> Banned bob by root until ")
	assert.True(t, strings.HasSuffix(reply, ": flooding"))

	ban, err := b.Store().ActiveBan(context.Background(), "bob")
	require.NoError(t, err)
	require.NotNil(t, ban)
	assert.NotNil(t, ban.EndsAt)

	reply = say(b, c, "root", "!ban bob for 0")
	assert.Equal(t, "root -> Ban length must be at least one minute.", reply)

	reply = say(b, c, "root", "!ban root")
	assert.Equal(t, "root -> You cannot ban yourself.", reply)
}

func TestGroupsAndPermissions(t *testing.T) {
	b := newTestBot(t)
	c := &recordingChat{}

	say(b, c, "alice", "!help")

	assert.Equal(t, "root -> Created group mods.", say(b, c, "root", "!group create mods"))
	assert.Equal(t, "root -> Added alice to mods.", say(b, c, "root", "!group add mods alice"))
	assert.Equal(t, "root -> alice: mods", say(b, c, "root", "!group list alice"))
	assert.Equal(t, "root -> mods: alice", say(b, c, "root", "!group members mods"))

	assert.Equal(t, "root -> alice is denied system.ban.", say(b, c, "root", "!permission check alice system.ban"))
	assert.Equal(t, "root -> Set system.ban to allow for group mods.", say(b, c, "root", "!perm grant group mods system.ban"))
	assert.Equal(t, "root -> alice is allowed system.ban.", say(b, c, "root", "!permission check alice system.ban"))

	assert.Equal(t, "root -> Set system.ban to deny for user alice.", say(b, c, "root", "!perm deny user alice system.ban"))
	assert.Equal(t, "root -> alice is denied system.ban.", say(b, c, "root", "!permission check alice system.ban"))

	assert.Equal(t, "root -> Cleared system.ban for user alice.", say(b, c, "root", "!perm clear user alice system.ban"))
	assert.Equal(t, "root -> alice is allowed system.ban.", say(b, c, "root", "!permission check alice system.ban"))

	assert.Equal(t, "root -> Removed alice from mods.", say(b, c, "root", "!group remove mods alice"))
	assert.Equal(t, "root -> alice is in no groups.", say(b, c, "root", "!group list alice"))
}

func TestUserCommands(t *testing.T) {
	b := newTestBot(t)
	c := &recordingChat{}

	for _, name := range []string{"alice", "albert", "bob", "alfred"} {
		say(b, c, name, "!help")
	}

	reply := say(b, c, "bob", "!user info root")
	assert.Contains(t, reply, "bob -> User: root")
	assert.Contains(t, reply, "bob -> Groups: admins")

	reply = say(b, c, "bob", "!user search al")
	lines := strings.Split(reply, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "bob -> Page 1/2 (3 users):", lines[0])
	assert.Equal(t, "bob -> albert", lines[1])

	reply = say(b, c, "bob", "!user search al page:2")
	assert.Equal(t, "bob -> Page 2/2 (3 users):\nbob -> alice", reply)

	reply = say(b, c, "bob", "!user search group:admins -console")
	assert.Equal(t, "bob -> Page 1/1 (1 users):\nbob -> root", reply)

	reply = say(b, c, "bob", "!user search unknown:x")
	assert.NotContains(t, reply, "internal error")

	reply = say(b, c, "bob", "!user search al page:x")
	assert.Equal(t, "bob -> invalid page: x", reply)

	reply = say(b, c, "bob", `!user search "al`)
	assert.Equal(t, "bob -> unterminated string", reply)
}

func TestSearchEcho(t *testing.T) {
	b := newTestBot(t)
	c := &recordingChat{}

	reply := say(b, c, "alice", `!search a -"b c" +d p:3`)
	assert.Equal(t, "alice -> Query: (a -\"b c\" +d)\nalice -> Page: 3", reply)
}

func TestPluginList(t *testing.T) {
	extra := &plugin.Func{Info: plugin.Manifest{Name: "extra", Version: "0.2.0"}}
	b := newTestBot(t, extra)
	c := &recordingChat{}

	reply := say(b, c, "alice", "!plugins list")
	lines := strings.Split(reply, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "alice -> core "))
	assert.Contains(t, lines[0], "(enabled): help, ban, unban, ")
	assert.Equal(t, "alice -> extra 0.2.0 (disabled)", lines[1])
}

func TestHealth(t *testing.T) {
	b := newTestBot(t)

	report := b.Health().Check(context.Background())
	assert.Equal(t, health.StatusHealthy, report.Status)
	require.Len(t, report.Checks, 2)
	assert.Equal(t, "commands", report.Checks[0].Name)
	assert.Equal(t, "database", report.Checks[1].Name)
}

func TestRunWithConsole(t *testing.T) {
	b := newTestBot(t)

	var out bytes.Buffer
	b.AddPlatform(chat.NewConsole(strings.NewReader("hello\n!user info console\n"), &out, "console", "Console"))

	require.NoError(t, b.Run(context.Background()))
	assert.Contains(t, out.String(), "Console -> User: console")
	assert.False(t, b.Plugins().Enabled("core"), "plugins are disabled when Run returns")
}

func TestReload(t *testing.T) {
	extra := &plugin.Func{Info: plugin.Manifest{Name: "extra", Version: "0.2.0"}}
	b := newTestBot(t, extra)
	c := &recordingChat{}
	ctx := context.Background()

	for _, name := range []string{"amy", "ann", "abe"} {
		say(b, c, name, "!help")
	}

	cfg := config.Default()
	cfg.Bot.PageSize = 1
	cfg.Bot.Admins = []string{"amy"}
	cfg.Bot.Plugins = []string{"extra"}
	require.NoError(t, b.Reload(ctx, cfg))

	assert.True(t, b.Plugins().Enabled("extra"))
	assert.Equal(t, "amy -> Page 1/3 (3 users):\namy -> abe", say(b, c, "amy", "!user search a -console"))
	assert.Equal(t, "amy -> Created group mods.", say(b, c, "amy", "!group create mods"))
}
