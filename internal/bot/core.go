package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/manebot/manebot/foundation/command"
	"github.com/manebot/manebot/foundation/command/chained"
	mberror "github.com/manebot/manebot/foundation/core/error"
	"github.com/manebot/manebot/foundation/search"
	"github.com/manebot/manebot/foundation/security"
	"github.com/manebot/manebot/internal/plugin"
	"github.com/manebot/manebot/internal/store"
	"github.com/manebot/manebot/pkg/core/version"
)

const corePluginName = "core"

const allow = security.Allow

// Permission nodes checked by the core commands. Reading commands default
// to Allow, everything that changes state defaults to Deny.
var (
	permBan        = security.Get("system.ban")
	permBanList    = security.Get("system.ban.list")
	permUserInfo   = security.Get("system.user.info")
	permUserSearch = security.Get("system.user.search")
	permGroup      = security.Get("system.group")
	permGroupView  = security.Get("system.group.view")
	permPermission = security.Get("system.permission")
	permPlugin     = security.Get("system.plugin")

	corePermissions = []*security.Permission{
		permBan, permBanList, permUserInfo, permUserSearch,
		permGroup, permGroupView, permPermission, permPlugin,
	}
)

// corePlugin provides the built-in administration commands
type corePlugin struct {
	bot *Bot
}

func newCorePlugin(b *Bot) plugin.Plugin {
	return &corePlugin{bot: b}
}

func (p *corePlugin) Manifest() plugin.Manifest {
	return plugin.Manifest{
		Name:        corePluginName,
		Version:     version.Core,
		Description: "Built-in help, user, group, ban and permission commands",
	}
}

func (p *corePlugin) Enable(_ context.Context, pc *plugin.Context) error {
	type registration struct {
		label   string
		build   func(*chained.Executor) error
		aliases []string
	}

	commands := []registration{
		{"help", p.helpCommand, []string{"?"}},
		{"ban", p.banCommand, nil},
		{"unban", p.unbanCommand, nil},
		{"user", p.userCommand, nil},
		{"group", p.groupCommand, nil},
		{"permission", p.permissionCommand, []string{"perm"}},
		{"search", p.searchCommand, nil},
		{"plugin", p.pluginCommand, []string{"plugins"}},
	}

	for _, c := range commands {
		executor := chained.New(chained.Options{Logger: pc.Logger().Foundation()})
		if err := c.build(executor); err != nil {
			return mberror.Wrap(err, "building command "+c.label)
		}
		if err := pc.Command(c.label, executor, c.aliases...); err != nil {
			return err
		}
	}
	return nil
}

func (p *corePlugin) Disable(context.Context) error {
	return nil
}

// chain registers one argument chain with its handler and description
func chain(e *chained.Executor, fn chained.Func, description string, args ...chained.Argument) error {
	node, err := e.WithArguments(args...)
	if err != nil {
		return err
	}
	node.Executes(fn).Describe(description)
	return nil
}

func (p *corePlugin) helpCommand(e *chained.Executor) error {
	if err := chain(e, p.listCommands, "lists every command", chained.None()); err != nil {
		return err
	}
	return chain(e, p.showHelp, "shows the usage of a command", chained.Following("command"))
}

func (p *corePlugin) listCommands(_ context.Context, sender command.Sender, _ string, _ []interface{}) error {
	commands := p.bot.commands
	for _, label := range commands.Labels() {
		line := commands.Prefix() + label
		if aliases := commands.Aliases(label); len(aliases) > 0 {
			line += " (" + strings.Join(aliases, ", ") + ")"
		}
		sender.SendMessage(line)
	}
	return nil
}

func (p *corePlugin) showHelp(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	line := args[0].(string)
	lines, err := p.bot.commands.Help(ctx, sender, line)
	if err != nil {
		return err
	}

	label := strings.Fields(strings.TrimPrefix(line, p.bot.commands.Prefix()))[0]
	if len(lines) == 0 {
		sender.SendMessage("No usage information for " + label + ".")
		return nil
	}
	for _, l := range lines {
		sender.SendMessage(p.bot.commands.Prefix() + strings.ToLower(label) + " " + l)
	}
	return nil
}

func (p *corePlugin) banCommand(e *chained.Executor) error {
	user := chained.String("user")
	if err := chain(e, p.listBans, "lists active bans", chained.Label("list")); err != nil {
		return err
	}
	node, err := e.WithArguments(user)
	if err != nil {
		return err
	}
	node.Executes(p.ban).Describe("bans a user")

	reason, err := node.Then(chained.Following("reason"))
	if err != nil {
		return err
	}
	reason.Executes(p.ban).Describe("bans a user with a reason")

	forLabel, err := node.Then(chained.Label("for"))
	if err != nil {
		return err
	}
	minutes, err := forLabel.Then(chained.Integer("minutes"))
	if err != nil {
		return err
	}
	minutes.Executes(p.tempBan).Describe("bans a user for some minutes")
	timed, err := minutes.Then(chained.Following("reason"))
	if err != nil {
		return err
	}
	timed.Executes(p.tempBan).Describe("bans a user for some minutes with a reason")
	return nil
}

func (p *corePlugin) ban(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permBan, security.Deny); err != nil {
		return err
	}
	reason := ""
	if len(args) > 1 {
		reason = args[1].(string)
	}
	return p.applyBan(ctx, sender, args[0].(string), reason, nil)
}

func (p *corePlugin) tempBan(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permBan, security.Deny); err != nil {
		return err
	}
	minutes := args[2].(int)
	if minutes < 1 {
		return mberror.New("Ban length must be at least one minute.").WithCode(mberror.CodeInvalidFormat)
	}
	until := time.Now().Add(time.Duration(minutes) * time.Minute)

	reason := ""
	if len(args) > 3 {
		reason = args[3].(string)
	}
	return p.applyBan(ctx, sender, args[0].(string), reason, &until)
}

func (p *corePlugin) applyBan(ctx context.Context, sender command.Sender, username, reason string, until *time.Time) error {
	if strings.EqualFold(username, sender.Username()) {
		return mberror.New("You cannot ban yourself.").WithCode(mberror.CodeInvalidFormat)
	}
	ban, err := p.bot.store.Ban(ctx, username, sender.Username(), reason, until)
	if err != nil {
		return err
	}
	sender.SendMessage(describeBan(ban))
	return nil
}

func (p *corePlugin) listBans(ctx context.Context, sender command.Sender, _ string, _ []interface{}) error {
	if err := security.Check(ctx, sender, permBanList, security.Deny); err != nil {
		return err
	}
	bans, err := p.bot.store.ListBans(ctx)
	if err != nil {
		return err
	}
	if len(bans) == 0 {
		sender.SendMessage("No active bans.")
		return nil
	}
	for _, ban := range bans {
		sender.SendMessage(describeBan(ban))
	}
	return nil
}

func describeBan(ban *store.Ban) string {
	line := "Banned " + ban.Username
	if ban.BannedBy != "" {
		line += " by " + ban.BannedBy
	}
	if ban.EndsAt != nil {
		line += " until " + ban.EndsAt.Format(time.RFC3339)
	}
	if ban.Reason != "" {
		line += ": " + ban.Reason
	}
	return line
}

func (p *corePlugin) unbanCommand(e *chained.Executor) error {
	return chain(e, p.unban, "ends the active bans of a user", chained.String("user"))
}

func (p *corePlugin) unban(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permBan, security.Deny); err != nil {
		return err
	}
	username := args[0].(string)
	n, err := p.bot.store.Unban(ctx, username)
	if err != nil {
		return err
	}
	sender.SendMessage(fmt.Sprintf("Unbanned %s (%d ban(s) ended).", username, n))
	return nil
}

func (p *corePlugin) userCommand(e *chained.Executor) error {
	if err := chain(e, p.userInfo, "shows a user", chained.Label("info"), chained.String("user")); err != nil {
		return err
	}
	return chain(e, p.userSearch, "searches users", chained.Label("search"), chained.Query("query"))
}

func (p *corePlugin) userInfo(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permUserInfo, security.Allow); err != nil {
		return err
	}
	user, err := p.bot.store.GetUser(ctx, args[1].(string))
	if err != nil {
		return err
	}
	groups, err := p.bot.store.GroupsOf(ctx, user.Username)
	if err != nil {
		return err
	}
	ban, err := p.bot.store.ActiveBan(ctx, user.Username)
	if err != nil {
		return err
	}

	sender.SendMessage("User: " + user.Username)
	if user.DisplayName != "" {
		sender.SendMessage("Display name: " + user.DisplayName)
	}
	sender.SendMessage("Known since: " + user.CreatedAt.Format(time.RFC3339))
	if len(groups) > 0 {
		sender.SendMessage("Groups: " + strings.Join(groups, ", "))
	}
	if ban != nil {
		sender.SendMessage(describeBan(ban))
	}
	return nil
}

func (p *corePlugin) userSearch(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permUserSearch, security.Allow); err != nil {
		return err
	}
	query := args[1].(*search.Search)
	page, err := p.bot.store.SearchUsers(ctx, query, p.bot.config().Bot.PageSize)
	if err != nil {
		return err
	}

	sender.SendMessage(fmt.Sprintf("Page %d/%d (%d users):", page.Number, page.Pages(), page.Total))
	for _, user := range page.Users {
		line := user.Username
		if user.DisplayName != "" {
			line += " (" + user.DisplayName + ")"
		}
		sender.SendMessage(line)
	}
	return nil
}

func (p *corePlugin) groupCommand(e *chained.Executor) error {
	chains := []struct {
		fn          chained.Func
		description string
		args        []chained.Argument
	}{
		{p.groupCreate, "creates a group", []chained.Argument{chained.Label("create"), chained.String("group")}},
		{p.groupAdd, "adds a user to a group", []chained.Argument{chained.Label("add"), chained.String("group"), chained.String("user")}},
		{p.groupRemove, "removes a user from a group", []chained.Argument{chained.Label("remove"), chained.String("group"), chained.String("user")}},
		{p.groupList, "lists the groups of a user", []chained.Argument{chained.Label("list"), chained.String("user")}},
		{p.groupMembers, "lists the members of a group", []chained.Argument{chained.Label("members"), chained.String("group")}},
	}
	for _, c := range chains {
		if err := chain(e, c.fn, c.description, c.args...); err != nil {
			return err
		}
	}
	return nil
}

func (p *corePlugin) groupCreate(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permGroup, security.Deny); err != nil {
		return err
	}
	group, err := p.bot.store.CreateGroup(ctx, args[1].(string))
	if err != nil {
		return err
	}
	sender.SendMessage("Created group " + group.Name + ".")
	return nil
}

func (p *corePlugin) groupAdd(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permGroup, security.Deny); err != nil {
		return err
	}
	group, username := args[1].(string), args[2].(string)
	if err := p.bot.store.AddMember(ctx, group, username); err != nil {
		return err
	}
	sender.SendMessage("Added " + username + " to " + group + ".")
	return nil
}

func (p *corePlugin) groupRemove(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permGroup, security.Deny); err != nil {
		return err
	}
	group, username := args[1].(string), args[2].(string)
	if err := p.bot.store.RemoveMember(ctx, group, username); err != nil {
		return err
	}
	sender.SendMessage("Removed " + username + " from " + group + ".")
	return nil
}

func (p *corePlugin) groupList(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permGroupView, security.Allow); err != nil {
		return err
	}
	username := args[1].(string)
	groups, err := p.bot.store.GroupsOf(ctx, username)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		sender.SendMessage(username + " is in no groups.")
		return nil
	}
	sender.SendMessage(username + ": " + strings.Join(groups, ", "))
	return nil
}

func (p *corePlugin) groupMembers(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permGroupView, security.Allow); err != nil {
		return err
	}
	group := args[1].(string)
	members, err := p.bot.store.Members(ctx, group)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		sender.SendMessage(group + " has no members.")
		return nil
	}
	sender.SendMessage(group + ": " + strings.Join(members, ", "))
	return nil
}

func (p *corePlugin) permissionCommand(e *chained.Executor) error {
	if err := chain(e, p.permissionSet, "grants or denies a node to a user or group",
		chained.Choice("grant", "deny"), chained.Choice("user", "group"), chained.String("subject"), chained.String("node")); err != nil {
		return err
	}
	if err := chain(e, p.permissionClear, "removes a grant from a user or group",
		chained.Label("clear"), chained.Choice("user", "group"), chained.String("subject"), chained.String("node")); err != nil {
		return err
	}
	return chain(e, p.permissionCheck, "checks a node for a user",
		chained.Label("check"), chained.String("user"), chained.String("node"))
}

func (p *corePlugin) permissionSet(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permPermission, security.Deny); err != nil {
		return err
	}
	grant := security.Deny
	if args[0].(string) == "grant" {
		grant = security.Allow
	}
	kind, subject, perm := store.SubjectKind(args[1].(string)), args[2].(string), security.Get(args[3].(string))

	if err := p.bot.store.SetGrant(ctx, kind, subject, perm, grant); err != nil {
		return err
	}
	sender.SendMessage(fmt.Sprintf("Set %s to %s for %s %s.", perm, grant, kind, subject))
	return nil
}

func (p *corePlugin) permissionClear(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permPermission, security.Deny); err != nil {
		return err
	}
	kind, subject, perm := store.SubjectKind(args[1].(string)), args[2].(string), security.Get(args[3].(string))

	if err := p.bot.store.ClearGrant(ctx, kind, subject, perm); err != nil {
		return err
	}
	sender.SendMessage(fmt.Sprintf("Cleared %s for %s %s.", perm, kind, subject))
	return nil
}

func (p *corePlugin) permissionCheck(ctx context.Context, sender command.Sender, _ string, args []interface{}) error {
	if err := security.Check(ctx, sender, permPermission, security.Deny); err != nil {
		return err
	}
	username, perm := args[1].(string), security.Get(args[2].(string))

	ok, err := p.bot.store.HasPermission(ctx, username, perm, security.Deny)
	if err != nil {
		return err
	}
	result := "denied"
	if ok {
		result = "allowed"
	}
	sender.SendMessage(fmt.Sprintf("%s is %s %s.", username, result, perm))
	return nil
}

func (p *corePlugin) searchCommand(e *chained.Executor) error {
	return chain(e, p.echoSearch, "shows how a query is parsed", chained.Query("query"))
}

func (p *corePlugin) echoSearch(_ context.Context, sender command.Sender, _ string, args []interface{}) error {
	query := args[0].(*search.Search)
	sender.SendMessage("Query: " + query.Root.String())
	sender.SendMessage(fmt.Sprintf("Page: %d", query.Page))
	return nil
}

func (p *corePlugin) pluginCommand(e *chained.Executor) error {
	return chain(e, p.listPlugins, "lists plugins", chained.Label("list"))
}

func (p *corePlugin) listPlugins(ctx context.Context, sender command.Sender, _ string, _ []interface{}) error {
	if err := security.Check(ctx, sender, permPlugin, security.Allow); err != nil {
		return err
	}
	for _, st := range p.bot.plugins.List() {
		state := "disabled"
		if st.Enabled {
			state = "enabled"
		}
		line := fmt.Sprintf("%s %s (%s)", st.Manifest.Name, st.Manifest.Version, state)
		if len(st.Commands) > 0 {
			line += ": " + strings.Join(st.Commands, ", ")
		}
		sender.SendMessage(line)
	}
	return nil
}
