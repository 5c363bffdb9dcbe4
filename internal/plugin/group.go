package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/goatbot786-md/goattecc-bot/pkg/bot"
)

const groupOnlyNotice = "❌ This command only works in groups."

func init() {
	bot.Register(bot.Command{
		Pattern:  "welcome",
		Category: "group",
		Desc:     "Toggle join/leave announcements: welcome on|off|status",
		Run:      runWelcome,
	})
	bot.Register(bot.Command{
		Pattern:  "setwelcome",
		Category: "group",
		Desc:     "Set a custom welcome message ({user}, {group}, {members})",
		Run:      runSetWelcome,
	})
	bot.Register(bot.Command{
		Pattern:  "setgoodbye",
		Category: "group",
		Desc:     "Set a custom goodbye message ({user}, {group}, {members})",
		Run:      runSetGoodbye,
	})
	bot.Register(bot.Command{
		Pattern:  "antilink",
		Category: "group",
		Desc:     "Set link policy: antilink off|warn|kick|remove",
		Run:      runAntiLink,
	})
}

func runWelcome(ctx context.Context, inv *bot.Invocation) error {
	if !inv.IsGroup {
		return inv.Reply(ctx, groupOnlyNotice)
	}
	settings := inv.Moderator.Greeting(inv.Chat)

	switch strings.ToLower(inv.Query) {
	case "on":
		settings.Enabled = true
		inv.Moderator.SetGreeting(inv.Chat, settings)
		return inv.Reply(ctx, "✅ Join/leave announcements enabled.")
	case "off":
		settings.Enabled = false
		inv.Moderator.SetGreeting(inv.Chat, settings)
		return inv.Reply(ctx, "✅ Join/leave announcements disabled.")
	case "status", "":
		state := "off"
		if settings.Enabled {
			state = "on"
		}
		return inv.Reply(ctx, fmt.Sprintf("*Announcements:* %s\n*Mode:* %s", state, settings.Mode))
	}
	return inv.Reply(ctx, fmt.Sprintf("Usage: %swelcome on|off|status", inv.Options.Prefix))
}

func runSetWelcome(ctx context.Context, inv *bot.Invocation) error {
	if !inv.IsGroup {
		return inv.Reply(ctx, groupOnlyNotice)
	}
	if inv.Query == "" {
		return inv.Reply(ctx, fmt.Sprintf("Usage: %ssetwelcome <message>\nPlaceholders: {user} {group} {members}", inv.Options.Prefix))
	}
	settings := inv.Moderator.Greeting(inv.Chat)
	settings.WelcomeMessage = inv.Query
	inv.Moderator.SetGreeting(inv.Chat, settings)
	return inv.Reply(ctx, "✅ Welcome message updated.")
}

func runSetGoodbye(ctx context.Context, inv *bot.Invocation) error {
	if !inv.IsGroup {
		return inv.Reply(ctx, groupOnlyNotice)
	}
	if inv.Query == "" {
		return inv.Reply(ctx, fmt.Sprintf("Usage: %ssetgoodbye <message>\nPlaceholders: {user} {group} {members}", inv.Options.Prefix))
	}
	settings := inv.Moderator.Greeting(inv.Chat)
	settings.GoodbyeMessage = inv.Query
	inv.Moderator.SetGreeting(inv.Chat, settings)
	return inv.Reply(ctx, "✅ Goodbye message updated.")
}

func runAntiLink(ctx context.Context, inv *bot.Invocation) error {
	if !inv.IsGroup {
		return inv.Reply(ctx, groupOnlyNotice)
	}

	switch strings.ToLower(inv.Query) {
	case "off":
		inv.Moderator.SetAntiLink(inv.Chat, bot.AntiLinkSettings{Enabled: false})
		return inv.Reply(ctx, "✅ Anti-link disabled.")
	case "on", "warn":
		inv.Moderator.SetAntiLink(inv.Chat, bot.AntiLinkSettings{Enabled: true, Action: bot.LinkActionWarn})
		return inv.Reply(ctx, "✅ Anti-link enabled: offenders are warned.")
	case "kick":
		inv.Moderator.SetAntiLink(inv.Chat, bot.AntiLinkSettings{Enabled: true, Action: bot.LinkActionKick})
		return inv.Reply(ctx, "✅ Anti-link enabled: offenders are removed from the group.")
	case "remove":
		inv.Moderator.SetAntiLink(inv.Chat, bot.AntiLinkSettings{Enabled: true, Action: bot.LinkActionRemove})
		return inv.Reply(ctx, "✅ Anti-link enabled: offending messages are deleted.")
	case "", "status":
		settings := inv.Moderator.AntiLink(inv.Chat)
		if !settings.Enabled {
			return inv.Reply(ctx, "*Anti-link:* off")
		}
		return inv.Reply(ctx, fmt.Sprintf("*Anti-link:* on\n*Action:* %s", settings.Action))
	}
	return inv.Reply(ctx, fmt.Sprintf("Usage: %santilink off|warn|kick|remove", inv.Options.Prefix))
}
