// Package plugin registers the built-in chat commands. Importing it for
// side effects populates the default command registry.
package plugin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goatbot786-md/goattecc-bot/pkg/bot"
)

var startedAt = time.Now()

func init() {
	bot.Register(bot.Command{
		Pattern:  "ping",
		Category: "general",
		Desc:     "Measure bot response time",
		React:    "🏓",
		Run:      runPing,
	})
	bot.Register(bot.Command{
		Pattern:  "alive",
		Aliases:  []string{"uptime"},
		Category: "general",
		Desc:     "Show bot status and uptime",
		React:    "👋",
		Run:      runAlive,
	})
	bot.Register(bot.Command{
		Pattern:  "menu",
		Aliases:  []string{"help"},
		Category: "general",
		Desc:     "List available commands",
		React:    "📜",
		Run:      runMenu,
	})
	bot.Register(bot.Command{
		Pattern:  "owner",
		Category: "general",
		Desc:     "Share the owner contact",
		Run:      runOwner,
	})
	bot.Register(bot.Command{
		Pattern:      "jid",
		Category:     "general",
		Desc:         "Show the JID of the current chat",
		HideFromMenu: true,
		Run:          runJID,
	})
}

func runPing(ctx context.Context, inv *bot.Invocation) error {
	start := time.Now()
	if err := inv.Reply(ctx, "Pinging..."); err != nil {
		return err
	}
	elapsed := time.Since(start).Milliseconds()
	return inv.Reply(ctx, fmt.Sprintf("🏓 *Pong!*\n*Speed:* %dms", elapsed))
}

func runAlive(ctx context.Context, inv *bot.Invocation) error {
	uptime := time.Since(startedAt).Round(time.Second)
	text := fmt.Sprintf("*%s is alive!*\n\n*Uptime:* %s\n*Prefix:* %s\n\n%s",
		inv.Options.Name, uptime, inv.Options.Prefix, inv.Options.Footer)
	return inv.Reply(ctx, text)
}

func runMenu(ctx context.Context, inv *bot.Invocation) error {
	grouped := make(map[string][]bot.Command)
	for _, cmd := range inv.Registry.Commands() {
		if cmd.HideFromMenu {
			continue
		}
		grouped[cmd.Category] = append(grouped[cmd.Category], cmd)
	}

	categories := make([]string, 0, len(grouped))
	for cat := range grouped {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	fmt.Fprintf(&b, "╭───「 *%s* 」\n", inv.Options.Name)
	fmt.Fprintf(&b, "│ *Prefix:* %s\n", inv.Options.Prefix)
	b.WriteString("╰───────────⊷\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "\n╭───「 *%s* 」\n", strings.ToUpper(cat))
		for _, cmd := range grouped[cat] {
			fmt.Fprintf(&b, "│ %s%s\n", inv.Options.Prefix, cmd.Pattern)
		}
		b.WriteString("╰───────────⊷\n")
	}
	b.WriteString("\n" + inv.Options.Footer)
	return inv.Reply(ctx, b.String())
}

func runOwner(ctx context.Context, inv *bot.Invocation) error {
	owner := inv.Options.OwnerNumber
	if owner == "" {
		return inv.Reply(ctx, "No owner number configured.")
	}
	vcard := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:" + inv.Options.Name + " Owner",
		"TEL;type=CELL;waid=" + owner + ":+" + owner,
		"END:VCARD",
	}, "\n")
	return inv.Transport.SendContact(ctx, inv.Chat, inv.Options.Name+" Owner", vcard)
}

func runJID(ctx context.Context, inv *bot.Invocation) error {
	return inv.Reply(ctx, inv.Chat.String())
}
