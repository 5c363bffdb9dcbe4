package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/goatbot786-md/goattecc-bot/pkg/bot"
	"github.com/goatbot786-md/goattecc-bot/pkg/validation"
)

func init() {
	bot.Register(bot.Command{
		Pattern:      "ban",
		Category:     "owner",
		Desc:         "Ban a user from the bot",
		OwnerOnly:    true,
		HideFromMenu: true,
		Run:          runBan,
	})
	bot.Register(bot.Command{
		Pattern:      "unban",
		Category:     "owner",
		Desc:         "Lift a user ban",
		OwnerOnly:    true,
		HideFromMenu: true,
		Run:          runUnban,
	})
	bot.Register(bot.Command{
		Pattern:      "sudoadd",
		Category:     "owner",
		Desc:         "Grant sudo rights to a user",
		OwnerOnly:    true,
		HideFromMenu: true,
		Run:          runSudoAdd,
	})
	bot.Register(bot.Command{
		Pattern:      "sudodel",
		Category:     "owner",
		Desc:         "Revoke sudo rights",
		OwnerOnly:    true,
		HideFromMenu: true,
		Run:          runSudoDel,
	})
	bot.Register(bot.Command{
		Pattern:      "mode",
		Category:     "owner",
		Desc:         "Set work mode: public|private|inbox|groups",
		OwnerOnly:    true,
		HideFromMenu: true,
		Run:          runMode,
	})
}

// targetNumber resolves the user a list command acts on: first argument,
// with mention decoration stripped down to digits.
func targetNumber(inv *bot.Invocation) string {
	if len(inv.Args) == 0 {
		return ""
	}
	return validation.SanitizeNumber(inv.Args[0])
}

func runBan(ctx context.Context, inv *bot.Invocation) error {
	target := targetNumber(inv)
	if target == "" {
		return inv.Reply(ctx, fmt.Sprintf("Usage: %sban <number or @mention>", inv.Options.Prefix))
	}

	list, err := inv.Store.BanList(ctx, inv.Tenant)
	if err != nil {
		return err
	}
	for _, number := range list {
		if number == target {
			return inv.Reply(ctx, "User is already banned.")
		}
	}
	if err := inv.Store.SetBanList(ctx, inv.Tenant, append(list, target)); err != nil {
		return err
	}
	return inv.Reply(ctx, fmt.Sprintf("🚫 Banned @%s from using this bot.", target))
}

func runUnban(ctx context.Context, inv *bot.Invocation) error {
	target := targetNumber(inv)
	if target == "" {
		return inv.Reply(ctx, fmt.Sprintf("Usage: %sunban <number or @mention>", inv.Options.Prefix))
	}

	list, err := inv.Store.BanList(ctx, inv.Tenant)
	if err != nil {
		return err
	}
	kept := removeString(list, target)
	if len(kept) == len(list) {
		return inv.Reply(ctx, "User is not banned.")
	}
	if err := inv.Store.SetBanList(ctx, inv.Tenant, kept); err != nil {
		return err
	}
	return inv.Reply(ctx, fmt.Sprintf("✅ Unbanned @%s.", target))
}

func runSudoAdd(ctx context.Context, inv *bot.Invocation) error {
	target := targetNumber(inv)
	if target == "" {
		return inv.Reply(ctx, fmt.Sprintf("Usage: %ssudoadd <number or @mention>", inv.Options.Prefix))
	}

	list, err := inv.Store.SudoList(ctx, inv.Tenant)
	if err != nil {
		return err
	}
	for _, number := range list {
		if number == target {
			return inv.Reply(ctx, "User already has sudo rights.")
		}
	}
	if err := inv.Store.SetSudoList(ctx, inv.Tenant, append(list, target)); err != nil {
		return err
	}
	return inv.Reply(ctx, fmt.Sprintf("✅ Granted sudo rights to @%s.", target))
}

func runSudoDel(ctx context.Context, inv *bot.Invocation) error {
	target := targetNumber(inv)
	if target == "" {
		return inv.Reply(ctx, fmt.Sprintf("Usage: %ssudodel <number or @mention>", inv.Options.Prefix))
	}

	list, err := inv.Store.SudoList(ctx, inv.Tenant)
	if err != nil {
		return err
	}
	kept := removeString(list, target)
	if len(kept) == len(list) {
		return inv.Reply(ctx, "User does not have sudo rights.")
	}
	if err := inv.Store.SetSudoList(ctx, inv.Tenant, kept); err != nil {
		return err
	}
	return inv.Reply(ctx, fmt.Sprintf("✅ Revoked sudo rights from @%s.", target))
}

func runMode(ctx context.Context, inv *bot.Invocation) error {
	mode := strings.ToLower(inv.Query)
	switch mode {
	case bot.WorkModePublic, bot.WorkModePrivate, bot.WorkModeInbox, bot.WorkModeGroups:
	case "":
		cfg, err := inv.Store.Config(ctx, inv.Tenant)
		if err != nil {
			return err
		}
		return inv.Reply(ctx, fmt.Sprintf("*Work mode:* %s", cfg.WorkMode))
	default:
		return inv.Reply(ctx, fmt.Sprintf("Usage: %smode public|private|inbox|groups", inv.Options.Prefix))
	}

	cfg, err := inv.Store.Config(ctx, inv.Tenant)
	if err != nil {
		return err
	}
	cfg.WorkMode = mode
	if err := inv.Store.UpdateConfig(ctx, inv.Tenant, cfg); err != nil {
		return err
	}
	return inv.Reply(ctx, fmt.Sprintf("✅ Work mode set to *%s*.", mode))
}

func removeString(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
