package bot

import (
	"github.com/goatbot786-md/goattecc-bot/pkg/env"
	"github.com/goatbot786-md/goattecc-bot/pkg/store"
	"github.com/goatbot786-md/goattecc-bot/pkg/validation"
)

// Options is the process-wide bot profile. Per-number behavior lives in
// store.TenantConfig; everything here is shared by all tenants.
type Options struct {
	Name            string
	OwnerNumber     string
	Prefix          string
	Footer          string
	ImageURL        string
	GroupInviteLink string
	ChannelLink     string
	ChannelJIDs     []string
	AutoLikeEmojis  []string
	DefaultConfig   store.TenantConfig
}

func OptionsFromEnv() Options {
	return Options{
		Name:            env.GetEnvStringOrDefault("BOT_NAME", "GoatTecc Bot"),
		OwnerNumber:     validation.SanitizeNumber(env.GetEnvStringOrDefault("OWNER_NUMBER", "")),
		Prefix:          env.GetEnvStringOrDefault("BOT_PREFIX", "."),
		Footer:          env.GetEnvStringOrDefault("BOT_FOOTER", "> © GoatTecc"),
		ImageURL:        env.GetEnvStringOrDefault("BOT_IMAGE_URL", ""),
		GroupInviteLink: env.GetEnvStringOrDefault("BOT_GROUP_INVITE_LINK", ""),
		ChannelLink:     env.GetEnvStringOrDefault("BOT_CHANNEL_LINK", ""),
		ChannelJIDs:     env.GetEnvListOrDefault("BOT_NEWSLETTER_JIDS", nil),
		AutoLikeEmojis: env.GetEnvListOrDefault("BOT_AUTO_LIKE_EMOJIS",
			[]string{"🖤", "🍬", "💫", "🎈", "💚", "🎶", "❤️", "⚽"}),
		DefaultConfig: store.TenantConfig{
			WorkMode:       env.GetEnvStringOrDefault("BOT_WORK_MODE", WorkModePublic),
			AutoViewStatus: env.GetEnvBoolOrDefault("BOT_AUTO_VIEW_STATUS", true),
			AutoLikeStatus: env.GetEnvBoolOrDefault("BOT_AUTO_LIKE_STATUS", true),
			AutoRecording:  env.GetEnvBoolOrDefault("BOT_AUTO_RECORDING", false),
			AntiCall:       env.GetEnvBoolOrDefault("BOT_ANTI_CALL", false),
		},
	}
}

// Work modes restrict which chat types a tenant accepts commands from.
const (
	WorkModePublic  = "public"
	WorkModePrivate = "private"
	WorkModeInbox   = "inbox"
	WorkModeGroups  = "groups"
)
