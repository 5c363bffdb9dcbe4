package bot

import (
	"context"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/goatbot786-md/goattecc-bot/pkg/log"
	"github.com/goatbot786-md/goattecc-bot/pkg/store"
)

const (
	bannedNotice        = "🚫 *You are banned from using this bot!*"
	notAuthorizedNotice = "🚫 *You are not authorized to use this command!*"
	defaultReactEmoji   = "✅"
)

// Store is the persistence surface the bot logic depends on. *store.Store
// satisfies it; tests swap in a fake.
type Store interface {
	UpsertCredential(ctx context.Context, number string, deviceJID string) error
	Credential(ctx context.Context, number string) (*store.CredentialRecord, error)
	Config(ctx context.Context, number string) (store.TenantConfig, error)
	UpdateConfig(ctx context.Context, number string, cfg store.TenantConfig) error
	MarkActive(ctx context.Context, number string) error
	ActiveNumbers(ctx context.Context) ([]string, error)
	SudoList(ctx context.Context, number string) ([]string, error)
	SetSudoList(ctx context.Context, number string, list []string) error
	BanList(ctx context.Context, number string) ([]string, error)
	SetBanList(ctx context.Context, number string, list []string) error
}

// Invocation bundles everything a command handler may need. Reply and React
// are pre-bound to the triggering message.
type Invocation struct {
	Transport Transport
	Store     Store
	Moderator *Moderator
	Registry  *Registry
	Options   Options
	Message   *events.Message

	Tenant       string
	Chat         types.JID
	Sender       types.JID
	SenderNumber string
	IsGroup      bool
	IsOwner      bool
	IsSudo       bool
	Command      string
	Args         []string
	Query        string
}

func (inv *Invocation) Reply(ctx context.Context, text string) error {
	return inv.Transport.Reply(ctx, inv.Message, text)
}

func (inv *Invocation) React(ctx context.Context, emoji string) error {
	return inv.Transport.React(ctx, inv.Message, emoji)
}

// Commands that mutate the ban and sudo lists. Gated on the owner before
// command lookup so a denied attempt is answered even if the command name
// has a typo'd alias.
var privilegedCommands = map[string]bool{
	"ban":     true,
	"unban":   true,
	"sudoadd": true,
	"sudodel": true,
}

// Dispatcher routes classified command messages through the gate pipeline
// and into registered handlers. One instance serves every tenant.
type Dispatcher struct {
	Store     Store
	Registry  *Registry
	Moderator *Moderator
	Options   Options
}

// Dispatch runs one command message through the gates. Gate order matters:
// config, owner, work mode, ban, privileged, anti-link, lookup, fromMe,
// react, invoke. A message dropped by a gate is dropped silently unless the
// gate explicitly answers (ban, privileged).
func (d *Dispatcher) Dispatch(ctx context.Context, t Transport, tenant string, evt *events.Message, cls Classified) {
	defer func() {
		if r := recover(); r != nil {
			log.Session(tenant).WithField("command", cls.Command).
				Errorf("Command handler panic recovered: %v", r)
		}
	}()

	if !cls.IsCommand || cls.Command == "" {
		return
	}

	cfg, err := d.Store.Config(ctx, tenant)
	if err != nil {
		log.Session(tenant).WithError(err).Warn("Config load failed, using defaults")
		cfg = d.Options.DefaultConfig
	}

	isOwner := cls.IsFromMe ||
		(d.Options.OwnerNumber != "" && cls.SenderNumber == d.Options.OwnerNumber) ||
		cls.SenderNumber == tenant

	if !isOwner {
		switch cfg.WorkMode {
		case WorkModePrivate:
			return
		case WorkModeInbox:
			if cls.IsGroup {
				return
			}
		case WorkModeGroups:
			if !cls.IsGroup {
				return
			}
		}
	}

	if !isOwner && d.isBanned(ctx, tenant, cls.SenderNumber) {
		if err := t.SendText(ctx, cls.Chat, bannedNotice); err != nil {
			log.Session(tenant).WithError(err).Warn("Failed to send ban notice")
		}
		return
	}

	if privilegedCommands[cls.Command] && !isOwner {
		if err := t.SendText(ctx, cls.Chat, notAuthorizedNotice); err != nil {
			log.Session(tenant).WithError(err).Warn("Failed to send authorization notice")
		}
		return
	}

	if cls.IsGroup {
		senderIsAdmin := isGroupAdmin(ctx, t, cls.Chat, cls.Sender)
		if d.Moderator.HandleLinkMessage(ctx, t, tenant, evt, cls, senderIsAdmin) {
			return
		}
	}

	cmd := d.Registry.Find(cls.Command)
	if cmd == nil {
		return
	}
	if cmd.OwnerOnly && !isOwner {
		return
	}

	emoji := cmd.React
	if emoji == "" {
		emoji = defaultReactEmoji
	}
	if err := t.React(ctx, evt, emoji); err != nil {
		log.Session(tenant).WithError(err).Debug("Command react failed")
	}

	inv := &Invocation{
		Transport:    t,
		Store:        d.Store,
		Moderator:    d.Moderator,
		Registry:     d.Registry,
		Options:      d.Options,
		Message:      evt,
		Tenant:       tenant,
		Chat:         cls.Chat,
		Sender:       cls.Sender,
		SenderNumber: cls.SenderNumber,
		IsGroup:      cls.IsGroup,
		IsOwner:      isOwner,
		IsSudo:       isOwner || d.isSudo(ctx, tenant, cls.SenderNumber),
		Command:      cls.Command,
		Args:         cls.Args,
		Query:        cls.Query,
	}

	if err := cmd.Run(ctx, inv); err != nil {
		log.Session(tenant).WithField("command", cls.Command).
			WithError(err).Error("Command handler failed")
	}
}

func (d *Dispatcher) isBanned(ctx context.Context, tenant string, number string) bool {
	list, err := d.Store.BanList(ctx, tenant)
	if err != nil {
		log.Session(tenant).WithError(err).Warn("Ban list load failed")
		return false
	}
	return containsString(list, number)
}

func (d *Dispatcher) isSudo(ctx context.Context, tenant string, number string) bool {
	list, err := d.Store.SudoList(ctx, tenant)
	if err != nil {
		return false
	}
	return containsString(list, number)
}

// isGroupAdmin resolves admin status via group metadata. Lookup failures
// count as non-admin; moderation then errs on the strict side.
func isGroupAdmin(ctx context.Context, t Transport, group types.JID, sender types.JID) bool {
	info, err := t.GroupInfo(ctx, group)
	if err != nil {
		return false
	}
	target := sender.ToNonAD()
	for _, p := range info.Participants {
		if p.JID.ToNonAD() == target {
			return p.IsAdmin || p.IsSuperAdmin
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
