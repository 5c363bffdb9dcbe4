package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/goatbot786-md/goattecc-bot/pkg/log"
)

// Greeting modes and anti-link actions.
const (
	GreetWelcome = "welcome"
	GreetGoodbye = "goodbye"
	GreetBoth    = "both"

	LinkActionWarn   = "warn"
	LinkActionKick   = "kick"
	LinkActionRemove = "remove"
)

// welcomeDedupWindow suppresses duplicate greetings when the server
// delivers the same join twice in quick succession.
const welcomeDedupWindow = 30 * time.Second

var linkPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|chat\.whatsapp\.com/\S+|whatsapp\.com/\S+)`)

// GreetingSettings controls join/leave announcements for one group.
type GreetingSettings struct {
	Enabled        bool
	Mode           string
	WelcomeMessage string
	GoodbyeMessage string
}

// AntiLinkSettings controls link policing for one group.
type AntiLinkSettings struct {
	Enabled bool
	Action  string
}

// Moderator owns all group moderation state: greeting settings, anti-link
// settings and the recent-join dedup ledger. State is in-memory only and
// resets on restart; settings survive only as long as the process.
type Moderator struct {
	mu        sync.Mutex
	greetings map[string]GreetingSettings
	antilink  map[string]AntiLinkSettings
	lastJoin  map[string]time.Time // group|participant -> announce time
	now       func() time.Time
}

func NewModerator() *Moderator {
	return &Moderator{
		greetings: make(map[string]GreetingSettings),
		antilink:  make(map[string]AntiLinkSettings),
		lastJoin:  make(map[string]time.Time),
		now:       time.Now,
	}
}

func (m *Moderator) Greeting(group types.JID) GreetingSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.greetings[group.String()]; ok {
		return s
	}
	return GreetingSettings{Enabled: true, Mode: GreetBoth}
}

func (m *Moderator) SetGreeting(group types.JID, s GreetingSettings) {
	if s.Mode == "" {
		s.Mode = GreetBoth
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.greetings[group.String()] = s
}

func (m *Moderator) AntiLink(group types.JID) AntiLinkSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.antilink[group.String()]; ok {
		return s
	}
	return AntiLinkSettings{Enabled: false, Action: LinkActionWarn}
}

func (m *Moderator) SetAntiLink(group types.JID, s AntiLinkSettings) {
	if s.Action == "" {
		s.Action = LinkActionWarn
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.antilink[group.String()] = s
}

// shouldAnnounceJoin records the join and reports whether it is the first
// one for this participant inside the dedup window. Leaves are never
// deduplicated; only joins arrive duplicated in practice.
func (m *Moderator) shouldAnnounceJoin(group types.JID, participant types.JID) bool {
	key := group.String() + "|" + participant.ToNonAD().String()
	nowT := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if last, ok := m.lastJoin[key]; ok && nowT.Sub(last) < welcomeDedupWindow {
		return false
	}
	m.lastJoin[key] = nowT

	// Opportunistic sweep keeps the ledger from growing unbounded.
	for k, t := range m.lastJoin {
		if nowT.Sub(t) >= welcomeDedupWindow {
			delete(m.lastJoin, k)
		}
	}
	return true
}

// HandleJoin announces new participants. Failures are logged per
// participant; one bad send never blocks the rest of the batch.
func (m *Moderator) HandleJoin(ctx context.Context, t Transport, tenant string, group types.JID, participants []types.JID) {
	settings := m.Greeting(group)
	if !settings.Enabled || (settings.Mode != GreetWelcome && settings.Mode != GreetBoth) {
		return
	}

	info, err := t.GroupInfo(ctx, group)
	if err != nil {
		log.Session(tenant).WithError(err).Warn("Cannot fetch group metadata for welcome")
		return
	}

	for _, participant := range participants {
		if !m.shouldAnnounceJoin(group, participant) {
			continue
		}
		text := renderGreeting(settings.WelcomeMessage, defaultWelcomeTemplate, participant, info)
		if err := t.SendMention(ctx, group, text, []types.JID{participant}); err != nil {
			log.Session(tenant).WithError(err).Warn("Failed to send welcome message")
		}
	}
}

// HandleLeave announces departures.
func (m *Moderator) HandleLeave(ctx context.Context, t Transport, tenant string, group types.JID, participants []types.JID) {
	settings := m.Greeting(group)
	if !settings.Enabled || (settings.Mode != GreetGoodbye && settings.Mode != GreetBoth) {
		return
	}

	info, err := t.GroupInfo(ctx, group)
	if err != nil {
		log.Session(tenant).WithError(err).Warn("Cannot fetch group metadata for goodbye")
		return
	}

	for _, participant := range participants {
		text := renderGreeting(settings.GoodbyeMessage, defaultGoodbyeTemplate, participant, info)
		if err := t.SendMention(ctx, group, text, []types.JID{participant}); err != nil {
			log.Session(tenant).WithError(err).Warn("Failed to send goodbye message")
		}
	}
}

// HandleLinkMessage enforces the group link policy for one message. It
// returns true when the message violated the policy and was handled, which
// tells the dispatcher to stop processing it. Group admins are exempt.
func (m *Moderator) HandleLinkMessage(ctx context.Context, t Transport, tenant string, evt *events.Message, cls Classified, senderIsAdmin bool) bool {
	if !cls.IsGroup || cls.IsFromMe {
		return false
	}
	// Only plain and quoted text carry policed links. Captions and
	// interactive reply IDs are outside the policy.
	if cls.ContentType != "conversation" && cls.ContentType != "extendedTextMessage" {
		return false
	}
	settings := m.AntiLink(cls.Chat)
	if !settings.Enabled || senderIsAdmin {
		return false
	}
	if !linkPattern.MatchString(cls.Body) {
		return false
	}

	tag := "@" + cls.SenderNumber
	mention := []types.JID{cls.Sender}

	switch settings.Action {
	case LinkActionKick:
		if err := t.RemoveParticipant(ctx, cls.Chat, cls.Sender); err != nil {
			log.Session(tenant).WithError(err).Warn("Anti-link kick failed")
		}
		m.notify(ctx, t, tenant, cls.Chat, fmt.Sprintf("🔗 %s was removed for sending links!", tag), mention)
	case LinkActionRemove:
		if err := t.DeleteMessage(ctx, cls.Chat, cls.Sender, evt.Info.ID); err != nil {
			log.Session(tenant).WithError(err).Warn("Anti-link delete failed")
		}
		m.notify(ctx, t, tenant, cls.Chat, fmt.Sprintf("🔗 %s links are not allowed here, message removed!", tag), mention)
	default:
		m.notify(ctx, t, tenant, cls.Chat, fmt.Sprintf("⚠️ %s please do not send links in this group!", tag), mention)
	}
	return true
}

func (m *Moderator) notify(ctx context.Context, t Transport, tenant string, chat types.JID, text string, mentions []types.JID) {
	if err := t.SendMention(ctx, chat, text, mentions); err != nil {
		log.Session(tenant).WithError(err).Warn("Anti-link notice failed")
	}
}

const defaultWelcomeTemplate = `╭───────────────⊷
│👋 *WELCOME*
│*User:* {user}
│*Group:* {group}
│*Members:* {members}
│*Read the group rules!*
╰───────────────⊷`

const defaultGoodbyeTemplate = `╭───────────────⊷
│👋 *GOODBYE*
│*User:* {user}
│*Group:* {group}
│*Members:* {members}
╰───────────────⊷`

// renderGreeting substitutes {user}, {group} and {members} placeholders.
func renderGreeting(custom string, fallback string, participant types.JID, info *types.GroupInfo) string {
	template := custom
	if strings.TrimSpace(template) == "" {
		template = fallback
	}
	text := strings.ReplaceAll(template, "{user}", "@"+participant.ToNonAD().User)
	text = strings.ReplaceAll(text, "{group}", info.Name)
	text = strings.ReplaceAll(text, "{members}", strconv.Itoa(len(info.Participants)))
	return text
}
