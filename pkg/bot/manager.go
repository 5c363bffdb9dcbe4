package bot

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	qrCode "github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/goatbot786-md/goattecc-bot/pkg/log"
	"github.com/goatbot786-md/goattecc-bot/pkg/validation"
)

const (
	pairWarmupDelay      = 1500 * time.Millisecond
	openSettleDelay      = 3 * time.Second
	reconnectDelay       = 10 * time.Second
	maxRestartAttempts   = 3
	groupJoinRetries     = 3
	groupJoinDelay       = 2 * time.Second
	newSessionWindow     = time.Minute
	statusRetries        = 3
	statusRetryDelay     = time.Second
	newsletterRetryDelay = 1500 * time.Millisecond
	pairRequestTimeout   = 90 * time.Second
	qrImageSize          = 256
	reconnectParallel    = 2
)

var (
	ErrAlreadyConnected  = errors.New("number is already connected")
	ErrPairingInProgress = errors.New("pairing already in progress for this number")
	ErrNotConnected      = errors.New("number is not connected")
)

// Session is one live tenant connection. Exactly one Session exists per
// number at any time; the Manager enforces that.
type Session struct {
	Number    string
	Client    *whatsmeow.Client
	Transport Transport
	CreatedAt time.Time

	mu       sync.Mutex
	restarts int
}

func (s *Session) nextRestart() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restarts++
	return s.restarts
}

func (s *Session) resetRestarts() {
	s.mu.Lock()
	s.restarts = 0
	s.mu.Unlock()
}

// PairResult reports how a pairing request concluded. Code is only set for
// a fresh phone-code pairing.
type PairResult struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
}

// QRResult carries a freshly generated QR login image.
type QRResult struct {
	Status     string `json:"status"`
	Image      string `json:"image,omitempty"`
	TimeoutSec int    `json:"timeout_seconds,omitempty"`
}

// StatusSnapshot is a point-in-time view of one session.
type StatusSnapshot struct {
	Number        string    `json:"number"`
	Connected     bool      `json:"connected"`
	LoggedIn      bool      `json:"logged_in"`
	ConnectedAt   time.Time `json:"connected_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

// ReconnectOutcome is one entry of the ReconnectAll aggregate.
type ReconnectOutcome struct {
	Number string `json:"number"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Manager owns every live session. All pairing, reconnection and teardown
// flows through it; nothing else touches the session table.
type Manager struct {
	opts      Options
	store     Store
	container *sqlstore.Container

	registry   *Registry
	moderator  *Moderator
	dispatcher *Dispatcher

	mu         sync.Mutex
	sessions   map[string]*Session
	connecting map[string]struct{}

	reconnectLimiter *rate.Limiter

	imageOnce  sync.Once
	imageBytes []byte
}

func NewManager(opts Options, st Store, container *sqlstore.Container) *Manager {
	wastore.DeviceProps.Os = proto.String(runtime.GOOS)
	wastore.DeviceProps.PlatformType = waCompanionReg.DeviceProps_CHROME.Enum()
	wastore.DeviceProps.RequireFullSync = proto.Bool(false)

	m := &Manager{
		opts:             opts,
		store:            st,
		container:        container,
		registry:         DefaultRegistry(),
		moderator:        NewModerator(),
		sessions:         make(map[string]*Session),
		connecting:       make(map[string]struct{}),
		reconnectLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	m.dispatcher = &Dispatcher{
		Store:     st,
		Registry:  m.registry,
		Moderator: m.moderator,
		Options:   opts,
	}
	return m
}

func (m *Manager) Moderator() *Moderator { return m.moderator }

// Session returns the live session for a number, or nil.
func (m *Manager) Session(number string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[number]
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) addSession(sess *Session) {
	m.mu.Lock()
	m.sessions[sess.Number] = sess
	m.mu.Unlock()
}

// removeSession drops the registry entry only if it still points at this
// exact session, so a stale teardown cannot evict a successor.
func (m *Manager) removeSession(sess *Session) {
	m.mu.Lock()
	if m.sessions[sess.Number] == sess {
		delete(m.sessions, sess.Number)
	}
	m.mu.Unlock()
}

// beginPairing is the per-number connect lock: test-and-set under the
// manager mutex. endPairing must always run, error paths included.
func (m *Manager) beginPairing(number string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.connecting[number]; busy {
		return false
	}
	m.connecting[number] = struct{}{}
	return true
}

func (m *Manager) endPairing(number string) {
	m.mu.Lock()
	delete(m.connecting, number)
	m.mu.Unlock()
}

// Pair connects a number, requesting a phone pairing code when no stored
// credentials exist. At most one live session and one in-flight pairing
// attempt exist per number.
func (m *Manager) Pair(ctx context.Context, number string) (*PairResult, error) {
	number = validation.SanitizeNumber(number)

	if m.Session(number) != nil {
		return nil, ErrAlreadyConnected
	}
	if !m.beginPairing(number) {
		return nil, ErrPairingInProgress
	}
	defer m.endPairing(number)

	// Re-check now that we hold the pairing flag.
	if m.Session(number) != nil {
		return nil, ErrAlreadyConnected
	}

	sess, registered, err := m.initSession(ctx, number)
	if err != nil {
		return nil, err
	}

	if err := sess.Client.Connect(); err != nil {
		m.removeSession(sess)
		return nil, fmt.Errorf("connect: %w", err)
	}

	if registered {
		log.Session(number).Info("Session restored from stored credentials")
		return &PairResult{Status: "restored"}, nil
	}

	// The socket needs a moment before it accepts a pairing request.
	time.Sleep(pairWarmupDelay)

	pairCtx, cancel := context.WithTimeout(ctx, pairRequestTimeout)
	defer cancel()
	code, err := sess.Client.PairPhone(pairCtx, number, true, whatsmeow.PairClientChrome, "Chrome ("+runtime.GOOS+")")
	if err != nil {
		sess.Client.Disconnect()
		m.removeSession(sess)
		return nil, fmt.Errorf("request pairing code: %w", err)
	}

	log.Session(number).Info("Pairing code issued")
	return &PairResult{Status: "new_pairing", Code: code}, nil
}

// PairQR is the QR login variant of Pair. For an unregistered number it
// returns a base64 PNG of the first QR code; scanning completes the login
// asynchronously through the normal event flow.
func (m *Manager) PairQR(ctx context.Context, number string) (*QRResult, error) {
	number = validation.SanitizeNumber(number)

	if m.Session(number) != nil {
		return nil, ErrAlreadyConnected
	}
	if !m.beginPairing(number) {
		return nil, ErrPairingInProgress
	}
	defer m.endPairing(number)

	if m.Session(number) != nil {
		return nil, ErrAlreadyConnected
	}

	sess, registered, err := m.initSession(ctx, number)
	if err != nil {
		return nil, err
	}

	if registered {
		if err := sess.Client.Connect(); err != nil {
			m.removeSession(sess)
			return nil, fmt.Errorf("connect: %w", err)
		}
		return &QRResult{Status: "restored"}, nil
	}

	qrChan, err := sess.Client.GetQRChannel(ctx)
	if err != nil {
		m.removeSession(sess)
		return nil, fmt.Errorf("open qr channel: %w", err)
	}
	if err := sess.Client.Connect(); err != nil {
		m.removeSession(sess)
		return nil, fmt.Errorf("connect: %w", err)
	}

	for evt := range qrChan {
		if evt.Event == "code" {
			png, err := qrCode.Encode(evt.Code, qrCode.Medium, qrImageSize)
			if err != nil {
				sess.Client.Disconnect()
				m.removeSession(sess)
				return nil, fmt.Errorf("encode qr: %w", err)
			}
			return &QRResult{
				Status:     "qr_issued",
				Image:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
				TimeoutSec: int(evt.Timeout.Seconds()),
			}, nil
		}
		break
	}

	sess.Client.Disconnect()
	m.removeSession(sess)
	return nil, errors.New("qr channel closed before a code was issued")
}

// initSession builds the client around stored or fresh device credentials
// and registers it. The event handler is attached before any connect call
// so no early event is lost.
func (m *Manager) initSession(ctx context.Context, number string) (*Session, bool, error) {
	device := m.restoreDevice(ctx, number)
	client := whatsmeow.NewClient(device, nil)
	client.EnableAutoReconnect = false
	client.AutoTrustIdentity = true

	sess := &Session{
		Number:    number,
		Client:    client,
		Transport: newWATransport(client),
		CreatedAt: time.Now(),
	}
	client.AddEventHandler(m.sessionEvents(sess))
	m.addSession(sess)

	return sess, client.Store.ID != nil, nil
}

// restoreDevice loads the whatsmeow device referenced by the stored
// credential record, falling back to a fresh device when the record is
// missing or stale.
func (m *Manager) restoreDevice(ctx context.Context, number string) *wastore.Device {
	rec, err := m.store.Credential(ctx, number)
	if err == nil && rec.DeviceJID != "" {
		jid, parseErr := types.ParseJID(rec.DeviceJID)
		if parseErr == nil {
			device, getErr := m.container.GetDevice(ctx, jid)
			if getErr == nil && device != nil {
				return device
			}
			log.Session(number).Warn("Stored device not found in datastore, starting fresh")
		}
	}
	return m.container.NewDevice()
}

func (m *Manager) sessionEvents(sess *Session) func(evt interface{}) {
	return func(evt interface{}) {
		switch e := evt.(type) {
		case *events.PairSuccess:
			log.Session(sess.Number).Info("Pairing completed")
			m.persistCredential(sess, e.ID)
		case *events.Connected:
			sess.resetRestarts()
			log.Session(sess.Number).Info("Connection opened")
			go m.onOpen(sess)
		case *events.LoggedOut:
			log.Session(sess.Number).Warn("Logged out remotely, tearing down session")
			m.teardownSession(sess)
		case *events.StreamReplaced:
			log.Session(sess.Number).Warn("Stream replaced by another client, tearing down session")
			m.teardownSession(sess)
		case *events.StreamError:
			code, _ := strconv.Atoi(e.Code)
			m.handleClose(sess, code, e.Code)
		case *events.ConnectFailure:
			m.handleClose(sess, int(e.Reason), e.Message)
		case *events.Disconnected:
			m.handleClose(sess, 0, "connection closed")
		case *events.Message:
			go m.handleMessage(sess, e)
		case *events.CallOffer:
			go m.handleCall(sess, e)
		case *events.GroupInfo:
			go m.handleGroupChange(sess, e)
		}
	}
}

type closePolicy int

const (
	closeRetry closePolicy = iota
	closeIgnore
	closeFatal
)

// classifyClose maps a connection close to a recovery policy. 401 means
// the phone revoked the pairing; reconnecting would loop forever, so the
// session dies. 408 is the server dropping an idle socket and whatsmeow
// dials again on its own schedule. Everything else gets bounded retries.
func classifyClose(code int, message string) closePolicy {
	if code == 401 || strings.Contains(message, "401") {
		return closeFatal
	}
	if code == 408 || strings.Contains(message, "408") {
		return closeIgnore
	}
	return closeRetry
}

func (m *Manager) handleClose(sess *Session, code int, message string) {
	if m.Session(sess.Number) != sess {
		return
	}
	switch classifyClose(code, message) {
	case closeFatal:
		log.Session(sess.Number).WithField("code", code).
			Warn("Credentials revoked by remote, tearing down session")
		m.teardownSession(sess)
	case closeIgnore:
		log.Session(sess.Number).Info("Idle timeout close, not retrying")
	case closeRetry:
		attempt := sess.nextRestart()
		if attempt > maxRestartAttempts {
			log.Session(sess.Number).WithField("code", code).
				Error("Reconnect attempts exhausted, tearing down session")
			m.teardownSession(sess)
			return
		}
		log.Session(sess.Number).WithField("code", code).
			Infof("Connection lost, reconnect attempt %d/%d in %s", attempt, maxRestartAttempts, reconnectDelay)
		go func() {
			time.Sleep(reconnectDelay)
			if m.Session(sess.Number) != sess {
				return
			}
			if err := sess.Client.Connect(); err != nil {
				m.handleClose(sess, 0, err.Error())
			}
		}()
	}
}

func (m *Manager) teardownSession(sess *Session) {
	sess.Client.Disconnect()
	m.removeSession(sess)
}

func (m *Manager) persistCredential(sess *Session, jid types.JID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.UpsertCredential(ctx, sess.Number, jid.ToNonAD().String()); err != nil {
		log.Session(sess.Number).WithError(err).Error("Failed to persist credential record")
	}
}

// onOpen runs the post-connect sequence: persist, mark active, join the
// community group, follow the configured channels, then announce. Each
// step is best effort; a failure is logged and the rest still run.
func (m *Manager) onOpen(sess *Session) {
	time.Sleep(openSettleDelay)
	if m.Session(sess.Number) != sess || !sess.Client.IsConnected() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if sess.Client.Store.ID != nil {
		m.persistCredential(sess, *sess.Client.Store.ID)
	}
	if err := m.store.MarkActive(ctx, sess.Number); err != nil {
		log.Session(sess.Number).WithError(err).Warn("Failed to mark number active")
	}

	m.joinCommunityGroup(ctx, sess)
	m.followChannels(ctx, sess)
	m.sendConnectedNotice(ctx, sess)
}

var inviteCodePattern = regexp.MustCompile(`chat\.whatsapp\.com/([A-Za-z0-9]+)`)

// joinCommunityGroup joins the configured support group with bounded
// retries. Conflict responses mean the account is already in the group and
// count as success.
func (m *Manager) joinCommunityGroup(ctx context.Context, sess *Session) {
	match := inviteCodePattern.FindStringSubmatch(m.opts.GroupInviteLink)
	if match == nil {
		return
	}
	code := match[1]
	t := sess.Transport

	info, err := t.GroupInfoFromLink(ctx, code)
	if err != nil {
		log.Session(sess.Number).WithError(err).Warn("Cannot resolve community group from invite link")
		return
	}

	if meta, err := t.GroupInfo(ctx, info.JID); err == nil {
		self := t.Self().ToNonAD()
		for _, p := range meta.Participants {
			if p.JID.ToNonAD() == self {
				log.Session(sess.Number).Info("Already a member of the community group")
				return
			}
		}
	}

	for attempt := 1; attempt <= groupJoinRetries; attempt++ {
		gid, err := t.JoinGroupWithLink(ctx, code)
		if err != nil {
			msg := strings.ToLower(err.Error())
			if strings.Contains(msg, "conflict") || strings.Contains(msg, "already") {
				log.Session(sess.Number).Info("Already a member of the community group")
				return
			}
			if attempt == groupJoinRetries {
				log.Session(sess.Number).WithError(err).Warn("Community group join failed after retries")
				return
			}
			time.Sleep(groupJoinDelay)
			continue
		}
		if !gid.IsEmpty() {
			log.Session(sess.Number).Info("Joined the community group")
			return
		}
		time.Sleep(groupJoinDelay)
	}
	log.Session(sess.Number).Warn("Community group join did not confirm")
}

// followChannels follows every configured newsletter, aggregating partial
// failures instead of aborting on the first.
func (m *Manager) followChannels(ctx context.Context, sess *Session) {
	var failed []string
	for _, raw := range m.opts.ChannelJIDs {
		jid, err := types.ParseJID(raw)
		if err != nil {
			failed = append(failed, raw)
			continue
		}
		if err := sess.Transport.FollowNewsletter(ctx, jid); err != nil {
			failed = append(failed, raw)
		}
	}
	if len(failed) > 0 {
		log.Session(sess.Number).WithField("failed", failed).
			Warnf("Followed %d/%d channels", len(m.opts.ChannelJIDs)-len(failed), len(m.opts.ChannelJIDs))
	}
}

// sendConnectedNotice messages the account itself. A record younger than a
// minute means this open concluded a fresh pairing and gets the welcome
// text; anything older is a reconnect.
func (m *Manager) sendConnectedNotice(ctx context.Context, sess *Session) {
	self := sess.Transport.Self()
	if self.IsEmpty() {
		return
	}

	isNew := false
	if rec, err := m.store.Credential(ctx, sess.Number); err == nil {
		isNew = time.Since(rec.CreatedAt) < newSessionWindow
	}

	var text string
	if isNew {
		text = fmt.Sprintf("*%s connected!*\n\n*Number:* %s\n*Prefix:* %s\n\nJoin our channel:\n%s\n\n%s",
			m.opts.Name, sess.Number, m.opts.Prefix, m.opts.ChannelLink, m.opts.Footer)
	} else {
		text = fmt.Sprintf("*%s reconnected!*\n\n*Number:* %s\n\nSettings restored.\n\n%s",
			m.opts.Name, sess.Number, m.opts.Footer)
	}

	if image := m.noticeImage(); image != nil {
		if err := sess.Transport.SendImage(ctx, self, image, text); err == nil {
			return
		}
	}
	if err := sess.Transport.SendText(ctx, self, text); err != nil {
		log.Session(sess.Number).WithError(err).Warn("Failed to send connected notice")
	}
}

// noticeImage fetches the branding image once per process.
func (m *Manager) noticeImage() []byte {
	m.imageOnce.Do(func() {
		if m.opts.ImageURL == "" {
			return
		}
		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Get(m.opts.ImageURL)
		if err != nil {
			log.Bot("manager").WithError(err).Warn("Branding image fetch failed")
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
		if err == nil {
			m.imageBytes = body
		}
	})
	return m.imageBytes
}

func (m *Manager) handleMessage(sess *Session, evt *events.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Session(sess.Number).Errorf("Message handler panic recovered: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	chat := evt.Info.Chat
	if chat == types.StatusBroadcastJID {
		m.handleStatus(ctx, sess, evt)
		return
	}
	if chat.Server == types.NewsletterServer {
		m.handleChannelPost(ctx, sess, evt)
		return
	}

	cfg, err := m.store.Config(ctx, sess.Number)
	if err != nil {
		cfg = m.opts.DefaultConfig
	}
	if cfg.AutoRecording && !evt.Info.IsFromMe {
		_ = sess.Transport.ChatPresence(ctx, chat, types.ChatPresenceComposing, types.ChatPresenceMediaAudio)
	}

	cls := Classify(evt, sess.Transport.Self(), m.opts.Prefix)
	if !cls.IsCommand || cls.Command == "" {
		// Non-command group text is still subject to the link policy.
		if cls.IsGroup {
			senderIsAdmin := isGroupAdmin(ctx, sess.Transport, cls.Chat, cls.Sender)
			m.moderator.HandleLinkMessage(ctx, sess.Transport, sess.Number, evt, cls, senderIsAdmin)
		}
		return
	}

	m.dispatcher.Dispatch(ctx, sess.Transport, sess.Number, evt, cls)
}

// handleStatus views and optionally likes contact status updates. Both
// actions retry a few times; status receipts are flaky right after open.
func (m *Manager) handleStatus(ctx context.Context, sess *Session, evt *events.Message) {
	if evt.Info.IsFromMe {
		return
	}
	cfg, err := m.store.Config(ctx, sess.Number)
	if err != nil {
		cfg = m.opts.DefaultConfig
	}

	if cfg.AutoViewStatus {
		for attempt := 0; attempt < statusRetries; attempt++ {
			err := sess.Transport.MarkRead(ctx, []types.MessageID{evt.Info.ID}, evt.Info.Chat, evt.Info.Sender)
			if err == nil {
				break
			}
			time.Sleep(statusRetryDelay)
		}
	}

	if cfg.AutoLikeStatus && len(m.opts.AutoLikeEmojis) > 0 {
		emoji := m.opts.AutoLikeEmojis[int(evt.Info.Timestamp.UnixNano())%len(m.opts.AutoLikeEmojis)]
		for attempt := 0; attempt < statusRetries; attempt++ {
			if err := sess.Transport.React(ctx, evt, emoji); err == nil {
				break
			}
			time.Sleep(statusRetryDelay)
		}
	}
}

// handleChannelPost reacts to posts in the configured newsletters.
func (m *Manager) handleChannelPost(ctx context.Context, sess *Session, evt *events.Message) {
	if len(m.opts.AutoLikeEmojis) == 0 {
		return
	}
	for _, raw := range m.opts.ChannelJIDs {
		if raw != evt.Info.Chat.String() {
			continue
		}
		emoji := m.opts.AutoLikeEmojis[int(evt.Info.Timestamp.UnixNano())%len(m.opts.AutoLikeEmojis)]
		for attempt := 0; attempt < statusRetries; attempt++ {
			err := sess.Transport.ReactToNewsletter(ctx, evt.Info.Chat, evt.Info.ServerID, evt.Info.ID, emoji)
			if err == nil {
				return
			}
			log.Session(sess.Number).WithError(err).Debug("Channel react failed")
			time.Sleep(newsletterRetryDelay)
		}
		return
	}
}

func (m *Manager) handleCall(sess *Session, evt *events.CallOffer) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := m.store.Config(ctx, sess.Number)
	if err != nil || !cfg.AntiCall {
		return
	}

	if err := sess.Transport.RejectCall(ctx, evt.From, evt.CallID); err != nil {
		log.Session(sess.Number).WithError(err).Warn("Failed to reject call")
		return
	}
	notice := "🔕 *Your call was rejected automatically.*\nThis bot does not accept calls."
	if err := sess.Transport.SendText(ctx, evt.From.ToNonAD(), notice); err != nil {
		log.Session(sess.Number).WithError(err).Debug("Anti-call notice failed")
	}
}

func (m *Manager) handleGroupChange(sess *Session, evt *events.GroupInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if len(evt.Join) > 0 {
		m.moderator.HandleJoin(ctx, sess.Transport, sess.Number, evt.JID, evt.Join)
	}
	if len(evt.Leave) > 0 {
		m.moderator.HandleLeave(ctx, sess.Transport, sess.Number, evt.JID, evt.Leave)
	}
}

// Status reports the current state of one number.
func (m *Manager) Status(number string) StatusSnapshot {
	number = validation.SanitizeNumber(number)
	sess := m.Session(number)
	if sess == nil {
		return StatusSnapshot{Number: number}
	}
	return snapshot(sess)
}

// ActiveSessions snapshots every live session.
func (m *Manager) ActiveSessions() []StatusSnapshot {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.mu.Unlock()

	out := make([]StatusSnapshot, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, snapshot(sess))
	}
	return out
}

func snapshot(sess *Session) StatusSnapshot {
	return StatusSnapshot{
		Number:        sess.Number,
		Connected:     sess.Transport.IsConnected(),
		LoggedIn:      sess.Transport.IsLoggedIn(),
		ConnectedAt:   sess.CreatedAt,
		UptimeSeconds: int64(time.Since(sess.CreatedAt).Seconds()),
	}
}

// Teardown disconnects and forgets one session.
func (m *Manager) Teardown(number string) error {
	number = validation.SanitizeNumber(number)
	sess := m.Session(number)
	if sess == nil {
		return ErrNotConnected
	}
	m.teardownSession(sess)
	log.Session(number).Info("Session torn down")
	return nil
}

// Shutdown disconnects every live session. Used during process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Client.Disconnect()
	}
}

// ReconnectAll restores every number marked active in the store. Attempts
// run with bounded parallelism and a shared rate limit; each number gets
// its own outcome in the aggregate, a failure never aborts the sweep.
func (m *Manager) ReconnectAll(ctx context.Context) []ReconnectOutcome {
	numbers, err := m.store.ActiveNumbers(ctx)
	if err != nil {
		log.Bot("manager").WithError(err).Error("Cannot load active numbers for reconnect")
		return nil
	}

	outcomes := make([]ReconnectOutcome, len(numbers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconnectParallel)

	for i, number := range numbers {
		i, number := i, number
		if m.Session(number) != nil {
			outcomes[i] = ReconnectOutcome{Number: number, Status: "already_connected"}
			continue
		}
		g.Go(func() error {
			if err := m.reconnectLimiter.Wait(gctx); err != nil {
				outcomes[i] = ReconnectOutcome{Number: number, Status: "failed", Error: err.Error()}
				return nil
			}
			res, err := m.Pair(gctx, number)
			switch {
			case errors.Is(err, ErrAlreadyConnected), errors.Is(err, ErrPairingInProgress):
				outcomes[i] = ReconnectOutcome{Number: number, Status: "already_connected"}
			case err != nil:
				outcomes[i] = ReconnectOutcome{Number: number, Status: "failed", Error: err.Error()}
			default:
				outcomes[i] = ReconnectOutcome{Number: number, Status: res.Status}
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
