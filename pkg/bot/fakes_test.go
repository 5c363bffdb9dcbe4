package bot

import (
	"context"
	"sync"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/goatbot786-md/goattecc-bot/pkg/store"
)

// fakeTransport records every outbound action for assertions.
type fakeTransport struct {
	mu sync.Mutex

	self         types.JID
	groupInfo    *types.GroupInfo
	groupInfoErr error

	texts    []sentText
	mentions []sentText
	replies  []string
	reacts   []string
	kicked   []types.JID
	deleted  []types.MessageID
	read     [][]types.MessageID
	followed []types.JID
}

type sentText struct {
	To   types.JID
	Text string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		self: types.NewJID("628888", types.DefaultUserServer),
	}
}

func (f *fakeTransport) Self() types.JID   { return f.self }
func (f *fakeTransport) IsConnected() bool { return true }
func (f *fakeTransport) IsLoggedIn() bool  { return true }

func (f *fakeTransport) SendText(_ context.Context, to types.JID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, sentText{To: to, Text: text})
	return nil
}

func (f *fakeTransport) SendMention(_ context.Context, to types.JID, text string, _ []types.JID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mentions = append(f.mentions, sentText{To: to, Text: text})
	return nil
}

func (f *fakeTransport) SendImage(_ context.Context, _ types.JID, _ []byte, _ string) error {
	return nil
}

func (f *fakeTransport) SendContact(_ context.Context, _ types.JID, _ string, _ string) error {
	return nil
}

func (f *fakeTransport) Reply(_ context.Context, _ *events.Message, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeTransport) React(_ context.Context, _ *events.Message, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reacts = append(f.reacts, emoji)
	return nil
}

func (f *fakeTransport) DeleteMessage(_ context.Context, _ types.JID, _ types.JID, id types.MessageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTransport) MarkRead(_ context.Context, ids []types.MessageID, _ types.JID, _ types.JID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = append(f.read, ids)
	return nil
}

func (f *fakeTransport) ChatPresence(_ context.Context, _ types.JID, _ types.ChatPresence, _ types.ChatPresenceMedia) error {
	return nil
}

func (f *fakeTransport) GroupInfo(_ context.Context, _ types.JID) (*types.GroupInfo, error) {
	if f.groupInfoErr != nil {
		return nil, f.groupInfoErr
	}
	if f.groupInfo != nil {
		return f.groupInfo, nil
	}
	return &types.GroupInfo{}, nil
}

func (f *fakeTransport) GroupInfoFromLink(_ context.Context, _ string) (*types.GroupInfo, error) {
	return &types.GroupInfo{}, nil
}

func (f *fakeTransport) JoinGroupWithLink(_ context.Context, _ string) (types.JID, error) {
	return types.EmptyJID, nil
}

func (f *fakeTransport) RemoveParticipant(_ context.Context, _ types.JID, participant types.JID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicked = append(f.kicked, participant)
	return nil
}

func (f *fakeTransport) FollowNewsletter(_ context.Context, jid types.JID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followed = append(f.followed, jid)
	return nil
}

func (f *fakeTransport) ReactToNewsletter(_ context.Context, _ types.JID, _ types.MessageServerID, _ types.MessageID, _ string) error {
	return nil
}

func (f *fakeTransport) RejectCall(_ context.Context, _ types.JID, _ string) error {
	return nil
}

// fakeStore keeps tenant records in memory.
type fakeStore struct {
	mu          sync.Mutex
	configs     map[string]store.TenantConfig
	credentials map[string]*store.CredentialRecord
	sudo        map[string][]string
	banned      map[string][]string
	active      []string
	upserts     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		configs:     make(map[string]store.TenantConfig),
		credentials: make(map[string]*store.CredentialRecord),
		sudo:        make(map[string][]string),
		banned:      make(map[string][]string),
	}
}

func (f *fakeStore) UpsertCredential(_ context.Context, number string, deviceJID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if rec, ok := f.credentials[number]; ok {
		rec.DeviceJID = deviceJID
		return nil
	}
	f.credentials[number] = &store.CredentialRecord{Number: number, DeviceJID: deviceJID}
	return nil
}

func (f *fakeStore) Credential(_ context.Context, number string) (*store.CredentialRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.credentials[number]; ok {
		return rec, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) Config(_ context.Context, number string) (store.TenantConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cfg, ok := f.configs[number]; ok {
		return cfg, nil
	}
	return store.TenantConfig{WorkMode: WorkModePublic}, nil
}

func (f *fakeStore) UpdateConfig(_ context.Context, number string, cfg store.TenantConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs[number] = cfg
	return nil
}

func (f *fakeStore) MarkActive(_ context.Context, number string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = append(f.active, number)
	return nil
}

func (f *fakeStore) ActiveNumbers(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.active...), nil
}

func (f *fakeStore) SudoList(_ context.Context, number string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sudo[number], nil
}

func (f *fakeStore) SetSudoList(_ context.Context, number string, list []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sudo[number] = list
	return nil
}

func (f *fakeStore) BanList(_ context.Context, number string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banned[number], nil
}

func (f *fakeStore) SetBanList(_ context.Context, number string, list []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banned[number] = list
	return nil
}
