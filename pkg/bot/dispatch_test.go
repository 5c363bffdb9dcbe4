package bot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/goatbot786-md/goattecc-bot/pkg/store"
)

const testTenant = "628888"

func testDispatcher(fs *fakeStore) *Dispatcher {
	return &Dispatcher{
		Store:     fs,
		Registry:  NewRegistry(),
		Moderator: NewModerator(),
		Options: Options{
			Name:          "TestBot",
			OwnerNumber:   "62999000",
			Prefix:        ".",
			DefaultConfig: store.TenantConfig{WorkMode: WorkModePublic},
		},
	}
}

func dispatch(d *Dispatcher, ft *fakeTransport, evt *events.Message) {
	cls := Classify(evt, ft.self, d.Options.Prefix)
	d.Dispatch(context.Background(), ft, testTenant, evt, cls)
}

func TestDispatch_InvokesHandlerWithArgs(t *testing.T) {
	fs := newFakeStore()
	d := testDispatcher(fs)

	var gotQuery string
	var calls int32
	_ = d.Registry.Register(Command{
		Pattern: "echo",
		Run: func(_ context.Context, inv *Invocation) error {
			atomic.AddInt32(&calls, 1)
			gotQuery = inv.Query
			return nil
		},
	})

	ft := newFakeTransport()
	dispatch(d, ft, textEvent(testUser, testUser, ".echo hello world"))

	if calls != 1 {
		t.Fatalf("Expected one handler call, got %d", calls)
	}
	if gotQuery != "hello world" {
		t.Errorf("Handler received query %q", gotQuery)
	}
	if len(ft.reacts) != 1 || ft.reacts[0] != defaultReactEmoji {
		t.Errorf("Expected default react before the handler, got %v", ft.reacts)
	}
}

func TestDispatch_CustomReactEmoji(t *testing.T) {
	fs := newFakeStore()
	d := testDispatcher(fs)
	_ = d.Registry.Register(Command{Pattern: "ping", React: "🏓", Run: noopHandler})

	ft := newFakeTransport()
	dispatch(d, ft, textEvent(testUser, testUser, ".ping"))

	if len(ft.reacts) != 1 || ft.reacts[0] != "🏓" {
		t.Errorf("Expected command react emoji, got %v", ft.reacts)
	}
}

func TestDispatch_UnknownCommandIsSilent(t *testing.T) {
	fs := newFakeStore()
	d := testDispatcher(fs)

	ft := newFakeTransport()
	dispatch(d, ft, textEvent(testUser, testUser, ".nosuchcommand"))

	if len(ft.texts)+len(ft.replies)+len(ft.reacts) != 0 {
		t.Error("Unknown commands should be dropped silently")
	}
}

func TestDispatch_WorkModeInboxDropsGroupCommands(t *testing.T) {
	fs := newFakeStore()
	fs.configs[testTenant] = store.TenantConfig{WorkMode: WorkModeInbox}
	d := testDispatcher(fs)

	var calls int32
	_ = d.Registry.Register(Command{Pattern: "ping", Run: func(_ context.Context, _ *Invocation) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}})

	ft := newFakeTransport()
	dispatch(d, ft, textEvent(testGroup, testSender, ".ping"))
	if calls != 0 {
		t.Error("Inbox mode must drop group commands from strangers")
	}

	dispatch(d, ft, textEvent(testUser, testUser, ".ping"))
	if calls != 1 {
		t.Error("Inbox mode should still serve direct messages")
	}
}

func TestDispatch_WorkModePrivateOnlyOwner(t *testing.T) {
	fs := newFakeStore()
	fs.configs[testTenant] = store.TenantConfig{WorkMode: WorkModePrivate}
	d := testDispatcher(fs)

	var calls int32
	_ = d.Registry.Register(Command{Pattern: "ping", Run: func(_ context.Context, _ *Invocation) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}})

	ft := newFakeTransport()
	dispatch(d, ft, textEvent(testUser, testUser, ".ping"))
	if calls != 0 {
		t.Error("Private mode must drop stranger commands")
	}

	owner := types.NewJID(d.Options.OwnerNumber, types.DefaultUserServer)
	dispatch(d, ft, textEvent(owner, owner, ".ping"))
	if calls != 1 {
		t.Error("Private mode should still serve the owner")
	}
}

func TestDispatch_BannedUserGetsNotice(t *testing.T) {
	fs := newFakeStore()
	fs.banned[testTenant] = []string{testUser.User}
	d := testDispatcher(fs)

	var calls int32
	_ = d.Registry.Register(Command{Pattern: "ping", Run: func(_ context.Context, _ *Invocation) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}})

	ft := newFakeTransport()
	dispatch(d, ft, textEvent(testUser, testUser, ".ping"))

	if calls != 0 {
		t.Error("Banned users must not reach handlers")
	}
	if len(ft.texts) != 1 || ft.texts[0].Text != bannedNotice {
		t.Errorf("Expected ban notice, got %v", ft.texts)
	}
}

func TestDispatch_BanDoesNotApplyToOwner(t *testing.T) {
	fs := newFakeStore()
	d := testDispatcher(fs)
	fs.banned[testTenant] = []string{d.Options.OwnerNumber}

	var calls int32
	_ = d.Registry.Register(Command{Pattern: "ping", Run: func(_ context.Context, _ *Invocation) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}})

	ft := newFakeTransport()
	owner := types.NewJID(d.Options.OwnerNumber, types.DefaultUserServer)
	dispatch(d, ft, textEvent(owner, owner, ".ping"))

	if calls != 1 {
		t.Error("The owner cannot be locked out by the ban list")
	}
}

func TestDispatch_PrivilegedCommandDeniedForStranger(t *testing.T) {
	fs := newFakeStore()
	d := testDispatcher(fs)

	var calls int32
	_ = d.Registry.Register(Command{Pattern: "ban", OwnerOnly: true, Run: func(_ context.Context, _ *Invocation) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}})

	ft := newFakeTransport()
	dispatch(d, ft, textEvent(testUser, testUser, ".ban 62111"))

	if calls != 0 {
		t.Error("Strangers must not run privileged commands")
	}
	if len(ft.texts) != 1 || ft.texts[0].Text != notAuthorizedNotice {
		t.Errorf("Expected authorization notice, got %v", ft.texts)
	}
}

func TestDispatch_PrivilegedCommandAllowedForOwner(t *testing.T) {
	fs := newFakeStore()
	d := testDispatcher(fs)

	var calls int32
	_ = d.Registry.Register(Command{Pattern: "ban", OwnerOnly: true, Run: func(_ context.Context, _ *Invocation) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}})

	ft := newFakeTransport()
	owner := types.NewJID(d.Options.OwnerNumber, types.DefaultUserServer)
	dispatch(d, ft, textEvent(owner, owner, ".ban 62111"))

	if calls != 1 {
		t.Error("Owner should pass the privileged gate")
	}
}

func TestDispatch_OwnerOnlyCommandSilentlyDropped(t *testing.T) {
	fs := newFakeStore()
	d := testDispatcher(fs)

	var calls int32
	_ = d.Registry.Register(Command{Pattern: "mode", OwnerOnly: true, Run: func(_ context.Context, _ *Invocation) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}})

	ft := newFakeTransport()
	dispatch(d, ft, textEvent(testUser, testUser, ".mode private"))

	if calls != 0 {
		t.Error("Owner-only commands are dropped for strangers")
	}
	// mode is not in the privileged set, so no notice either
	if len(ft.texts) != 0 {
		t.Errorf("Expected silent drop, got %v", ft.texts)
	}
}

func TestDispatch_AntiLinkRunsBeforeCommandLookup(t *testing.T) {
	fs := newFakeStore()
	d := testDispatcher(fs)
	d.Moderator.SetAntiLink(testGroup, AntiLinkSettings{Enabled: true, Action: LinkActionWarn})

	var calls int32
	_ = d.Registry.Register(Command{Pattern: "echo", Run: func(_ context.Context, _ *Invocation) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}})

	ft := newFakeTransport()
	dispatch(d, ft, textEvent(testGroup, testSender, ".echo https://example.com"))

	if calls != 0 {
		t.Error("A link violation must stop command processing")
	}
	if len(ft.mentions) != 1 {
		t.Errorf("Expected one anti-link warning, got %d", len(ft.mentions))
	}
}

func TestDispatch_HandlerPanicIsContained(t *testing.T) {
	fs := newFakeStore()
	d := testDispatcher(fs)
	_ = d.Registry.Register(Command{Pattern: "boom", Run: func(_ context.Context, _ *Invocation) error {
		panic("handler exploded")
	}})

	ft := newFakeTransport()
	// Must not propagate.
	dispatch(d, ft, textEvent(testUser, testUser, ".boom"))
}

func TestDispatch_HandlerErrorDoesNotNotifyUser(t *testing.T) {
	fs := newFakeStore()
	d := testDispatcher(fs)
	_ = d.Registry.Register(Command{Pattern: "fail", Run: func(_ context.Context, _ *Invocation) error {
		return errors.New("backend unavailable")
	}})

	ft := newFakeTransport()
	dispatch(d, ft, textEvent(testUser, testUser, ".fail"))

	if len(ft.texts)+len(ft.replies) != 0 {
		t.Error("Handler errors are logged, never sent to the chat")
	}
}

func TestDispatch_SudoFlagExposedToHandlers(t *testing.T) {
	fs := newFakeStore()
	fs.sudo[testTenant] = []string{testUser.User}
	d := testDispatcher(fs)

	var sawSudo bool
	_ = d.Registry.Register(Command{Pattern: "check", Run: func(_ context.Context, inv *Invocation) error {
		sawSudo = inv.IsSudo
		return nil
	}})

	ft := newFakeTransport()
	dispatch(d, ft, textEvent(testUser, testUser, ".check"))

	if !sawSudo {
		t.Error("Sudo list membership should surface on the invocation")
	}
}
