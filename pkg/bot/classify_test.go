package bot

import (
	"testing"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func textEvent(chat types.JID, sender types.JID, body string) *events.Message {
	evt := &events.Message{
		Message: &waE2E.Message{Conversation: proto.String(body)},
	}
	evt.Info.Chat = chat
	evt.Info.Sender = sender
	evt.Info.ID = "MSG1"
	return evt
}

var (
	testSelf   = types.NewJID("628888", types.DefaultUserServer)
	testUser   = types.NewJID("62777", types.DefaultUserServer)
	testGroup  = types.NewJID("12036304", types.GroupServer)
	testSender = types.NewJID("62999", types.DefaultUserServer)
)

func TestClassify_CommandWithArgs(t *testing.T) {
	evt := textEvent(testUser, testUser, ".ping hello world")
	cls := Classify(evt, testSelf, ".")

	if !cls.IsCommand {
		t.Fatal("Expected message to classify as a command")
	}
	if cls.Command != "ping" {
		t.Errorf("Expected command ping, got %q", cls.Command)
	}
	if len(cls.Args) != 2 || cls.Args[0] != "hello" || cls.Args[1] != "world" {
		t.Errorf("Unexpected args: %v", cls.Args)
	}
	if cls.Query != "hello world" {
		t.Errorf("Expected query %q, got %q", "hello world", cls.Query)
	}
}

func TestClassify_CommandIsLowercased(t *testing.T) {
	evt := textEvent(testUser, testUser, ".PING")
	cls := Classify(evt, testSelf, ".")
	if cls.Command != "ping" {
		t.Errorf("Expected lowercased command, got %q", cls.Command)
	}
}

func TestClassify_NonCommand(t *testing.T) {
	evt := textEvent(testUser, testUser, "hello there")
	cls := Classify(evt, testSelf, ".")
	if cls.IsCommand {
		t.Error("Plain text should not classify as a command")
	}
	if cls.Body != "hello there" {
		t.Errorf("Body mismatch: %q", cls.Body)
	}
}

func TestClassify_BarePrefix(t *testing.T) {
	evt := textEvent(testUser, testUser, ".")
	cls := Classify(evt, testSelf, ".")
	if cls.IsCommand {
		t.Error("A bare prefix should not classify as a command")
	}
}

func TestClassify_ImageCaption(t *testing.T) {
	evt := &events.Message{
		Message: &waE2E.Message{
			ImageMessage: &waE2E.ImageMessage{Caption: proto.String(".alive")},
		},
	}
	evt.Info.Chat = testUser
	evt.Info.Sender = testUser

	cls := Classify(evt, testSelf, ".")
	if !cls.IsCommand || cls.Command != "alive" {
		t.Errorf("Expected alive command from image caption, got %+v", cls)
	}
	if cls.ContentType != "imageMessage" {
		t.Errorf("Expected imageMessage content type, got %q", cls.ContentType)
	}
}

func TestClassify_ButtonReplyActsAsCommand(t *testing.T) {
	evt := &events.Message{
		Message: &waE2E.Message{
			ButtonsResponseMessage: &waE2E.ButtonsResponseMessage{
				SelectedButtonID: proto.String(".menu"),
			},
		},
	}
	evt.Info.Chat = testUser
	evt.Info.Sender = testUser

	cls := Classify(evt, testSelf, ".")
	if !cls.IsCommand || cls.Command != "menu" {
		t.Errorf("Expected menu command from button reply, got %+v", cls)
	}
}

func TestClassify_ConversationWinsOverCaption(t *testing.T) {
	evt := &events.Message{
		Message: &waE2E.Message{
			Conversation: proto.String("first"),
			ImageMessage: &waE2E.ImageMessage{Caption: proto.String("second")},
		},
	}
	evt.Info.Chat = testUser
	evt.Info.Sender = testUser

	cls := Classify(evt, testSelf, ".")
	if cls.Body != "first" {
		t.Errorf("Conversation body should win, got %q", cls.Body)
	}
}

func TestClassify_FromMeUsesSelfJID(t *testing.T) {
	evt := textEvent(testUser, testUser, ".ping")
	evt.Info.IsFromMe = true

	cls := Classify(evt, testSelf, ".")
	if cls.Sender != testSelf {
		t.Errorf("fromMe message should attribute to self, got %v", cls.Sender)
	}
	if cls.SenderNumber != testSelf.User {
		t.Errorf("Sender number mismatch: %q", cls.SenderNumber)
	}
}

func TestClassify_GroupAndChannelDetection(t *testing.T) {
	evt := textEvent(testGroup, testSender, "hi")
	cls := Classify(evt, testSelf, ".")
	if !cls.IsGroup {
		t.Error("Group JID should classify as group")
	}

	channel := types.NewJID("1203630", types.NewsletterServer)
	evt = textEvent(channel, testSender, "hi")
	cls = Classify(evt, testSelf, ".")
	if !cls.IsChannel {
		t.Error("Newsletter JID should classify as channel")
	}
}

func TestClassify_EmptyMessage(t *testing.T) {
	evt := &events.Message{}
	evt.Info.Chat = testUser
	evt.Info.Sender = testUser

	cls := Classify(evt, testSelf, ".")
	if cls.Body != "" || cls.IsCommand {
		t.Errorf("Empty message should yield empty classification, got %+v", cls)
	}
}
