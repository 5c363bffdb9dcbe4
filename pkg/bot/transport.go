package bot

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
	"github.com/sunshineplan/imgconv"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

// Transport is the slice of the WhatsApp client the gateway logic needs.
// Session manager, dispatcher and moderator all talk through it, which keeps
// them testable without a socket.
type Transport interface {
	Self() types.JID
	IsConnected() bool
	IsLoggedIn() bool

	SendText(ctx context.Context, to types.JID, text string) error
	SendMention(ctx context.Context, to types.JID, text string, mentions []types.JID) error
	SendImage(ctx context.Context, to types.JID, image []byte, caption string) error
	SendContact(ctx context.Context, to types.JID, displayName string, vcard string) error
	Reply(ctx context.Context, quoted *events.Message, text string) error
	React(ctx context.Context, quoted *events.Message, emoji string) error
	DeleteMessage(ctx context.Context, chat types.JID, sender types.JID, id types.MessageID) error
	MarkRead(ctx context.Context, ids []types.MessageID, chat types.JID, sender types.JID) error
	ChatPresence(ctx context.Context, chat types.JID, state types.ChatPresence, media types.ChatPresenceMedia) error

	GroupInfo(ctx context.Context, group types.JID) (*types.GroupInfo, error)
	GroupInfoFromLink(ctx context.Context, code string) (*types.GroupInfo, error)
	JoinGroupWithLink(ctx context.Context, code string) (types.JID, error)
	RemoveParticipant(ctx context.Context, group types.JID, participant types.JID) error

	FollowNewsletter(ctx context.Context, jid types.JID) error
	ReactToNewsletter(ctx context.Context, jid types.JID, serverID types.MessageServerID, messageID types.MessageID, emoji string) error
	RejectCall(ctx context.Context, from types.JID, callID string) error
}

var ErrInvalidEmoji = errors.New("invalid emoji format")

type waTransport struct {
	client *whatsmeow.Client
}

func newWATransport(client *whatsmeow.Client) Transport {
	return &waTransport{client: client}
}

func (t *waTransport) Self() types.JID {
	if t.client.Store.ID == nil {
		return types.EmptyJID
	}
	return t.client.Store.ID.ToNonAD()
}

func (t *waTransport) IsConnected() bool { return t.client.IsConnected() }
func (t *waTransport) IsLoggedIn() bool  { return t.client.IsLoggedIn() }

func (t *waTransport) SendText(ctx context.Context, to types.JID, text string) error {
	_, err := t.client.SendMessage(ctx, to, &waE2E.Message{
		Conversation: proto.String(text),
	})
	return err
}

func (t *waTransport) SendMention(ctx context.Context, to types.JID, text string, mentions []types.JID) error {
	mentioned := make([]string, 0, len(mentions))
	for _, jid := range mentions {
		mentioned = append(mentioned, jid.ToNonAD().String())
	}
	_, err := t.client.SendMessage(ctx, to, &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				MentionedJID: mentioned,
			},
		},
	})
	return err
}

func (t *waTransport) SendImage(ctx context.Context, to types.JID, image []byte, caption string) error {
	uploaded, err := t.client.Upload(ctx, image, whatsmeow.MediaImage)
	if err != nil {
		return err
	}

	// Small JPEG preview, same 72px width WhatsApp clients render inline.
	var thumbnail []byte
	if decoded, err := imgconv.Decode(bytes.NewReader(image)); err == nil {
		var buf bytes.Buffer
		err = imgconv.Write(&buf,
			imgconv.Resize(decoded, &imgconv.ResizeOption{Width: 72}),
			&imgconv.FormatOption{Format: imgconv.JPEG})
		if err == nil {
			thumbnail = buf.Bytes()
		}
	}

	_, err = t.client.SendMessage(ctx, to, &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			Mimetype:      proto.String("image/jpeg"),
			Caption:       proto.String(caption),
			FileLength:    proto.Uint64(uploaded.FileLength),
			FileSHA256:    uploaded.FileSHA256,
			FileEncSHA256: uploaded.FileEncSHA256,
			MediaKey:      uploaded.MediaKey,
			JPEGThumbnail: thumbnail,
		},
	})
	return err
}

func (t *waTransport) SendContact(ctx context.Context, to types.JID, displayName string, vcard string) error {
	_, err := t.client.SendMessage(ctx, to, &waE2E.Message{
		ContactMessage: &waE2E.ContactMessage{
			DisplayName: proto.String(displayName),
			Vcard:       proto.String(vcard),
		},
	})
	return err
}

func (t *waTransport) Reply(ctx context.Context, quoted *events.Message, text string) error {
	participant := quoted.Info.Sender.ToNonAD().String()
	_, err := t.client.SendMessage(ctx, quoted.Info.Chat, &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:      proto.String(quoted.Info.ID),
				Participant:   proto.String(participant),
				QuotedMessage: quoted.Message,
			},
		},
	})
	return err
}

func (t *waTransport) React(ctx context.Context, quoted *events.Message, emoji string) error {
	if !gomoji.ContainsEmoji(emoji) && uniseg.GraphemeClusterCount(emoji) != 1 {
		return ErrInvalidEmoji
	}
	msg := t.client.BuildReaction(quoted.Info.Chat, quoted.Info.Sender, quoted.Info.ID, emoji)
	_, err := t.client.SendMessage(ctx, quoted.Info.Chat, msg)
	return err
}

func (t *waTransport) DeleteMessage(ctx context.Context, chat types.JID, sender types.JID, id types.MessageID) error {
	_, err := t.client.SendMessage(ctx, chat, t.client.BuildRevoke(chat, sender, id))
	return err
}

func (t *waTransport) MarkRead(ctx context.Context, ids []types.MessageID, chat types.JID, sender types.JID) error {
	return t.client.MarkRead(ctx, ids, time.Now(), chat, sender)
}

func (t *waTransport) ChatPresence(ctx context.Context, chat types.JID, state types.ChatPresence, media types.ChatPresenceMedia) error {
	return t.client.SendChatPresence(ctx, chat, state, media)
}

func (t *waTransport) GroupInfo(ctx context.Context, group types.JID) (*types.GroupInfo, error) {
	return t.client.GetGroupInfo(ctx, group)
}

func (t *waTransport) GroupInfoFromLink(ctx context.Context, code string) (*types.GroupInfo, error) {
	return t.client.GetGroupInfoFromLink(ctx, code)
}

func (t *waTransport) JoinGroupWithLink(ctx context.Context, code string) (types.JID, error) {
	return t.client.JoinGroupWithLink(ctx, code)
}

func (t *waTransport) RemoveParticipant(ctx context.Context, group types.JID, participant types.JID) error {
	_, err := t.client.UpdateGroupParticipants(ctx, group, []types.JID{participant}, whatsmeow.ParticipantChangeRemove)
	return err
}

func (t *waTransport) FollowNewsletter(ctx context.Context, jid types.JID) error {
	return t.client.FollowNewsletter(ctx, jid)
}

func (t *waTransport) ReactToNewsletter(ctx context.Context, jid types.JID, serverID types.MessageServerID, messageID types.MessageID, emoji string) error {
	return t.client.NewsletterSendReaction(ctx, jid, serverID, emoji, messageID)
}

func (t *waTransport) RejectCall(ctx context.Context, from types.JID, callID string) error {
	return t.client.RejectCall(ctx, from, callID)
}
