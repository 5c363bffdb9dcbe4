package bot

import (
	"strings"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// Classified is the normalized view of one inbound message. It is derived
// once per event and handed to the dispatcher and moderator.
type Classified struct {
	Body         string
	ContentType  string
	Chat         types.JID
	Sender       types.JID
	SenderNumber string
	IsFromMe     bool
	IsGroup      bool
	IsChannel    bool
	IsCommand    bool
	Command      string
	Args         []string
	Query        string
}

// Classify extracts the text body and command token from a raw message
// event. Body sources are probed in a fixed order; the first non-empty one
// wins. Interactive replies surface their selected ID as the body, so a
// button press dispatches like a typed command.
func Classify(evt *events.Message, self types.JID, prefix string) Classified {
	cls := Classified{
		Chat:     evt.Info.Chat,
		IsFromMe: evt.Info.IsFromMe,
	}

	if evt.Info.IsFromMe {
		cls.Sender = self
	} else {
		cls.Sender = evt.Info.Sender.ToNonAD()
	}
	cls.SenderNumber = cls.Sender.User

	cls.IsGroup = evt.Info.Chat.Server == types.GroupServer
	cls.IsChannel = evt.Info.Chat.Server == types.NewsletterServer

	cls.Body, cls.ContentType = extractBody(evt)

	if prefix != "" && strings.HasPrefix(cls.Body, prefix) && len(cls.Body) > len(prefix) {
		rest := strings.TrimSpace(cls.Body[len(prefix):])
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			cls.IsCommand = true
			cls.Command = strings.ToLower(fields[0])
			cls.Args = fields[1:]
			cls.Query = strings.Join(cls.Args, " ")
		}
	}
	return cls
}

func extractBody(evt *events.Message) (string, string) {
	msg := evt.Message
	if msg == nil {
		return "", ""
	}
	switch {
	case msg.GetConversation() != "":
		return msg.GetConversation(), "conversation"
	case msg.GetExtendedTextMessage().GetText() != "":
		return msg.GetExtendedTextMessage().GetText(), "extendedTextMessage"
	case msg.GetImageMessage().GetCaption() != "":
		return msg.GetImageMessage().GetCaption(), "imageMessage"
	case msg.GetVideoMessage().GetCaption() != "":
		return msg.GetVideoMessage().GetCaption(), "videoMessage"
	case msg.GetButtonsResponseMessage().GetSelectedButtonID() != "":
		return msg.GetButtonsResponseMessage().GetSelectedButtonID(), "buttonsResponseMessage"
	case msg.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID() != "":
		return msg.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID(), "listResponseMessage"
	}
	return "", ""
}
