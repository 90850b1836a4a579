package chatbot

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloomwell/bloom/internal/domain/model"
)

// Sender identifies which side of the conversation produced a message.
type Sender string

// Message senders.
const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single conversation entry.
type Message struct {
	ID     string
	Text   string
	Sender Sender
	At     time.Time
}

// Conversation accumulates the message transcript for one chat session.
// It is ephemeral client state and is never persisted.
type Conversation struct {
	responder *Responder
	messages  []Message
	now       func() time.Time
}

// NewConversation opens a transcript seeded with the bot greeting.
func NewConversation(r *Responder) *Conversation {
	c := &Conversation{responder: r, now: time.Now}
	c.append(Greeting, SenderBot)
	return c
}

// Send records the user message and the bot's reply, returning the reply.
func (c *Conversation) Send(text string, m model.UserMetrics) Message {
	c.append(text, SenderUser)
	return c.append(c.responder.Respond(text, m), SenderBot)
}

// Messages returns a copy of the transcript in order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) append(text string, sender Sender) Message {
	msg := Message{
		ID:     uuid.NewString(),
		Text:   text,
		Sender: sender,
		At:     c.now(),
	}
	c.messages = append(c.messages, msg)
	return msg
}
