// Package bus defines the in-process message shapes that decouple channel
// drivers (CLI, Telegram, WebSocket) from the agent loop: each driver turns
// its own protocol into an InboundMessage, and turns an OutboundMessage
// back into its protocol's reply.
package bus

import "time"

// InboundMessage is one user turn arriving on some channel.
type InboundMessage struct {
	Channel   string
	SenderID  string
	ChatID    string
	Content   string
	Timestamp time.Time
}

// SessionKey is the channel-prefixed key the session store uses, per
// spec.md §4.6 ("each constructs a session key prefixed by channel type").
func (m *InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

// OutboundMessage is one agent reply destined for a channel.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
}
