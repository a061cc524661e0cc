// Package bot turns chat messages into ledger operations and replies.
package bot

// Message is an inbound chat message, detached from the chat SDK.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
	// FromSelf is set when the bot itself wrote the message.
	FromSelf bool
}

// Reply is what the bot answers. The zero Reply means stay silent.
type Reply struct {
	Content string
	Embed   *Embed
}

type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool {
	return r.Content == "" && r.Embed == nil
}

// Embed colours.
const (
	ColorBlue   = 0x3498db
	ColorRed    = 0xe74c3c
	ColorGreen  = 0x2ecc71
	ColorGold   = 0xf1c40f
	ColorPurple = 0x9b59b6
)
