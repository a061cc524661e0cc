package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"finanzas/internal/log"
)

// sender is the part of *discordgo.Session used to answer.
type sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot connects a Router to a Discord gateway session.
type Bot struct {
	session   *discordgo.Session
	sender    sender
	router    *Router
	channelID string
	timeout   time.Duration
	logger    *log.Logger
	connected atomic.Bool
}

func NewBot(token, channelID string, router *Router, timeout time.Duration, logger *log.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	b := &Bot{
		session:   session,
		sender:    session,
		router:    router,
		channelID: channelID,
		timeout:   timeout,
		logger:    logger.WithComponent(log.ComponentBot),
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(func(*discordgo.Session, *discordgo.Disconnect) {
		b.connected.Store(false)
		b.logger.Warn("Disconnected from Discord gateway")
	})
	session.AddHandler(func(*discordgo.Session, *discordgo.Resumed) {
		b.connected.Store(true)
	})
	return b, nil
}

// Open connects to the gateway. An invalid token fails here.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// Check reports whether the gateway session is up.
func (b *Bot) Check(context.Context) error {
	if !b.connected.Load() {
		return errors.New("discord gateway not connected")
	}
	return nil
}

// Post sends reply to the configured channel.
func (b *Bot) Post(ctx context.Context, reply Reply) error {
	return b.send(ctx, b.channelID, reply)
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.connected.Store(true)
	b.logger.Info("Logged in to Discord", "user", r.User.Username)

	ch, err := s.State.Channel(b.channelID)
	if err != nil {
		ch, err = s.Channel(b.channelID)
	}
	if err != nil {
		b.logger.Warn("Configured channel not found; check the id and the bot's access",
			log.FieldChannelID, b.channelID,
			log.FieldError, err)
		return
	}
	b.logger.Info("Listening only on channel", log.FieldChannelID, ch.ID, "name", "#"+ch.Name)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	var selfID string
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	b.handle(Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Content:   m.Content,
		FromSelf:  m.Author.ID == selfID,
	})
}

func (b *Bot) handle(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	start := time.Now()
	reply := b.route(ctx, msg)
	if reply.Empty() {
		return
	}

	if err := b.send(ctx, msg.ChannelID, reply); err != nil {
		b.logger.ErrorContext(ctx, "Failed to send reply",
			log.FieldChannelID, msg.ChannelID,
			log.FieldMessageID, msg.ID,
			log.FieldError, err)
		return
	}
	b.logger.DebugContext(ctx, "Reply sent",
		log.FieldMessageID, msg.ID,
		log.FieldDuration, time.Since(start).Milliseconds())
}

// route runs the router and answers with the apology if it panics.
func (b *Bot) route(ctx context.Context, msg Message) (reply Reply) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.ErrorContext(ctx, "Panic while handling message",
				log.FieldMessageID, msg.ID,
				"panic", p,
				"stack", string(debug.Stack()))
			reply = apologyReply()
		}
	}()
	return b.router.Handle(ctx, msg)
}

func (b *Bot) send(ctx context.Context, channelID string, reply Reply) error {
	_, err := b.sender.ChannelMessageSendComplex(channelID, toMessageSend(reply), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func toMessageSend(r Reply) *discordgo.MessageSend {
	out := &discordgo.MessageSend{Content: r.Content}
	if r.Embed == nil {
		return out
	}

	e := &discordgo.MessageEmbed{
		Title:       r.Embed.Title,
		Description: r.Embed.Description,
		Color:       r.Embed.Color,
	}
	for _, f := range r.Embed.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	out.Embeds = []*discordgo.MessageEmbed{e}
	return out
}
