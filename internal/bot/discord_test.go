package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"finanzas/internal/log"
	"finanzas/internal/nlu"
)

type fakeSender struct {
	channel string
	sent    []*discordgo.MessageSend
	err     error
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channel = channelID
	f.sent = append(f.sent, data)
	return &discordgo.Message{}, nil
}

func newTestBot(t *testing.T) (*Bot, *fakeSender) {
	t.Helper()
	r, _ := newTestRouter(t, nil)
	fs := &fakeSender{}
	return &Bot{
		sender:    fs,
		router:    r,
		channelID: testChannel,
		timeout:   time.Second,
		logger:    log.Discard(),
	}, fs
}

func TestToMessageSend(t *testing.T) {
	got := toMessageSend(Reply{Content: "hola"})
	if got.Content != "hola" || len(got.Embeds) != 0 {
		t.Fatalf("plain reply = %+v", got)
	}

	got = toMessageSend(helpReply())
	if len(got.Embeds) != 1 {
		t.Fatalf("embeds = %d", len(got.Embeds))
	}
	e := got.Embeds[0]
	if e.Title != "Centro de Ayuda Financiera" || e.Color != ColorBlue || len(e.Fields) != 4 {
		t.Fatalf("embed = %+v", e)
	}
}

func TestBot_HandleSendsReply(t *testing.T) {
	b, fs := newTestBot(t)

	b.handle(msg("!saldo"))

	if len(fs.sent) != 1 || fs.channel != testChannel {
		t.Fatalf("sent = %+v to %q", fs.sent, fs.channel)
	}
	if fs.sent[0].Embeds[0].Fields[0].Value != "**$0.00**" {
		t.Fatalf("balance field = %q", fs.sent[0].Embeds[0].Fields[0].Value)
	}
}

func TestBot_HandleSilentMessages(t *testing.T) {
	b, fs := newTestBot(t)

	b.handle(msg("solo charlando"))
	self := msg("!saldo")
	self.FromSelf = true
	b.handle(self)

	if len(fs.sent) != 0 {
		t.Fatalf("sent = %+v", fs.sent)
	}
}

type panickingClassifier struct{}

func (panickingClassifier) Classify(context.Context, string) (*nlu.Response, error) {
	panic("unexpected response shape")
}

func TestBot_HandleRecoversPanic(t *testing.T) {
	b, fs := newTestBot(t)
	b.router, _ = newTestRouter(t, panickingClassifier{})

	b.handle(msg("gasté 50 en café"))

	if len(fs.sent) != 1 || fs.sent[0].Content != apologyText {
		t.Fatalf("sent = %+v, want apology", fs.sent)
	}
}

func TestBot_PostError(t *testing.T) {
	b, fs := newTestBot(t)
	fs.err = errors.New("rate limited")

	if err := b.Post(context.Background(), Reply{Content: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestBot_Check(t *testing.T) {
	b, _ := newTestBot(t)
	if err := b.Check(context.Background()); err == nil {
		t.Fatal("expected error before Ready")
	}
	b.connected.Store(true)
	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
}
