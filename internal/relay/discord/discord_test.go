package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/everthorn/thorny/internal/relay"
)

// mockSession records sent messages in place of the Discord API.
type mockSession struct {
	channelID string
	content   string
	err       error
}

func (m *mockSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.channelID = channelID
	m.content = content
	return &discordgo.Message{}, m.err
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(AdapterOpts{BotToken: "tok"}); err == nil {
		t.Error("expected error for missing channel id")
	}
	if _, err := New(AdapterOpts{ChannelID: "123"}); err == nil {
		t.Error("expected error for missing token")
	}
}

func TestPost(t *testing.T) {
	mock := &mockSession{}
	a, err := New(AdapterOpts{ChannelID: "chan-1", Session: mock})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	evt := relay.Event{Kind: relay.KindQuestCompleted, Username: "steve", QuestName: "The Long Dig"}
	if err := a.Post(context.Background(), evt); err != nil {
		t.Fatalf("Post() = %v", err)
	}
	if mock.channelID != "chan-1" {
		t.Errorf("channel = %q, want chan-1", mock.channelID)
	}
	if mock.content != evt.Message() {
		t.Errorf("content = %q, want %q", mock.content, evt.Message())
	}
}

func TestPost_SendError(t *testing.T) {
	mock := &mockSession{err: errors.New("missing permissions")}
	a, err := New(AdapterOpts{ChannelID: "chan-1", Session: mock})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := a.Post(context.Background(), relay.Event{Kind: relay.KindQuestFailed}); err == nil {
		t.Error("expected error from session")
	}
}

func TestPost_CancelledContext(t *testing.T) {
	mock := &mockSession{}
	a, err := New(AdapterOpts{ChannelID: "chan-1", Session: mock})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Post(ctx, relay.Event{Kind: relay.KindQuestAccepted}); err == nil {
		t.Error("expected error for cancelled context")
	}
	if mock.content != "" {
		t.Error("message sent despite cancelled context")
	}
}
