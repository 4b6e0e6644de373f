package slack

import (
	"context"
	"errors"
	"testing"

	"github.com/everthorn/thorny/internal/relay"
	slackapi "github.com/slack-go/slack"
)

// mockClient records posted messages in place of the Slack API.
type mockClient struct {
	channelID string
	calls     int
	err       error
}

func (m *mockClient) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.channelID = channelID
	m.calls++
	return channelID, "ts", m.err
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(AdapterOpts{BotToken: "tok"}); err == nil {
		t.Error("expected error for missing channel id")
	}
	if _, err := New(AdapterOpts{ChannelID: "C123"}); err == nil {
		t.Error("expected error for missing token")
	}
}

func TestPost(t *testing.T) {
	mock := &mockClient{}
	a, err := New(AdapterOpts{ChannelID: "C123", Client: mock})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := a.Post(context.Background(), relay.Event{Kind: relay.KindQuestCompleted, Username: "steve"}); err != nil {
		t.Fatalf("Post() = %v", err)
	}
	if mock.channelID != "C123" || mock.calls != 1 {
		t.Errorf("posted to %q %d times", mock.channelID, mock.calls)
	}
}

func TestPost_ClientError(t *testing.T) {
	mock := &mockClient{err: errors.New("channel_not_found")}
	a, err := New(AdapterOpts{ChannelID: "C123", Client: mock})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := a.Post(context.Background(), relay.Event{Kind: relay.KindQuestFailed}); err == nil {
		t.Error("expected error from client")
	}
}

func TestToMrkdwn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"**steve** accepted the quest *The Long Dig*", "*steve* accepted the quest _The Long Dig_"},
		{"plain text", "plain text"},
		{"*italics only*", "_italics only_"},
	}
	for _, tt := range tests {
		if got := toMrkdwn(tt.in); got != tt.want {
			t.Errorf("toMrkdwn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
