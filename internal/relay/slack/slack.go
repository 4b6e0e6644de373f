// Package slack implements the relay Adapter for Slack.
package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/everthorn/thorny/internal/relay"
	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter implements relay.Adapter for Slack.
type Adapter struct {
	client    slackClient
	channelID string
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel id is required")
	}
	a := &Adapter{channelID: opts.ChannelID}
	if opts.Client != nil {
		a.client = opts.Client
		return a, nil
	}
	if opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	a.client = slackapi.New(opts.BotToken)
	return a, nil
}

// Post sends the event message to the configured channel. Discord-style
// bold/italic markers are rewritten for Slack's mrkdwn.
func (a *Adapter) Post(ctx context.Context, evt relay.Event) error {
	text := toMrkdwn(evt.Message())
	_, _, err := a.client.PostMessageContext(ctx, a.channelID,
		slackapi.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("slack: post to %s: %w", a.channelID, err)
	}
	return nil
}

// toMrkdwn converts **bold** and *italic* markdown to Slack mrkdwn.
func toMrkdwn(s string) string {
	s = strings.ReplaceAll(s, "**", "\x00")
	s = strings.ReplaceAll(s, "*", "_")
	return strings.ReplaceAll(s, "\x00", "*")
}
