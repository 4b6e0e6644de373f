// Package discord implements the relay Adapter for Discord.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/everthorn/thorny/internal/relay"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Adapter implements relay.Adapter for Discord.
type Adapter struct {
	sess      session
	channelID string
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel id is required")
	}
	a := &Adapter{channelID: opts.ChannelID}
	if opts.Session != nil {
		a.sess = opts.Session
		return a, nil
	}
	if opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	sess, err := discordgo.New("Bot " + opts.BotToken)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	a.sess = sess
	return a, nil
}

// Post sends the event message to the configured channel.
func (a *Adapter) Post(ctx context.Context, evt relay.Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("discord: post: %w", err)
	}
	if _, err := a.sess.ChannelMessageSend(a.channelID, evt.Message()); err != nil {
		return fmt.Errorf("discord: post to %s: %w", a.channelID, err)
	}
	return nil
}
