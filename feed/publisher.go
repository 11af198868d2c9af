package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	channelrepo "chatlog/backend/channel/repository"
	"chatlog/backend/feed/ws"
	messagerepo "chatlog/backend/message/repository"
	"chatlog/backend/pkg/logger"
	"chatlog/backend/pkg/observability"
)

// Document is the denormalized read-optimized projection of a
// channel's live messages, newest first.
type Document struct {
	Channel  ChannelDoc   `json:"channel"`
	Messages []MessageDoc `json:"messages"`
}

type ChannelDoc struct {
	ID          string `json:"id"`
	Headline    string `json:"headline"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	LiveContent string `json:"live_content"`
}

type MessageDoc struct {
	HTML    string  `json:"html"`
	TS      string  `json:"ts"`
	Updated *int64  `json:"updated"`
	User    UserDoc `json:"user"`
}

type UserDoc struct {
	Image48     string `json:"image_48"`
	DisplayName string `json:"display_name"`
}

// Publisher serializes a channel's live message set and replaces the
// per-channel JSONP artifact. Publishing is synchronous and
// best-effort: a failed publish never rolls back the message mutation
// that triggered it, and a later mutation self-heals the feed.
type Publisher struct {
	channels channelrepo.ChannelRepository
	messages messagerepo.MessageRepository
	cache    Cache
	hub      *ws.Hub
	logger   *logger.Logger

	dir      string
	callback string
	cacheTTL time.Duration
	timeout  time.Duration
}

// Options carries the artifact and cache settings for a Publisher.
type Options struct {
	Dir      string
	Callback string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// NewPublisher creates a Publisher. cache and hub may be nil; the
// corresponding steps are skipped.
func NewPublisher(
	channels channelrepo.ChannelRepository,
	messages messagerepo.MessageRepository,
	cache Cache,
	hub *ws.Hub,
	opts Options,
	log *logger.Logger,
) *Publisher {
	if opts.Callback == "" {
		opts.Callback = "callback"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Publisher{
		channels: channels,
		messages: messages,
		cache:    cache,
		hub:      hub,
		logger:   log,
		dir:      opts.Dir,
		callback: opts.Callback,
		cacheTTL: opts.CacheTTL,
		timeout:  opts.Timeout,
	}
}

// Document builds the feed projection for a channel. It is also used
// directly by the read endpoint on cache misses.
func (p *Publisher) Document(channelID string) (*Document, error) {
	channel, err := p.channels.GetByChannelID(channelID)
	if err != nil {
		return nil, err
	}

	messages, err := p.messages.LiveByChannel(channel.ID)
	if err != nil {
		return nil, err
	}

	docs := make([]MessageDoc, 0, len(messages))
	for _, m := range messages {
		var updated *int64
		if m.Edited {
			epoch := m.UpdatedAt.Unix()
			updated = &epoch
		}
		docs = append(docs, MessageDoc{
			HTML:    m.HTML,
			TS:      m.TS,
			Updated: updated,
			User: UserDoc{
				Image48:     m.User.Image48,
				DisplayName: m.User.DisplayName(),
			},
		})
	}

	return &Document{
		Channel: ChannelDoc{
			ID:          channel.ChannelID,
			Headline:    channel.Headline,
			Slug:        channel.Slug,
			Description: channel.Description,
			LiveContent: channel.LiveContent,
		},
		Messages: docs,
	}, nil
}

// Publish rebuilds and replaces the channel's feed artifact, refreshes
// the cache, and notifies live subscribers. The whole step is bounded
// by the configured timeout.
func (p *Publisher) Publish(ctx context.Context, channelID string) error {
	observability.FeedPublishes.Inc()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.publish(ctx, channelID)
	if err != nil {
		observability.FeedPublishFailures.Inc()
		p.logger.LogError(err, "feed publish failed", "channel_id", channelID)
	}
	return err
}

func (p *Publisher) publish(ctx context.Context, channelID string) error {
	doc, err := p.Document(channelID)
	if err != nil {
		return fmt.Errorf("build feed document: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal feed document: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.writeArtifact(channelID, data); err != nil {
		return fmt.Errorf("write feed artifact: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, channelID, data, p.cacheTTL); err != nil {
			// Cache is an accelerator; the artifact is already in place.
			p.logger.LogError(err, "feed cache refresh failed", "channel_id", channelID)
		}
	}

	if p.hub != nil {
		notice, _ := json.Marshal(map[string]string{
			"type":    "feed_updated",
			"channel": channelID,
		})
		p.hub.Broadcast(channelID, notice)
	}

	return nil
}

// writeArtifact atomically replaces <dir>/<channel id>.jsonp. The
// JSONP wrapper lets the published file be consumed cross-origin by a
// static page. Write-then-rename keeps concurrent readers off
// partially-written feeds.
func (p *Publisher) writeArtifact(channelID string, data []byte) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return err
	}

	final := filepath.Join(p.dir, channelID+".jsonp")

	tmp, err := os.CreateTemp(p.dir, channelID+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	payload := fmt.Sprintf("%s(%s);", p.callback, data)
	if _, err := tmp.WriteString(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), final)
}
