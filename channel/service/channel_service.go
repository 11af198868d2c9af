package service

import (
	"context"
	"fmt"

	"chatlog/backend/channel/models"
	channelrepo "chatlog/backend/channel/repository"
	"chatlog/backend/pkg/logger"
	"chatlog/backend/pkg/slackclient"
	"chatlog/backend/webhook"
)

// ErrSlugMissing is returned when provisioning is attempted without a slug.
var ErrSlugMissing = fmt.Errorf("a slug is required")

// ErrSlugTaken is returned when the proposed slug is already in use.
var ErrSlugTaken = fmt.Errorf("slug already taken")

// ErrSlugChar flags a disallowed character in a proposed slug.
type ErrSlugChar struct {
	Char rune
}

func (e ErrSlugChar) Error() string {
	return fmt.Sprintf("slug has a '%c' character", e.Char)
}

// slugDisallowed are the characters a slug may not contain; they break
// the story URLs the slug is embedded in.
var slugDisallowed = []rune{' ', '_', '&', '%'}

// Publisher is the slice of the feed publisher channel provisioning needs.
type Publisher interface {
	Publish(ctx context.Context, channelID string) error
}

// ChannelService provisions channels for tracking and keeps their
// feed artifacts current.
type ChannelService struct {
	channels  channelrepo.ChannelRepository
	publisher Publisher
	slack     slackclient.API
	logger    *logger.Logger
}

func NewChannelService(
	channels channelrepo.ChannelRepository,
	publisher Publisher,
	slack slackclient.API,
	log *logger.Logger,
) *ChannelService {
	return &ChannelService{
		channels:  channels,
		publisher: publisher,
		slack:     slack,
		logger:    log,
	}
}

// ValidateSlug checks a proposed slug: present, free of disallowed
// characters, and not already taken.
func (s *ChannelService) ValidateSlug(slug string) error {
	if slug == "" {
		return ErrSlugMissing
	}
	for _, c := range slugDisallowed {
		for _, r := range slug {
			if r == c {
				return ErrSlugChar{Char: c}
			}
		}
	}
	taken, err := s.channels.SlugExists(slug)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugTaken
	}
	return nil
}

// Provision registers a channel for tracking, announces it in the
// channel, and runs the initial feed publish. The announcement and the
// publish are best-effort; the channel row is the source of truth.
func (s *ChannelService) Provision(ctx context.Context, channelID, headline, slug string) (*models.Channel, error) {
	if err := s.ValidateSlug(slug); err != nil {
		return nil, err
	}

	channel := &models.Channel{
		ChannelID: channelID,
		Slug:      slug,
		Headline:  headline,
	}
	if err := s.channels.Create(channel); err != nil {
		return nil, err
	}

	intro := fmt.Sprintf(
		"%s This is now a `Chat` channel. All messages from now will be recorded in Chat."+
			" Start a message with a `%s` if you don't want it recorded and potentially published.",
		webhook.CommentMarker, webhook.CommentMarker,
	)
	if err := s.slack.PostMessage(ctx, channelID, intro); err != nil {
		s.logger.LogError(err, "intro message post failed", "channel_id", channelID)
	}

	s.publisher.Publish(ctx, channelID)

	return channel, nil
}
