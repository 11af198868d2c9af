package service

import (
	"context"
	stderrors "errors"
	"fmt"

	channelmodels "chatlog/backend/channel/models"
	"chatlog/backend/message/models"
	messagerepo "chatlog/backend/message/repository"
	"chatlog/backend/pkg/errors"
	"chatlog/backend/pkg/logger"
	"chatlog/backend/pkg/slackclient"
	"chatlog/backend/render"
	userrepo "chatlog/backend/user/repository"
	"chatlog/backend/webhook"

	"gorm.io/gorm"
)

// ErrBadEvent marks an event payload whose shape cannot be
// reconciled. Redelivering it cannot succeed, so callers acknowledge
// instead of erroring.
var ErrBadEvent = stderrors.New("unusable event payload")

// Publisher is the slice of the feed publisher the reconciliation
// engine needs. Publishing is best-effort from this side: errors are
// already logged and counted by the publisher and never bubble into
// the mutation result.
type Publisher interface {
	Publish(ctx context.Context, channelID string) error
}

// MessageService applies create/update/delete reconciliation to the
// message log, keyed by the Slack message timestamp. Concurrent
// deliveries for the same (channel, ts) are serialized by a per-key
// lock; different keys proceed in parallel.
type MessageService struct {
	messages  messagerepo.MessageRepository
	users     userrepo.UserRepository
	renderer  *render.Renderer
	publisher Publisher
	slack     slackclient.API
	logger    *logger.Logger
	locks     keyedLocks
}

func NewMessageService(
	messages messagerepo.MessageRepository,
	users userrepo.UserRepository,
	renderer *render.Renderer,
	publisher Publisher,
	slack slackclient.API,
	log *logger.Logger,
) *MessageService {
	return &MessageService{
		messages:  messages,
		users:     users,
		renderer:  renderer,
		publisher: publisher,
		slack:     slack,
		logger:    log,
	}
}

// Create records a new message event. Messages opening with the
// comment marker are excluded from persistence entirely. A create for
// a (channel, ts) that already exists is treated as an update: the
// payload is replaced and re-rendered, never duplicated.
func (s *MessageService) Create(ctx context.Context, channel *channelmodels.Channel, ev *webhook.Event) error {
	if ev.IsComment() {
		return nil
	}

	ts := ev.Timestamp()
	if ts == "" {
		return fmt.Errorf("%w: message event carries no ts", ErrBadEvent)
	}
	if ev.User == "" {
		return fmt.Errorf("%w: message event carries no user", ErrBadEvent)
	}

	unlock := s.locks.lock(lockKey(channel.ID, ts))
	defer unlock()

	existing, err := s.messages.GetByTS(channel.ID, ts)
	switch {
	case err == nil:
		// Redelivered create: last write wins on the same identity.
		existing.Data = string(ev.Raw)
		existing.HTML = s.renderer.HTML(existing)
		if err := s.messages.Save(existing); err != nil {
			return err
		}
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		user, err := s.users.GetOrCreate(ev.User)
		if err != nil {
			return err
		}

		message := &models.Message{
			TS:        ts,
			ChannelID: channel.ID,
			UserID:    user.ID,
			Data:      string(ev.Raw),
			Live:      true,
		}
		message.HTML = s.renderer.HTML(message)
		if err := s.messages.Create(message); err != nil {
			return err
		}
	default:
		return err
	}

	s.publisher.Publish(ctx, channel.ChannelID)
	return nil
}

// CreateWithFile handles the file_share variant: the uploaded file is
// made public before the message is persisted. A failed share is
// logged but does not block recording the message itself.
func (s *MessageService) CreateWithFile(ctx context.Context, channel *channelmodels.Channel, ev *webhook.Event) error {
	if ev.FileID != "" {
		if err := s.slack.ShareFilePublic(ctx, ev.FileID); err != nil {
			s.logger.LogError(err, "file public share failed",
				"channel_id", channel.ChannelID,
				"file_id", ev.FileID,
			)
		}
	}
	return s.Create(ctx, channel, ev)
}

// Update replaces the payload of an existing message and re-renders
// it. Unlike Delete, a missing target is surfaced as NotFound: an
// update without a prior create indicates a genuine ordering bug
// upstream and must not be swallowed.
func (s *MessageService) Update(ctx context.Context, channel *channelmodels.Channel, ev *webhook.Event) error {
	inner, err := ev.Inner()
	if err != nil {
		return fmt.Errorf("%w: decode changed message: %v", ErrBadEvent, err)
	}

	ts := ev.Timestamp()
	if ts == "" {
		return fmt.Errorf("%w: message_changed event carries no ts", ErrBadEvent)
	}

	unlock := s.locks.lock(lockKey(channel.ID, ts))
	defer unlock()

	existing, err := s.messages.GetByTS(channel.ID, ts)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NewNotFoundError("MESSAGE_NOT_FOUND", "No message with ts "+ts)
		}
		return err
	}

	existing.Data = string(inner.Raw)
	existing.Edited = true
	existing.HTML = s.renderer.HTML(existing)
	if err := s.messages.Save(existing); err != nil {
		return err
	}

	s.publisher.Publish(ctx, channel.ChannelID)
	return nil
}

// Delete retires a message. The row is kept for audit with Live
// cleared. A delete for an absent ts is a successful no-op: retried
// webhook deliveries routinely replay deletes.
func (s *MessageService) Delete(ctx context.Context, channel *channelmodels.Channel, ev *webhook.Event) error {
	ts := ev.Timestamp()
	if ts == "" {
		return fmt.Errorf("%w: message_deleted event carries no ts", ErrBadEvent)
	}

	unlock := s.locks.lock(lockKey(channel.ID, ts))
	defer unlock()

	existing, err := s.messages.GetByTS(channel.ID, ts)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	existing.Live = false
	if err := s.messages.Save(existing); err != nil {
		return err
	}

	s.publisher.Publish(ctx, channel.ChannelID)
	return nil
}

func lockKey(channelPK uint, ts string) string {
	return fmt.Sprintf("%d:%s", channelPK, ts)
}
