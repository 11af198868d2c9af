package service

import (
	"context"
	"fmt"
	"testing"

	"chatlog/backend/channel/models"
	channelrepo "chatlog/backend/channel/repository"
	"chatlog/backend/pkg/logger"
	"chatlog/backend/pkg/slackclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakePublisher struct {
	published []string
}

func (p *fakePublisher) Publish(ctx context.Context, channelID string) error {
	p.published = append(p.published, channelID)
	return nil
}

type fakeSlack struct {
	posted []string
}

func (s *fakeSlack) PostMessage(ctx context.Context, channelID, text string) error {
	s.posted = append(s.posted, text)
	return nil
}

func (s *fakeSlack) ShareFilePublic(ctx context.Context, fileID string) error { return nil }

func (s *fakeSlack) ListMembers(ctx context.Context) ([]slackclient.Member, error) {
	return nil, nil
}

func newService(t *testing.T) (*ChannelService, *fakePublisher, *fakeSlack, channelrepo.ChannelRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Channel{}))

	channels := channelrepo.NewGormChannelRepository(db)
	publisher := &fakePublisher{}
	slack := &fakeSlack{}
	svc := NewChannelService(channels, publisher, slack, logger.New(logger.DefaultConfig()))
	return svc, publisher, slack, channels
}

func TestValidateSlug(t *testing.T) {
	svc, _, _, channels := newService(t)
	require.NoError(t, channels.Create(&models.Channel{ChannelID: "C0", Slug: "taken"}))

	tests := []struct {
		name string
		slug string
		want error
	}{
		{"empty", "", ErrSlugMissing},
		{"space", "city hall", ErrSlugChar{Char: ' '}},
		{"underscore", "city_hall", ErrSlugChar{Char: '_'}},
		{"ampersand", "a&b", ErrSlugChar{Char: '&'}},
		{"percent", "a%b", ErrSlugChar{Char: '%'}},
		{"taken", "taken", ErrSlugTaken},
		{"valid", "city-hall", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateSlug(tt.slug)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.want, err)
			}
		})
	}
}

func TestProvisionCreatesChannelAndAnnounces(t *testing.T) {
	svc, publisher, slack, channels := newService(t)

	channel, err := svc.Provision(context.Background(), "C1", "city-desk", "city")
	require.NoError(t, err)
	assert.Equal(t, "C1", channel.ChannelID)
	assert.Equal(t, "city", channel.Slug)
	assert.Equal(t, "city-desk", channel.Headline)

	stored, err := channels.GetByChannelID("C1")
	require.NoError(t, err)
	assert.Equal(t, "city", stored.Slug)

	// The intro message itself opens with the off-the-record marker so
	// it never shows up in the recorded log.
	require.Len(t, slack.posted, 1)
	assert.Contains(t, slack.posted[0], "<#>")
	assert.Equal(t, []string{"C1"}, publisher.published)
}

func TestProvisionRejectsBadSlugWithoutSideEffects(t *testing.T) {
	svc, publisher, slack, channels := newService(t)

	_, err := svc.Provision(context.Background(), "C1", "city-desk", "city hall")
	require.Error(t, err)

	_, err = channels.GetByChannelID("C1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, slack.posted)
	assert.Empty(t, publisher.published)
}
