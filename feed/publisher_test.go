package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	channelmodels "chatlog/backend/channel/models"
	channelrepo "chatlog/backend/channel/repository"
	messagemodels "chatlog/backend/message/models"
	messagerepo "chatlog/backend/message/repository"
	"chatlog/backend/pkg/logger"
	usermodels "chatlog/backend/user/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newPublisher(t *testing.T) (*Publisher, *gorm.DB, string) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&channelmodels.Channel{},
		&usermodels.User{},
		&messagemodels.Message{},
	))

	dir := t.TempDir()
	p := NewPublisher(
		channelrepo.NewGormChannelRepository(db),
		messagerepo.NewGormMessageRepository(db),
		nil, // no cache
		nil, // no hub
		Options{Dir: dir, Callback: "chatFeed", Timeout: 5 * time.Second},
		logger.New(logger.DefaultConfig()),
	)
	return p, db, dir
}

func seed(t *testing.T, db *gorm.DB) *channelmodels.Channel {
	t.Helper()

	channel := &channelmodels.Channel{
		ChannelID: "C1", Slug: "city", Headline: "City desk",
	}
	require.NoError(t, db.Create(channel).Error)

	user := &usermodels.User{
		UserID: "U1", Name: "jane", RealName: "Jane Doe", Image48: "https://img/48.png",
	}
	require.NoError(t, db.Create(user).Error)

	rows := []messagemodels.Message{
		{TS: "1000.1", ChannelID: channel.ID, UserID: user.ID, HTML: "<p>first</p>", Live: true},
		{TS: "1000.2", ChannelID: channel.ID, UserID: user.ID, HTML: "<p>second</p>", Live: true},
		{TS: "1000.3", ChannelID: channel.ID, UserID: user.ID, HTML: "<p>deleted</p>", Live: false},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}
	return channel
}

func TestDocumentProjectsLiveMessagesNewestFirst(t *testing.T) {
	p, db, _ := newPublisher(t)
	seed(t, db)

	doc, err := p.Document("C1")
	require.NoError(t, err)

	assert.Equal(t, "C1", doc.Channel.ID)
	assert.Equal(t, "city", doc.Channel.Slug)

	// The retired message is excluded; the rest are newest first.
	require.Len(t, doc.Messages, 2)
	assert.Equal(t, "1000.2", doc.Messages[0].TS)
	assert.Equal(t, "1000.1", doc.Messages[1].TS)
	assert.Equal(t, "<p>second</p>", doc.Messages[0].HTML)
	assert.Equal(t, "Jane Doe", doc.Messages[0].User.DisplayName)
	assert.Equal(t, "https://img/48.png", doc.Messages[0].User.Image48)
	assert.Nil(t, doc.Messages[0].Updated)
}

func TestDocumentMarksEditedMessages(t *testing.T) {
	p, db, _ := newPublisher(t)
	channel := seed(t, db)

	require.NoError(t, db.Model(&messagemodels.Message{}).
		Where("channel_id = ? AND ts = ?", channel.ID, "1000.1").
		Update("edited", true).Error)

	doc, err := p.Document("C1")
	require.NoError(t, err)

	require.Len(t, doc.Messages, 2)
	assert.Nil(t, doc.Messages[0].Updated)
	require.NotNil(t, doc.Messages[1].Updated)
	assert.Greater(t, *doc.Messages[1].Updated, int64(0))
}

func TestPublishWritesJSONPArtifact(t *testing.T) {
	p, db, dir := newPublisher(t)
	seed(t, db)

	require.NoError(t, p.Publish(context.Background(), "C1"))

	raw, err := os.ReadFile(filepath.Join(dir, "C1.jsonp"))
	require.NoError(t, err)

	body := string(raw)
	require.True(t, strings.HasPrefix(body, "chatFeed("))
	require.True(t, strings.HasSuffix(body, ");"))

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(body[len("chatFeed("):len(body)-2]), &doc))
	assert.Len(t, doc.Messages, 2)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "C1.jsonp", entries[0].Name())
}

func TestPublishReplacesExistingArtifact(t *testing.T) {
	p, db, dir := newPublisher(t)
	channel := seed(t, db)

	require.NoError(t, p.Publish(context.Background(), "C1"))

	require.NoError(t, db.Model(&messagemodels.Message{}).
		Where("channel_id = ? AND ts = ?", channel.ID, "1000.2").
		Update("live", false).Error)
	require.NoError(t, p.Publish(context.Background(), "C1"))

	raw, err := os.ReadFile(filepath.Join(dir, "C1.jsonp"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "<p>second</p>")
	assert.Contains(t, string(raw), "<p>first</p>")
}

func TestPublishUnknownChannelFails(t *testing.T) {
	p, _, dir := newPublisher(t)

	err := p.Publish(context.Background(), "C404")
	require.Error(t, err)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}
