package service

import (
	"context"
	"fmt"
	"testing"

	"chatlog/backend/pkg/logger"
	"chatlog/backend/pkg/slackclient"
	"chatlog/backend/user/models"
	userrepo "chatlog/backend/user/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeSlack struct {
	members []slackclient.Member
}

func (s *fakeSlack) PostMessage(ctx context.Context, channelID, text string) error { return nil }
func (s *fakeSlack) ShareFilePublic(ctx context.Context, fileID string) error      { return nil }

func (s *fakeSlack) ListMembers(ctx context.Context) ([]slackclient.Member, error) {
	return s.members, nil
}

func newService(t *testing.T, members []slackclient.Member) (*UserService, userrepo.UserRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	users := userrepo.NewGormUserRepository(db)
	svc := NewUserService(users, &fakeSlack{members: members}, logger.New(logger.DefaultConfig()))
	return svc, users
}

func TestSyncDirectoryCreatesMissingUsers(t *testing.T) {
	svc, users := newService(t, []slackclient.Member{
		{ID: "U1", Name: "jane", RealName: "Jane Doe", Image48: "https://img/jane.png"},
		{ID: "U2", Name: "sam"},
	})

	created, updated, err := svc.SyncDirectory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Zero(t, updated)

	jane, err := users.GetByUserID("U1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", jane.DisplayName())
	assert.Equal(t, "https://img/jane.png", jane.Image48)
}

func TestSyncDirectoryFillsLazilyCreatedRows(t *testing.T) {
	svc, users := newService(t, []slackclient.Member{
		{ID: "U1", Name: "jane", RealName: "Jane Doe"},
	})

	// The ingestion path creates bare rows with only the user ID.
	_, err := users.GetOrCreate("U1")
	require.NoError(t, err)

	created, updated, err := svc.SyncDirectory(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 1, updated)

	jane, err := users.GetByUserID("U1")
	require.NoError(t, err)
	assert.Equal(t, "jane", jane.Name)
	assert.Equal(t, "Jane Doe", jane.RealName)
}

func TestSyncDirectoryIsIdempotent(t *testing.T) {
	svc, _ := newService(t, []slackclient.Member{
		{ID: "U1", Name: "jane", RealName: "Jane Doe"},
	})

	_, _, err := svc.SyncDirectory(context.Background())
	require.NoError(t, err)

	created, updated, err := svc.SyncDirectory(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Zero(t, updated)
}

func TestSyncDirectoryNeverBlanksStoredFields(t *testing.T) {
	svc, users := newService(t, []slackclient.Member{
		{ID: "U1", Name: "jane"},
	})

	_, err := users.GetOrCreate("U1")
	require.NoError(t, err)
	jane, err := users.GetByUserID("U1")
	require.NoError(t, err)
	jane.RealName = "Jane Doe"
	require.NoError(t, users.Save(jane))

	_, _, err = svc.SyncDirectory(context.Background())
	require.NoError(t, err)

	jane, err = users.GetByUserID("U1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", jane.RealName)
}
