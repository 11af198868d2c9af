package service

import (
	"context"
	stderrors "errors"

	"chatlog/backend/pkg/logger"
	"chatlog/backend/pkg/slackclient"
	"chatlog/backend/user/models"
	userrepo "chatlog/backend/user/repository"

	"gorm.io/gorm"
)

// UserService keeps the stored user directory aligned with the
// workspace roster. Rows created lazily by the ingestion path carry
// only the user ID until a sync fills in names and avatars.
type UserService struct {
	users  userrepo.UserRepository
	slack  slackclient.API
	logger *logger.Logger
}

func NewUserService(users userrepo.UserRepository, slack slackclient.API, log *logger.Logger) *UserService {
	return &UserService{users: users, slack: slack, logger: log}
}

// SyncDirectory pulls the full member list from Slack and reconciles
// it against the stored directory. Returns how many rows were created
// and how many updated.
func (s *UserService) SyncDirectory(ctx context.Context) (created, updated int, err error) {
	members, err := s.slack.ListMembers(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, m := range members {
		existing, err := s.users.GetByUserID(m.ID)
		if err != nil {
			if !stderrors.Is(err, gorm.ErrRecordNotFound) {
				return created, updated, err
			}

			user := &models.User{
				UserID:   m.ID,
				Name:     m.Name,
				RealName: m.RealName,
				Image24:  m.Image24,
				Image32:  m.Image32,
				Image48:  m.Image48,
				Image72:  m.Image72,
				Image192: m.Image192,
			}
			if err := s.users.Save(user); err != nil {
				return created, updated, err
			}
			s.logger.Debug("directory user added", "user_id", m.ID, "name", m.Name)
			created++
			continue
		}

		if applyMember(existing, m) {
			if err := s.users.Save(existing); err != nil {
				return created, updated, err
			}
			s.logger.Debug("directory user updated", "user_id", m.ID, "name", m.Name)
			updated++
		}
	}

	return created, updated, nil
}

// applyMember copies changed roster fields onto the stored row and
// reports whether anything changed. Empty roster fields never blank
// out stored values.
func applyMember(user *models.User, m slackclient.Member) bool {
	changed := false

	set := func(dst *string, src string) {
		if src != "" && *dst != src {
			*dst = src
			changed = true
		}
	}

	set(&user.Name, m.Name)
	set(&user.RealName, m.RealName)
	set(&user.Image24, m.Image24)
	set(&user.Image32, m.Image32)
	set(&user.Image48, m.Image48)
	set(&user.Image72, m.Image72)
	set(&user.Image192, m.Image192)

	return changed
}
