package slackclient

import (
	"context"

	"github.com/slack-go/slack"
)

// Member is a user record from the workspace directory.
type Member struct {
	ID       string
	Name     string
	RealName string
	Image24  string
	Image32  string
	Image48  string
	Image72  string
	Image192 string
}

// API is the outbound Slack surface the application depends on.
// It is constructed once at startup and injected; there is no
// package-level singleton.
type API interface {
	// PostMessage posts a plain-text message to a channel as the bot.
	PostMessage(ctx context.Context, channelID, text string) error
	// ShareFilePublic enables the public URL of an uploaded file.
	ShareFilePublic(ctx context.Context, fileID string) error
	// ListMembers returns the full workspace user directory.
	ListMembers(ctx context.Context) ([]Member, error)
}

// Client implements API against the Slack Web API.
type Client struct {
	api *slack.Client
}

// New creates a Client authenticated with the given bot token.
func New(botToken string) *Client {
	return &Client{api: slack.New(botToken)}
}

func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	return err
}

func (c *Client) ShareFilePublic(ctx context.Context, fileID string) error {
	_, _, _, err := c.api.ShareFilePublicURLContext(ctx, fileID)
	return err
}

func (c *Client) ListMembers(ctx context.Context) ([]Member, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(users))
	for _, u := range users {
		members = append(members, Member{
			ID:       u.ID,
			Name:     u.Name,
			RealName: u.RealName,
			Image24:  u.Profile.Image24,
			Image32:  u.Profile.Image32,
			Image48:  u.Profile.Image48,
			Image72:  u.Profile.Image72,
			Image192: u.Profile.Image192,
		})
	}
	return members, nil
}
