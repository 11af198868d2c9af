package webhook

import (
	"crypto/subtle"
)

// Authenticator verifies the shared verification token Slack includes
// in every callback and slash command body.
type Authenticator struct {
	token string
}

func NewAuthenticator(token string) *Authenticator {
	return &Authenticator{token: token}
}

// Verify reports whether the presented token matches the configured
// one. Comparison is constant-time. An empty configured token never
// authorizes anything.
func (a *Authenticator) Verify(presented string) bool {
	if a.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(a.token)) == 1
}
