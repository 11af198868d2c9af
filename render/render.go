package render

import (
	"encoding/json"
	"regexp"
	"strings"

	messagemodels "chatlog/backend/message/models"
	usermodels "chatlog/backend/user/models"
)

// Directory resolves Slack user IDs against the stored user directory.
type Directory interface {
	GetByUserID(userID string) (*usermodels.User, error)
}

// Renderer derives the cached HTML for a message: mrkdwn conversion
// followed by mention resolution against the user directory. Output is
// a pure function of (override text if set, else raw payload) plus the
// directory contents at render time.
type Renderer struct {
	directory Directory
}

func New(directory Directory) *Renderer {
	return &Renderer{directory: directory}
}

var mentionRe = regexp.MustCompile(`@(\w+)`)

// HTML renders a message. The override text, when non-empty, takes
// precedence over the raw payload.
func (r *Renderer) HTML(m *messagemodels.Message) string {
	text := m.OverrideText
	if text == "" {
		var payload struct {
			Text string `json:"text"`
		}
		// A payload that fails to decode renders as empty text; the
		// raw data is still retained on the row.
		json.Unmarshal([]byte(m.Data), &payload)
		text = payload.Text
	}

	return r.resolveMentions(Slackdown(text))
}

// resolveMentions replaces @<user id> tokens with styled display-name
// spans. Matches are computed once against the original string and the
// output is assembled in a single left-to-right pass, so an inserted
// name can never shift or re-trigger a later match.
func (r *Renderer) resolveMentions(html string) string {
	matches := mentionRe.FindAllStringSubmatchIndex(html, -1)
	if len(matches) == 0 {
		return html
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		id := html[m[2]:m[3]]

		b.WriteString(html[last:start])
		if user, err := r.directory.GetByUserID(id); err == nil {
			name := "@" + strings.ReplaceAll(user.DisplayName(), " ", "")
			b.WriteString("<span class='chat-mention'>")
			b.WriteString(name)
			b.WriteString("</span>")
		} else {
			// Unknown IDs stay literal.
			b.WriteString(html[start:end])
		}
		last = end
	}
	b.WriteString(html[last:])

	return b.String()
}
