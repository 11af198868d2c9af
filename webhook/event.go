package webhook

import (
	"encoding/json"
	"regexp"
)

// Kind is the classified outcome of a webhook delivery. Every payload
// maps onto exactly one variant; unknown events collapse into
// KindIgnored so the sender gets a 200 and stops retrying.
type Kind int

const (
	// KindUnknownType is an unrecognized top-level request type (rejected, 400).
	KindUnknownType Kind = iota
	// KindURLVerification is the endpoint-ownership handshake.
	KindURLVerification
	// KindMessageAdded is a new message in a tracked channel.
	KindMessageAdded
	// KindMessageChanged is an edit to an existing message.
	KindMessageChanged
	// KindMessageDeleted retires an existing message.
	KindMessageDeleted
	// KindFileShared is a message carrying an uploaded file that must
	// be made public before persisting.
	KindFileShared
	// KindIgnored is any recognized request carrying an event or
	// subtype this application does not record (acknowledged, no-op).
	KindIgnored
)

// CommentMarker flags a message as off-the-record. Slack HTML-escapes
// user text before delivery, so the marker arrives as its escaped form.
const (
	CommentMarker        = "<#>"
	CommentMarkerEscaped = "&lt;#&gt;"
)

var commentRe = regexp.MustCompile(`^\s*(?:` + regexp.QuoteMeta(CommentMarker) + `|` + regexp.QuoteMeta(CommentMarkerEscaped) + `)`)

// Callback is the top-level body of an Events API delivery.
type Callback struct {
	Type      string          `json:"type"`
	Token     string          `json:"token"`
	Challenge string          `json:"challenge"`
	RawEvent  json.RawMessage `json:"event"`
}

// Event is the nested event object of an event_callback delivery.
// Raw retains the undecoded bytes; that is what gets persisted so the
// rendered HTML can always be regenerated from the original payload.
type Event struct {
	Type       string          `json:"type"`
	Subtype    string          `json:"subtype"`
	Channel    string          `json:"channel"`
	User       string          `json:"user"`
	Text       string          `json:"text"`
	TS         string          `json:"ts"`
	DeletedTS  string          `json:"deleted_ts"`
	RawMessage json.RawMessage `json:"message"`
	FileID     string          `json:"file_id"`

	Raw json.RawMessage `json:"-"`
}

// ParseCallback decodes a webhook request body.
func ParseCallback(body []byte) (*Callback, error) {
	var cb Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, err
	}
	return &cb, nil
}

// DecodeEvent decodes the nested event object, retaining its raw bytes.
func (cb *Callback) DecodeEvent() (*Event, error) {
	var ev Event
	if err := json.Unmarshal(cb.RawEvent, &ev); err != nil {
		return nil, err
	}
	ev.Raw = cb.RawEvent
	return &ev, nil
}

// Classify maps a delivery onto its Kind. The event argument may be
// nil for deliveries that carry no event object.
func (cb *Callback) Classify(ev *Event) Kind {
	switch cb.Type {
	case "url_verification":
		return KindURLVerification
	case "event_callback":
		if ev == nil || ev.Type != "message" {
			return KindIgnored
		}
		switch ev.Subtype {
		case "":
			return KindMessageAdded
		case "message_changed":
			return KindMessageChanged
		case "message_deleted":
			return KindMessageDeleted
		case "file_share":
			return KindFileShared
		default:
			return KindIgnored
		}
	default:
		return KindUnknownType
	}
}

// Timestamp extracts the message timestamp identifier from the event
// payload itself. Create, update, and delete all derive the key here
// rather than trusting caller-assembled fields, so a spoofed envelope
// cannot diverge from the payload content.
func (e *Event) Timestamp() string {
	switch e.Subtype {
	case "message_changed":
		if inner, err := e.Inner(); err == nil {
			return inner.TS
		}
		return ""
	case "message_deleted":
		return e.DeletedTS
	default:
		return e.TS
	}
}

// Inner decodes the nested message object carried by message_changed
// events. Its raw bytes replace the stored payload on update.
func (e *Event) Inner() (*Event, error) {
	var inner Event
	if err := json.Unmarshal(e.RawMessage, &inner); err != nil {
		return nil, err
	}
	inner.Raw = e.RawMessage
	return &inner, nil
}

// IsComment reports whether the message text opens with the
// off-the-record marker and must not be persisted.
func (e *Event) IsComment() bool {
	return commentRe.MatchString(e.Text)
}

// String returns a stable name for the kind, used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindURLVerification:
		return "url_verification"
	case KindMessageAdded:
		return "message_added"
	case KindMessageChanged:
		return "message_changed"
	case KindMessageDeleted:
		return "message_deleted"
	case KindFileShared:
		return "file_shared"
	case KindIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}
