package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, body string) (Kind, *Callback, *Event) {
	t.Helper()

	cb, err := ParseCallback([]byte(body))
	require.NoError(t, err)

	var ev *Event
	if cb.Type == "event_callback" {
		ev, err = cb.DecodeEvent()
		require.NoError(t, err)
	}
	return cb.Classify(ev), cb, ev
}

func TestClassifyURLVerification(t *testing.T) {
	kind, cb, _ := classify(t, `{"type":"url_verification","token":"tok","challenge":"abc"}`)
	assert.Equal(t, KindURLVerification, kind)
	assert.Equal(t, "abc", cb.Challenge)
}

func TestClassifyMessageAdded(t *testing.T) {
	kind, _, ev := classify(t, `{"type":"event_callback","token":"tok","event":{"type":"message","channel":"C1","user":"U1","text":"hi","ts":"1.0"}}`)
	assert.Equal(t, KindMessageAdded, kind)
	assert.Equal(t, "1.0", ev.Timestamp())
}

func TestClassifyMessageChanged(t *testing.T) {
	kind, _, ev := classify(t, `{"type":"event_callback","token":"tok","event":{"type":"message","subtype":"message_changed","channel":"C1","message":{"type":"message","user":"U1","text":"edited","ts":"1.0"},"ts":"2.0"}}`)
	assert.Equal(t, KindMessageChanged, kind)
	// The identifier comes from the nested message, not the envelope.
	assert.Equal(t, "1.0", ev.Timestamp())

	inner, err := ev.Inner()
	require.NoError(t, err)
	assert.Equal(t, "edited", inner.Text)
}

func TestClassifyMessageDeleted(t *testing.T) {
	kind, _, ev := classify(t, `{"type":"event_callback","token":"tok","event":{"type":"message","subtype":"message_deleted","channel":"C1","deleted_ts":"1.0","ts":"2.0"}}`)
	assert.Equal(t, KindMessageDeleted, kind)
	assert.Equal(t, "1.0", ev.Timestamp())
}

func TestClassifyFileShare(t *testing.T) {
	kind, _, ev := classify(t, `{"type":"event_callback","token":"tok","event":{"type":"message","subtype":"file_share","channel":"C1","user":"U1","text":"a file","ts":"1.0","file_id":"F1"}}`)
	assert.Equal(t, KindFileShared, kind)
	assert.Equal(t, "F1", ev.FileID)
}

func TestClassifyUnknownSubtypeIsIgnored(t *testing.T) {
	kind, _, _ := classify(t, `{"type":"event_callback","token":"tok","event":{"type":"message","subtype":"channel_join","channel":"C1","ts":"1.0"}}`)
	assert.Equal(t, KindIgnored, kind)
}

func TestClassifyNonMessageEventIsIgnored(t *testing.T) {
	kind, _, _ := classify(t, `{"type":"event_callback","token":"tok","event":{"type":"reaction_added"}}`)
	assert.Equal(t, KindIgnored, kind)
}

func TestClassifyUnknownTopLevelType(t *testing.T) {
	cb, err := ParseCallback([]byte(`{"type":"something_else","token":"tok"}`))
	require.NoError(t, err)
	assert.Equal(t, KindUnknownType, cb.Classify(nil))
}

func TestIsComment(t *testing.T) {
	cases := map[string]bool{
		"<#> secret note":          true,
		"&lt;#&gt; secret note":    true,
		"  <#> leading whitespace": true,
		"public note":              false,
		"mid <#> marker":           false,
	}
	for text, want := range cases {
		ev := &Event{Text: text}
		assert.Equal(t, want, ev.IsComment(), "text: %q", text)
	}
}

func TestAuthenticatorVerify(t *testing.T) {
	auth := NewAuthenticator("sekrit")
	assert.True(t, auth.Verify("sekrit"))
	assert.False(t, auth.Verify("wrong"))
	assert.False(t, auth.Verify(""))

	// An unset token must reject everything, including empty input.
	empty := NewAuthenticator("")
	assert.False(t, empty.Verify(""))
	assert.False(t, empty.Verify("anything"))
}
