package render

import (
	"html"
	"regexp"
	"strings"
)

// Slackdown converts Slack mrkdwn into an HTML fragment. It is a pure
// function of its input: same text in, same markup out, and the result
// is safe to embed in a page without further escaping. Slack delivers
// user text with &, < and > already entity-escaped; only angle-bracket
// control sequences (links, mention tokens) arrive raw, and those are
// rewritten here before any literal < or > left over gets escaped.
func Slackdown(text string) string {
	out := controlRe.ReplaceAllStringFunc(text, expandControl)
	out = strings.ReplaceAll(out, "<", "&lt;")
	out = strings.ReplaceAll(out, ">", "&gt;")

	// Control sequences were expanded into placeholders so the escape
	// pass above cannot touch the tags they generate.
	out = strings.ReplaceAll(out, linkOpenMark, `<a href="`)
	out = strings.ReplaceAll(out, linkMidMark, `">`)
	out = strings.ReplaceAll(out, linkCloseMark, `</a>`)

	out = fencedRe.ReplaceAllString(out, "<pre><code>$1</code></pre>")
	out = codeRe.ReplaceAllString(out, "<code>$1</code>")
	out = boldRe.ReplaceAllString(out, "<b>$1</b>")
	out = italicRe.ReplaceAllString(out, "<i>$1</i>")
	out = strikeRe.ReplaceAllString(out, "<s>$1</s>")
	out = strings.ReplaceAll(out, "\n", "<br>")

	return "<p>" + out + "</p>"
}

// Placeholder runes never produced by Slack-escaped text; they survive
// the < > escape pass and are swapped for real tags afterwards.
const (
	linkOpenMark  = "\x00a\x00"
	linkMidMark   = "\x00m\x00"
	linkCloseMark = "\x00z\x00"
)

var (
	controlRe = regexp.MustCompile(`<([^<>]+)>`)
	fencedRe  = regexp.MustCompile("```\\n?((?s:.*?))\\n?```")
	codeRe    = regexp.MustCompile("`([^`\n]+)`")
	boldRe    = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicRe  = regexp.MustCompile(`_([^_\n]+)_`)
	strikeRe  = regexp.MustCompile(`~([^~\n]+)~`)
	schemeRe  = regexp.MustCompile(`^https?://`)
)

// expandControl rewrites one <...> control sequence.
func expandControl(token string) string {
	body := token[1 : len(token)-1]

	switch {
	case strings.HasPrefix(body, "@"):
		// User mention: drop the brackets, the mention pass resolves it.
		return body
	case strings.HasPrefix(body, "#"):
		// Channel reference: prefer the readable label when present.
		if i := strings.IndexByte(body, '|'); i >= 0 {
			return "#" + body[i+1:]
		}
		return body
	case schemeRe.MatchString(body):
		url, label := body, body
		if i := strings.IndexByte(body, '|'); i >= 0 {
			url, label = body[:i], body[i+1:]
		}
		return linkOpenMark + html.EscapeString(url) + linkMidMark + label + linkCloseMark
	default:
		// Unknown sequence: neutralize the brackets.
		return "&lt;" + body + "&gt;"
	}
}
