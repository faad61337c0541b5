package mailbox

import (
	"encoding/base64"
	"net/mail"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"mailgate/internal/model"
)

// NormalizeMessage converts one raw Gmail payload into the uniform Message
// shape. now is injected so normalization stays deterministic under test.
func NormalizeMessage(msg *gmail.Message, now time.Time) *model.Message {
	m := &model.Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		To:       []string{},
		Date:     now,
		IsRead:   true,
		Labels:   []string{},
	}

	if msg.LabelIds != nil {
		m.Labels = msg.LabelIds
	}
	for _, label := range msg.LabelIds {
		if label == "UNREAD" {
			m.IsRead = false
			break
		}
	}

	if msg.Payload != nil {
		m.Subject = headerValue(msg.Payload.Headers, "Subject")
		m.From = headerValue(msg.Payload.Headers, "From")
		m.To = splitAddresses(headerValue(msg.Payload.Headers, "To"))
		// A missing or malformed Date header silently falls back to the
		// current time rather than failing the whole message.
		if raw := headerValue(msg.Payload.Headers, "Date"); raw != "" {
			if parsed, err := mail.ParseDate(raw); err == nil {
				m.Date = parsed
			}
		}
		_, m.Body = extractBody(msg.Payload)
	}

	return m
}

// headerValue returns the first header matching name case-insensitively, or
// the empty string.
func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func splitAddresses(header string) []string {
	if header == "" {
		return []string{}
	}
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// bodyKind tags the outcome of a body search so that text/plain found deep in
// a nested multipart still beats text/html found near the top.
type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyHTML
	bodyPlain
)

// extractBody walks a message part tree and returns the best body it can
// decode. Plain text wins over HTML no matter where either was found; among
// equals the first in depth-first child order wins. An undecodable tree
// yields (bodyNone, "").
func extractBody(part *gmail.MessagePart) (bodyKind, string) {
	if part.Body != nil && part.Body.Data != "" {
		if text, ok := decodeBody(part.Body.Data); ok {
			if part.MimeType == "text/html" {
				return bodyHTML, text
			}
			return bodyPlain, text
		}
	}
	return scanParts(part.Parts)
}

func scanParts(parts []*gmail.MessagePart) (bodyKind, string) {
	var htmlBody string

	// Direct children first: the first decodable text/plain ends the search
	// immediately, the first text/html is only remembered as a fallback.
	for _, p := range parts {
		if p.Body == nil || p.Body.Data == "" {
			continue
		}
		switch p.MimeType {
		case "text/plain":
			if text, ok := decodeBody(p.Body.Data); ok {
				return bodyPlain, text
			}
		case "text/html":
			if htmlBody == "" {
				if text, ok := decodeBody(p.Body.Data); ok {
					htmlBody = text
				}
			}
		}
	}

	// Then nested multiparts, depth-first in child order.
	for _, p := range parts {
		if len(p.Parts) == 0 {
			continue
		}
		kind, text := scanParts(p.Parts)
		if kind == bodyPlain {
			return bodyPlain, text
		}
		if kind == bodyHTML && htmlBody == "" {
			htmlBody = text
		}
	}

	if htmlBody != "" {
		return bodyHTML, htmlBody
	}
	return bodyNone, ""
}

func decodeBody(data string) (string, bool) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail pads inconsistently; retry without padding.
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return "", false
		}
	}
	return string(decoded), true
}
