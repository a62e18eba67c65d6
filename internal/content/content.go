// Package content turns raw message text into a tagged body. Chat messages carry
// handshake and system events inline as reserved prefixes followed by a JSON payload;
// everything else is plain text.
package content

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies what a message body encodes.
type Kind int

const (
	KindText Kind = iota
	KindInviteSent
	KindInviteAccepted
	KindInviteRejected
	KindSystemNotice
)

const (
	InvitePrefix   = "__DM_INVITE__:"
	AcceptedPrefix = "__DM_ACCEPTED__:"
	RejectedPrefix = "__DM_REJECTED__:"
	SystemPrefix   = "__SYSTEM__:"
)

const (
	genericInviteText   = "Direct message invitation"
	genericAcceptedText = "Invitation accepted"
	genericRejectedText = "Invitation rejected"
)

func (k Kind) String() string {
	switch k {
	case KindInviteSent:
		return "invite_sent"
	case KindInviteAccepted:
		return "invite_accepted"
	case KindInviteRejected:
		return "invite_rejected"
	case KindSystemNotice:
		return "system_notice"
	default:
		return "text"
	}
}

// MarshalText lets Kind render as its name in JSON responses.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Invitation is the payload of an invitation-sent marker.
type Invitation struct {
	FromID   string `json:"from_id"`
	FromName string `json:"from_name,omitempty"`
	ToID     string `json:"to_id"`
	ToName   string `json:"to_name,omitempty"`
	Note     string `json:"note,omitempty"`
}

// Response is the payload of accepted/rejected markers.
type Response struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
}

// Body is a parsed message content.
type Body struct {
	Kind       Kind        `json:"kind"`
	Text       string      `json:"text,omitempty"`
	Invitation *Invitation `json:"invitation,omitempty"`
	Response   *Response   `json:"response,omitempty"`
	// Malformed is set when a reserved prefix carried an unreadable payload.
	Malformed bool `json:"malformed,omitempty"`
}

// Parse classifies raw content. The prefix alone decides the kind; a broken payload
// only affects what Display returns.
func Parse(raw string) Body {
	switch {
	case strings.HasPrefix(raw, InvitePrefix):
		body := Body{Kind: KindInviteSent}
		var inv Invitation
		if err := json.Unmarshal([]byte(strings.TrimPrefix(raw, InvitePrefix)), &inv); err != nil {
			body.Malformed = true
			return body
		}
		body.Invitation = &inv
		body.Text = inv.Note
		return body
	case strings.HasPrefix(raw, AcceptedPrefix):
		return parseResponse(KindInviteAccepted, strings.TrimPrefix(raw, AcceptedPrefix))
	case strings.HasPrefix(raw, RejectedPrefix):
		return parseResponse(KindInviteRejected, strings.TrimPrefix(raw, RejectedPrefix))
	case strings.HasPrefix(raw, SystemPrefix):
		return Body{Kind: KindSystemNotice, Text: strings.TrimSpace(strings.TrimPrefix(raw, SystemPrefix))}
	default:
		return Body{Kind: KindText, Text: raw}
	}
}

func parseResponse(kind Kind, payload string) Body {
	body := Body{Kind: kind}
	if strings.TrimSpace(payload) == "" {
		return body
	}
	var resp Response
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		body.Malformed = true
		return body
	}
	body.Response = &resp
	return body
}

// IsHandshake reports whether the body belongs to the invitation protocol.
func (b Body) IsHandshake() bool {
	return b.Kind == KindInviteSent || b.Kind == KindInviteAccepted || b.Kind == KindInviteRejected
}

// Display returns a human-readable rendition, falling back to generic strings.
func (b Body) Display() string {
	switch b.Kind {
	case KindInviteSent:
		if b.Invitation == nil || b.Invitation.FromName == "" {
			return genericInviteText
		}
		return fmt.Sprintf("%s invited you to a direct conversation", b.Invitation.FromName)
	case KindInviteAccepted:
		if b.Response == nil || b.Response.Name == "" {
			return genericAcceptedText
		}
		return fmt.Sprintf("%s accepted the invitation", b.Response.Name)
	case KindInviteRejected:
		if b.Response == nil || b.Response.Name == "" {
			return genericRejectedText
		}
		return fmt.Sprintf("%s rejected the invitation", b.Response.Name)
	default:
		return b.Text
	}
}

// EncodeInvite builds an invitation-sent marker.
func EncodeInvite(inv Invitation) (string, error) {
	payload, err := json.Marshal(inv)
	if err != nil {
		return "", fmt.Errorf("encode invitation: %w", err)
	}
	return InvitePrefix + string(payload), nil
}

// EncodeAccepted builds an invitation-accepted marker.
func EncodeAccepted(resp Response) string {
	return encodeResponse(AcceptedPrefix, resp)
}

// EncodeRejected builds an invitation-rejected marker.
func EncodeRejected(resp Response) string {
	return encodeResponse(RejectedPrefix, resp)
}

func encodeResponse(prefix string, resp Response) string {
	payload, err := json.Marshal(resp)
	if err != nil {
		return prefix
	}
	return prefix + string(payload)
}

// EncodeNotice builds a system-notice marker.
func EncodeNotice(text string) string {
	return SystemPrefix + text
}
