// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
	RoleTool   Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// =============================================================================
// PART / MESSAGE
// =============================================================================

// Part is one piece of an outbound message. Only text parts carry tokens the
// estimator can see.
type Part struct {
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// PartText returns the part's text. Binary parts report no text.
func (p Part) PartText() (string, bool) {
	if p.Text == "" {
		return "", false
	}
	return p.Text, true
}

// Message is an outbound prompt.
type Message struct {
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user message holding a single text part.
func NewUserMessage(text string) Message {
	return Message{
		Role:      RoleUser,
		Parts:     []Part{TextPart(text)},
		Timestamp: time.Now(),
	}
}

// Text joins the text of every part.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if text, ok := p.PartText(); ok {
			b.WriteString(text)
		}
	}
	return b.String()
}
