package chat

import (
	"encoding/json"
	"time"

	"github.com/Horizontal-Labs/ArminApp/internal/shared/id"
)

// Role discriminates the message variants.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FailureNotice is the fixed friendly string written into a placeholder
// when its exchange fails. The detailed error goes to LastError instead;
// the two are intentionally different.
const FailureNotice = "An error has occurred, try to send a message again"

// Session is one conversation thread.
type Session struct {
	ID        id.SessionID `json:"id"`
	Title     string       `json:"title"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Attachment describes a file attached to a user message.
type Attachment struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Result is the settled outcome of an assistant message: either the opaque
// analysis payload or a human-readable error string, never both.
type Result struct {
	Analysis json.RawMessage `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Failed reports whether the result carries an error string.
func (r *Result) Failed() bool {
	return r != nil && r.Error != ""
}

// Message is a tagged union over Role. User messages carry Text and an
// optional Attachment; assistant messages carry Pending and, once settled,
// a Result. A placeholder settles exactly once and never reverts.
type Message struct {
	ID        id.MessageID `json:"id"`
	Role      Role         `json:"role"`
	Timestamp time.Time    `json:"timestamp"`

	// user variant
	Text       string      `json:"text,omitempty"`
	Attachment *Attachment `json:"fileAttachment,omitempty"`

	// assistant variant
	Pending bool    `json:"pending,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

// NewUserMessage builds a user message. Text may be empty when an
// attachment is present.
func NewUserMessage(text string, attachment *Attachment) Message {
	return Message{
		Role:       RoleUser,
		Text:       text,
		Attachment: attachment,
	}
}

// NewPlaceholder builds the pending assistant message inserted before the
// analysis response arrives.
func NewPlaceholder() Message {
	return Message{
		Role:    RoleAssistant,
		Pending: true,
	}
}

// MessagePatch holds the fields UpdateMessage merges into an existing
// message. Nil fields are left untouched.
type MessagePatch struct {
	Pending *bool
	Result  *Result
}

// settled returns the patch that settles a placeholder with the given result.
func settled(result *Result) MessagePatch {
	pending := false
	return MessagePatch{Pending: &pending, Result: result}
}
