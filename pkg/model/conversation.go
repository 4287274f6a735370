package model

import (
	"strings"

	"github.com/google/uuid"
)

type ConversationID string

// NewConversationID generates a new unique ConversationID
func NewConversationID() ConversationID {
	return ConversationID(uuid.New().String())
}

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// MessageKind distinguishes textual bot replies from chart replies.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindGraph MessageKind = "graph"
)

// Message is a single conversation turn. JSON tags match the on-disk
// history format: one file per user holding an array of conversations.
type Message struct {
	Role    Role        `json:"role"`
	Content string      `json:"content"`
	Kind    MessageKind `json:"type,omitempty"`

	// Graph turns carry the rendered figure and the question that
	// produced it.
	ImageBase64   string `json:"image_base64,omitempty"`
	OriginalQuery string `json:"original_query,omitempty"`
}

// Conversation is an append-only message log owned by a single user session.
type Conversation struct {
	ID       ConversationID `json:"id"`
	Title    string         `json:"title"`
	Messages []*Message     `json:"messages"`
}

func NewConversation() *Conversation {
	return &Conversation{
		ID:    NewConversationID(),
		Title: "Nouvelle conversation",
	}
}

// AppendUser appends a user turn. The first user message sets the
// conversation title.
func (c *Conversation) AppendUser(content string) *Message {
	msg := &Message{Role: RoleUser, Content: content}
	c.Messages = append(c.Messages, msg)
	if len(c.Messages) == 1 {
		c.Title = SmartTitle(content)
	}
	return msg
}

// AppendBot appends a bot turn of the given kind.
func (c *Conversation) AppendBot(content string, kind MessageKind) *Message {
	msg := &Message{Role: RoleBot, Content: content, Kind: kind}
	c.Messages = append(c.Messages, msg)
	return msg
}

// UserQuestions returns the content of all user turns in order.
func (c *Conversation) UserQuestions() []string {
	var questions []string
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			questions = append(questions, m.Content)
		}
	}
	return questions
}

// PromptWindow formats the last n textual messages for inclusion in an LLM
// prompt. Bot graph turns are skipped so image payloads never leak into
// prompts.
func (c *Conversation) PromptWindow(n int) []string {
	var lines []string
	for _, m := range c.Messages {
		switch {
		case m.Role == RoleUser:
			lines = append(lines, "Utilisateur : "+m.Content)
		case m.Role == RoleBot && m.Kind != KindGraph:
			lines = append(lines, "Assistant : "+m.Content)
		}
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// SmartTitle derives a conversation title from the first question: the
// question itself when short, otherwise its first three words.
func SmartTitle(question string) string {
	words := strings.Fields(question)
	if len(words) <= 3 {
		return question
	}
	return strings.Join(words[:3], " ") + "..."
}
