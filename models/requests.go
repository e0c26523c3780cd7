package models

// API Request structures

// Chat roles accepted in conversation history
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one prior conversation turn, ordered oldest to newest
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/v1/chat
type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history,omitempty"`
}

// ValidRole reports whether role is one of the accepted chat roles
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
