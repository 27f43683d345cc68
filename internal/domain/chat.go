package domain

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents one logged chat message
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the request to send a chat message
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// HistoryResponse is the response for the conversation log
type HistoryResponse struct {
	SessionID string     `json:"session_id"`
	Messages  []*Message `json:"messages"`
}

// Stats represents system statistics
type Stats struct {
	IndexedDocuments int `json:"indexed_documents"`
	Products         int `json:"products"`
	TotalChats       int `json:"total_chats"`
}
