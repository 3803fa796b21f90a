package services

import (
	"context"
)

// Chat roles for LLM requests
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is a single message in an LLM conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the text produced by an LLM call
type ChatResponse struct {
	Message string `json:"message"`
}

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// GetChatResponse generates a response from the conversation
	GetChatResponse(ctx context.Context, messages []ChatMessage) (*ChatResponse, error)

	// IsModelReady checks if the specified model is ready for use
	IsModelReady(ctx context.Context, modelName string) (bool, error)
}
