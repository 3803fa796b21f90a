package services

import (
	"context"
	"sync"
)

// MockLLM is a mock implementation of LLMService for testing
type MockLLM struct {
	InitModelFunc       func(ctx context.Context, modelName string) error
	GetChatResponseFunc func(ctx context.Context, messages []ChatMessage) (*ChatResponse, error)
	IsModelReadyFunc    func(ctx context.Context, modelName string) (bool, error)

	// Track calls for testing
	InitModelCalls       []string
	GetChatResponseCalls [][]ChatMessage
	IsModelReadyCalls    []string

	mu sync.Mutex // protects all fields above
}

var _ LLMService = (*MockLLM)(nil)

// NewMockLLM creates a new mock LLM service
func NewMockLLM() *MockLLM {
	return &MockLLM{
		InitModelCalls:       make([]string, 0),
		GetChatResponseCalls: make([][]ChatMessage, 0),
		IsModelReadyCalls:    make([]string, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLM) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)
	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// GetChatResponse mocks response generation
func (m *MockLLM) GetChatResponse(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetChatResponseCalls = append(m.GetChatResponseCalls, messages)
	if m.GetChatResponseFunc != nil {
		return m.GetChatResponseFunc(ctx, messages)
	}
	return &ChatResponse{Message: "The air grows heavy as unseen forces stir."}, nil
}

// IsModelReady mocks readiness checks
func (m *MockLLM) IsModelReady(ctx context.Context, modelName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.IsModelReadyCalls = append(m.IsModelReadyCalls, modelName)
	if m.IsModelReadyFunc != nil {
		return m.IsModelReadyFunc(ctx, modelName)
	}
	return true, nil
}
