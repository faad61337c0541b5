package mailbox

import (
	"context"

	"mailgate/internal/model"
)

// MockClient is a mock implementation of Client for testing
type MockClient struct {
	ListMessagesFunc func(ctx context.Context, user *model.User, filter *Filter) ([]*model.Message, error)
	GetMessageFunc   func(ctx context.Context, user *model.User, id string) (*model.Message, error)
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) ListMessages(ctx context.Context, user *model.User, filter *Filter) ([]*model.Message, error) {
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, user, filter)
	}
	return []*model.Message{}, nil
}

func (m *MockClient) GetMessage(ctx context.Context, user *model.User, id string) (*model.Message, error) {
	if m.GetMessageFunc != nil {
		return m.GetMessageFunc(ctx, user, id)
	}
	return &model.Message{ID: id}, nil
}
