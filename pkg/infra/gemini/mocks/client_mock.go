package mocks

import (
	"context"
	"encoding/json"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/gemini"
	"github.com/stretchr/testify/mock"
)

type Client struct {
	mock.Mock
}

func (m *Client) GenerateContent(ctx context.Context, contents json.RawMessage) (*gemini.Result, error) {
	args := m.Called(ctx, contents)
	result, _ := args.Get(0).(*gemini.Result)
	return result, args.Error(1)
}
