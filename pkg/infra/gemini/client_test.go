package gemini_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/gemini"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/httpx"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/httpx/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() gemini.Config {
	return gemini.Config{
		Endpoint:         "https://upstream.test/v1beta/models/gemini:generateContent",
		CredentialHeader: "x-goog-api-key",
		Credential:       "secret-key",
		Timeout:          5 * time.Second,
		Generation: gemini.GenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 256,
			TopP:            0.95,
			TopK:            40,
		},
	}
}

func httpResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestClient_GenerateContent_SendsProxyOwnedPayload(t *testing.T) {
	httpClient := new(mocks.MockHTTPClient)
	var sent *http.Request
	httpClient.On("Do", mock.Anything).
		Run(func(args mock.Arguments) {
			sent, _ = args.Get(0).(*http.Request)
		}).
		Return(httpResponse(http.StatusOK, `{"candidates":[]}`), nil)

	client := gemini.NewClient(testConfig(), httpClient, nil, logrus.New())

	result, err := client.GenerateContent(context.Background(), gemini.SingleTurn("Olá"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.JSONEq(t, `{"candidates":[]}`, string(result.Body))

	require.NotNil(t, sent)
	assert.Equal(t, http.MethodPost, sent.Method)
	assert.Equal(t, "https://upstream.test/v1beta/models/gemini:generateContent", sent.URL.String())
	assert.Equal(t, "secret-key", sent.Header.Get("x-goog-api-key"))
	assert.Equal(t, "application/json", sent.Header.Get("Content-Type"))

	_, hasDeadline := sent.Context().Deadline()
	assert.True(t, hasDeadline, "upstream calls must carry a deadline")

	payload, err := io.ReadAll(sent.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"contents": [{"parts":[{"text":"Olá"}]}],
		"generationConfig": {"temperature":0.7,"maxOutputTokens":256,"topP":0.95,"topK":40}
	}`, string(payload))

	httpClient.AssertExpectations(t)
}

func TestClient_GenerateContent_ForwardsCallerContents(t *testing.T) {
	httpClient := new(mocks.MockHTTPClient)
	var sent *http.Request
	httpClient.On("Do", mock.Anything).
		Run(func(args mock.Arguments) {
			sent, _ = args.Get(0).(*http.Request)
		}).
		Return(httpResponse(http.StatusOK, `{}`), nil)

	client := gemini.NewClient(testConfig(), httpClient, nil, logrus.New())

	contents := []byte(`[{"parts":[{"text":"primeira"}]},{"parts":[{"text":"segunda"}]}]`)
	_, err := client.GenerateContent(context.Background(), contents)
	require.NoError(t, err)

	payload, err := io.ReadAll(sent.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"contents": [{"parts":[{"text":"primeira"}]},{"parts":[{"text":"segunda"}]}],
		"generationConfig": {"temperature":0.7,"maxOutputTokens":256,"topP":0.95,"topK":40}
	}`, string(payload))
}

func TestClient_GenerateContent_UpstreamErrorStatusIsNotAnError(t *testing.T) {
	httpClient := new(mocks.MockHTTPClient)
	httpClient.On("Do", mock.Anything).
		Return(httpResponse(http.StatusTooManyRequests, `{"error":{"message":"quota exceeded"}}`), nil)

	client := gemini.NewClient(testConfig(), httpClient, nil, logrus.New())

	result, err := client.GenerateContent(context.Background(), gemini.SingleTurn("oi"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, result.StatusCode)
	assert.JSONEq(t, `{"error":{"message":"quota exceeded"}}`, string(result.Body))
}

func TestClient_GenerateContent_TransportError(t *testing.T) {
	httpClient := new(mocks.MockHTTPClient)
	httpClient.On("Do", mock.Anything).Return(nil, errors.New("connection reset"))

	client := gemini.NewClient(testConfig(), httpClient, nil, logrus.New())

	_, err := client.GenerateContent(context.Background(), gemini.SingleTurn("oi"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "calling generative api")
	assert.ErrorContains(t, err, "connection reset")
}

func TestClient_GenerateContent_BreakerStopsRepeatedFailures(t *testing.T) {
	httpClient := new(mocks.MockHTTPClient)
	httpClient.On("Do", mock.Anything).Return(nil, errors.New("connection refused")).Times(1)

	breaker := httpx.NewCircuitBreaker("gemini-test", time.Minute, 1)
	client := gemini.NewClient(testConfig(), httpClient, breaker, logrus.New())

	_, err := client.GenerateContent(context.Background(), gemini.SingleTurn("oi"))
	require.Error(t, err)

	_, err = client.GenerateContent(context.Background(), gemini.SingleTurn("oi"))
	require.Error(t, err)

	httpClient.AssertNumberOfCalls(t, "Do", 1)
}

func TestSingleTurn(t *testing.T) {
	assert.JSONEq(t, `[{"parts":[{"text":"bom dia"}]}]`, string(gemini.SingleTurn("bom dia")))
}
