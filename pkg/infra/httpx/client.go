package httpx

import "net/http"

//go:generate mockery --name=Client --filename=http_client_mock.go --output=./mocks

// Client issues HTTP requests. Implementations honor the request context
// for cancellation and deadlines.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}
