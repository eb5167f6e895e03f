package common

type contextKey string

const (
	RequestIDContextKey contextKey = "request_id"
	OriginContextKey    contextKey = "origin"
	ClientKeyContextKey contextKey = "client_key"
)
