// Package middleware holds gin middleware shared by the HTTP and WebSocket routes.
//
// AuthMiddleware attaches a verified connection identity so the chat engine
// can decide who is speaking from the server side instead of trusting
// per-message fields.
package middleware
