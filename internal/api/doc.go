// Package api wires HTTP routes to the chat engine.
//
// The WebSocket endpoint carries every chat event; the plain HTTP routes are
// a health check and the staff directory.
package api
