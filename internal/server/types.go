// Package server defines shared error values, wire literals and utility
// helpers that are reused across client and hub logic.
package server

import (
	"errors"
	"strings"
)

var (
	// ErrChannelClosed is returned when a message cannot be queued for a
	// client because it already left the hub or its send queue is full.
	ErrChannelClosed = errors.New("client channel closed")
	// ErrHandshakeRejected marks a WebSocket request refused before upgrade.
	ErrHandshakeRejected = errors.New("websocket handshake rejected")
	// ErrHubClosed is returned by Admit once the hub has been shut down.
	ErrHubClosed = errors.New("hub closed")
	// ErrMissingBotToken is returned by Config.Validate when BOT_TOKEN is unset.
	ErrMissingBotToken = errors.New("BOT_TOKEN is not set")
)

// Messages the server writes to clients.
const (
	echoPrefix       = "You wrote: "
	broadcastNotice  = "broadcast"
	disconnectNotice = "disconnect"
)

const sessionCookie = "session"

func echoMessage(text []byte) []byte {
	msg := make([]byte, 0, len(echoPrefix)+len(text))
	msg = append(msg, echoPrefix...)
	return append(msg, text...)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
