// Package server exposes HTTP handlers: the liveness probe, the init data
// check that issues the session cookie, and the WebSocket upgrade.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Tyrowin/miniapp-chat/internal/initdata"
)

const initDataParam = "init_data"

// HealthHandler answers liveness probes with {"its": "work"}.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"its": "work"})
}

// CheckHandler verifies the init_data query parameter and, when it is valid,
// sets the accepted hash as the session cookie.
func (s *Server) CheckHandler(w http.ResponseWriter, r *http.Request) {
	token, err := s.verifier.Verify(r.URL.Query().Get(initDataParam))
	if err != nil {
		s.forbid(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:  sessionCookie,
		Value: token,
		Path:  "/",
	})
	writeJSON(w, http.StatusOK, nil)
}

// WebSocketHandler verifies init data, upgrades the connection and admits the
// resulting client to the hub. Requests that fail verification get 403 and
// are never upgraded.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get(initDataParam)
	token, err := s.verifier.Verify(raw)
	if err != nil {
		s.forbid(w, r, fmt.Errorf("%w: %w", ErrHandshakeRejected, err))
		return
	}

	fields, err := initdata.Decode(raw)
	if err != nil {
		s.forbid(w, r, fmt.Errorf("%w: %w", ErrHandshakeRejected, err))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	client := NewClient(conn, s.hub, r.RemoteAddr, Session{Token: token, Fields: fields}, s.config)
	if userID, ok := fields.UserID(); ok {
		log.Debug().Str("conn_id", client.ID()).Int64("user_id", userID).Msg("Verified WebSocket client")
	}

	if err := s.hub.Admit(client); err != nil {
		log.Warn().Err(err).Str("addr", r.RemoteAddr).Msg("Refusing client")
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
		_ = conn.Close()
	}
}

// forbid answers 403 without saying which check failed.
func (s *Server) forbid(w http.ResponseWriter, r *http.Request, err error) {
	log.Info().
		Str("path", r.URL.Path).
		Str("addr", r.RemoteAddr).
		Str("reason", rejectionReason(err)).
		Msg("Init data rejected")
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

// rejectionReason maps a verifier error to a fixed label so logs never carry
// payload fragments.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, initdata.ErrMissingConfiguration):
		return "missing_configuration"
	case errors.Is(err, initdata.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, initdata.ErrMissingSignature):
		return "missing_signature"
	case errors.Is(err, initdata.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "rejected"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Error writing JSON response")
	}
}
