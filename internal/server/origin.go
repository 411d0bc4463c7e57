// Package server normalizes and validates HTTP origins for WebSocket requests
// to enforce configured access control.
package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// originPolicy is the normalized form of Config.AllowedOrigins. It is built
// once per Server and read-only afterwards.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
	origins  []string
}

func newOriginPolicy(origins []string) *originPolicy {
	normalized, allowAll := normalizeOrigins(origins)
	p := &originPolicy{
		allowAll: allowAll,
		allowed:  make(map[string]struct{}, len(normalized)),
		origins:  normalized,
	}
	for _, origin := range normalized {
		p.allowed[origin] = struct{}{}
	}
	return p
}

// corsOrigins returns the origin list in the form rs/cors expects.
func (p *originPolicy) corsOrigins() []string {
	if p.allowAll {
		return []string{"*"}
	}
	return append([]string(nil), p.origins...)
}

func normalizeOrigins(origins []string) ([]string, bool) {
	if len(origins) == 0 {
		return nil, false
	}

	normalized := make([]string, 0, len(origins))
	allowAll := false

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}

		if trimmed == "*" {
			allowAll = true
			continue
		}

		normalizedOrigin, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn().Str("origin", origin).Msg("Ignoring invalid origin in configuration")
			continue
		}

		normalized = append(normalized, normalizedOrigin)
	}

	return normalized, allowAll
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	normalized := strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host)
	return normalized, true
}

func (p *originPolicy) isOriginAllowed(r *http.Request) bool {
	if p.allowAll {
		return true
	}

	originHeader := r.Header.Get("Origin")
	if originHeader == "" {
		return false
	}

	normalizedOrigin, ok := normalizeOrigin(originHeader)
	if !ok {
		return false
	}

	_, exists := p.allowed[normalizedOrigin]
	return exists
}

// checkOrigin is the websocket.Upgrader CheckOrigin hook.
func (p *originPolicy) checkOrigin(r *http.Request) bool {
	if p.isOriginAllowed(r) {
		return true
	}

	log.Warn().Str("origin", r.Header.Get("Origin")).Msg("Blocked WebSocket connection from disallowed origin")
	return false
}
