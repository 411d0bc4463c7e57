package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginPolicy(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "wildcard allows anything", allowed: []string{"*"}, origin: "https://x.example", want: true},
		{name: "wildcard allows missing origin", allowed: []string{"*"}, origin: "", want: true},
		{name: "listed origin", allowed: []string{"https://A.example"}, origin: "https://a.example", want: true},
		{name: "unlisted origin", allowed: []string{"https://a.example"}, origin: "https://b.example", want: false},
		{name: "missing origin with list", allowed: []string{"https://a.example"}, origin: "", want: false},
		{name: "invalid origin header", allowed: []string{"https://a.example"}, origin: "not a url", want: false},
		{name: "invalid configured origin ignored", allowed: []string{"a.example"}, origin: "https://a.example", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newOriginPolicy(tt.allowed)
			req := httptest.NewRequest(http.MethodGet, "/ws/", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, p.checkOrigin(req))
		})
	}
}

func TestOriginPolicyCORSOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, newOriginPolicy([]string{"https://a.example", "*"}).corsOrigins())
	assert.Equal(t, []string{"https://a.example"}, newOriginPolicy([]string{" https://a.example "}).corsOrigins())
}
