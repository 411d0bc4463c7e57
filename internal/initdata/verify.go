package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// HashField is the query field carrying the payload signature.
const HashField = "hash"

// webAppDataKey keys the first HMAC stage that turns a bot token into the
// signing key.
var webAppDataKey = []byte("WebAppData")

// Verifier checks init data against a single bot token. The derived signing
// key is computed once at construction; a Verifier is safe for concurrent use.
type Verifier struct {
	secretKey []byte
}

// NewVerifier returns a Verifier for the given bot token. An empty token
// yields a Verifier that rejects every payload with ErrMissingConfiguration.
func NewVerifier(secret []byte) *Verifier {
	if len(secret) == 0 {
		return &Verifier{}
	}
	return &Verifier{secretKey: deriveSecretKey(secret)}
}

// Verify checks raw init data and returns its hash field when the signature
// is valid. Errors wrap ErrRejected.
func (v *Verifier) Verify(raw string) (string, error) {
	if v == nil || len(v.secretKey) == 0 {
		return "", ErrMissingConfiguration
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	provided, ok := lastValue(values, HashField)
	if !ok {
		return "", ErrMissingSignature
	}
	values.Del(HashField)

	expected := signature(v.secretKey, DataCheckString(values))
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return "", ErrInvalidSignature
	}

	return provided, nil
}

// Verify is a convenience wrapper around NewVerifier(secret).Verify(raw).
func Verify(secret []byte, raw string) (string, error) {
	return NewVerifier(secret).Verify(raw)
}

// Sign returns the hash the platform would attach to values when signing with
// secret. A hash field already present in values is ignored.
func Sign(secret []byte, values url.Values) string {
	fields := make(url.Values, len(values))
	for key, vals := range values {
		if key == HashField {
			continue
		}
		fields[key] = vals
	}
	return signature(deriveSecretKey(secret), DataCheckString(fields))
}

// DataCheckString serializes values as key=value lines sorted by key. When a
// key repeats the last value wins. Values are used exactly as decoded from the
// query string.
func DataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(values[key][len(values[key])-1])
	}
	return b.String()
}

func deriveSecretKey(secret []byte) []byte {
	mac := hmac.New(sha256.New, webAppDataKey)
	mac.Write(secret)
	return mac.Sum(nil)
}

func signature(secretKey []byte, dataCheckString string) string {
	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(dataCheckString))
	return hex.EncodeToString(mac.Sum(nil))
}

func lastValue(values url.Values, key string) (string, bool) {
	vals, ok := values[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}
