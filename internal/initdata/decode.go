package initdata

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Fields holds init data values after opportunistic JSON decoding. Values
// that are valid JSON hold the decoded document (map, slice, float64, bool or
// nil); anything else is kept as the raw string.
type Fields map[string]any

// Decode parses raw init data into Fields. It performs no signature check and
// must only be called on payloads that already passed Verify.
func Decode(raw string) (Fields, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	fields := make(Fields, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		fields[key] = decodeValue(vals[len(vals)-1])
	}
	return fields, nil
}

func decodeValue(raw string) any {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}
	return decoded
}

// String returns the field as a string when it was not decoded as JSON.
func (f Fields) String(key string) (string, bool) {
	s, ok := f[key].(string)
	return s, ok
}

// UserID returns the numeric id of the user object, if present.
func (f Fields) UserID() (int64, bool) {
	user, ok := f["user"].(map[string]any)
	if !ok {
		return 0, false
	}
	id, ok := user["id"].(float64)
	if !ok {
		return 0, false
	}
	return int64(id), true
}
