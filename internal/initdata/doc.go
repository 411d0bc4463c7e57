// Package initdata validates the signed init data that a mini-app platform
// hands to web apps it embeds.
//
// The payload is a URL-encoded query string. One of its fields, hash, is a
// hex-encoded HMAC-SHA256 over the remaining fields; the HMAC key is itself
// derived from the bot token with the constant key "WebAppData". A payload is
// accepted only when the recomputed signature matches, and the accepted hash
// is returned so callers can use it as an opaque session token.
//
// Decoding field values (most are JSON documents) is a separate step handled
// by Decode and never influences signature checks.
package initdata
