// Package server implements the HTTP and WebSocket side of the chat gateway.
//
// Requests to /check/ and /ws/ carry signed init data that is checked with
// package initdata before anything else happens. Verified WebSocket clients
// join a Hub; every text message gets an echo back to its sender and a
// "broadcast" notice to all clients, and a leaving client triggers a
// "disconnect" notice to the rest.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, and HTTP handlers.
package server
