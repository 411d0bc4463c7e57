// Package server tracks live clients and fans messages out to them via the
// Hub type.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Hub is the registry of open WebSocket clients. Membership changes take the
// write lock; sends take the read lock and never block, so a slow client
// cannot stall delivery to the others.
type Hub struct {
	clients map[*Client]struct{}
	mutex   sync.RWMutex
	closing bool
	wg      sync.WaitGroup
}

// NewHub creates an empty Hub ready to admit clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

// Admit adds a client whose handshake already completed and starts its
// read/write pumps. Callers must verify the client's init data first.
func (h *Hub) Admit(client *Client) error {
	if client == nil {
		return fmt.Errorf("admit: nil client")
	}
	if client.State() != StateConnecting {
		return fmt.Errorf("admit %s: %w", client.id, ErrChannelClosed)
	}

	h.mutex.Lock()
	if h.closing {
		h.mutex.Unlock()
		return ErrHubClosed
	}
	client.setState(StateOpen)
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	startPumps := client.conn != nil
	if startPumps {
		h.wg.Add(2)
	}
	h.mutex.Unlock()

	log.Info().
		Str("conn_id", client.id).
		Str("addr", client.addr).
		Int("clients", clientCount).
		Msg("Client registered")

	if startPumps {
		go func() {
			defer h.wg.Done()
			client.writePump()
		}()
		go func() {
			defer h.wg.Done()
			client.readPump()
		}()
	}
	return nil
}

// Remove drops the client and closes its send queue. It reports whether
// this call performed the removal; removing a client twice is a no-op.
func (h *Hub) Remove(client *Client) bool {
	if !h.unlink(client) {
		return false
	}
	h.release(client)
	return true
}

// Disconnect removes the client and tells the remaining members with a
// disconnect notice. Concurrent calls for the same client (read and write
// pumps both noticing the close) perform the work once; the winner gets true.
func (h *Hub) Disconnect(client *Client) bool {
	if !h.unlink(client) {
		return false
	}

	pending := []*Client{client}
	for len(pending) > 0 {
		gone := pending[0]
		pending = pending[1:]

		if !h.isClosing() {
			_, failed := h.deliver([]byte(disconnectNotice))
			for _, c := range failed {
				if h.unlink(c) {
					pending = append(pending, c)
				}
			}
		}
		h.release(gone)
	}
	return true
}

// SendTo queues message for a single client. It fails with ErrChannelClosed
// when the client has left or its queue is full; callers treat that as a
// disconnect.
func (h *Hub) SendTo(client *Client, message []byte) error {
	return h.safeSend(client, message)
}

// Broadcast queues message for every client registered at the time of the
// call and returns how many accepted it. Clients that cannot take the message
// are disconnected afterwards without affecting delivery to the rest.
func (h *Hub) Broadcast(message []byte) int {
	delivered, failed := h.deliver(message)
	log.Debug().Int("delivered", delivered).Int("failed", len(failed)).Msg("Broadcast")

	for _, client := range failed {
		log.Warn().Str("conn_id", client.id).Str("addr", client.addr).Msg("Dropping client that could not receive broadcast")
		h.Disconnect(client)
	}
	return delivered
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) safeSend(client *Client, message []byte) error {
	// Hold the read lock for the send so release cannot close the channel
	// underneath us.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client]; !exists {
		return ErrChannelClosed
	}

	select {
	case client.send <- message:
		return nil
	default:
		return fmt.Errorf("%w: send queue full", ErrChannelClosed)
	}
}

// deliver sends message to a snapshot of the clients and returns the ones
// that failed.
func (h *Hub) deliver(message []byte) (int, []*Client) {
	delivered := 0
	var failed []*Client
	for _, client := range h.getClientSnapshot() {
		if err := h.safeSend(client, message); err != nil {
			failed = append(failed, client)
			continue
		}
		delivered++
	}
	return delivered, failed
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) unlink(client *Client) bool {
	if client == nil {
		return false
	}

	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return false
	}
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	log.Info().
		Str("conn_id", client.id).
		Str("addr", client.addr).
		Int("clients", clientCount).
		Msg("Client unregistered")
	return true
}

// release closes the send queue of a client that was unlinked by the caller.
// The write pump observes the closed channel and sends a close frame.
func (h *Hub) release(client *Client) {
	client.setState(StateClosed)
	close(client.send)
}

func (h *Hub) isClosing() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.closing
}

// shutdownClients closes every client connection; the pumps then unwind and
// remove their clients.
func (h *Hub) shutdownClients() {
	log.Info().Msg("Shutting down all client connections...")

	clients := h.getClientSnapshot()
	for _, client := range clients {
		if client.conn == nil {
			h.Remove(client)
			continue
		}
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Error().Err(err).Str("addr", client.addr).Msg("Error closing client connection")
		}
	}

	log.Info().Int("clients", len(clients)).Msg("Closed client connections")
}

// Shutdown stops admitting clients, closes all connections and waits for
// their goroutines to finish or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Info().Msg("Initiating hub shutdown...")

	h.mutex.Lock()
	h.closing = true
	h.mutex.Unlock()

	h.shutdownClients()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Warn().Msg("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
