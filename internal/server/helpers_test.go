package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/miniapp-chat/internal/initdata"
)

const testBotToken = "s3cr3t"

// signedInitData returns a query-encoded init data payload signed with
// testBotToken, together with its hash.
func signedInitData(t *testing.T) (string, string) {
	t.Helper()

	values := url.Values{}
	values.Set("auth_date", "1700000000")
	values.Set("user", `{"id":1}`)
	hash := initdata.Sign([]byte(testBotToken), values)
	values.Set("hash", hash)
	return values.Encode(), hash
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	srv := New(&Config{BotToken: testBotToken})
	return srv, newHTTPTestServer(t, srv)
}

func newHTTPTestServer(t *testing.T, srv *Server) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		_ = srv.Hub().Shutdown(2 * time.Second)
		ts.Close()
	})
	return ts
}

func wsURL(ts *httptest.Server, initData string) string {
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/"
	if initData != "" {
		u += "?init_data=" + url.QueryEscape(initData)
	}
	return u
}

// dial opens a WebSocket connection and returns the handshake response.
func dial(t *testing.T, rawURL string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", "https://web.example.org")

	conn, resp, err := dialer.Dial(rawURL, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// connectClient dials a verified client and waits until the hub holds want
// clients.
func connectClient(t *testing.T, srv *Server, ts *httptest.Server, want int) *websocket.Conn {
	t.Helper()

	initData, _ := signedInitData(t)
	conn, _, err := dial(t, wsURL(ts, initData))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return srv.Hub().Count() == want },
		2*time.Second, 5*time.Millisecond)
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, messageType)
	return string(data)
}

func expectNoMessage(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected message %q", data)
}

// newDetachedClient builds a client without a network connection so hub
// behaviour can be observed through its send queue.
func newDetachedClient(hub *Hub, bufferSize int) *Client {
	return NewClient(nil, hub, "test", Session{}, Config{SendBufferSize: bufferSize})
}

func drain(c *Client) []string {
	var got []string
	for {
		select {
		case msg, ok := <-c.GetSendChan():
			if !ok {
				return got
			}
			got = append(got, string(msg))
		default:
			return got
		}
	}
}
