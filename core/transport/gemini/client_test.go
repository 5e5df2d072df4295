package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/halcyonlabs/live-core/core/tools"
	"github.com/halcyonlabs/live-core/core/transport"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// newTestEndpoint runs an in-process websocket server and hands every
// accepted connection to handler.
func newTestEndpoint(t *testing.T, handler func(conn *websocket.Conn)) (string, *atomic.Int32) {
	t.Helper()

	var upgrades atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade test connection: %v", err)
			return
		}
		upgrades.Add(1)
		handler(conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http"), &upgrades
}

// ackSetup reads the opening frame, verifies it is a setup envelope, and
// acknowledges it.
func ackSetup(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	var opening map[string]json.RawMessage
	if err := conn.ReadJSON(&opening); err != nil {
		t.Errorf("failed to read opening frame: %v", err)
		return
	}
	if _, ok := opening["setup"]; !ok {
		t.Errorf("expected the opening frame to be a setup envelope, got %v", opening)
		return
	}
	if err := conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}}); err != nil {
		t.Errorf("failed to ack setup: %v", err)
	}
}

func newTestClient(t *testing.T, endpoint string, opts ...Option) *Client {
	t.Helper()

	options := append([]Option{
		WithEndpoint(endpoint),
		WithAPIKey("test-key"),
		WithHandshakeTimeout(2 * time.Second),
	}, opts...)

	client, err := NewClient(transport.NewSessionConfig("models/test-live"), options...)
	if err != nil {
		t.Fatalf("expected client construction to succeed, got %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestConnectResolvesAfterSetupAck(t *testing.T) {
	endpoint, _ := newTestEndpoint(t, func(conn *websocket.Conn) {
		ackSetup(t, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	client := newTestClient(t, endpoint)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to resolve after setup ack, got %v", err)
	}
	if !client.IsConnected() {
		t.Fatalf("expected client to report connected after handshake")
	}
}

func TestOverlappingConnectsOpenExactlyOneSocket(t *testing.T) {
	endpoint, upgrades := newTestEndpoint(t, func(conn *websocket.Conn) {
		ackSetup(t, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	client := newTestClient(t, endpoint)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Connect(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("expected overlapping connect %d to succeed, got %v", i, err)
		}
	}
	if got := upgrades.Load(); got != 1 {
		t.Fatalf("expected exactly one socket to be opened, got %d", got)
	}
}

func TestConnectTimesOutWithoutSetupAck(t *testing.T) {
	accepted := make(chan struct{})
	endpoint, _ := newTestEndpoint(t, func(conn *websocket.Conn) {
		close(accepted)
		// Never acknowledge the setup frame.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	client := newTestClient(t, endpoint, WithHandshakeTimeout(100*time.Millisecond))

	err := client.Connect(context.Background())
	if !errors.Is(err, ErrHandshakeTimeout) {
		t.Fatalf("expected handshake timeout, got %v", err)
	}

	select {
	case <-accepted:
	case <-time.After(time.Second):
		t.Fatalf("expected the server to have accepted the connection")
	}
	if client.IsConnected() {
		t.Fatalf("expected client to report disconnected after a timed out handshake")
	}
}

func TestLateTimeoutDoesNotOverrideASettledHandshake(t *testing.T) {
	client, err := NewClient(transport.NewSessionConfig("models/test-live"), WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("expected client construction to succeed, got %v", err)
	}

	attempt := &connectAttempt{done: make(chan struct{})}
	client.mu.Lock()
	client.attempt = attempt
	client.state = stateAwaitingSetupAck
	client.mu.Unlock()

	// The ack settles the attempt first; a timer firing in the same instant
	// must not demote the connection or rewrite the outcome.
	client.settleAttempt(attempt, nil, nil)
	client.settleAttempt(attempt, nil, ErrHandshakeTimeout)

	if attempt.err != nil {
		t.Fatalf("expected the first settle to win, got %v", attempt.err)
	}
	if !client.IsConnected() {
		t.Fatalf("expected the client to stay ready after a late timeout")
	}
}

func TestSendOperationsFailWhileDisconnected(t *testing.T) {
	endpoint, _ := newTestEndpoint(t, func(conn *websocket.Conn) { conn.Close() })
	client := newTestClient(t, endpoint)

	if err := client.SendText("hello", true); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected SendText to fail with not connected, got %v", err)
	}
	if err := client.SendRealtimeAudio([]byte{0, 0}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected SendRealtimeAudio to fail with not connected, got %v", err)
	}
	if err := client.SendImage([]byte{0xFF}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected SendImage to fail with not connected, got %v", err)
	}
	if err := client.SendToolResponse(tools.Result{ID: "x"}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected SendToolResponse to fail with not connected, got %v", err)
	}
}

func TestSendTextSerializesClientContentEnvelope(t *testing.T) {
	frames := make(chan map[string]json.RawMessage, 1)
	endpoint, _ := newTestEndpoint(t, func(conn *websocket.Conn) {
		ackSetup(t, conn)
		var frame map[string]json.RawMessage
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		frames <- frame
	})
	client := newTestClient(t, endpoint)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	if err := client.SendText("hello", true); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}

	select {
	case frame := <-frames:
		raw, ok := frame["clientContent"]
		if !ok {
			t.Fatalf("expected a clientContent envelope, got %v", frame)
		}
		var content struct {
			Turns []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"turns"`
			TurnComplete bool `json:"turnComplete"`
		}
		if err := json.Unmarshal(raw, &content); err != nil {
			t.Fatalf("failed to decode clientContent: %v", err)
		}
		if len(content.Turns) != 1 || len(content.Turns[0].Parts) != 1 {
			t.Fatalf("expected one turn with one part, got %+v", content)
		}
		if content.Turns[0].Role != "user" || content.Turns[0].Parts[0].Text != "hello" {
			t.Fatalf("unexpected turn payload: %+v", content)
		}
		if !content.TurnComplete {
			t.Fatalf("expected turnComplete to be set")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the client content frame")
	}
}

func TestToolResponseCarriesErrorForFailedInvocations(t *testing.T) {
	frames := make(chan map[string]json.RawMessage, 1)
	endpoint, _ := newTestEndpoint(t, func(conn *websocket.Conn) {
		ackSetup(t, conn)
		var frame map[string]json.RawMessage
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		frames <- frame
	})
	client := newTestClient(t, endpoint)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	if err := client.SendToolResponse(tools.Result{ID: "call-9", Error: "no such tool"}); err != nil {
		t.Fatalf("expected tool response send to succeed, got %v", err)
	}

	select {
	case frame := <-frames:
		var payload struct {
			FunctionResponses []struct {
				ID       string         `json:"id"`
				Response map[string]any `json:"response"`
			} `json:"functionResponses"`
		}
		if err := json.Unmarshal(frame["toolResponse"], &payload); err != nil {
			t.Fatalf("failed to decode toolResponse: %v", err)
		}
		if len(payload.FunctionResponses) != 1 {
			t.Fatalf("expected one function response, got %d", len(payload.FunctionResponses))
		}
		if payload.FunctionResponses[0].ID != "call-9" {
			t.Fatalf("expected correlated id call-9, got %q", payload.FunctionResponses[0].ID)
		}
		if payload.FunctionResponses[0].Response["error"] != "no such tool" {
			t.Fatalf("expected the error to ride in the response, got %v", payload.FunctionResponses[0].Response)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the tool response frame")
	}
}

func TestServerContentDemultiplexing(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	endpoint, _ := newTestEndpoint(t, func(conn *websocket.Conn) {
		ackSetup(t, conn)
		frames := []string{
			`{"serverContent":{"modelTurn":{"parts":[{"text":"Hel"},{"text":"lo"}]}}}`,
			`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` +
				base64.StdEncoding.EncodeToString(pcm) + `"}}]}}}`,
			`{"serverContent":{"modelTurn":{"parts":[{"executableCode":{"language":"PYTHON"}}]}}}`,
			`{"serverContent":{"turnComplete":true}}`,
		}
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	texts := make(chan string, 4)
	audioFrames := make(chan []byte, 1)
	unhandled := make(chan json.RawMessage, 1)
	turnComplete := make(chan struct{}, 1)
	client := newTestClient(t, endpoint, WithCallbacks(transport.Callbacks{
		OnText:          func(text string) { texts <- text },
		OnAudio:         func(pcm []byte) { audioFrames <- pcm },
		OnUnhandledPart: func(raw json.RawMessage) { unhandled <- raw },
		OnTurnComplete:  func() { turnComplete <- struct{}{} },
	}))

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	expectText := func(expected string) {
		select {
		case got := <-texts:
			if got != expected {
				t.Fatalf("expected text %q, got %q", expected, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for text %q", expected)
		}
	}
	expectText("Hel")
	expectText("lo")

	select {
	case got := <-audioFrames:
		if string(got) != string(pcm) {
			t.Fatalf("expected decoded pcm %v, got %v", pcm, got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the audio frame")
	}

	select {
	case raw := <-unhandled:
		if !strings.Contains(string(raw), "executableCode") {
			t.Fatalf("expected the unrecognized part to be forwarded, got %s", raw)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the unhandled part")
	}

	select {
	case <-turnComplete:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for turn completion")
	}
}

func TestToolCallDeliversAllInvocations(t *testing.T) {
	endpoint, _ := newTestEndpoint(t, func(conn *websocket.Conn) {
		ackSetup(t, conn)
		frame := `{"toolCall":{"functionCalls":[` +
			`{"id":"call-1","name":"weather","args":{"city":"Zagreb"}},` +
			`{"id":"call-2","name":"alarm","args":{}}]}}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	invocations := make(chan []tools.Invocation, 1)
	client := newTestClient(t, endpoint, WithCallbacks(transport.Callbacks{
		OnToolCall: func(delivered []tools.Invocation) { invocations <- delivered },
	}))

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	select {
	case delivered := <-invocations:
		if len(delivered) != 2 {
			t.Fatalf("expected both invocations delivered, got %d", len(delivered))
		}
		if delivered[0].ID != "call-1" || delivered[0].Name != "weather" {
			t.Fatalf("unexpected first invocation: %+v", delivered[0])
		}
		if delivered[0].Args["city"] != "Zagreb" {
			t.Fatalf("expected invocation args to be carried, got %v", delivered[0].Args)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for tool invocations")
	}
}

func TestUnexpectedCloseEmitsDisconnected(t *testing.T) {
	endpoint, _ := newTestEndpoint(t, func(conn *websocket.Conn) {
		ackSetup(t, conn)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "backend failure"),
			time.Now().Add(time.Second))
		conn.Close()
	})

	type closure struct {
		code   int
		reason string
	}
	closures := make(chan closure, 1)
	client := newTestClient(t, endpoint, WithCallbacks(transport.Callbacks{
		OnDisconnected: func(code int, reason string) { closures <- closure{code: code, reason: reason} },
	}))

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	select {
	case got := <-closures:
		if got.code != websocket.CloseInternalServerErr {
			t.Fatalf("expected close code %d, got %d", websocket.CloseInternalServerErr, got.code)
		}
		if got.reason != "backend failure" {
			t.Fatalf("expected close reason to be carried, got %q", got.reason)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the disconnected callback")
	}
	if client.IsConnected() {
		t.Fatalf("expected client to report disconnected")
	}
}

func TestRequestedCloseDoesNotEmitDisconnected(t *testing.T) {
	endpoint, _ := newTestEndpoint(t, func(conn *websocket.Conn) {
		ackSetup(t, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	closures := make(chan struct{}, 1)
	client := newTestClient(t, endpoint, WithCallbacks(transport.Callbacks{
		OnDisconnected: func(int, string) { closures <- struct{}{} },
	}))

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}

	select {
	case <-closures:
		t.Fatalf("expected no disconnected callback for a requested close")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNewClientRejectsMissingCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	config := transport.NewSessionConfig("models/test-live")
	if _, err := NewClient(config); err == nil {
		t.Fatalf("expected construction to fail without credentials")
	}
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	if _, err := NewClient(transport.SessionConfig{}, WithAPIKey("test-key")); err == nil {
		t.Fatalf("expected construction to fail with an empty model")
	}
}
