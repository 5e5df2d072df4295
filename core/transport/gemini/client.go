// Package gemini implements the duplex transport client for the primary
// session protocol: one persistent websocket carrying streamed text, media
// chunks and the tool-call sub-protocol.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/codes"

	"github.com/halcyonlabs/live-core/core/audio"
	"github.com/halcyonlabs/live-core/core/tools"
	"github.com/halcyonlabs/live-core/core/transport"
)

const (
	defaultEndpoint = "wss://generativelanguage.googleapis.com/ws/" +
		"google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	defaultHandshakeTimeout = 15 * time.Second
)

var (
	// ErrNotConnected is returned by send operations while the handshake has
	// not completed. The transport performs no queueing or retry.
	ErrNotConnected = errors.New("transport not connected")
	// ErrHandshakeTimeout is returned when no open+ack happens in time.
	ErrHandshakeTimeout = errors.New("handshake timed out awaiting setup ack")
	// ErrMissingCredentials is returned before any socket opens when neither
	// an API key nor an access token is available.
	ErrMissingCredentials = errors.New("no api key or access token configured")
)

type handshakeState int

const (
	stateDisconnected handshakeState = iota
	stateOpening
	stateAwaitingSetupAck
	stateReady
)

// connectAttempt is the shared outcome of one in-flight handshake. Connect
// calls issued while an attempt is in flight attach to it instead of opening
// a second socket.
type connectAttempt struct {
	once sync.Once
	err  error
	done chan struct{}
}

func (a *connectAttempt) finish(err error) {
	a.once.Do(func() {
		a.err = err
		close(a.done)
	})
}

// Client owns one persistent duplex socket. It is the only component that
// touches the socket handle; owners interact purely through send operations
// and the callbacks registered at construction.
type Client struct {
	endpoint         string
	apiKey           string
	accessToken      string
	handshakeTimeout time.Duration
	dialer           *websocket.Dialer

	config        transport.SessionConfig
	callbacks     transport.Callbacks
	audioEncoding audio.EncodingInfo

	mu             sync.Mutex
	state          handshakeState
	conn           *websocket.Conn
	attempt        *connectAttempt
	closeRequested bool

	writeMu sync.Mutex
}

// Option configures a Client at construction.
type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

func WithAPIKey(apiKey string) Option {
	return func(c *Client) { c.apiKey = apiKey }
}

// WithAccessToken configures an ephemeral access token instead of a
// long-lived API key (see CreateEphemeralToken).
func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.handshakeTimeout = timeout }
}

func WithCallbacks(callbacks transport.Callbacks) Option {
	return func(c *Client) { c.callbacks = callbacks }
}

// WithRealtimeAudioEncoding sets the encoding stamped onto outbound realtime
// audio chunks. Defaults to the capture default (PCM16 mono at 16 kHz).
func WithRealtimeAudioEncoding(encoding audio.EncodingInfo) Option {
	return func(c *Client) { c.audioEncoding = encoding }
}

func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = dialer }
}

// NewClient validates the session config and credentials before any socket
// opens. The config is deep-copied so later mutation by the caller cannot
// change what the setup frame advertises.
func NewClient(config transport.SessionConfig, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:         defaultEndpoint,
		handshakeTimeout: defaultHandshakeTimeout,
		dialer:           websocket.DefaultDialer,
		audioEncoding:    audio.DefaultCaptureEncoding(),
	}
	if err := copier.CopyWithOption(&c.config, &config, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("failed to snapshot session config: %w", err)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" && c.accessToken == "" {
		c.apiKey = os.Getenv("GEMINI_API_KEY")
		if c.apiKey == "" {
			return nil, ErrMissingCredentials
		}
	}

	return c, nil
}

// IsConnected reports whether the handshake has completed and the socket is
// usable for send operations.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateReady
}

// Connect opens the socket, sends the setup frame, and resolves once the
// matching setup ack arrives. A Connect issued while one is already in
// flight attaches to the existing attempt; overlapping calls open exactly
// one socket. Absent an ack within the handshake timeout the attempt fails
// and the socket is force-closed.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "connect live session")
	defer span.End()

	c.mu.Lock()
	if c.state == stateReady {
		c.mu.Unlock()
		return nil
	}
	if c.attempt != nil {
		attempt := c.attempt
		c.mu.Unlock()
		select {
		case <-attempt.done:
			return attempt.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	attempt := &connectAttempt{done: make(chan struct{})}
	c.attempt = attempt
	c.state = stateOpening
	c.closeRequested = false
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.connectURL(), nil)
	if err != nil {
		err = fmt.Errorf("failed to open socket connection: %w", err)
		c.settleAttempt(attempt, nil, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.state = stateAwaitingSetupAck
	c.mu.Unlock()

	if err := c.write(conn, newSetupMessage(c.config)); err != nil {
		err = fmt.Errorf("failed to send setup frame: %w", err)
		conn.Close()
		c.settleAttempt(attempt, nil, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	go c.readLoop(conn)

	select {
	case <-attempt.done:
		if attempt.err != nil {
			span.RecordError(attempt.err)
			span.SetStatus(codes.Error, attempt.err.Error())
		}
		return attempt.err
	case <-time.After(c.handshakeTimeout):
		c.settleAttempt(attempt, conn, ErrHandshakeTimeout)
		if attempt.err == nil {
			// The ack landed in the same instant; the attempt already
			// settled Ready. The first settle wins and the conn stays up.
			return nil
		}
		conn.Close()
		span.RecordError(attempt.err)
		span.SetStatus(codes.Error, attempt.err.Error())
		return attempt.err
	case <-ctx.Done():
		c.settleAttempt(attempt, conn, ctx.Err())
		if attempt.err == nil {
			return nil
		}
		conn.Close()
		return attempt.err
	}
}

func (c *Client) connectURL() string {
	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return c.endpoint
	}
	queryParams := endpoint.Query()
	if c.accessToken != "" {
		queryParams.Set("access_token", c.accessToken)
	} else {
		queryParams.Set("key", c.apiKey)
	}
	endpoint.RawQuery = queryParams.Encode()
	return endpoint.String()
}

// settleAttempt resolves an attempt and rolls connection state back when the
// attempt failed. The conn argument guards against clobbering a newer
// connection that a later Connect may have installed.
func (c *Client) settleAttempt(attempt *connectAttempt, conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.attempt == attempt {
		c.attempt = nil
		if err != nil {
			if conn == nil || c.conn == conn {
				c.conn = nil
				c.state = stateDisconnected
			}
		} else {
			c.state = stateReady
		}
	}
	c.mu.Unlock()

	attempt.finish(err)
}

// Close severs the transport. Idempotent; a pending Connect is rejected. No
// disconnected callback fires for a requested close.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	attempt := c.attempt
	c.conn = nil
	c.attempt = nil
	c.state = stateDisconnected
	c.closeRequested = true
	c.mu.Unlock()

	if attempt != nil {
		attempt.finish(fmt.Errorf("connect aborted: transport closed"))
	}

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(2*time.Second))
	c.writeMu.Unlock()

	return conn.Close()
}

// SendText serializes one user text turn. endOfTurn marks the turn complete
// so the model starts responding.
func (c *Client) SendText(text string, endOfTurn bool) error {
	conn, err := c.readyConn()
	if err != nil {
		return err
	}

	return c.write(conn, clientContentMessage{
		ClientContent: clientContent{
			Turns: []contentPayload{{
				Role:  "user",
				Parts: []partPayload{{Text: text}},
			}},
			TurnComplete: endOfTurn,
		},
	})
}

// SendRealtimeAudio transmits one PCM16 capture chunk as a realtime media
// chunk.
func (c *Client) SendRealtimeAudio(pcm []byte) error {
	conn, err := c.readyConn()
	if err != nil {
		return err
	}

	return c.write(conn, realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{
				MimeType: c.audioEncoding.MimeType(),
				Data:     base64.StdEncoding.EncodeToString(pcm),
			}},
		},
	})
}

// SendImage transmits one JPEG-encoded frame as a realtime media chunk.
func (c *Client) SendImage(jpegData []byte) error {
	conn, err := c.readyConn()
	if err != nil {
		return err
	}

	return c.write(conn, realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{
				MimeType: "image/jpeg",
				Data:     base64.StdEncoding.EncodeToString(jpegData),
			}},
		},
	})
}

// SendToolResponse answers delivered tool invocations. Error-carrying
// results serialize as {error: ...} so the remote is never left blocked on
// an unanswered id.
func (c *Client) SendToolResponse(results ...tools.Result) error {
	conn, err := c.readyConn()
	if err != nil {
		return err
	}

	return c.write(conn, newToolResponseMessage(results))
}

func (c *Client) readyConn() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateReady || c.conn == nil {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

func (c *Client) write(conn *websocket.Conn, message any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write to live session socket: %w", err)
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadFailure(conn, err)
			return
		}
		// Binary and text frames carry the same JSON envelope.
		c.dispatch(conn, data)
	}
}

func (c *Client) handleReadFailure(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// A stale loop for a socket that was already replaced or closed.
		c.mu.Unlock()
		return
	}
	wasReady := c.state == stateReady
	requested := c.closeRequested
	attempt := c.attempt
	c.conn = nil
	c.attempt = nil
	c.state = stateDisconnected
	c.mu.Unlock()

	conn.Close()

	if attempt != nil {
		attempt.finish(fmt.Errorf("socket failed during handshake: %w", err))
		return
	}

	if wasReady && !requested {
		code, reason := closeDetails(err)
		log.Printf("Live session socket closed unexpectedly: code=%d reason=%q", code, reason)
		if c.callbacks.OnDisconnected != nil {
			c.callbacks.OnDisconnected(code, reason)
		}
	}
}

func closeDetails(err error) (int, string) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code, closeErr.Text
	}
	return websocket.CloseAbnormalClosure, err.Error()
}

func (c *Client) dispatch(conn *websocket.Conn, data []byte) {
	var message serverMessage
	if err := json.Unmarshal(data, &message); err != nil {
		c.protocolError(fmt.Errorf("failed to unmarshal inbound frame: %w", err))
		return
	}

	switch {
	case message.SetupComplete != nil:
		c.completeHandshake(conn)
	case message.ServerContent != nil:
		c.handleServerContent(*message.ServerContent)
	case message.ToolCall != nil:
		c.handleToolCall(*message.ToolCall)
	case message.ToolCallCancellation != nil:
		if c.callbacks.OnToolCallCancellation != nil {
			c.callbacks.OnToolCallCancellation(message.ToolCallCancellation.IDs)
		}
	default:
		c.protocolError(fmt.Errorf("inbound frame carries no recognized envelope field"))
	}
}

func (c *Client) completeHandshake(conn *websocket.Conn) {
	c.mu.Lock()
	attempt := c.attempt
	current := c.conn == conn
	c.mu.Unlock()

	if !current || attempt == nil {
		return
	}
	c.settleAttempt(attempt, conn, nil)
}

func (c *Client) handleServerContent(content serverContent) {
	if content.Interrupted && c.callbacks.OnInterrupted != nil {
		c.callbacks.OnInterrupted()
	}

	if content.ModelTurn != nil {
		for _, raw := range content.ModelTurn.Parts {
			c.dispatchPart(raw)
		}
	}

	if content.TurnComplete && c.callbacks.OnTurnComplete != nil {
		c.callbacks.OnTurnComplete()
	}
}

func (c *Client) dispatchPart(raw json.RawMessage) {
	var part inboundPart
	if err := json.Unmarshal(raw, &part); err != nil {
		c.protocolError(fmt.Errorf("failed to unmarshal model turn part: %w", err))
		return
	}

	switch {
	case part.Text != nil:
		if c.callbacks.OnText != nil {
			c.callbacks.OnText(*part.Text)
		}
	case part.InlineData != nil && strings.HasPrefix(part.InlineData.MimeType, "audio/pcm"):
		pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			c.protocolError(fmt.Errorf("failed to decode inline audio part: %w", err))
			return
		}
		if c.callbacks.OnAudio != nil {
			c.callbacks.OnAudio(pcm)
		}
	default:
		if c.callbacks.OnUnhandledPart != nil {
			c.callbacks.OnUnhandledPart(raw)
		}
	}
}

func (c *Client) handleToolCall(payload toolCallPayload) {
	if len(payload.FunctionCalls) == 0 || c.callbacks.OnToolCall == nil {
		return
	}

	invocations := make([]tools.Invocation, len(payload.FunctionCalls))
	for i, call := range payload.FunctionCalls {
		invocations[i] = tools.Invocation{ID: call.ID, Name: call.Name, Args: call.Args}
	}
	c.callbacks.OnToolCall(invocations)
}

func (c *Client) protocolError(err error) {
	log.Printf("Live session protocol error: %v", err)
	if c.callbacks.OnProtocolError != nil {
		c.callbacks.OnProtocolError(err)
	}
}
