// Package deepgram implements the secondary duplex client used for
// speech-to-text of either synthesized remote audio or local microphone
// audio.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"

	"github.com/halcyonlabs/live-core/core/audio"
	"github.com/halcyonlabs/live-core/core/speechtotext"
)

const (
	defaultModel         = "nova-3"
	defaultLanguage      = "en-US"
	defaultEndpointingMs = 300

	// keepAliveInterval is how often a no-op control frame is written while
	// connected; the remote closes idle sockets otherwise.
	keepAliveInterval = 10 * time.Second
)

// TranscriptionClient streams audio to the transcription service over one
// duplex socket and dispatches results to the configured callbacks. Only
// final results should drive downstream behavior.
type TranscriptionClient struct {
	listenURL         string
	keepAliveInterval time.Duration

	mu              sync.Mutex
	conn            *websocket.Conn
	cancelKeepAlive context.CancelFunc

	connMu sync.Mutex
}

// NewTranscriptionClient creates a client against the public listen
// endpoint.
func NewTranscriptionClient() *TranscriptionClient {
	return &TranscriptionClient{
		listenURL:         "wss://api.deepgram.com/v1/listen",
		keepAliveInterval: keepAliveInterval,
	}
}

// Transcribe opens the stream and starts dispatching results. It returns as
// soon as the socket is open; results arrive on the callbacks.
func (s *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := &speechtotext.TranscriptionOptions{
		EncodingInfo:  audio.DefaultCaptureEncoding(),
		Model:         defaultModel,
		Language:      defaultLanguage,
		EndpointingMs: defaultEndpointingMs,
	}
	for _, opt := range opts {
		opt(options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := s.connectWebsocket(ctx, encoding, options)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	// The caller's ctx scopes the dial only. Keep-alives run for the life of
	// the connection and stop on Close or observed disconnection.
	keepAliveCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.conn = conn
	s.cancelKeepAlive = cancel
	s.mu.Unlock()

	go s.readAndProcessMessages(conn, cancel, *options)
	go s.sendKeepAlives(keepAliveCtx)

	return nil
}

func (s *TranscriptionClient) connectWebsocket(ctx context.Context, encoding *encodingInfo, options *speechtotext.TranscriptionOptions) (*websocket.Conn, error) {
	apiKey := os.Getenv("DEEPGRAM_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenURL, err := url.Parse(s.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}

	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", options.Model)
	queryParams.Set("language", options.Language)
	if options.Punctuate {
		queryParams.Set("punctuate", "true")
	}
	if options.InterimTranscriptionCallback != nil || options.UtteranceEndCallback != nil {
		queryParams.Set("interim_results", "true")
	}
	if options.UtteranceEndCallback != nil {
		queryParams.Set("utterance_end_ms", "1000")
	}
	if options.EndpointingMs > 0 {
		queryParams.Set("endpointing", strconv.Itoa(options.EndpointingMs))
	}
	if options.SpeechStartedCallback != nil || options.UtteranceEndCallback != nil {
		queryParams.Set("vad_events", "true")
	}
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

// SendAudio writes one raw binary PCM frame to the stream.
func (s *TranscriptionClient) SendAudio(audioChunk []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("transcription stream not open")
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, audioChunk); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

// Close signals end of stream and tears the socket down. Idempotent.
func (s *TranscriptionClient) Close(context.Context) error {
	s.mu.Lock()
	conn := s.conn
	cancel := s.cancelKeepAlive
	s.conn = nil
	s.cancelKeepAlive = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn == nil {
		return nil
	}

	s.connMu.Lock()
	err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)})
	s.connMu.Unlock()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}

	return conn.Close()
}

func (s *TranscriptionClient) sendKeepAlives(ctx context.Context) {
	ticker := time.NewTicker(s.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sendKeepAlive()
		}
	}
}

func (s *TranscriptionClient) sendKeepAlive() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: "KeepAlive"}); err != nil {
		log.Println("Failed to write keep-alive to deepgram client", "error", err)
	}
}

func (s *TranscriptionClient) readAndProcessMessages(conn *websocket.Conn, cancelKeepAlive context.CancelFunc, options speechtotext.TranscriptionOptions) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			// The keep-alive timer stops the instant disconnection is
			// observed.
			cancelKeepAlive()

			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.cancelKeepAlive = nil
			}
			s.mu.Unlock()
			conn.Close()

			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && options.ErrorCallback != nil {
				options.ErrorCallback(fmt.Errorf("transcription stream failed: %w", err))
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			s.processMessage(msg, options)
		}
	}
}

func (s *TranscriptionClient) processMessage(msg []byte, options speechtotext.TranscriptionOptions) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Println("Failed to unmarshal deepgram message", "error", err)
		return
	}

	switch parsedMsg.Type {
	case string(api.TypeMessageResponse):
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram results message", err)
			return
		}
		if len(msgResp.Channel.Alternatives) == 0 {
			return
		}

		transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		if len(transcript) == 0 {
			return
		}

		if msgResp.IsFinal {
			if options.FinalTranscriptionCallback != nil {
				options.FinalTranscriptionCallback(transcript)
			}
			return
		}
		// Interim results are display-only; they never reach the final
		// callback.
		if options.InterimTranscriptionCallback != nil {
			options.InterimTranscriptionCallback(transcript)
		}

	case string(api.TypeUtteranceEndResponse):
		if options.UtteranceEndCallback != nil {
			options.UtteranceEndCallback()
		}

	case string(api.TypeSpeechStartedResponse):
		if options.SpeechStartedCallback != nil {
			options.SpeechStartedCallback()
		}

	case "Metadata":
		// Stream metadata carries nothing the session core acts on.

	case "Error":
		var msgResp struct {
			Description string `json:"description"`
			Message     string `json:"message"`
		}
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram error message", err)
			return
		}
		if options.ErrorCallback != nil {
			options.ErrorCallback(fmt.Errorf("transcription error: %s (%s)", msgResp.Message, msgResp.Description))
		}

	default:
		log.Printf("Ignoring unrecognized deepgram message type %q", parsedMsg.Type)
	}
}
