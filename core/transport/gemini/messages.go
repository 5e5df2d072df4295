package gemini

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/halcyonlabs/live-core/core/tools"
	"github.com/halcyonlabs/live-core/core/transport"
)

// Outbound envelopes. Every send operation serializes into exactly one of
// these fixed shapes.

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model             string             `json:"model"`
	GenerationConfig  *generationConfig  `json:"generationConfig,omitempty"`
	SystemInstruction *contentPayload    `json:"systemInstruction,omitempty"`
	Tools             []toolDeclarations `json:"tools,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type contentPayload struct {
	Role  string        `json:"role,omitempty"`
	Parts []partPayload `json:"parts"`
}

type partPayload struct {
	Text string `json:"text,omitempty"`
}

type toolDeclarations struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type functionDeclaration struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

type clientContentMessage struct {
	ClientContent clientContent `json:"clientContent"`
}

type clientContent struct {
	Turns        []contentPayload `json:"turns"`
	TurnComplete bool             `json:"turnComplete"`
}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type toolResponseMessage struct {
	ToolResponse toolResponse `json:"toolResponse"`
}

type toolResponse struct {
	FunctionResponses []functionResponse `json:"functionResponses"`
}

type functionResponse struct {
	ID       string         `json:"id"`
	Response map[string]any `json:"response"`
}

func newSetupMessage(config transport.SessionConfig) setupMessage {
	payload := setupPayload{Model: config.Model}

	if len(config.ResponseModalities) > 0 {
		modalities := make([]string, len(config.ResponseModalities))
		for i, modality := range config.ResponseModalities {
			modalities[i] = string(modality)
		}
		payload.GenerationConfig = &generationConfig{ResponseModalities: modalities}
	}

	if config.SystemInstruction != "" {
		payload.SystemInstruction = &contentPayload{
			Parts: []partPayload{{Text: config.SystemInstruction}},
		}
	}

	if len(config.Tools) > 0 {
		declarations := make([]functionDeclaration, len(config.Tools))
		for i, declaration := range config.Tools {
			declarations[i] = functionDeclaration{
				Name:        declaration.Name,
				Description: declaration.Description,
				Parameters:  declaration.Parameters,
			}
		}
		payload.Tools = []toolDeclarations{{FunctionDeclarations: declarations}}
	}

	return setupMessage{Setup: payload}
}

func newToolResponseMessage(results []tools.Result) toolResponseMessage {
	responses := make([]functionResponse, len(results))
	for i, result := range results {
		response := map[string]any{}
		if result.Error != "" {
			response["error"] = result.Error
		} else {
			response["output"] = result.Output
		}
		responses[i] = functionResponse{ID: result.ID, Response: response}
	}
	return toolResponseMessage{ToolResponse: toolResponse{FunctionResponses: responses}}
}

// Inbound envelope. Exactly one field is expected to be set per frame;
// anything else is a protocol error.

type serverMessage struct {
	SetupComplete        *struct{}             `json:"setupComplete,omitempty"`
	ServerContent        *serverContent        `json:"serverContent,omitempty"`
	ToolCall             *toolCallPayload      `json:"toolCall,omitempty"`
	ToolCallCancellation *toolCallCancellation `json:"toolCallCancellation,omitempty"`
}

type serverContent struct {
	Interrupted  bool       `json:"interrupted,omitempty"`
	TurnComplete bool       `json:"turnComplete,omitempty"`
	ModelTurn    *modelTurn `json:"modelTurn,omitempty"`
}

// modelTurn keeps parts raw so unrecognized shapes can be forwarded instead
// of silently dropped.
type modelTurn struct {
	Parts []json.RawMessage `json:"parts"`
}

type inboundPart struct {
	Text       *string     `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type toolCallPayload struct {
	FunctionCalls []functionCall `json:"functionCalls"`
}

type functionCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type toolCallCancellation struct {
	IDs []string `json:"ids"`
}
