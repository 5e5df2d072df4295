// Command livechat is a terminal client for a live multimodal session:
// streamed text and synthesized audio from the remote model, microphone
// capture with transcription, and a sample tool capability.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	session "github.com/halcyonlabs/live-core/core"
	"github.com/halcyonlabs/live-core/core/audio/miniaudio"
	"github.com/halcyonlabs/live-core/core/speechtotext/deepgram"
	"github.com/halcyonlabs/live-core/core/tools"
	"github.com/halcyonlabs/live-core/core/transport"
)

const defaultModel = "models/gemini-2.0-flash-live-001"

func main() {
	modelName := defaultModel
	if fromEnv := os.Getenv("LIVECHAT_MODEL"); fromEnv != "" {
		modelName = fromEnv
	}

	events := make(chan sessionEvent, 64)
	emit := func(kind, text string) {
		select {
		case events <- sessionEvent{kind: kind, text: text}:
		default:
			// UI is behind; dropping display events beats blocking the
			// session pipeline.
		}
	}

	config := transport.NewSessionConfig(modelName,
		transport.WithResponseModalities(transport.ModalityAudio, transport.ModalityText),
		transport.WithSystemInstruction("You are a concise voice assistant."),
	)

	orchestratorOptions := []session.OrchestratorOption{
		session.WithCaptureClient(miniaudio.NewCaptureClient()),
		session.WithPlaybackClient(miniaudio.NewPlaybackClient()),
		session.WithCapability("current_time", tools.NewCapability(
			"current_time",
			"Returns the current local time.",
			nil,
			func(ctx context.Context, args map[string]any) (any, error) {
				return time.Now().Format(time.RFC1123), nil
			},
		)),
	}
	if os.Getenv("DEEPGRAM_API_KEY") != "" {
		orchestratorOptions = append(orchestratorOptions,
			session.WithUserTranscriber(deepgram.NewTranscriptionClient()),
			session.WithAssistantTranscriber(deepgram.NewTranscriptionClient()),
		)
	}

	orchestrator, err := session.NewOrchestrator(config, orchestratorOptions...)
	if err != nil {
		log.Fatalf("Failed to build session: %v", err)
	}

	orchestrator.Orchestrate(context.Background(),
		session.WithResponseCallback(func(segment string) { emit("segment", segment) }),
		session.WithTurnCompleteCallback(func(text string) { emit("turn_complete", text) }),
		session.WithInterruptedCallback(func(text string) { emit("interrupted", text) }),
		session.WithUserTranscriptionCallback(func(transcript string) { emit("user_transcription", transcript) }),
		session.WithTranscriptionCallback(func(transcript string) { emit("transcription", transcript) }),
		session.WithRecordingStateChangedCallback(func(recording bool) { emit("recording", fmt.Sprintf("%t", recording)) }),
		session.WithMicSuspendedChangedCallback(func(suspended bool) { emit("mic_suspended", fmt.Sprintf("%t", suspended)) }),
		session.WithCameraStateChangedCallback(func(started bool) { emit("camera", fmt.Sprintf("%t", started)) }),
		session.WithScreenShareStateChangedCallback(func(started bool) { emit("screen", fmt.Sprintf("%t", started)) }),
		session.WithDisconnectedCallback(func(code int, reason string) {
			emit("disconnected", fmt.Sprintf("code=%d reason=%s", code, reason))
		}),
		session.WithErrorCallback(func(errorType, details string) {
			emit("error", fmt.Sprintf("%s: %s", errorType, details))
		}),
	)

	program := tea.NewProgram(newModel(orchestrator, events), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("Failed to run UI: %v", err)
	}
}
