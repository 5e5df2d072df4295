// Package events defines the typed event contract emitted by the session
// core to its collaborators.
//
// Event kinds are grouped by namespace:
//
//   - session.* — connection lifecycle and surfaced errors
//   - assistant.* — streamed model output for the active turn
//   - transcription.* — speech-to-text results for either audio direction
//   - media.* — local capture and playback state changes
//
// Semantics used across the package:
//
//   - Segment: append-only text piece emitted in stream order.
//   - Final: terminal immutable text for the current stream phase.
//   - Interim: mutable, display-only snapshot that must not trigger
//     downstream side effects.
package events
