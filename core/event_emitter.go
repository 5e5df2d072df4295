package session

import events "github.com/halcyonlabs/live-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.AssistantTextSegment:
			if opts.onResponse != nil {
				opts.onResponse(typedEvent.Segment)
			}
		case events.AssistantTurnCompleted:
			if opts.onTurnComplete != nil {
				opts.onTurnComplete(typedEvent.Text)
			}
		case events.AssistantInterrupted:
			if opts.onInterrupted != nil {
				opts.onInterrupted(typedEvent.Text)
			}
		case events.AssistantAudioFrame:
			if opts.onAudio != nil {
				opts.onAudio(typedEvent.Audio)
			}
		case events.AssistantUnhandledPart:
			if opts.onUnhandledPart != nil {
				opts.onUnhandledPart(typedEvent.Raw)
			}
		case events.AssistantTranscriptFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.UserTranscriptFinal:
			if opts.onUserTranscription != nil {
				opts.onUserTranscription(typedEvent.Transcript)
			}
		case events.UserTranscriptInterim:
			if opts.onInterimUserTranscription != nil {
				opts.onInterimUserTranscription(typedEvent.Transcript)
			}
		case events.UserSpeechStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.UserUtteranceEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		case events.SessionConnected:
			if opts.onConnected != nil {
				opts.onConnected()
			}
		case events.SessionReady:
			if opts.onReady != nil {
				opts.onReady()
			}
		case events.SessionDisconnected:
			if opts.onDisconnected != nil {
				opts.onDisconnected(typedEvent.Code, typedEvent.Reason)
			}
		case events.SessionError:
			if opts.onError != nil {
				opts.onError(typedEvent.ErrorType, typedEvent.Details)
			}
		case events.CameraStarted:
			if opts.onCameraStateChanged != nil {
				opts.onCameraStateChanged(true)
			}
		case events.CameraStopped:
			if opts.onCameraStateChanged != nil {
				opts.onCameraStateChanged(false)
			}
		case events.ScreenShareStarted:
			if opts.onScreenShareStateChanged != nil {
				opts.onScreenShareStateChanged(true)
			}
		case events.ScreenShareStopped:
			if opts.onScreenShareStateChanged != nil {
				opts.onScreenShareStateChanged(false)
			}
		case events.ScreenShareDenied:
			if opts.onScreenShareDenied != nil {
				opts.onScreenShareDenied(typedEvent.Reason)
			}
		case events.RecordingStarted:
			if opts.onRecordingStateChanged != nil {
				opts.onRecordingStateChanged(true)
			}
		case events.RecordingStopped:
			if opts.onRecordingStateChanged != nil {
				opts.onRecordingStateChanged(false)
			}
		case events.MicSuspended:
			if opts.onMicSuspendedChanged != nil {
				opts.onMicSuspendedChanged(true)
			}
		case events.MicResumed:
			if opts.onMicSuspendedChanged != nil {
				opts.onMicSuspendedChanged(false)
			}
		}
	}
}
