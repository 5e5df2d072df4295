package session

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"

	"github.com/halcyonlabs/live-core/core/events"
	"github.com/halcyonlabs/live-core/core/tools"
)

// handleToolCall dispatches every invocation of one toolCall frame and
// answers each with exactly one correlated result. The remote is blocked
// awaiting every delivered id, so error-carrying results are sent too.
func (o *Orchestrator) handleToolCall(invocations []tools.Invocation) {
	ctx, span := tracer.Start(o.baseContext, "handle tool call")
	defer span.End()

	results := make([]tools.Result, 0, len(invocations))
	for _, invocation := range invocations {
		invocationCtx, cancel := context.WithCancel(ctx)
		o.registerToolInvocation(invocation.ID, cancel)

		result := o.dispatcher.Dispatch(invocationCtx, invocation)

		o.unregisterToolInvocation(invocation.ID)
		cancel()

		if result.Error != "" {
			o.emitEvent(events.NewSessionError(string(ErrorTypeToolExecution), result.Error))
		}
		results = append(results, result)
	}

	if err := o.transport.SendToolResponse(results...); err != nil {
		recordedErr := fmt.Errorf("failed to send tool response: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		o.emitEvent(events.NewSessionError(string(ErrorTypeTransport), recordedErr.Error()))
	}
}

// cancelToolInvocations cancels the contexts of invocations the remote no
// longer wants answered. Unknown ids are ignored.
func (o *Orchestrator) cancelToolInvocations(ids []string) {
	o.toolMu.Lock()
	defer o.toolMu.Unlock()

	for _, id := range ids {
		if cancel, ok := o.runningTools[id]; ok {
			cancel()
			delete(o.runningTools, id)
		}
	}
}

func (o *Orchestrator) registerToolInvocation(id string, cancel context.CancelFunc) {
	if id == "" {
		return
	}
	o.toolMu.Lock()
	defer o.toolMu.Unlock()
	o.runningTools[id] = cancel
}

func (o *Orchestrator) unregisterToolInvocation(id string) {
	if id == "" {
		return
	}
	o.toolMu.Lock()
	defer o.toolMu.Unlock()
	delete(o.runningTools, id)
}
