package tools

import (
	"context"
	"fmt"
	"testing"
)

func TestDispatchUnregisteredNameYieldsErrorResult(t *testing.T) {
	dispatcher := NewDispatcher()

	result := dispatcher.Dispatch(context.Background(), Invocation{ID: "call-1", Name: "foo"})

	if result.ID != "call-1" {
		t.Fatalf("expected result to carry invocation id, got %q", result.ID)
	}
	if result.Error == "" {
		t.Fatalf("expected an error result for an unregistered capability")
	}
	if result.Output != nil {
		t.Fatalf("expected no output for an unregistered capability, got %v", result.Output)
	}
}

func TestDispatchExecutionFailureYieldsErrorResult(t *testing.T) {
	dispatcher := NewDispatcher()
	capability := NewCapability("failing", "always fails", nil,
		func(context.Context, map[string]any) (any, error) {
			return nil, fmt.Errorf("backend unavailable")
		})
	if err := dispatcher.Register("failing", capability); err != nil {
		t.Fatalf("expected registration to succeed, got %v", err)
	}

	result := dispatcher.Dispatch(context.Background(), Invocation{ID: "call-2", Name: "failing"})

	if result.ID != "call-2" {
		t.Fatalf("expected result to carry invocation id, got %q", result.ID)
	}
	if result.Error != "backend unavailable" {
		t.Fatalf("expected execution error to be carried, got %q", result.Error)
	}
}

func TestDispatchRecoversPanickingCapability(t *testing.T) {
	dispatcher := NewDispatcher()
	capability := NewCapability("panicking", "always panics", nil,
		func(context.Context, map[string]any) (any, error) {
			panic("unexpected state")
		})
	if err := dispatcher.Register("panicking", capability); err != nil {
		t.Fatalf("expected registration to succeed, got %v", err)
	}

	result := dispatcher.Dispatch(context.Background(), Invocation{ID: "call-3", Name: "panicking"})

	if result.ID != "call-3" {
		t.Fatalf("expected result to carry invocation id, got %q", result.ID)
	}
	if result.Error == "" {
		t.Fatalf("expected a panic to be converted into an error result")
	}
}

func TestDispatchGeneratesIDWhenInvocationHasNone(t *testing.T) {
	dispatcher := NewDispatcher()

	result := dispatcher.Dispatch(context.Background(), Invocation{Name: "foo"})

	if result.ID == "" {
		t.Fatalf("expected a generated id so the response can still be correlated")
	}
}

func TestRegisterOverwritesExistingName(t *testing.T) {
	dispatcher := NewDispatcher()

	first := NewCapability("echo", "first", nil,
		func(context.Context, map[string]any) (any, error) { return "first", nil })
	second := NewCapability("echo", "second", nil,
		func(context.Context, map[string]any) (any, error) { return "second", nil })

	if err := dispatcher.Register("echo", first); err != nil {
		t.Fatalf("expected first registration to succeed, got %v", err)
	}
	if err := dispatcher.Register("echo", second); err != nil {
		t.Fatalf("expected overwriting registration to succeed, got %v", err)
	}

	result := dispatcher.Dispatch(context.Background(), Invocation{ID: "call-4", Name: "echo"})
	if result.Output != "second" {
		t.Fatalf("expected the overwriting capability to execute, got %v", result.Output)
	}
}

func TestDeclarationsAggregateSortedByName(t *testing.T) {
	dispatcher := NewDispatcher()

	type weatherArgs struct {
		City string `json:"city" jsonschema:"title=City,description=City to look up"`
	}

	noop := func(context.Context, map[string]any) (any, error) { return nil, nil }
	_ = dispatcher.Register("weather", NewCapability("weather", "weather lookup", weatherArgs{}, noop))
	_ = dispatcher.Register("alarm", NewCapability("alarm", "set an alarm", nil, noop))

	declarations := dispatcher.Declarations()
	if len(declarations) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(declarations))
	}
	if declarations[0].Name != "alarm" || declarations[1].Name != "weather" {
		t.Fatalf("expected declarations sorted by name, got %q then %q", declarations[0].Name, declarations[1].Name)
	}
	if declarations[1].Parameters == nil {
		t.Fatalf("expected the weather declaration to carry a parameter schema")
	}
	if declarations[0].Parameters != nil {
		t.Fatalf("expected the parameterless declaration to carry no schema")
	}
}
