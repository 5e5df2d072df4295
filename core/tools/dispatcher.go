// Package tools implements the name-to-capability registry and the
// invocation/response correlation used by the tool-call sub-protocol.
package tools

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Invocation is a tool call delivered by the remote model.
type Invocation struct {
	ID   string
	Name string
	Args map[string]any
}

// Result is the single correlated answer to an Invocation. Exactly one of
// Output and Error is meaningful.
type Result struct {
	ID     string
	Output any
	Error  string
}

// Dispatcher is a name-to-capability registry. Dispatch always produces a
// correlated Result, never a panic or an error return: the remote is blocked
// awaiting the invocation id regardless of outcome.
type Dispatcher struct {
	mu           sync.RWMutex
	capabilities map[string]Capability
}

// NewDispatcher creates an empty registry.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{capabilities: map[string]Capability{}}
}

// Register adds a capability under name. Re-registering an existing name
// overwrites the previous capability with a warning.
func (d *Dispatcher) Register(name string, capability Capability) error {
	if name == "" {
		return fmt.Errorf("capability name must not be empty")
	}
	if capability == nil {
		return fmt.Errorf("capability %q must not be nil", name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.capabilities[name]; exists {
		log.Printf("Warning: overwriting already registered capability %q", name)
	}
	d.capabilities[name] = capability
	return nil
}

// Declarations aggregates all registered declarations, sorted by name, for
// inclusion in session setup.
func (d *Dispatcher) Declarations() []Declaration {
	d.mu.RLock()
	defer d.mu.RUnlock()

	declarations := make([]Declaration, 0, len(d.capabilities))
	for _, capability := range d.capabilities {
		declarations = append(declarations, capability.Declaration())
	}
	slices.SortFunc(declarations, func(a, b Declaration) int {
		if a.Name < b.Name {
			return -1
		} else if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return declarations
}

// Dispatch looks up the invocation by name and executes it. Lookup misses,
// execution errors and panics all still yield a Result carrying the
// invocation id so the correlated response can reach the transport.
func (d *Dispatcher) Dispatch(ctx context.Context, invocation Invocation) (result Result) {
	result.ID = invocation.ID
	if result.ID == "" {
		result.ID = uuid.NewString()
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			result.Output = nil
			result.Error = fmt.Sprintf("capability %q panicked: %v", invocation.Name, recovered)
		}
	}()

	d.mu.RLock()
	capability, ok := d.capabilities[invocation.Name]
	d.mu.RUnlock()

	if !ok {
		result.Error = fmt.Sprintf("no capability registered under %q", invocation.Name)
		return result
	}

	output, err := capability.Execute(ctx, invocation.Args)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Output = output
	return result
}
