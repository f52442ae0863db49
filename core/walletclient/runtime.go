package walletclient

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/evmbridge/sdk-go/core/boundary"
)

// Runtime loads bridge modules on the browser side of the boundary.
// This interface lets the Client run against different hosts without changing its code.
//
// Two implementations ship with the SDK:
//   - InProcessRuntime runs a bridge.Module in the same process. Calls still
//     cross as JSON, so it behaves like a remote bridge.
//   - WebSocketRuntime talks to a wsbridge.Server over a websocket.
//
// Example custom runtime usage:
//
//	type MyRuntime struct { ... }
//
//	func (r *MyRuntime) Import(ctx context.Context, path string) (walletclient.ModuleRef, error) {
//	    // load the module found at path
//	    return &myModuleRef{...}, nil
//	}
//
//	client, err := walletclient.NewClient(myRuntime, options)
type Runtime interface {
	// Import loads the module found at path. The Client calls it once, lazily,
	// with bridge.ModulePath.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - path: Well-known asset path of the module
	//
	// Returns:
	//   - Handle on the loaded module
	//   - Error if the module cannot be loaded
	Import(ctx context.Context, path string) (ModuleRef, error)
}

// ModuleRef is a handle on a loaded bridge module.
type ModuleRef interface {
	// Invoke calls method and returns its JSON text result, nil when the
	// method returned nothing. Arguments are JSON-encoded; a *boundary.ObjectRef
	// argument crosses as a callback reference the module can call back on.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - method: Bridge method name (see bridge.Method* constants)
	//   - args: Method arguments
	//
	// Returns:
	//   - JSON text returned by the method, or nil
	//   - Error if the call could not be made or the module raised one
	Invoke(ctx context.Context, method string, args ...any) (*string, error)

	// InvokeVoid calls a method whose result is ignored.
	InvokeVoid(ctx context.Context, method string, args ...any) error

	// Close releases the handle and any callback references it registered.
	Close() error
}

// refTracker remembers the callback references a module handle registered so
// Close can release them.
type refTracker struct {
	registry *boundary.Registry

	mu     sync.Mutex
	refs   map[string]struct{}
	closed bool
}

func (t *refTracker) track(args []any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.WithStack(ErrClosed)
	}
	for _, id := range t.registry.RegisterArgs(args...) {
		if t.refs == nil {
			t.refs = make(map[string]struct{})
		}
		t.refs[id] = struct{}{}
	}
	return nil
}

func (t *refTracker) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for id := range t.refs {
		t.registry.Release(id)
	}
	t.refs = nil
}
