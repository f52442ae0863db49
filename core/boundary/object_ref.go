package boundary

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ObjectRef registers a CallbackTarget so the other side of the boundary can
// call it by id. Once disposed every invocation fails with ErrRefDisposed.
type ObjectRef struct {
	id       string
	target   CallbackTarget
	disposed atomic.Bool
}

var _ CallbackTarget = (*ObjectRef)(nil)

func NewObjectRef(target CallbackTarget) *ObjectRef {
	return &ObjectRef{
		id:     uuid.NewString(),
		target: target,
	}
}

func (r *ObjectRef) ID() string {
	return r.id
}

func (r *ObjectRef) InvokeMethod(ctx context.Context, method string, args ...json.RawMessage) error {
	if r.disposed.Load() {
		return errors.Wrap(ErrRefDisposed, r.id)
	}
	return r.target.InvokeMethod(ctx, method, args...)
}

// Dispose releases the target. It reports whether this call did the release.
func (r *ObjectRef) Dispose() bool {
	return r.disposed.CompareAndSwap(false, true)
}

func (r *ObjectRef) Disposed() bool {
	return r.disposed.Load()
}

func (r *ObjectRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{RefKey: r.id})
}

// Registry resolves references created on this side of the boundary.
type Registry struct {
	mu   sync.RWMutex
	refs map[string]*ObjectRef
}

var _ Resolver = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{refs: make(map[string]*ObjectRef)}
}

func (r *Registry) Register(ref *ObjectRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[ref.ID()] = ref
}

func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refs, id)
}

func (r *Registry) ResolveRef(_ context.Context, id string) (CallbackTarget, error) {
	r.mu.RLock()
	ref, ok := r.refs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrRefNotFound, id)
	}
	if ref.Disposed() {
		return nil, errors.Wrap(ErrRefDisposed, id)
	}
	return ref, nil
}

// RegisterArgs registers every *ObjectRef found in args and returns their ids.
func (r *Registry) RegisterArgs(args ...any) []string {
	var ids []string
	for _, a := range args {
		if ref, ok := a.(*ObjectRef); ok && ref != nil {
			r.Register(ref)
			ids = append(ids, ref.ID())
		}
	}
	return ids
}
