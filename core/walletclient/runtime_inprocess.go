package walletclient

import (
	"context"

	"github.com/pkg/errors"

	"github.com/evmbridge/sdk-go/core/boundary"
	"github.com/evmbridge/sdk-go/core/bridge"
)

// InProcessRuntime serves bridge.ModulePath from a bridge.Module living in
// the same process. Arguments and results still go through JSON.
type InProcessRuntime struct {
	module *bridge.Module
}

var _ Runtime = (*InProcessRuntime)(nil)

func NewInProcessRuntime(module *bridge.Module) *InProcessRuntime {
	return &InProcessRuntime{module: module}
}

func (r *InProcessRuntime) Import(_ context.Context, path string) (ModuleRef, error) {
	if path != bridge.ModulePath {
		return nil, errors.Errorf("no module at %q", path)
	}
	return &inProcessModule{
		module: r.module,
		refs:   &refTracker{registry: boundary.NewRegistry()},
	}, nil
}

type inProcessModule struct {
	module *bridge.Module
	refs   *refTracker
}

var _ ModuleRef = (*inProcessModule)(nil)

func (m *inProcessModule) Invoke(ctx context.Context, method string, args ...any) (*string, error) {
	if err := m.refs.track(args); err != nil {
		return nil, err
	}
	raw, err := boundary.EncodeArgs(args...)
	if err != nil {
		return nil, err
	}
	return m.module.Dispatch(ctx, method, raw, m.refs.registry)
}

func (m *inProcessModule) InvokeVoid(ctx context.Context, method string, args ...any) error {
	_, err := m.Invoke(ctx, method, args...)
	return err
}

func (m *inProcessModule) Close() error {
	m.refs.release()
	return nil
}
