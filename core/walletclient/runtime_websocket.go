package walletclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/evmbridge/sdk-go/core/boundary"
	"github.com/evmbridge/sdk-go/core/logging"
)

// WebSocketRuntime reaches bridge modules hosted by a wsbridge.Server.
//
// WebSocketRuntime provides:
//   - One websocket connection shared by every module imported through it
//   - Concurrent calls, matched to their results by id
//   - Callbacks from the bridge delivered to the registered callback targets
//
// The caller owns the runtime and closes it once every Client using it is closed.
type WebSocketRuntime struct {
	conn     *websocket.Conn
	logger   *zap.Logger
	registry *boundary.Registry

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *boundary.Envelope

	closed  atomic.Bool
	done    chan struct{}
	readErr error
}

var _ Runtime = (*WebSocketRuntime)(nil)

type WebSocketOption func(*webSocketOptions)

type webSocketOptions struct {
	logger      *zap.Logger
	header      http.Header
	dialTimeout time.Duration
}

func WithWebSocketLogger(logger *zap.Logger) WebSocketOption {
	return func(o *webSocketOptions) {
		o.logger = logger
	}
}

// WithWebSocketHeader sets extra headers sent on the handshake.
func WithWebSocketHeader(header http.Header) WebSocketOption {
	return func(o *webSocketOptions) {
		o.header = header
	}
}

// DialWebSocketRuntime connects to a wsbridge server at url (ws:// or wss://).
//
// Example:
//
//	rt, err := walletclient.DialWebSocketRuntime(ctx, "ws://localhost:8545/bridge")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	client, err := walletclient.NewClient(rt, options)
func DialWebSocketRuntime(ctx context.Context, url string, opts ...WebSocketOption) (*WebSocketRuntime, error) {
	o := &webSocketOptions{
		logger:      logging.Logger,
		dialTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: o.dialTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, o.header)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}

	r := &WebSocketRuntime{
		conn:     conn,
		logger:   o.logger.Named("ws-runtime"),
		registry: boundary.NewRegistry(),
		pending:  make(map[string]chan *boundary.Envelope),
		done:     make(chan struct{}),
	}
	go r.readLoop()
	return r, nil
}

func (r *WebSocketRuntime) Import(_ context.Context, path string) (ModuleRef, error) {
	if r.closed.Load() {
		return nil, errors.WithStack(ErrClosed)
	}
	return &webSocketModule{runtime: r, path: path, refs: &refTracker{registry: r.registry}}, nil
}

// Close closes the connection and fails every call still waiting.
func (r *WebSocketRuntime) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.writeMu.Lock()
	_ = r.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	r.writeMu.Unlock()

	err := r.conn.Close()
	<-r.done
	return errors.WithStack(err)
}

func (r *WebSocketRuntime) write(env *boundary.Envelope) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return errors.WithStack(r.conn.WriteJSON(env))
}

func (r *WebSocketRuntime) call(ctx context.Context, path, method string, args []any) (*string, error) {
	raw, err := boundary.EncodeArgs(args...)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ch := make(chan *boundary.Envelope, 1)

	r.mu.Lock()
	if r.closed.Load() {
		r.mu.Unlock()
		return nil, errors.WithStack(ErrClosed)
	}
	r.pending[id] = ch
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}()

	err = r.write(&boundary.Envelope{
		Type:   boundary.MessageCall,
		ID:     id,
		Module: path,
		Method: method,
		Args:   raw,
	})
	if err != nil {
		return nil, err
	}

	select {
	case env := <-ch:
		if env.Error != "" {
			return nil, &boundary.RemoteError{Method: method, Message: env.Error}
		}
		return env.Result, nil
	case <-ctx.Done():
		return nil, errors.WithStack(ctx.Err())
	case <-r.done:
		if r.readErr != nil {
			return nil, errors.Wrap(r.readErr, "connection lost")
		}
		return nil, errors.WithStack(ErrClosed)
	}
}

func (r *WebSocketRuntime) readLoop() {
	defer close(r.done)

	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			if !r.closed.Load() {
				r.readErr = err
				r.logger.Warn("read failed", zap.Error(err))
			}
			return
		}

		typ, id, err := boundary.PeekType(data)
		if err != nil {
			r.logger.Warn("dropping message", zap.Error(err))
			continue
		}

		switch typ {
		case boundary.MessageResult:
			env, err := boundary.DecodeEnvelope(data)
			if err != nil {
				r.logger.Warn("dropping result", zap.String("id", id), zap.Error(err))
				continue
			}
			r.mu.Lock()
			ch := r.pending[id]
			r.mu.Unlock()
			if ch != nil {
				ch <- env
			}
		case boundary.MessageCallback:
			env, err := boundary.DecodeEnvelope(data)
			if err != nil {
				r.logger.Warn("dropping callback", zap.String("id", id), zap.Error(err))
				continue
			}
			// callbacks may call back into the bridge, which needs this loop running
			go r.handleCallback(env)
		default:
			r.logger.Warn("unexpected message type", zap.String("type", string(typ)))
		}
	}
}

func (r *WebSocketRuntime) handleCallback(env *boundary.Envelope) {
	ctx := context.Background()
	reply := &boundary.Envelope{Type: boundary.MessageCallbackResult, ID: env.ID}

	target, err := r.registry.ResolveRef(ctx, env.Ref)
	if err == nil {
		err = target.InvokeMethod(ctx, env.Method, env.Args...)
	}
	if err != nil {
		reply.Error = err.Error()
	}

	if err := r.write(reply); err != nil {
		r.logger.Warn("callback reply failed", zap.String("method", env.Method), zap.Error(err))
	}
}

type webSocketModule struct {
	runtime *WebSocketRuntime
	path    string
	refs    *refTracker
}

var _ ModuleRef = (*webSocketModule)(nil)

func (m *webSocketModule) Invoke(ctx context.Context, method string, args ...any) (*string, error) {
	if err := m.refs.track(args); err != nil {
		return nil, err
	}
	return m.runtime.call(ctx, m.path, method, args)
}

func (m *webSocketModule) InvokeVoid(ctx context.Context, method string, args ...any) error {
	_, err := m.Invoke(ctx, method, args...)
	return err
}

func (m *webSocketModule) Close() error {
	m.refs.release()
	return nil
}
