// Package wsbridge hosts bridge modules behind a websocket, one module per
// connection.
package wsbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evmbridge/sdk-go/core/boundary"
	"github.com/evmbridge/sdk-go/core/bridge"
	"github.com/evmbridge/sdk-go/core/logging"
)

// ModuleFactory creates the bridge module for a new connection.
type ModuleFactory func() *bridge.Module

type Server struct {
	newModule       ModuleFactory
	upgrader        websocket.Upgrader
	logger          *zap.Logger
	callbackTimeout time.Duration
	closeTimeout    time.Duration
}

var _ http.Handler = (*Server)(nil)

type Option func(*Server)

func NewServer(factory ModuleFactory, opts ...Option) *Server {
	s := &Server{
		newModule: factory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger:          logging.Logger,
		callbackTimeout: 30 * time.Second,
		closeTimeout:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("wsbridge")
	return s
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCheckOrigin sets the handshake origin check. The default accepts only
// same-host origins.
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = check
	}
}

// WithCallbackTimeout bounds how long the bridge waits for the host to
// acknowledge a callback.
func WithCallbackTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.callbackTimeout = d
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	sess := newSession(s, conn)
	s.logger.Info("session opened", zap.String("session", sess.id), zap.String("remote", r.RemoteAddr))
	sess.run()
	s.logger.Info("session closed", zap.String("session", sess.id))
}

type session struct {
	id     string
	server *Server
	conn   *websocket.Conn
	module *bridge.Module
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	calls  sync.WaitGroup

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *boundary.Envelope
}

var _ boundary.Resolver = (*session)(nil)

func newSession(s *Server, conn *websocket.Conn) *session {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &session{
		id:      id,
		server:  s,
		conn:    conn,
		module:  s.newModule(),
		logger:  s.logger.With(zap.String("session", id)),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]chan *boundary.Envelope),
	}
}

func (s *session) run() {
	defer s.shutdown()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("read failed", zap.Error(err))
			}
			return
		}

		typ, id, err := boundary.PeekType(data)
		if err != nil {
			s.logger.Warn("dropping message", zap.Error(err))
			continue
		}

		switch typ {
		case boundary.MessageCall:
			env, err := boundary.DecodeEnvelope(data)
			if err != nil {
				s.reply(&boundary.Envelope{Type: boundary.MessageResult, ID: id, Error: err.Error()})
				continue
			}
			s.calls.Add(1)
			go func() {
				defer s.calls.Done()
				s.handleCall(env)
			}()
		case boundary.MessageCallbackResult:
			env, err := boundary.DecodeEnvelope(data)
			if err != nil {
				s.logger.Warn("dropping callback result", zap.String("id", id), zap.Error(err))
				continue
			}
			s.mu.Lock()
			ch := s.pending[id]
			s.mu.Unlock()
			if ch != nil {
				ch <- env
			}
		default:
			s.logger.Warn("unexpected message type", zap.String("type", string(typ)))
		}
	}
}

func (s *session) handleCall(env *boundary.Envelope) {
	reply := &boundary.Envelope{Type: boundary.MessageResult, ID: env.ID}

	if env.Module != bridge.ModulePath {
		reply.Error = "no module at " + env.Module
		s.reply(reply)
		return
	}

	res, err := s.module.Dispatch(s.ctx, env.Method, env.Args, s)
	if err != nil {
		s.logger.Debug("call failed", zap.String("method", env.Method), zap.Error(err))
		reply.Error = err.Error()
	} else {
		reply.Result = res
	}
	s.reply(reply)
}

func (s *session) reply(env *boundary.Envelope) {
	if err := s.write(env); err != nil {
		s.logger.Warn("write failed", zap.String("id", env.ID), zap.Error(err))
	}
}

func (s *session) write(env *boundary.Envelope) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return errors.WithStack(s.conn.WriteJSON(env))
}

// ResolveRef returns a target that forwards calls to the host over this connection.
func (s *session) ResolveRef(_ context.Context, id string) (boundary.CallbackTarget, error) {
	return &remoteTarget{session: s, ref: id}, nil
}

func (s *session) shutdown() {
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), s.server.closeTimeout)
	defer cancel()
	if err := s.module.Close(ctx); err != nil {
		s.logger.Warn("module close", zap.Error(err))
	}
	s.calls.Wait()
	_ = s.conn.Close()
}

// remoteTarget is a host callback target reached over the session's connection.
type remoteTarget struct {
	session *session
	ref     string
}

func (t *remoteTarget) InvokeMethod(ctx context.Context, method string, args ...json.RawMessage) error {
	s := t.session
	id := uuid.NewString()
	ch := make(chan *boundary.Envelope, 1)

	s.mu.Lock()
	s.pending[id] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	err := s.write(&boundary.Envelope{
		Type:   boundary.MessageCallback,
		ID:     id,
		Ref:    t.ref,
		Method: method,
		Args:   args,
	})
	if err != nil {
		return err
	}

	timer := time.NewTimer(s.server.callbackTimeout)
	defer timer.Stop()

	select {
	case env := <-ch:
		if env.Error != "" {
			return &boundary.RemoteError{Method: method, Message: env.Error}
		}
		return nil
	case <-timer.C:
		return errors.Errorf("callback %s not acknowledged within %s", method, s.server.callbackTimeout)
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	case <-s.ctx.Done():
		return errors.New("session closed")
	}
}
