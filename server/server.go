// Package server hosts Intcode processors behind a Connect (HTTP/JSON)
// session service. Clients create sessions from program text, feed them
// input, resume them, peek at memory, and save or restore snapshots.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/intcode/store"
	"github.com/chazu/intcode/vm"
)

var log = commonlog.GetLogger("intcode.server")

// SessionServer is the HTTP server wrapping the hosted processors.
type SessionServer struct {
	worker   *VMWorker
	sessions *SessionStore
	service  *SessionService
	mux      *http.ServeMux

	stopSweeper func()
}

// ServerOption configures a SessionServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	store       store.Store
	vmOpts      []vm.Option
	maxSessions int
	stepLimit   int64
	sessionTTL  time.Duration
}

// WithStore sets the snapshot store. Without one, snapshot calls fail.
func WithStore(s store.Store) ServerOption {
	return func(c *serverConfig) { c.store = s }
}

// WithVMOptions sets options applied to every hosted processor.
func WithVMOptions(opts ...vm.Option) ServerOption {
	return func(c *serverConfig) { c.vmOpts = append(c.vmOpts, opts...) }
}

// WithMaxSessions limits the number of live sessions. Zero means no limit.
func WithMaxSessions(n int) ServerOption {
	return func(c *serverConfig) { c.maxSessions = n }
}

// WithStepLimit bounds the instructions one Resume call may execute.
func WithStepLimit(n int64) ServerOption {
	return func(c *serverConfig) { c.stepLimit = n }
}

// WithSessionTTL sets how long an unused session lives. Zero disables
// sweeping.
func WithSessionTTL(ttl time.Duration) ServerOption {
	return func(c *serverConfig) { c.sessionTTL = ttl }
}

// New creates a SessionServer.
func New(opts ...ServerOption) *SessionServer {
	cfg := &serverConfig{
		stepLimit:  10_000_000,
		sessionTTL: 30 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	worker := NewVMWorker()
	sessions := NewSessionStore(cfg.maxSessions)

	s := &SessionServer{
		worker:   worker,
		sessions: sessions,
		service:  NewSessionService(worker, sessions, cfg.store, cfg.stepLimit, cfg.vmOpts...),
		mux:      http.NewServeMux(),
	}

	path, handler := NewSessionServiceHandler(s.service)
	s.mux.Handle(path, handler)

	if cfg.sessionTTL > 0 {
		// Sweep every tenth of the TTL, but no more often than once a second.
		interval := cfg.sessionTTL / 10
		if interval < time.Second {
			interval = time.Second
		}
		s.stopSweeper = sessions.StartSweeper(interval, cfg.sessionTTL)
	}

	return s
}

// Handler returns the HTTP handler serving the session service.
func (s *SessionServer) Handler() http.Handler {
	return s.mux
}

// Service returns the session service implementation.
func (s *SessionServer) Service() *SessionService {
	return s.service
}

// ListenAndServe serves on addr until ctx is cancelled.
// The address should be in the form "host:port" or ":port".
func (s *SessionServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}

	errc := make(chan error, 1)
	go func() {
		log.Infof("Intcode session server listening on %s", addr)
		log.Infof("  Connect (HTTP/JSON): http://%s%s", addr, CreateSessionProcedure)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Stop shuts down the server.
func (s *SessionServer) Stop() {
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	s.worker.Stop()
}

// ---------------------------------------------------------------------------
// Connect wiring
// ---------------------------------------------------------------------------

// SessionServiceName is the fully-qualified name of the session service.
const SessionServiceName = "intcode.v1.SessionService"

// Procedure paths of the session service.
const (
	CreateSessionProcedure   = "/" + SessionServiceName + "/CreateSession"
	WriteInputProcedure      = "/" + SessionServiceName + "/WriteInput"
	ResumeProcedure          = "/" + SessionServiceName + "/Resume"
	PeekProcedure            = "/" + SessionServiceName + "/Peek"
	SaveSnapshotProcedure    = "/" + SessionServiceName + "/SaveSnapshot"
	RestoreSnapshotProcedure = "/" + SessionServiceName + "/RestoreSnapshot"
	DestroySessionProcedure  = "/" + SessionServiceName + "/DestroySession"
	ListSessionsProcedure    = "/" + SessionServiceName + "/ListSessions"
)

// NewSessionServiceHandler builds an HTTP handler for svc. It returns the
// path prefix to mount it on.
func NewSessionServiceHandler(svc *SessionService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, svc.CreateSession, opts...))
	mux.Handle(WriteInputProcedure, connect.NewUnaryHandler(WriteInputProcedure, svc.WriteInput, opts...))
	mux.Handle(ResumeProcedure, connect.NewUnaryHandler(ResumeProcedure, svc.Resume, opts...))
	mux.Handle(PeekProcedure, connect.NewUnaryHandler(PeekProcedure, svc.Peek, opts...))
	mux.Handle(SaveSnapshotProcedure, connect.NewUnaryHandler(SaveSnapshotProcedure, svc.SaveSnapshot, opts...))
	mux.Handle(RestoreSnapshotProcedure, connect.NewUnaryHandler(RestoreSnapshotProcedure, svc.RestoreSnapshot, opts...))
	mux.Handle(DestroySessionProcedure, connect.NewUnaryHandler(DestroySessionProcedure, svc.DestroySession, opts...))
	mux.Handle(ListSessionsProcedure, connect.NewUnaryHandler(ListSessionsProcedure, svc.ListSessions, opts...))
	return "/" + SessionServiceName + "/", mux
}

// SessionServiceClient calls a remote session service.
type SessionServiceClient struct {
	createSession   *connect.Client[CreateSessionRequest, CreateSessionResponse]
	writeInput      *connect.Client[WriteInputRequest, WriteInputResponse]
	resume          *connect.Client[ResumeRequest, ResumeResponse]
	peek            *connect.Client[PeekRequest, PeekResponse]
	saveSnapshot    *connect.Client[SaveSnapshotRequest, SaveSnapshotResponse]
	restoreSnapshot *connect.Client[RestoreSnapshotRequest, RestoreSnapshotResponse]
	destroySession  *connect.Client[DestroySessionRequest, DestroySessionResponse]
	listSessions    *connect.Client[ListSessionsRequest, ListSessionsResponse]
}

// NewSessionServiceClient creates a client for the service at baseURL,
// for example "http://localhost:8547".
func NewSessionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SessionServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &SessionServiceClient{
		createSession:   connect.NewClient[CreateSessionRequest, CreateSessionResponse](httpClient, baseURL+CreateSessionProcedure, opts...),
		writeInput:      connect.NewClient[WriteInputRequest, WriteInputResponse](httpClient, baseURL+WriteInputProcedure, opts...),
		resume:          connect.NewClient[ResumeRequest, ResumeResponse](httpClient, baseURL+ResumeProcedure, opts...),
		peek:            connect.NewClient[PeekRequest, PeekResponse](httpClient, baseURL+PeekProcedure, opts...),
		saveSnapshot:    connect.NewClient[SaveSnapshotRequest, SaveSnapshotResponse](httpClient, baseURL+SaveSnapshotProcedure, opts...),
		restoreSnapshot: connect.NewClient[RestoreSnapshotRequest, RestoreSnapshotResponse](httpClient, baseURL+RestoreSnapshotProcedure, opts...),
		destroySession:  connect.NewClient[DestroySessionRequest, DestroySessionResponse](httpClient, baseURL+DestroySessionProcedure, opts...),
		listSessions:    connect.NewClient[ListSessionsRequest, ListSessionsResponse](httpClient, baseURL+ListSessionsProcedure, opts...),
	}
}

func (c *SessionServiceClient) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error) {
	return c.createSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) WriteInput(ctx context.Context, req *connect.Request[WriteInputRequest]) (*connect.Response[WriteInputResponse], error) {
	return c.writeInput.CallUnary(ctx, req)
}

func (c *SessionServiceClient) Resume(ctx context.Context, req *connect.Request[ResumeRequest]) (*connect.Response[ResumeResponse], error) {
	return c.resume.CallUnary(ctx, req)
}

func (c *SessionServiceClient) Peek(ctx context.Context, req *connect.Request[PeekRequest]) (*connect.Response[PeekResponse], error) {
	return c.peek.CallUnary(ctx, req)
}

func (c *SessionServiceClient) SaveSnapshot(ctx context.Context, req *connect.Request[SaveSnapshotRequest]) (*connect.Response[SaveSnapshotResponse], error) {
	return c.saveSnapshot.CallUnary(ctx, req)
}

func (c *SessionServiceClient) RestoreSnapshot(ctx context.Context, req *connect.Request[RestoreSnapshotRequest]) (*connect.Response[RestoreSnapshotResponse], error) {
	return c.restoreSnapshot.CallUnary(ctx, req)
}

func (c *SessionServiceClient) DestroySession(ctx context.Context, req *connect.Request[DestroySessionRequest]) (*connect.Response[DestroySessionResponse], error) {
	return c.destroySession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) ListSessions(ctx context.Context, req *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error) {
	return c.listSessions.CallUnary(ctx, req)
}
