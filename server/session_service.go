package server

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/chazu/intcode/program"
	"github.com/chazu/intcode/store"
	"github.com/chazu/intcode/vm"
)

// maxPeek bounds the number of cells a single Peek may return.
const maxPeek = 4096

// SessionService implements the intcode.v1.SessionService Connect handler.
type SessionService struct {
	worker    *VMWorker
	sessions  *SessionStore
	store     store.Store
	vmOpts    []vm.Option
	stepLimit int64
}

// NewSessionService creates a SessionService. snapshots may be nil, in which
// case SaveSnapshot and RestoreSnapshot fail with FailedPrecondition.
func NewSessionService(worker *VMWorker, sessions *SessionStore, snapshots store.Store, stepLimit int64, vmOpts ...vm.Option) *SessionService {
	return &SessionService{
		worker:    worker,
		sessions:  sessions,
		store:     snapshots,
		vmOpts:    vmOpts,
		stepLimit: stepLimit,
	}
}

// session looks up a session and converts failures to Connect errors.
func (s *SessionService) session(id string) (*Session, error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("session_id is required"))
	}
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", id))
	}
	return session, nil
}

func (s *SessionService) register(name string, proc *vm.Processor) (*Session, error) {
	session, err := s.sessions.Create(name, proc)
	if errors.Is(err, ErrTooManySessions) {
		return nil, connect.NewError(connect.CodeResourceExhausted, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	log.Infof("session %s created (%q)", session.ID, name)
	return session, nil
}

// CreateSession parses a program and hosts a fresh processor running it.
func (s *SessionService) CreateSession(
	ctx context.Context,
	req *connect.Request[CreateSessionRequest],
) (*connect.Response[CreateSessionResponse], error) {
	prog, err := program.Parse(req.Msg.Program)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("program: %w", err))
	}
	if len(prog) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("program is empty"))
	}

	session, err := s.register(req.Msg.Name, vm.New(prog, s.vmOpts...))
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&CreateSessionResponse{
		SessionID: session.ID,
		Words:     len(prog),
	}), nil
}

// WriteInput queues values and, if given, a line of text.
func (s *SessionService) WriteInput(
	ctx context.Context,
	req *connect.Request[WriteInputRequest],
) (*connect.Response[WriteInputResponse], error) {
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	result, err := s.worker.Do(ctx, func() interface{} {
		p := session.proc
		for _, v := range req.Msg.Values {
			p.WriteInt(vm.Word(v))
		}
		if req.Msg.Text != "" {
			p.WriteString(req.Msg.Text)
		}
		return p.PendingInputs()
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&WriteInputResponse{Pending: result.(int)}), nil
}

// Resume runs the session's processor until it halts, needs input, has
// produced max_outputs values, or has used up the step budget. Outputs
// produced before the budget ran out are returned with StatusStepLimit.
func (s *SessionService) Resume(
	ctx context.Context,
	req *connect.Request[ResumeRequest],
) (*connect.Response[ResumeResponse], error) {
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if req.Msg.MaxOutputs < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("max_outputs must not be negative"))
	}

	type resumed struct {
		resp *ResumeResponse
		err  error
	}
	result, err := s.worker.Do(ctx, func() interface{} {
		resp, err := s.resume(session.proc, req.Msg.MaxOutputs)
		return resumed{resp, err}
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	r := result.(resumed)
	switch {
	case r.err == nil:
		return connect.NewResponse(r.resp), nil
	case vm.IsFault(r.err):
		log.Warningf("session %s faulted: %v", session.ID, r.err)
		return nil, connect.NewError(connect.CodeFailedPrecondition, r.err)
	default:
		return nil, connect.NewError(connect.CodeInternal, r.err)
	}
}

// resume drives p step by step. Must be called on the worker goroutine.
func (s *SessionService) resume(p *vm.Processor, maxOutputs int) (*ResumeResponse, error) {
	resp := &ResumeResponse{Outputs: []int64{}}
	var executed int64
	for resp.Status == "" {
		st, stop, err := p.Step()
		if err != nil {
			return nil, err
		}
		executed++
		if stop {
			switch st.Kind {
			case vm.Halted:
				resp.Status = StatusHalted
			case vm.NeedsInput:
				resp.Status = StatusNeedsInput
			case vm.Output:
				resp.Outputs = append(resp.Outputs, int64(st.Value))
				if maxOutputs > 0 && len(resp.Outputs) >= maxOutputs {
					resp.Status = StatusOutput
				}
			}
		}
		if resp.Status == "" && s.stepLimit > 0 && executed >= s.stepLimit {
			log.Debugf("step limit reached after %d steps at ip=%d", executed, p.IP())
			resp.Status = StatusStepLimit
		}
	}
	resp.Steps = p.Steps()
	return resp, nil
}

// Peek reads count memory cells starting at address without growing memory.
func (s *SessionService) Peek(
	ctx context.Context,
	req *connect.Request[PeekRequest],
) (*connect.Response[PeekResponse], error) {
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if req.Msg.Address < 0 || req.Msg.Count < 0 || req.Msg.Count > maxPeek {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("address must be >= 0 and count in [0, %d]", maxPeek))
	}

	result, err := s.worker.Do(ctx, func() interface{} {
		cells, err := session.proc.Memory().Slice(vm.Word(req.Msg.Address), req.Msg.Count)
		if err != nil {
			return err
		}
		values := make([]int64, len(cells))
		for i, c := range cells {
			values[i] = int64(c)
		}
		return values
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if err, ok := result.(error); ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewResponse(&PeekResponse{Values: result.([]int64)}), nil
}

// SaveSnapshot stores the session's current state under a name.
func (s *SessionService) SaveSnapshot(
	ctx context.Context,
	req *connect.Request[SaveSnapshotRequest],
) (*connect.Response[SaveSnapshotResponse], error) {
	if s.store == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("no snapshot store configured"))
	}
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	name := req.Msg.Name
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}

	result, err := s.worker.Do(ctx, func() interface{} {
		return session.proc.Snapshot()
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if err := s.store.Put(name, result.(*vm.Snapshot)); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	log.Infof("session %s saved as %q", session.ID, name)
	return connect.NewResponse(&SaveSnapshotResponse{Name: name}), nil
}

// RestoreSnapshot creates a new session from a stored snapshot.
func (s *SessionService) RestoreSnapshot(
	ctx context.Context,
	req *connect.Request[RestoreSnapshotRequest],
) (*connect.Response[RestoreSnapshotResponse], error) {
	if s.store == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("no snapshot store configured"))
	}
	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}

	snap, err := s.store.Get(req.Msg.Name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("snapshot %q not found", req.Msg.Name))
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	proc, err := vm.Restore(snap, s.vmOpts...)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	name := req.Msg.SessionName
	if name == "" {
		name = req.Msg.Name
	}
	session, err := s.register(name, proc)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&RestoreSnapshotResponse{SessionID: session.ID}), nil
}

// DestroySession removes a session and drops its processor.
func (s *SessionService) DestroySession(
	ctx context.Context,
	req *connect.Request[DestroySessionRequest],
) (*connect.Response[DestroySessionResponse], error) {
	if req.Msg.SessionID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("session_id is required"))
	}
	if !s.sessions.Destroy(req.Msg.SessionID) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", req.Msg.SessionID))
	}
	log.Infof("session %s destroyed", req.Msg.SessionID)
	return connect.NewResponse(&DestroySessionResponse{}), nil
}

// ListSessions describes every hosted session.
func (s *SessionService) ListSessions(
	ctx context.Context,
	req *connect.Request[ListSessionsRequest],
) (*connect.Response[ListSessionsResponse], error) {
	list := s.sessions.List()
	result, err := s.worker.Do(ctx, func() interface{} {
		infos := make([]SessionInfo, len(list))
		for i, session := range list {
			p := session.proc
			infos[i] = SessionInfo{
				SessionID: session.ID,
				Name:      session.Name,
				Halted:    p.Halted(),
				IP:        p.IP(),
				Steps:     p.Steps(),
				Pending:   p.PendingInputs(),
			}
		}
		return infos
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ListSessionsResponse{Sessions: result.([]SessionInfo)}), nil
}
