package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voxelcircuit.ai/internal/check"
	"voxelcircuit.ai/internal/circuit"
	"voxelcircuit.ai/internal/diag"
	"voxelcircuit.ai/internal/graph"
	"voxelcircuit.ai/internal/library"
	"voxelcircuit.ai/internal/persistence/indexdb"
	"voxelcircuit.ai/internal/protocol"
	"voxelcircuit.ai/internal/sim"
	"voxelcircuit.ai/internal/sim/tuning"
)

// Recorder receives a row per finished request. *indexdb.SQLiteIndex
// satisfies it.
type Recorder interface {
	RecordCheck(run indexdb.CheckRun)
	RecordSimulation(run indexdb.SimulationRun)
}

type Config struct {
	Library *library.Loader
	Tuning  tuning.Tuning
	Index   Recorder
	// Archive, if set, also receives every diagnostic line.
	Archive diag.Sink
}

type Server struct {
	cfg Config
	log *log.Logger

	upgrader websocket.Upgrader
}

const outQueue = 64

func NewServer(cfg Config, logger *log.Logger) *Server {
	// Model paths come from clients, so the library is always confined.
	switch {
	case cfg.Library == nil:
		cfg.Library = library.NewConfinedLoader(cfg.Tuning.LibraryDir)
	case !cfg.Library.Confined:
		cfg.Library = library.NewConfinedLoader(cfg.Library.Dir)
	}
	return &Server{
		cfg: cfg,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// session is one connection. Requests are served in arrival order; replies
// go through out to the writer goroutine.
type session struct {
	id  string
	ctx context.Context
	out chan []byte
}

func (s *session) send(v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case s.out <- b:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sess := &session{id: uuid.NewString(), ctx: ctx, out: make(chan []byte, outQueue)}
		s.logf("session %s connected from %s", sess.id, r.RemoteAddr)

		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			s.dispatch(sess, msg)
		}

		// Let queued replies drain before the connection closes.
		s.flush(sess)
		cancel()
		<-writerDone
		s.logf("session %s closed", sess.id)
	}
}

func (s *Server) flush(sess *session) {
	deadline := time.After(time.Second)
	for len(sess.out) > 0 {
		select {
		case <-sess.ctx.Done():
			return
		case <-deadline:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (s *Server) dispatch(sess *session, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		sess.send(protocol.NewError("", protocol.ErrProtoBadRequest, "malformed message"))
		return
	}
	if base.ProtocolVersion != protocol.Version {
		sess.send(protocol.NewError(base.ID, protocol.ErrProtoVersion, fmt.Sprintf("protocol_version must be %q", protocol.Version)))
		return
	}
	switch base.Type {
	case protocol.TypeCheck, protocol.TypeSimulate:
	default:
		sess.send(protocol.NewError(base.ID, protocol.ErrUnknownType, fmt.Sprintf("unsupported message type %q", base.Type)))
		return
	}
	if err := protocol.ValidateRequest(base.Type, msg); err != nil {
		sess.send(protocol.NewError(base.ID, protocol.ErrBadRequest, err.Error()))
		return
	}

	switch base.Type {
	case protocol.TypeCheck:
		var req protocol.CheckMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			sess.send(protocol.NewError(base.ID, protocol.ErrBadRequest, err.Error()))
			return
		}
		s.handleCheck(sess, req)
	case protocol.TypeSimulate:
		var req protocol.SimulateMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			sess.send(protocol.NewError(base.ID, protocol.ErrBadRequest, err.Error()))
			return
		}
		s.handleSimulate(sess, req)
	}
}

// diagSink streams each line to the client as a DIAG message.
func (s *Server) diagSink(sess *session, id string) diag.Sink {
	stream := diag.Func(func(line string) {
		sess.send(protocol.DiagMsg{Type: protocol.TypeDiag, ProtocolVersion: protocol.Version, ID: id, Line: line})
	})
	return diag.Tee(stream, s.cfg.Archive)
}

func (s *Server) handleCheck(sess *session, req protocol.CheckMsg) {
	c, err := circuit.DecodeCircuit(req.Circuit)
	if err != nil {
		sess.send(protocol.NewError(req.ID, protocol.ErrBadRequest, err.Error()))
		return
	}
	models, err := s.cfg.Library.Catalog(c)
	if err != nil {
		sess.send(protocol.NewError(req.ID, protocol.ErrUnresolvedModel, err.Error()))
		return
	}

	sink := s.diagSink(sess, req.ID)
	k := check.Checker{
		MaxSignal:    s.cfg.Tuning.MaxSignal,
		MaxPaths:     s.cfg.Tuning.MaxPaths,
		MaxPathSteps: s.cfg.Tuning.MaxPathSteps,
		Verbose:      req.Verbose || s.cfg.Tuning.Verbose,
		Sink:         sink,
	}
	rep, err := k.Check(c, models)
	if err != nil {
		diag.Errorf(sink, "failed to construct graph from circuit: %v", err)
		code := protocol.ErrInternal
		if errors.Is(err, graph.ErrUnresolvedModel) {
			code = protocol.ErrUnresolvedModel
		}
		sess.send(protocol.NewError(req.ID, code, err.Error()))
		return
	}

	runID := indexdb.NewRunID()
	if s.cfg.Index != nil {
		s.cfg.Index.RecordCheck(indexdb.CheckRunFromReport(runID, c.Name, circuit.Digest(req.Circuit), rep))
	}
	res := protocol.CheckResultMsg{
		Type:            protocol.TypeCheckResult,
		ProtocolVersion: protocol.Version,
		ID:              req.ID,
		RunID:           runID,
		OK:              rep.OK,
		Dots:            rep.Dots,
		Edges:           rep.Edges,
		Violations:      make([]string, 0, len(rep.Violations)),
		Conflicts:       make([]string, 0, len(rep.Conflicts)),
	}
	for _, v := range rep.Violations {
		res.Violations = append(res.Violations, v.String())
	}
	for _, cf := range rep.Conflicts {
		res.Conflicts = append(res.Conflicts, cf.Wire)
	}
	sess.send(res)
}

func (s *Server) handleSimulate(sess *session, req protocol.SimulateMsg) {
	m, err := s.cfg.Library.Import(circuit.ImportItem{ModelType: circuit.KindComponent.String(), Path: req.Model})
	if err != nil {
		sess.send(protocol.NewError(req.ID, protocol.ErrUnresolvedModel, err.Error()))
		return
	}
	content, err := s.cfg.Library.Content(m)
	if err != nil {
		sess.send(protocol.NewError(req.ID, protocol.ErrNoContent, err.Error()))
		return
	}

	simulator := sim.Simulator{Sink: s.diagSink(sess, req.ID)}
	res, err := simulator.Run(m, req.Inputs, content)
	if err != nil {
		code := protocol.ErrInternal
		switch {
		case errors.Is(err, sim.ErrUnknownPort):
			code = protocol.ErrUnknownPort
		case errors.Is(err, sim.ErrLevelRange):
			code = protocol.ErrLevelRange
		}
		sess.send(protocol.NewError(req.ID, code, err.Error()))
		return
	}

	runID := indexdb.NewRunID()
	if s.cfg.Index != nil {
		s.cfg.Index.RecordSimulation(indexdb.SimulationRun{
			RunID:   runID,
			Model:   m.ModelName(),
			Inputs:  req.Inputs,
			Outputs: res.Outputs,
			At:      time.Now().UTC(),
		})
	}
	sess.send(protocol.SimResultMsg{
		Type:            protocol.TypeSimResult,
		ProtocolVersion: protocol.Version,
		ID:              req.ID,
		RunID:           runID,
		Outputs:         res.Outputs,
	})
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}
