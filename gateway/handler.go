package gateway

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/luma/lagoon/catalog"
	"github.com/luma/lagoon/protocol"
)

var le = binary.LittleEndian

type reply struct {
	code    protocol.Code
	payload []byte

	// statusChanged pushes the pool status to registered clients after the
	// reply is written.
	statusChanged bool
}

func (s *Server) handle(gc *gatewayConn, msg protocol.Message) {
	log := s.log.With(zap.Stringer("request", msg.Code), zap.Uint16("id", msg.ID))

	drop, errorCode := s.takeFault(msg.Code)
	if drop {
		log.Debug("Dropping request")
		return
	}

	r := reply{}
	if errorCode != 0 {
		r.code = errorCode
	} else {
		r = s.respond(gc, msg)
	}

	if !gc.conn.Write(protocol.Message{ID: msg.ID, Code: r.code, Payload: r.payload}) {
		log.Debug("Connection closed before reply")
		return
	}

	if r.statusChanged {
		if err := s.PushState(protocol.CodeStatusChanged); err != nil {
			log.Warn("Failed to push status change", zap.Error(err))
		}
	}
}

// takeFault counts the request and consumes one pending drop or error reply.
func (s *Server) takeFault(code protocol.Code) (drop bool, errorCode protocol.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests[code]++

	if s.faults.DropResponses > 0 {
		s.faults.DropResponses--
		return true, 0
	}

	if s.faults.ErrorReplies > 0 {
		s.faults.ErrorReplies--
		return false, s.faults.ErrorCode
	}

	return false, 0
}

func (s *Server) rejectLogin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.faults.RejectLogin
}

func (s *Server) respond(gc *gatewayConn, msg protocol.Message) reply {
	r := msg.Reader()

	switch msg.Code {
	case protocol.CodeLocalLogin:
		if s.rejectLogin() {
			return reply{code: protocol.CodeLoginRejected}
		}

	case protocol.CodeAddClient:
		r.Skip(4)
		clientID := r.Uint32(le)
		if r.Err() != nil {
			return reply{code: protocol.CodeBadParameter}
		}

		gc.register(clientID)

	case protocol.CodeRemoveClient:
		gc.unregister()

	case protocol.CodePumpStatus:
		r.Skip(4)
		index := int(r.Uint32(le))
		if r.Err() != nil || index >= catalog.NumPumps {
			return reply{code: protocol.CodeBadParameter}
		}

		return reply{code: msg.Code.Response(), payload: catalog.EncodePumpStatus(index, s.state)}

	case protocol.CodeButtonPress:
		r.Skip(4)
		circuitID := r.Uint32(le)
		on := r.Uint32(le) != 0

		return s.command(msg.Code, r, func(st *catalog.State) bool {
			c, ok := st.Circuits[circuitID]
			if ok {
				c.On = on
			}
			return ok
		})

	case protocol.CodeSetHeatSetpoint:
		r.Skip(4)
		body := int(r.Uint32(le))
		temp := int(r.Uint32(le))

		return s.command(msg.Code, r, func(st *catalog.State) bool {
			if body >= catalog.NumBodies {
				return false
			}

			lo, hi := st.SetpointRange(body)
			if temp < lo || temp > hi {
				return false
			}

			st.Bodies[body].HeatSetpoint = int32(temp)
			return true
		})

	case protocol.CodeSetHeatMode:
		r.Skip(4)
		body := int(r.Uint32(le))
		mode := int(r.Uint32(le))

		return s.command(msg.Code, r, func(st *catalog.State) bool {
			if body >= catalog.NumBodies || mode > catalog.HeatModeDontChange {
				return false
			}

			if mode != catalog.HeatModeDontChange {
				st.Bodies[body].HeatMode = int32(mode)
			}
			return true
		})

	case protocol.CodeSetSCGConfig:
		r.Skip(4)
		pool := r.Uint32(le)
		spa := r.Uint32(le)

		rep := s.command(msg.Code, r, func(st *catalog.State) bool {
			if pool > 100 || spa > 100 {
				return false
			}

			st.SCG.PoolPercent = pool
			st.SCG.SpaPercent = spa
			return true
		})
		rep.statusChanged = false

		return rep

	case protocol.CodeSetDateTime:
		t := r.DateTime()
		autoDST := r.Uint32(le) != 0

		rep := s.command(msg.Code, r, func(st *catalog.State) bool {
			st.Controller.DateTime = t
			st.Controller.AutoDST = autoDST
			return true
		})
		rep.statusChanged = false

		return rep
	}

	e, ok := catalog.Lookup(msg.Code)
	if !ok || e.Push {
		return reply{code: protocol.CodeInvalidRequest}
	}

	return reply{code: msg.Code.Response(), payload: catalog.Encode(e, s.state)}
}

// command applies a state change parsed from r. Unparseable requests and
// changes the state refuses are answered with BadParameter.
func (s *Server) command(code protocol.Code, r *protocol.Reader, apply func(*catalog.State) bool) reply {
	if r.Err() != nil {
		return reply{code: protocol.CodeBadParameter}
	}

	var applied bool
	_ = s.state.Apply(func(st *catalog.State) error {
		applied = apply(st)
		return nil
	})

	if !applied {
		return reply{code: protocol.CodeBadParameter}
	}

	return reply{code: code.Response(), statusChanged: true}
}
