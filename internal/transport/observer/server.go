// Package observer streams per-tick simulation summaries to read-only
// websocket clients.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"agentsim.dev/internal/observerproto"
	"agentsim.dev/internal/sim/kernel"
)

type session struct {
	out chan []byte

	mu      sync.Mutex
	results map[string]bool // nil means all
}

func (s *session) setFilter(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(names) == 0 {
		s.results = nil
		return
	}
	s.results = make(map[string]bool, len(names))
	for _, n := range names {
		s.results[n] = true
	}
}

func (s *session) filter() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// Server fans tick summaries out to subscribed observers. WriteTick is
// called synchronously from the simulation loop; everything the HTTP
// handlers read is mirrored into atomics, so handlers never touch live
// simulation state.
type Server struct {
	sim *kernel.Sim
	log *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	tick        atomic.Int64
	resultNames atomic.Value // []string

	mu       sync.Mutex
	sessions map[uint64]*session
}

func NewServer(sim *kernel.Sim, logger *log.Logger) *Server {
	s := &Server{
		sim:      sim,
		log:      logger,
		sessions: map[uint64]*session{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	s.tick.Store(-1)
	s.resultNames.Store([]string{})
	return s
}

// WriteTick implements the kernel's tick-sink contract. Runs on the
// simulation goroutine.
func (s *Server) WriteTick(entry kernel.TickLogEntry) error {
	vals := map[string]float64{}
	names := make([]string, 0)
	for _, r := range s.sim.Results.All() {
		names = append(names, r.Name)
		if entry.Tick < len(r.Values) {
			vals[r.Name] = r.Values[entry.Tick]
		}
	}
	s.tick.Store(int64(entry.Tick))
	s.resultNames.Store(names)

	base := observerproto.TickMsg{
		Type:            "TICK",
		ProtocolVersion: observerproto.Version,
		Tick:            entry.Tick,
		NAlive:          entry.NAlive,
		NewDeaths:       entry.NewDeaths,
		Digest:          entry.Digest,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		msg := base
		if f := sess.filter(); f == nil {
			msg.Results = vals
		} else {
			msg.Results = map[string]float64{}
			for n, v := range vals {
				if f[n] {
					msg.Results[n] = v
				}
			}
		}
		b, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		select {
		case sess.out <- b:
		default:
			// Slow observer; drop the frame rather than stall the sim.
		}
	}
	return nil
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		pars := s.sim.Pars
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			Label:           pars.Label,
			Tick:            int(s.tick.Load()),
			SimParams: observerproto.SimParams{
				NAgents:  pars.NAgents,
				NSteps:   pars.NPts,
				DT:       pars.DT,
				Seed:     pars.Seed,
				PopScale: pars.PopScale,
			},
			Results: s.resultNames.Load().([]string),
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := s.nextID.Add(1)
		sess := &session{out: make(chan []byte, 64)}
		sess.setFilter(sub.Results)

		s.mu.Lock()
		s.sessions[sid] = sess
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.sessions, sid)
			s.mu.Unlock()
		}()

		if s.log != nil {
			s.log.Printf("observer O%d subscribed from %s", sid, r.RemoteAddr)
		}

		done := make(chan struct{})
		defer close(done)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-done:
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var upd observerproto.SubscribeMsg
			if err := json.Unmarshal(msg, &upd); err != nil {
				continue
			}
			if upd.Type != "SUBSCRIBE" || upd.ProtocolVersion != observerproto.Version {
				continue
			}
			sess.setFilter(upd.Results)
		}

		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
	}
}

// SessionCount reports the number of connected observers.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
