// Package stream serves the per-tick frame feed over websockets and
// accepts run-control commands from connected renderers.
//
// All simulation access is serialized through the server's loop
// goroutine: reader goroutines forward decoded commands into a channel,
// the loop applies them to the driver between step-ticker beats, and
// every connection write happens on the loop goroutine. The clients map
// is the only state shared with connection goroutines and is guarded by
// the embedded mutex.
package stream

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/san-kum/fricsim/internal/driver"
	"github.com/san-kum/fricsim/internal/surface"
)

// defaultStepDuration is the wall-clock cadence of the tick loop: one
// simulation step of the configured dt per beat.
const defaultStepDuration = time.Second / 60

type client struct {
	conn *websocket.Conn
}

// inbound is one message handed to the loop. A nil cmd marks a fresh
// connection that needs its greeting snapshot.
type inbound struct {
	c   *client
	cmd *Command
}

// Server broadcasts frames to every connected client and applies their
// run-control commands to a single driver.
type Server struct {
	sync.RWMutex
	log      *log.Logger
	drv      *driver.Driver
	clients  map[*client]struct{}
	ch       chan inbound
	done     chan struct{}
	upgrader websocket.Upgrader
	running  bool

	// announced marks that the current run's results event went out.
	// Only the loop goroutine touches it.
	announced bool
}

// NewServer wraps drv for websocket control. The caller starts Loop in
// its own goroutine and closes the server when done. A nil logger
// silences the server.
func NewServer(drv *driver.Driver, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		log:     logger,
		drv:     drv,
		clients: make(map[*client]struct{}),
		ch:      make(chan inbound),
		done:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		running: true,
	}
}

// ServeHTTP upgrades the connection, registers the client, and starts its
// reader. The greeting snapshot is routed through the loop so this
// goroutine never writes to the socket.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn}

	s.Lock()
	if !s.running {
		s.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.Unlock()
	s.log.Info("client connected", "clients", n)

	select {
	case s.ch <- inbound{c: c}:
	case <-s.done:
		conn.Close()
		return
	}

	go s.reader(c)
}

func (s *Server) reader(c *client) {
	defer s.disconnect(c)
	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			return
		}
		select {
		case s.ch <- inbound{c: c, cmd: &cmd}:
		case <-s.done:
			return
		}
	}
}

func (s *Server) disconnect(c *client) {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.clients[c]; ok {
		c.conn.Close()
		delete(s.clients, c)
		s.log.Info("client disconnected", "clients", len(s.clients))
	}
}

// Loop is the command-and-step cycle. It runs until Close.
func (s *Server) Loop() {
	ticker := time.NewTicker(defaultStepDuration)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case in := <-s.ch:
			s.handle(in)
		case <-ticker.C:
			s.step()
		}
	}
}

func (s *Server) handle(in inbound) {
	if in.cmd == nil {
		f := s.drv.Frame()
		s.send(in.c, Event{Type: "frame", Frame: &f})
		return
	}

	cmd := *in.cmd
	var err error
	switch cmd.Type {
	case "configure":
		if cmd.Params == nil {
			err = fmt.Errorf("stream: configure without params")
			break
		}
		if err = s.drv.Configure(cmd.Params); err == nil {
			s.announced = false
		}
	case "start":
		if err = s.drv.Start(); err == nil {
			s.announced = false
		}
	case "reset":
		s.drv.Reset()
		s.announced = false
		f := s.drv.Frame()
		s.broadcast(Event{Type: "frame", Frame: &f})
	case "adjust":
		err = s.drv.AdjustFriction(surface.Kind(cmd.Surface), cmd.Value)
	default:
		err = fmt.Errorf("stream: unknown command %q", cmd.Type)
	}
	if err != nil {
		s.log.Warn("command rejected", "type", cmd.Type, "err", err)
		s.send(in.c, Event{Type: "error", Error: err.Error()})
	}
}

// step advances the run by one dt and broadcasts the frame. The results
// event goes out exactly once per run, when the field completes or stalls
// for good; a stalled run stops stepping until a command revives it.
func (s *Server) step() {
	if s.announced || !s.drv.InProgress() {
		return
	}
	p := s.drv.Params()
	f, err := s.drv.Tick(p.Dt)
	if err != nil {
		s.log.Error("tick failed", "err", err)
		return
	}
	s.broadcast(Event{Type: "frame", Frame: &f})

	if s.drv.Complete() || s.drv.Stalled() {
		s.announced = true
		s.broadcast(Event{Type: "results", Results: s.drv.Results()})
	}
}

func (s *Server) send(c *client, ev Event) {
	if err := c.conn.WriteJSON(ev); err != nil {
		s.disconnect(c)
	}
}

func (s *Server) broadcast(ev Event) {
	s.RLock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.RUnlock()
	for _, c := range targets {
		s.send(c, ev)
	}
}

// Close stops the loop and drops every client. Safe to call more than
// once.
func (s *Server) Close() {
	s.Lock()
	defer s.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.done)
	for c := range s.clients {
		c.conn.Close()
	}
	s.clients = make(map[*client]struct{})
}
