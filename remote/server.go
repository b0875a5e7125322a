package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/hummingbird/agent"
	"github.com/pthm-cable/hummingbird/config"
)

// ErrServerClosed is returned by a policy whose server has been closed.
var ErrServerClosed = errors.New("remote: server closed")

const writeTimeout = 5 * time.Second

// Info describes the environment to a connecting trainer.
type Info struct {
	RunID    string
	DT       float64
	MaxStep  int
	Training bool
}

// Server accepts trainer connections and hands them to its Policy one at a
// time. A trainer that connects while another is attached waits until the
// first disconnects.
type Server struct {
	info             Info
	listen           string
	stepTimeout      time.Duration
	handshakeTimeout time.Duration

	upgrader websocket.Upgrader
	sessions chan *session

	closeOnce sync.Once
	closed    chan struct{}
}

func NewServer(cfg config.RemoteConfig, info Info) *Server {
	return &Server{
		info:             info,
		listen:           cfg.Listen,
		stepTimeout:      seconds(cfg.StepTimeout, 30*time.Second),
		handshakeTimeout: seconds(cfg.HandshakeTimeout, 10*time.Second),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // trainers are not browsers
		},
		sessions: make(chan *session),
		closed:   make(chan struct{}),
	}
}

func seconds(s float64, fallback time.Duration) time.Duration {
	if s <= 0 {
		return fallback
	}
	return time.Duration(s * float64(time.Second))
}

// session is one connected trainer.
type session struct {
	conn *websocket.Conn
	name string

	once sync.Once
	done chan struct{}
}

func (s *session) close(code int, reason string) {
	s.once.Do(func() {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
		_ = s.conn.Close()
		close(s.done)
	})
}

// Handler upgrades trainer connections.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}

		sess, err := s.handshake(conn)
		if err != nil {
			slog.Warn("trainer handshake failed", "remote", r.RemoteAddr, "error", err)
			_ = conn.Close()
			return
		}

		select {
		case s.sessions <- sess:
		case <-s.closed:
			sess.close(websocket.CloseGoingAway, "server closed")
			return
		}

		select {
		case <-sess.done:
		case <-s.closed:
			sess.close(websocket.CloseGoingAway, "server closed")
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (*session, error) {
	_ = conn.SetReadDeadline(time.Now().Add(s.handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading hello: %w", err)
	}

	var hello HelloMsg
	if err := decodeAs(msg, TypeHello, &hello); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, "expected HELLO")
		return nil, err
	}
	if hello.ProtocolVersion != Version {
		closeWith(conn, websocket.ClosePolicyViolation, "bad protocol_version")
		return nil, fmt.Errorf("protocol version %q, want %q", hello.ProtocolVersion, Version)
	}
	_ = conn.SetReadDeadline(time.Time{})

	welcome := WelcomeMsg{
		Type:            TypeWelcome,
		ProtocolVersion: Version,
		RunID:           s.info.RunID,
		ObservationSize: agent.ObservationSize,
		ActionSize:      agent.ActionSize,
		DT:              s.info.DT,
		MaxStep:         s.info.MaxStep,
		Training:        s.info.Training,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil, fmt.Errorf("sending welcome: %w", err)
	}

	name := hello.Name
	if name == "" {
		name = "trainer"
	}
	return &session{conn: conn, name: name, done: make(chan struct{})}, nil
}

// ListenAndServe serves the trainer endpoint on /ws until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})

	hs := &http.Server{Addr: s.listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	slog.Info("trainer endpoint listening", "addr", s.listen, "run_id", s.info.RunID)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listening on %s: %w", s.listen, err)
	}
	return nil
}

// Close disconnects any trainer and stops accepting new ones.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// Policy returns the policy backed by this server's trainers.
func (s *Server) Policy() *Policy {
	return &Policy{srv: s}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
