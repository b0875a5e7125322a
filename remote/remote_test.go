package remote

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/hummingbird/agent"
	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/neural"
)

func newTestServer(t *testing.T, stepTimeout float64) (*Server, string) {
	t.Helper()
	srv := NewServer(config.RemoteConfig{StepTimeout: stepTimeout, HandshakeTimeout: 1}, Info{
		RunID: "run-test", DT: 0.02, MaxStep: 5000, Training: true,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

// handshake performs HELLO/WELCOME as a trainer would.
func handshake(t *testing.T, conn *websocket.Conn) WelcomeMsg {
	t.Helper()
	send(t, conn, HelloMsg{Type: TypeHello, ProtocolVersion: Version, Name: "test"})
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var w WelcomeMsg
	require.NoError(t, decodeAs(msg, TypeWelcome, &w))
	return w
}

func decision(step int) neural.Decision {
	return neural.Decision{
		Episode:     1,
		Step:        step,
		Observation: []float64{0, 0, 0, 1, 0, 0, 1, 0.5, -0.5, 0.2},
		Reward:      0.01,
	}
}

func TestWelcomeDescribesEnvironment(t *testing.T) {
	_, url := newTestServer(t, 1)
	w := handshake(t, dial(t, url))

	assert.Equal(t, Version, w.ProtocolVersion)
	assert.Equal(t, "run-test", w.RunID)
	assert.Equal(t, agent.ObservationSize, w.ObservationSize)
	assert.Equal(t, agent.ActionSize, w.ActionSize)
	assert.InDelta(t, 0.02, w.DT, 1e-12)
	assert.True(t, w.Training)
}

func TestActRoundTrip(t *testing.T) {
	srv, url := newTestServer(t, 2)
	conn := dial(t, url)
	handshake(t, conn)

	steps := make(chan StepMsg, 4)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				close(steps)
				return
			}
			var s StepMsg
			if decodeAs(msg, TypeStep, &s) != nil {
				continue
			}
			steps <- s
			if !s.Done {
				b, _ := json.Marshal(ActMsg{Type: TypeAct, Action: [5]float64{1, -1, 0.5, 0, 0.25}})
				_ = conn.WriteMessage(websocket.TextMessage, b)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p := srv.Policy()
	act, err := p.Act(ctx, decision(3))
	require.NoError(t, err)
	assert.Equal(t, agent.Action{1, -1, 0.5, 0, 0.25}, act)
	assert.True(t, p.Connected())

	s := <-steps
	assert.Equal(t, 3, s.Step)
	assert.False(t, s.Done)
	assert.Len(t, s.Observation, agent.ObservationSize)

	final := decision(4)
	final.Interrupted = true
	require.NoError(t, p.EndEpisode(ctx, final))
	s = <-steps
	assert.True(t, s.Done)
	assert.True(t, s.Interrupted)
}

func TestStepTimeoutDetachesTrainer(t *testing.T) {
	srv, url := newTestServer(t, 0.05)
	conn := dial(t, url)
	handshake(t, conn)

	p := srv.Policy()
	_, err := p.Act(context.Background(), decision(0))
	require.Error(t, err)
	assert.False(t, p.Connected())

	// Nothing attached, so there is nobody to notify.
	assert.NoError(t, p.EndEpisode(context.Background(), decision(1)))
}

func TestInvalidActionDetachesTrainer(t *testing.T) {
	srv, url := newTestServer(t, 2)
	conn := dial(t, url)
	handshake(t, conn)

	go func() {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		// too few components
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ACT","action":[0,0,0]}`))
	}()

	p := srv.Policy()
	_, err := p.Act(context.Background(), decision(0))
	require.Error(t, err)
	assert.False(t, p.Connected())
}

func TestActClampsOutOfRangeComponents(t *testing.T) {
	srv, url := newTestServer(t, 2)
	conn := dial(t, url)
	handshake(t, conn)

	go func() {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ACT","action":[2,-3,0.5,1,-1.5]}`))
	}()

	p := srv.Policy()
	act, err := p.Act(context.Background(), decision(0))
	require.NoError(t, err)
	assert.Equal(t, agent.Action{1, -1, 0.5, 1, -1}, act)
	assert.True(t, p.Connected())
}

func TestActWaitsForTrainerUntilCancelled(t *testing.T) {
	srv, _ := newTestServer(t, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := srv.Policy().Act(ctx, decision(0))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestActAfterServerClosed(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	srv.Close()
	_, err := srv.Policy().Act(context.Background(), decision(0))
	assert.ErrorIs(t, err, ErrServerClosed)
}

func TestHandshakeRejectsBadHello(t *testing.T) {
	tests := []struct {
		name  string
		hello string
	}{
		{"wrong type", `{"type":"ACT","action":[0,0,0,0,0]}`},
		{"wrong version", `{"type":"HELLO","protocol_version":"0.1"}`},
		{"extra field", `{"type":"HELLO","protocol_version":"1.0","token":"x"}`},
		{"not json", `hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, url := newTestServer(t, 1)
			conn := dial(t, url)
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.hello)))
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err := conn.ReadMessage()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		wantTyp string
		wantErr bool
	}{
		{"hello", `{"type":"HELLO","protocol_version":"1.0","name":"ppo"}`, TypeHello, false},
		{"act", `{"type":"ACT","action":[0.1,-0.2,1,-1,0]}`, TypeAct, false},
		{"act unbounded", `{"type":"ACT","action":[4,-2,0,0,0]}`, TypeAct, false},
		{"act short", `{"type":"ACT","action":[0,0,0]}`, TypeAct, true},
		{"step", `{"type":"STEP","episode":1,"step":0,"observation":[0,0,0,0,0,0,0,0,0,0],"reward":0,"done":false}`, TypeStep, false},
		{"step short obs", `{"type":"STEP","episode":1,"step":0,"observation":[0],"reward":0,"done":false}`, TypeStep, true},
		{"unknown", `{"type":"PING"}`, "PING", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := Validate([]byte(tt.msg))
			assert.Equal(t, tt.wantTyp, typ)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
