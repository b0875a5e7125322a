package remote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/hummingbird/agent"
	"github.com/pthm-cable/hummingbird/neural"
	"github.com/pthm-cable/hummingbird/systems"
)

// Policy forwards decisions to the connected trainer. Act waits for a
// trainer if none is attached. Any transport or protocol error detaches the
// trainer; the next Act waits for a new one.
type Policy struct {
	srv  *Server
	sess *session
}

var _ neural.Policy = (*Policy)(nil)

// Act sends a STEP and blocks until the trainer replies with an ACT, the
// step timeout passes or ctx is cancelled.
func (p *Policy) Act(ctx context.Context, d neural.Decision) (agent.Action, error) {
	if err := p.attach(ctx); err != nil {
		return agent.Action{}, err
	}

	if err := writeJSON(p.sess.conn, stepMsg(d, false)); err != nil {
		p.drop(websocket.CloseInternalServerErr, "write failed")
		return agent.Action{}, fmt.Errorf("sending step: %w", err)
	}

	msg, err := p.read(ctx)
	if err != nil {
		p.drop(websocket.CloseGoingAway, "no action")
		return agent.Action{}, fmt.Errorf("waiting for action: %w", err)
	}

	var act ActMsg
	if err := decodeAs(msg, TypeAct, &act); err != nil {
		p.drop(websocket.ClosePolicyViolation, "expected ACT")
		return agent.Action{}, err
	}
	return clampAction(act.Action), nil
}

// clampAction limits every component to [-1, 1].
func clampAction(raw [agent.ActionSize]float64) agent.Action {
	var a agent.Action
	for i, v := range raw {
		a[i] = systems.Clamp(v, -1, 1)
	}
	return a
}

// EndEpisode sends the terminal STEP. Without an attached trainer there is
// nobody to tell and it returns nil.
func (p *Policy) EndEpisode(_ context.Context, d neural.Decision) error {
	if !p.attached() {
		return nil
	}
	if err := writeJSON(p.sess.conn, stepMsg(d, true)); err != nil {
		p.drop(websocket.CloseInternalServerErr, "write failed")
		return fmt.Errorf("sending final step: %w", err)
	}
	return nil
}

// Connected reports whether a trainer is attached.
func (p *Policy) Connected() bool { return p.attached() }

// Close detaches the current trainer.
func (p *Policy) Close() {
	if p.attached() {
		p.drop(websocket.CloseNormalClosure, "done")
	}
}

func stepMsg(d neural.Decision, done bool) StepMsg {
	return StepMsg{
		Type:        TypeStep,
		Episode:     d.Episode,
		Step:        d.Step,
		Observation: d.Observation,
		Reward:      d.Reward,
		Done:        done,
		Interrupted: done && d.Interrupted,
	}
}

func (p *Policy) attached() bool {
	if p.sess == nil {
		return false
	}
	select {
	case <-p.sess.done:
		p.sess = nil
		return false
	default:
		return true
	}
}

func (p *Policy) attach(ctx context.Context) error {
	if p.attached() {
		return nil
	}

	slog.Info("waiting for trainer")
	select {
	case sess := <-p.srv.sessions:
		p.sess = sess
		slog.Info("trainer attached", "name", sess.name)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.srv.closed:
		return ErrServerClosed
	}
}

func (p *Policy) drop(code int, reason string) {
	slog.Warn("trainer detached", "name", p.sess.name, "reason", reason)
	p.sess.close(code, reason)
	p.sess = nil
}

// read waits for the next message within the step timeout. Cancelling ctx
// closes the connection to unblock the reader.
func (p *Policy) read(ctx context.Context) ([]byte, error) {
	conn := p.sess.conn
	_ = conn.SetReadDeadline(time.Now().Add(p.srv.stepTimeout))

	type result struct {
		msg []byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		ch <- result{msg, err}
	}()

	select {
	case r := <-ch:
		return r.msg, r.err
	case <-ctx.Done():
		_ = conn.Close()
		<-ch
		return nil, ctx.Err()
	case <-p.sess.done:
		<-ch
		return nil, ErrServerClosed
	}
}
