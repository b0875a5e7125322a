package input

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jroimartin/gocui"
)

const (
	statusView = "status"
	logView    = "log"
	helpView   = "help"

	helpPanelSize = 3
	maxLogLines   = 50
)

// Bindings maps terminal keys to heuristic keys. Letters are bound in both
// cases.
var Bindings = []struct {
	Key   any
	State KeyState
}{
	{'w', KeyW}, {'W', KeyW},
	{'s', KeyS}, {'S', KeyS},
	{'a', KeyA}, {'A', KeyA},
	{'d', KeyD}, {'D', KeyD},
	{'e', KeyE}, {'E', KeyE},
	{'q', KeyQ}, {'Q', KeyQ},
	{gocui.KeyArrowUp, KeyUp},
	{gocui.KeyArrowDown, KeyDown},
	{gocui.KeyArrowLeft, KeyLeft},
	{gocui.KeyArrowRight, KeyRight},
}

const helpText = "W/S forward/back  A/D left/right  E/Q up/down  arrows pitch/yaw  P pause  Ctrl-C quit"

// Terminal is the play-mode console. Key presses feed a Latch; the game
// pushes status text and log lines.
type Terminal struct {
	g     *gocui.Gui
	latch *Latch

	mu    sync.Mutex
	lines []string

	paused atomic.Bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewTerminal takes over the terminal.
func NewTerminal(latch *Latch) (*Terminal, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, fmt.Errorf("creating terminal ui: %w", err)
	}

	t := &Terminal{g: g, latch: latch, done: make(chan struct{})}
	g.SetManagerFunc(layout)

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		g.Close()
		return nil, err
	}
	for _, key := range []rune{'p', 'P'} {
		if err := g.SetKeybinding("", key, gocui.ModNone, t.togglePause); err != nil {
			g.Close()
			return nil, err
		}
	}
	for _, b := range Bindings {
		if err := g.SetKeybinding("", b.Key, gocui.ModNone, PressHandler(latch, b.State)); err != nil {
			g.Close()
			return nil, fmt.Errorf("binding %v: %w", b.Key, err)
		}
	}
	return t, nil
}

// PressHandler returns a key handler that presses key on the latch.
func PressHandler(latch *Latch, key KeyState) func(*gocui.Gui, *gocui.View) error {
	return func(*gocui.Gui, *gocui.View) error {
		latch.Press(key)
		return nil
	}
}

// Run blocks in the UI loop until Ctrl-C, then restores the terminal.
func (t *Terminal) Run() error {
	defer t.Close()
	if err := t.g.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		return err
	}
	return nil
}

func (t *Terminal) togglePause(*gocui.Gui, *gocui.View) error {
	t.paused.Store(!t.paused.Load())
	return nil
}

// Paused reports whether the player has paused the agent.
func (t *Terminal) Paused() bool { return t.paused.Load() }

// Done is closed when the UI loop exits.
func (t *Terminal) Done() <-chan struct{} { return t.done }

// State returns the held keys.
func (t *Terminal) State() KeyState { return t.latch.State() }

// SetStatus replaces the status panel.
func (t *Terminal) SetStatus(text string) {
	t.g.Update(func(g *gocui.Gui) error {
		v, err := g.View(statusView)
		if err != nil {
			return nil
		}
		v.Clear()
		fmt.Fprint(v, text)
		return nil
	})
}

// Log prepends a line to the log panel.
func (t *Terminal) Log(msg string) {
	t.mu.Lock()
	t.lines = PrependLine(t.lines, msg, maxLogLines)
	text := strings.Join(t.lines, "\n")
	t.mu.Unlock()

	t.g.Update(func(g *gocui.Gui) error {
		v, err := g.View(logView)
		if err != nil {
			return nil
		}
		v.Clear()
		fmt.Fprintln(v, text)
		return nil
	})
}

// Quit asks the UI loop to exit.
func (t *Terminal) Quit() {
	t.g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
}

// Close restores the terminal. Safe to call more than once.
func (t *Terminal) Close() {
	t.closeOnce.Do(func() {
		t.g.Close()
		close(t.done)
	})
}

// PrependLine puts line first and keeps at most max lines.
func PrependLine(lines []string, line string, max int) []string {
	out := append([]string{line}, lines...)
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	split := maxX / 2

	if v, err := g.SetView(statusView, 0, 0, split-1, maxY-helpPanelSize-1); err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		v.Title = "hummingbird"
	}
	if v, err := g.SetView(logView, split, 0, maxX-1, maxY-helpPanelSize-1); err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		v.Title = "events"
		v.Wrap = true
	}
	if v, err := g.SetView(helpView, 0, maxY-helpPanelSize, maxX-1, maxY-1); err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		fmt.Fprint(v, helpText)
	}
	return nil
}

func quit(*gocui.Gui, *gocui.View) error {
	return gocui.ErrQuit
}
