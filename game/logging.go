package game

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/hummingbird/systems"
)

// StatusText renders a short multi-line status for the terminal.
func (g *Game) StatusText() string {
	stats := g.agent.Stats()
	pos := g.agent.Position()
	pitch, yaw, _ := systems.EulerAngles(g.agent.Rotation())

	var b strings.Builder
	fmt.Fprintf(&b, "episode %d  step %d", stats.Episode, stats.Steps)
	if g.agent.Frozen() {
		b.WriteString("  [frozen]")
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "pos (%.2f, %.2f, %.2f)  pitch %.0f  yaw %.0f\n", pos.X(), pos.Y(), pos.Z(), pitch, yaw)
	fmt.Fprintf(&b, "nectar %.3f  reward %.3f  last %.3f\n", stats.NectarObtained, stats.CumulativeReward, g.lastReward)

	if f := g.agent.NearestFlower(); f != nil {
		d := f.Position().Sub(g.agent.BeakTipPosition()).Len()
		fmt.Fprintf(&b, "target %s  %.2fm  nectar %.2f\n", f.Name(), d, f.NectarAmount())
	} else {
		b.WriteString("target none\n")
	}
	fmt.Fprintf(&b, "area nectar %.2f  boundary hits %d", g.area.TotalNectar(), stats.BoundaryHits)
	return b.String()
}

// ActionText renders the last applied action.
func (g *Game) ActionText() string {
	a := g.lastAction
	return fmt.Sprintf("move (%+.2f, %+.2f, %+.2f) pitch %+.2f yaw %+.2f", a[0], a[1], a[2], a[3], a[4])
}

// ObservationText renders an observation vector on one line.
func ObservationText(obs []float64) string {
	parts := make([]string, len(obs))
	for i, v := range obs {
		parts[i] = fmt.Sprintf("%+.2f", v)
	}
	return "obs [" + strings.Join(parts, " ") + "]"
}
