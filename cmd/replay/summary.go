package main

import (
	"fmt"
	"io"

	"github.com/pthm-cable/hummingbird/telemetry"
)

// episodeSummary totals the frames of one recorded episode.
type episodeSummary struct {
	episode  int
	steps    int
	reward   float64
	nectar   float64
	finished bool
}

type recordingSummary struct {
	frames   int
	episodes []episodeSummary
}

func (s *recordingSummary) add(fr telemetry.Frame) {
	s.frames++
	if n := len(s.episodes); n == 0 || s.episodes[n-1].episode != fr.Episode {
		s.episodes = append(s.episodes, episodeSummary{episode: fr.Episode})
	}
	ep := &s.episodes[len(s.episodes)-1]
	ep.steps++
	ep.reward += fr.Reward
	ep.nectar = fr.Nectar
	ep.finished = ep.finished || fr.Done
}

func (s *recordingSummary) write(w io.Writer) {
	fmt.Fprintln(w, "episode\tsteps\treward\tnectar\tfinished")
	for _, ep := range s.episodes {
		fmt.Fprintf(w, "%d\t%d\t%.3f\t%.3f\t%v\n", ep.episode, ep.steps, ep.reward, ep.nectar, ep.finished)
	}
}

func writeSnapshot(w io.Writer, s *telemetry.Snapshot) {
	fmt.Fprintf(w, "snapshot v%d run %s seed %d: episode %d step %d\n", s.Version, s.RunID, s.RNGSeed, s.Episode, s.Step)
	if s.Bookmark != nil {
		fmt.Fprintf(w, "bookmark\t%s\t%s\n", s.Bookmark.Type, s.Bookmark.Description)
	}
	a := s.Agent
	fmt.Fprintf(w, "agent\t(%.3f, %.3f, %.3f)\tnectar %.3f\treward %.3f\ttarget %s\n",
		a.Position[0], a.Position[1], a.Position[2], a.NectarObtained, a.CumulativeReward, a.NearestFlower)
	fmt.Fprintln(w, "flower\tposition\tnectar")
	for _, f := range s.Flowers {
		fmt.Fprintf(w, "%s\t(%.3f, %.3f, %.3f)\t%.3f\n", f.Name, f.Position[0], f.Position[1], f.Position[2], f.NectarAmount)
	}
}

func writeFrames(w io.Writer, frames []telemetry.Frame, n int) {
	if n > len(frames) {
		n = len(frames)
	}
	fmt.Fprintln(w, "episode\tstep\treward\taction\tdone")
	for _, fr := range frames[:n] {
		fmt.Fprintf(w, "%d\t%d\t%.3f\t%+.2f\t%v\n", fr.Episode, fr.Step, fr.Reward, fr.Action, fr.Done)
	}
}
