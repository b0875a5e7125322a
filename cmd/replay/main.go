// Package main reads step recordings and the run database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pthm-cable/hummingbird/storage"
	"github.com/pthm-cable/hummingbird/telemetry"
)

func main() {
	// CLI flags
	dbPath := flag.String("db", os.Getenv("HUMMINGBIRD_DB"), "SQLite run database")
	runID := flag.String("run", "", "List the episodes of this run (requires -db)")
	snapshotPath := flag.String("snapshot", "", "Print a snapshot file")
	frames := flag.Int("frames", 0, "Also print the first N frames of each recording")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: replay [-snapshot file] [-db runs.db [-run id]] [-frames n] [recording.jsonl.zst ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 && *dbPath == "" && *snapshotPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	out := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer out.Flush()

	if *snapshotPath != "" {
		snap, err := telemetry.LoadSnapshot(*snapshotPath)
		if err != nil {
			log.Fatalf("loading snapshot: %v", err)
		}
		writeSnapshot(out, snap)
	}

	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("opening recording: %v", err)
		}
		var sum recordingSummary
		err = telemetry.ScanRecording(f, func(fr telemetry.Frame) error {
			sum.add(fr)
			return nil
		})
		f.Close()
		if err != nil {
			log.Fatalf("reading %s: %v", path, err)
		}
		fmt.Fprintf(out, "%s: %d frames, %d episodes\n", path, sum.frames, len(sum.episodes))
		sum.write(out)

		if *frames > 0 {
			all, err := telemetry.ReadRecording(path)
			if err != nil {
				log.Fatalf("reading %s: %v", path, err)
			}
			writeFrames(out, all, *frames)
		}
	}

	if *dbPath == "" {
		return
	}
	ctx := context.Background()
	store := storage.NewSQLiteStore(*dbPath)
	if err := store.Init(ctx); err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer store.Close()

	if *runID != "" {
		episodes, err := store.ListEpisodes(ctx, *runID)
		if err != nil {
			log.Fatalf("listing episodes: %v", err)
		}
		fmt.Fprintln(out, "episode\tsteps\tnectar\treward\tfeeds\thits\tspawn\tinterrupted")
		for _, e := range episodes {
			fmt.Fprintf(out, "%d\t%d\t%.3f\t%.3f\t%d\t%d\t%s\t%v\n",
				e.Episode, e.Steps, e.NectarObtained, e.CumulativeReward, e.FeedEvents, e.BoundaryHits, e.Spawn, e.Interrupted)
		}
		return
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		log.Fatalf("listing runs: %v", err)
	}
	fmt.Fprintln(out, "run\tmode\tseed\ttraining\tstarted\tduration")
	for _, r := range runs {
		duration := "running"
		if !r.EndedAt.IsZero() {
			duration = r.EndedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(out, "%s\t%s\t%d\t%v\t%s\t%s\n",
			r.ID, r.Mode, r.Seed, r.Training, r.StartedAt.Format(time.RFC3339), duration)
	}
}
