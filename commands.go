package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/game"
	"github.com/pthm-cable/hummingbird/input"
	"github.com/pthm-cable/hummingbird/neural"
	"github.com/pthm-cable/hummingbird/remote"
	"github.com/pthm-cable/hummingbird/telemetry"
)

func runCmd(rf *rootFlags) *cobra.Command {
	var (
		weights     string
		saveWeights string
		random      bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run episodes headless with a local policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			useJSONLogs()
			ctx, cancel := signalContext()
			defer cancel()

			opts := rf.options(game.ModeRun, trainingMode(cmd, config.Cfg()))
			g, err := game.New(ctx, config.Cfg(), opts)
			if err != nil {
				return err
			}
			defer g.Close()

			policyRNG := rand.New(rand.NewSource(opts.Seed + 1))
			switch {
			case random:
				g.SetPolicy(neural.NewRandomPolicy(policyRNG))
			case weights != "":
				nn, err := neural.LoadFFNN(weights)
				if err != nil {
					return err
				}
				g.SetPolicy(neural.NewFFNNPolicy(nn))
			default:
				nn := neural.NewFFNN(policyRNG)
				if saveWeights != "" {
					if err := nn.SaveWeights(saveWeights); err != nil {
						return err
					}
				}
				g.SetPolicy(neural.NewFFNNPolicy(nn))
			}

			slog.Info("starting headless run",
				"run_id", g.RunID(),
				"seed", opts.Seed,
				"max_episodes", opts.MaxEpisodes,
			)
			return g.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&weights, "weights", "", "Network weights JSON file")
	cmd.Flags().StringVar(&saveWeights, "save-weights", "", "Write the freshly initialized network here")
	cmd.Flags().BoolVar(&random, "random", false, "Use a uniform random policy")
	cmd.Flags().Bool("training", false, "Training mode: flower reset, step limit, rewards (default from training.enabled)")
	return cmd
}

func serveCmd(rf *rootFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the environment to a remote trainer over WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			useJSONLogs()
			ctx, cancel := signalContext()
			defer cancel()

			cfg := config.Cfg()
			rc := cfg.Remote
			if listen != "" {
				rc.Listen = listen
			}

			opts := rf.options(game.ModeServe, trainingMode(cmd, config.Cfg()))
			opts.ContinueOnPolicyError = true
			g, err := game.New(ctx, cfg, opts)
			if err != nil {
				return err
			}
			defer g.Close()

			srv := remote.NewServer(rc, remote.Info{
				RunID:    g.RunID(),
				DT:       cfg.Physics.DT,
				MaxStep:  g.Agent().MaxStep(),
				Training: opts.Training,
			})
			policy := srv.Policy()
			defer policy.Close()
			g.SetPolicy(policy)

			srvErr := make(chan error, 1)
			go func() { srvErr <- srv.ListenAndServe(ctx) }()
			runErr := make(chan error, 1)
			go func() { runErr <- g.Run(ctx) }()

			select {
			case err := <-srvErr:
				cancel()
				<-runErr
				return err
			case err := <-runErr:
				cancel()
				srv.Close()
				return errors.Join(err, <-srvErr)
			}
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides remote.listen)")
	cmd.Flags().Bool("training", false, "Training mode: flower reset, step limit, rewards (default from training.enabled)")
	return cmd
}

func playCmd(rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Fly the hummingbird from the keyboard",
		RunE: func(*cobra.Command, []string) error {
			cfg := config.Cfg()
			latch := input.NewLatch(cfg.Input.KeyHold)
			term, err := input.NewTerminal(latch)
			if err != nil {
				return err
			}
			defer term.Close()
			slog.SetDefault(slog.New(slog.NewTextHandler(terminalWriter{term}, nil)))

			ctx, cancel := signalContext()
			defer cancel()

			opts := rf.options(game.ModePlay, false)
			opts.Realtime = true
			g, err := game.New(ctx, cfg, opts)
			if err != nil {
				return err
			}
			defer g.Close()
			g.SetPolicy(neural.NewHeuristicPolicy(g.Agent(), term))

			g.OnStep = func(res game.StepResult) {
				latch.Advance(cfg.Physics.DT)
				if term.Paused() != g.Agent().Frozen() {
					if term.Paused() {
						g.Freeze()
					} else {
						g.Unfreeze()
					}
				}
				term.SetStatus(g.StatusText() + "\n" + g.ActionText() + "\n" + game.ObservationText(res.Observation))
			}
			g.OnEpisode = func(r telemetry.EpisodeRecord) {
				term.Log(fmt.Sprintf("episode %d: nectar %.3f in %d steps", r.Episode, r.NectarObtained, r.Steps))
			}

			runErr := make(chan error, 1)
			go func() {
				runErr <- g.Run(stopWith(ctx, term.Done()))
				term.Quit()
			}()

			termErr := term.Run()
			cancel()
			return errors.Join(termErr, <-runErr)
		},
	}
}

// trainingMode returns --training when given, otherwise training.enabled.
func trainingMode(cmd *cobra.Command, cfg *config.Config) bool {
	if cmd.Flags().Changed("training") {
		training, err := cmd.Flags().GetBool("training")
		if err == nil {
			return training
		}
	}
	return cfg.Training.Enabled
}

// stopWith returns a context that is also cancelled when done closes.
func stopWith(ctx context.Context, done <-chan struct{}) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		select {
		case <-done:
		case <-ctx.Done():
		}
	}()
	return ctx
}

// terminalWriter sends log output to the terminal's log panel.
type terminalWriter struct {
	term *input.Terminal
}

func (w terminalWriter) Write(p []byte) (int, error) {
	w.term.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
