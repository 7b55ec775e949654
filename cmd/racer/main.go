// Command racer drives the environments from the terminal: play runs
// the racing environment in a window under manual keyboard control,
// and rollout runs either variant headless under a random policy.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/pixel/pixelgl"
	"github.com/samuelfneumann/progressbar"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	env "github.com/samuelfneumann/goracer/environment"
	"github.com/samuelfneumann/goracer/environment/envconfig"
	"github.com/samuelfneumann/goracer/environment/racing"
)

var (
	frameWidth  int
	frameHeight int
	trackFile   string
	trackCache  bool
	trackSave   bool
	seed        uint64

	steps    int
	baseline bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "racer",
		Short: "Racer simulates 2D driving tasks for RL training",
	}
	rootCmd.PersistentFlags().IntVar(&frameWidth, "frame-width", 84,
		"width of the observation crop")
	rootCmd.PersistentFlags().IntVar(&frameHeight, "frame-height", 84,
		"height of the observation crop")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 192382,
		"seed for track generation and start states")

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Drive the racing environment manually in a window",
		RunE:  play,
	}
	playCmd.Flags().StringVar(&trackFile, "track", "",
		"track file to load or save")
	playCmd.Flags().BoolVar(&trackCache, "track-cache", true,
		"reuse the track file when it exists")
	playCmd.Flags().BoolVar(&trackSave, "track-save", false,
		"save freshly generated track geometry")

	rolloutCmd := &cobra.Command{
		Use:   "rollout",
		Short: "Run a headless rollout under a random policy",
		RunE:  rollout,
	}
	rolloutCmd.Flags().IntVar(&steps, "steps", 10_000,
		"number of environment steps to run")
	rolloutCmd.Flags().BoolVar(&baseline, "baseline", false,
		"run the benchmark cart-pole variant instead of racing")
	rolloutCmd.Flags().StringVar(&trackFile, "track", "",
		"track file to load or save")
	rolloutCmd.Flags().BoolVar(&trackCache, "track-cache", true,
		"reuse the track file when it exists")
	rolloutCmd.Flags().BoolVar(&trackSave, "track-save", false,
		"save freshly generated track geometry")

	rootCmd.AddCommand(playCmd, rolloutCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// play opens a window and hands the loop to the windowing subsystem,
// which requires the main thread
func play(cmd *cobra.Command, args []string) error {
	var runErr error
	pixelgl.Run(func() {
		runErr = runPlay()
	})
	return runErr
}

func runPlay() error {
	e, err := racing.New(frameWidth, frameHeight, false, false, trackFile,
		trackCache, trackSave, seed)
	if err != nil {
		return err
	}
	defer e.Release()

	for !e.Exit() {
		if _, _, err := e.Step(env.NoAction, true); err != nil {
			return err
		}

		if _, err := e.State(false, true); err != nil {
			return err
		}

		if e.Done() {
			if err := e.Reset(false, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// rollout runs a headless environment under a uniform random policy,
// resetting whenever an episode ends
func rollout(cmd *cobra.Command, args []string) error {
	name := envconfig.Racing
	if baseline {
		name = envconfig.Baseline
	}

	config := envconfig.NewConfig(name, frameWidth, frameHeight, true, true,
		trackFile, trackCache, trackSave)

	e, err := config.Create(seed)
	if err != nil {
		return err
	}
	defer e.Release()

	spaceMax := int(e.ActionSpec().UpperBound.AtVec(0))
	rng := rand.New(rand.NewSource(seed))

	pbar := progressbar.NewProgressBar(65, steps, time.Second, false)
	pbar.Display()
	defer pbar.Close()

	episodes := 1
	for i := 0; i < steps; i++ {
		action := env.Action(rng.Intn(spaceMax + 1))

		if _, _, err := e.Step(action, false); err != nil {
			return err
		}

		if _, err := e.State(true, name == envconfig.Racing); err != nil {
			return err
		}

		if e.Done() {
			if err := e.Reset(true, false); err != nil {
				return err
			}
			episodes++
		}

		pbar.Increment()
	}

	fmt.Printf("\nran %d steps over %d episodes\n", steps, episodes)
	return nil
}
