package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/samuelfneumann/advantage/experiment"
	"github.com/samuelfneumann/advantage/experiment/checkpointer"
	"github.com/samuelfneumann/advantage/experiment/tracker"
	ts "github.com/samuelfneumann/advantage/timestep"
	"github.com/samuelfneumann/advantage/utils/progressbar"
)

// progressTracker displays experiment progress as a Tracker, advancing
// once per environment step
type progressTracker struct {
	bar *progressbar.ManualProgressBar
}

func (p progressTracker) Track(t ts.TimeStep) {
	if t.First() {
		return
	}
	p.bar.Increment()
	p.bar.Display()
}

func (p progressTracker) Save() error {
	p.bar.Close()
	return nil
}

func main() {
	configFile := flag.String("config", "config/chain.json",
		"experiment configuration file")
	outDir := flag.String("out", "runs", "directory to save runs in")
	checkpointEvery := flag.Int("checkpoint", 0,
		"save weights every n improvement steps, 0 to disable")
	flag.Parse()

	config, err := experiment.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp, err := config.CreateExp(ctx, nil)
	if err != nil {
		log.Fatalf("could not create experiment: %v", err)
	}

	// Each run saves its data in its own directory
	runDir := filepath.Join(*outDir, uuid.New().String())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		log.Fatalf("could not create run directory: %v", err)
	}
	log.Printf("saving data to %v", runDir)

	returnFile := filepath.Join(runDir, "return.bin")
	returns := tracker.NewReturn(returnFile)
	exp.Register(returns)
	exp.Register(tracker.NewEpisodeLength(filepath.Join(runDir,
		"length.bin")))
	exp.Register(progressTracker{
		progressbar.NewManualProgressBar(os.Stdout, 50, config.MaxSteps),
	})

	if *checkpointEvery > 0 {
		object, ok := exp.Approximator().(checkpointer.Serializable)
		if !ok {
			log.Fatalf("approximator %T cannot be checkpointed",
				exp.Approximator())
		}
		filename := checkpointer.FilenameEnumerator(0,
			filepath.Join(runDir, "weights"), ".bin")
		c, err := checkpointer.NewNStep(*checkpointEvery, object, filename)
		if err != nil {
			log.Fatal(err)
		}
		exp.AddCheckpointer(c)
	}

	runErr := exp.Run(ctx)
	if err := exp.Save(); err != nil {
		log.Fatalf("could not save data: %v", err)
	}
	if runErr != nil {
		log.Fatalf("experiment stopped: %v", runErr)
	}

	data, err := tracker.LoadData(returnFile)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Episodes: %v\n", len(data))
	fmt.Printf("Mean return (last 10 episodes): %.3f\n",
		returns.MeanReturn(10))
	fmt.Printf("Improvement steps: %v\n",
		exp.Objective().ImprovementSteps())
}
