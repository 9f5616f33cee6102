package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/opd-ai/atomgo/bridge"
	"github.com/opd-ai/atomgo/factory"
	"github.com/opd-ai/atomgo/interfaces"
	"github.com/opd-ai/atomgo/logging"
	simulation "github.com/opd-ai/atomgo/testing"
	"github.com/opd-ai/atomgo/trampoline"
	"github.com/spf13/cobra"
)

// SoakOptions holds flags for the soak command.
type SoakOptions struct {
	Invokes int
	Cycles  int
}

// SoakResult summarizes one soak run.
type SoakResult struct {
	Invocations     uint64 `json:"invocations"`
	Registrations   uint64 `json:"registrations"`
	Unregistrations uint64 `json:"unregistrations"`
	Unhandled       uint64 `json:"unhandled"`
	Torn            uint64 `json:"torn"`
	FinalHandler    int32  `json:"final_handler"`
}

// NewSoakCommand creates the soak command.
func NewSoakCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SoakOptions{}

	cmd := &cobra.Command{
		Use:   "soak",
		Short: "Replace a beat handler while the simulated server invokes it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSoak(rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.Invokes, "invokes", 1000, "server steps to run")
	cmd.Flags().IntVar(&opts.Cycles, "cycles", 10, "handler registrations spread over the run")
	return cmd
}

// Soak runs opts.Cycles unregister/register cycles of a beat handler from one
// goroutine while another steps the simulated server opts.Invokes times.
// Handler i is registered with context i; an invocation that sees any other
// context is counted as torn. Invocations already dispatched when a handler
// is unregistered return the neutral value and are counted as unhandled.
func Soak(opts *SoakOptions) (*SoakResult, error) {
	if opts.Invokes <= 0 || opts.Cycles <= 0 || opts.Cycles > opts.Invokes {
		return nil, fmt.Errorf("invalid soak size: %d invokes, %d cycles", opts.Invokes, opts.Cycles)
	}
	log := logging.New("main", "Soak")

	sim := simulation.NewSimulatedEngine(simulation.WithManualServer())
	if err := sim.Initialize(factory.TestConfig()); err != nil {
		return nil, err
	}
	defer sim.Finalize()

	cue := []byte("soak\x00")
	player := sim.CreatePlayer()
	if player == 0 || !sim.SetCueName(player, &cue[0]) || sim.StartPlayer(player) == interfaces.InvalidPlaybackID {
		return nil, errors.New("simulated engine refused to start playback")
	}

	slot := bridge.NewBeatSyncSlot("soak_beat_sync",
		trampoline.WithBinder(bridge.Binder(sim, bridge.KindBeatSync, 0)))
	defer slot.Close()

	var torn atomic.Uint64
	var last atomic.Int32
	handler := func(id int32) trampoline.Func[bridge.BeatSyncArgs, int32] {
		return func(ctx any, _ bridge.BeatSyncArgs) int32 {
			if got, ok := ctx.(int32); !ok || got != id {
				torn.Add(1)
			}
			last.Store(id)
			return id
		}
	}

	every := opts.Invokes / opts.Cycles
	ticks := make(chan struct{})
	var regErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int32(1); int(i) <= opts.Cycles; i++ {
			if i > 1 {
				<-ticks
				if err := slot.Unregister(); err != nil {
					regErr = err
					for range ticks {
					}
					return
				}
			}
			if err := slot.Register(handler(i), i); err != nil {
				regErr = err
				for range ticks {
				}
				return
			}
		}
		for range ticks {
		}
	}()

	for i := 1; i <= opts.Invokes; i++ {
		sim.ExecuteMain()
		if i%every == 0 {
			ticks <- struct{}{}
		}
	}
	close(ticks)
	wg.Wait()
	if regErr != nil {
		return nil, regErr
	}

	// One more step so the last registration is observed.
	sim.ExecuteMain()

	stats := slot.Stats()
	result := &SoakResult{
		Invocations:     stats.Invocations,
		Registrations:   stats.Registrations,
		Unregistrations: stats.Unregistrations,
		Unhandled:       stats.Unhandled,
		Torn:            torn.Load(),
		FinalHandler:    last.Load(),
	}
	log.WithField("invocations", result.Invocations).Debug("Soak finished")

	if result.Torn > 0 {
		return result, fmt.Errorf("%d invocations saw a mismatched handler and context", result.Torn)
	}
	if int(result.FinalHandler) != opts.Cycles {
		return result, fmt.Errorf("final handler %d, want %d", result.FinalHandler, opts.Cycles)
	}
	return result, nil
}

func runSoak(rootOpts *RootOptions, opts *SoakOptions, w io.Writer) error {
	result, err := Soak(opts)
	if result != nil {
		if rootOpts.Format == "json" {
			if jerr := json.NewEncoder(w).Encode(result); jerr != nil {
				return jerr
			}
		} else {
			fmt.Fprintf(w, "invocations:     %d\n", result.Invocations)
			fmt.Fprintf(w, "registrations:   %d\n", result.Registrations)
			fmt.Fprintf(w, "unregistrations: %d\n", result.Unregistrations)
			fmt.Fprintf(w, "unhandled:       %d\n", result.Unhandled)
			fmt.Fprintf(w, "torn:            %d\n", result.Torn)
			fmt.Fprintf(w, "final handler:   %d\n", result.FinalHandler)
		}
	}
	return err
}
