package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/salis-alife/salis/pipe"
	"github.com/salis-alife/salis/salis"
	"github.com/salis-alife/salis/ui"
)

var (
	order    = flag.Uint("order", 16, "arena order, size = 1 << order")
	seed     = flag.Uint64("seed", 0, "mutation seed, 0 seeds from the clock")
	load     = flag.String("load", "", "snapshot file to resume from")
	save     = flag.String("save", "salis.snap", "snapshot file written by the viewer's F key and after a -cycles run; other exits do not save")
	cycles   = flag.Uint64("cycles", 0, "headless: run this many cycles and exit")
	console  = flag.Bool("console", false, "run the interactive console instead of the viewer")
	pipePath = flag.String("pipe", "", "named fifo for the common channel")
	width    = flag.Int("width", 512, "viewer width in pixels")
	height   = flag.Int("height", 256, "viewer height in pixels")
	batch    = flag.Int("batch", 256, "viewer cycles per frame")
	checks   = flag.Bool("checks", false, "run the per-cycle invariant scans")
)

func newSimulator() *salis.Salis {
	if *load != "" {
		sim, err := salis.LoadFile(*load)
		if err != nil {
			glog.Fatalf("could not resume: %v", err)
		}
		glog.Infof("resumed %s at cycle %d epoch %d", *load, sim.CycleCount(), sim.Epoch())
		return sim
	}
	if *seed != 0 {
		return salis.NewSeeded(uint32(*order), *seed)
	}
	return salis.New(uint32(*order))
}

func main() {
	flag.Parse()
	defer glog.Flush()

	salis.EnableChecks(*checks)
	sim := newSimulator()

	if *pipePath != "" {
		p, err := pipe.Open(*pipePath)
		if err != nil {
			glog.Fatalf("could not open pipe: %v", err)
		}
		defer p.Close()
		sim.SetSender(p.Sender())
		sim.SetReceiver(p.Receiver())
	}

	switch {
	case *cycles > 0:
		for i := uint64(0); i < *cycles; i++ {
			sim.Cycle()
		}
		glog.Infof("ran %d cycles: %d organisms, %d cells allocated",
			*cycles, sim.Procs().Count(), sim.Memory().Allocated())
		if err := sim.SaveFile(*save); err != nil {
			glog.Fatalf("could not save: %v", err)
		}
	case *console:
		runConsole(sim)
	default:
		ui.Start(sim, ui.Config{
			Width:          *width,
			Height:         *height,
			CyclesPerFrame: *batch,
			SnapshotPath:   *save,
		})
	}
}
