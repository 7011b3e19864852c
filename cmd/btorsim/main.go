// Command btorsim simulates a BTOR2 model, either by driving it with
// random input values or by replaying a previously recorded witness
// trace, in the spirit of the original btorsim's CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nrb-sim/btorsim/btorsimerr"
	"github.com/nrb-sim/btorsim/btorsimlog"
	"github.com/nrb-sim/btorsim/model"
	"github.com/nrb-sim/btorsim/rng"
	"github.com/nrb-sim/btorsim/sim"
	"github.com/nrb-sim/btorsim/state"
	"github.com/nrb-sim/btorsim/vcd"
	"github.com/nrb-sim/btorsim/witness"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err == flag.ErrHelp {
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, "btorsim: "+err.Error())
		os.Exit(1)
	}
}

type verbosity int

func (v *verbosity) String() string   { return fmt.Sprintf("%d", int(*v)) }
func (v *verbosity) Set(string) error { *v++; return nil }
func (v *verbosity) IsBoolFlag() bool { return true }

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("btorsim", flag.ContinueOnError)
	fs.Usage = func() { usage(fs) }

	check := fs.Bool("c", false, "require and check a witness trace (error if none given)")
	var verbose verbosity
	fs.Var(&verbose, "v", "increase verbosity (repeatable)")
	steps := fs.Int("r", 20, "number of steps to run in random simulation mode")
	seed := fs.Uint64("s", 0, "random seed for random simulation mode")
	fakeBad := fs.Int("b", -1, "fake simulation to satisfy bad state property 'b<n>'")
	fakeJustice := fs.Int("j", -1, "fake simulation to satisfy justice property 'j<n>'")
	printStates := fs.Bool("states", false, "print every state's value at every step")
	vcdPath := fs.String("vcd", "", "write a value-change-dump waveform to this file")
	hierarchical := fs.Bool("hierarchical-symbols", false, "split symbol names on '.' into nested scopes in the VCD output")
	infoPath := fs.String("info", "", "read clock/extra-bad declarations from this info file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(fs)
		return flag.ErrHelp
	}
	modelPath := rest[0]
	var witnessPath string
	if len(rest) > 1 {
		witnessPath = rest[1]
	}
	if *check && witnessPath == "" {
		return &btorsimerr.UsageError{Msg: "-c requires a witness file argument"}
	}
	if witnessPath != "" {
		if *fakeBad >= 0 {
			return &btorsimerr.UsageError{Msg: "can not fake bad state property in checking mode"}
		}
		if *fakeJustice >= 0 {
			return &btorsimerr.UsageError{Msg: "can not fake justice property in checking mode"}
		}
	}

	btorsimlog.SetVerbosity(int(verbose))

	modelFile, err := os.Open(modelPath)
	if err != nil {
		return err
	}
	defer modelFile.Close()

	m, err := model.Load(modelFile, modelPath)
	if err != nil {
		return err
	}
	if *fakeBad >= len(m.Bads) {
		return &btorsimerr.UsageError{Msg: fmt.Sprintf("invalid faked bad state property number %d", *fakeBad)}
	}
	if *fakeJustice >= len(m.Justices) {
		return &btorsimerr.UsageError{Msg: fmt.Sprintf("invalid faked justice property number %d", *fakeJustice)}
	}

	var writer *vcd.Writer
	if *vcdPath != "" {
		f, err := os.Create(*vcdPath)
		if err != nil {
			return err
		}
		defer f.Close()
		writer = vcd.New(f)
		writer.YosysFormat = *hierarchical
		for _, l := range m.Inputs {
			writer.Track(l)
		}
		for _, l := range m.States {
			writer.Track(l)
		}
		if *infoPath != "" {
			info, err := os.Open(*infoPath)
			if err != nil {
				return err
			}
			top, clocks, bads, err := vcd.ReadInfo(info)
			info.Close()
			if err != nil {
				return err
			}
			writer.TopName = top
			writer.Clocks = clocks
			writer.ExtraBads = bads
		}
		defer writer.Close()
	}

	if witnessPath != "" {
		return runWitnessCheck(m, witnessPath)
	}
	var emitter sim.Emitter
	if writer != nil {
		emitter = writer
	}
	return runRandomSimulation(m, *steps, *seed, emitter, *printStates, *fakeBad, *fakeJustice)
}

func runWitnessCheck(m *model.Model, witnessPath string) error {
	f, err := os.Open(witnessPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := witness.NewReader(f, witnessPath).ReadAll()
	if err != nil {
		return err
	}

	v := witness.NewValidator(m, w)
	if err := v.Run(); err != nil {
		return err
	}
	fmt.Println("sat")
	return nil
}

func runRandomSimulation(m *model.Model, steps int, seed uint64, emitter sim.Emitter, printStates bool, fakeBad, fakeJustice int) error {
	s := sim.New(m)
	if emitter != nil {
		s.Emitter = emitter
	}
	stream := rng.New(seed)
	s.UnboundValue = stream.NextValue

	switch {
	case fakeBad >= 0 && fakeJustice >= 0:
		fmt.Printf("sat\nb%d j%d\n", fakeBad, fakeJustice)
	case fakeBad >= 0:
		fmt.Printf("sat\nb%d\n", fakeBad)
	case fakeJustice >= 0:
		fmt.Printf("sat\nj%d\n", fakeJustice)
	}

	for k := int64(0); k < int64(steps); k++ {
		if err := s.Step(k, sim.RandomAssigner(stream)); err != nil {
			return err
		}
		if printStates {
			printStateValues(m, s, k)
		}
		if s.ConstraintViolatedAt >= 0 || s.AllBadsReached() {
			break
		}
	}
	return nil
}

func printStateValues(m *model.Model, s *sim.Simulator, k int64) {
	fmt.Printf("#%d\n", k)
	for i, st := range m.States {
		slot := s.Store.Get(st.ID)
		if !slot.IsValid() || slot.Kind != state.Bitvec {
			continue
		}
		fmt.Printf("%d %s %s\n", i, slot.Bit.String(), st.Symbol)
	}
}

func usage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, `
btorsim simulates a BTOR2 model, either randomly or by replaying a
witness trace produced by a model checker.

Usage:

	btorsim [flags] <model> [<witness>]
`[1:])
	fs.PrintDefaults()
}
