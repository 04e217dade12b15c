// Package main provides the probkit CLI.
//
// Commands:
//
//	probkit version
//	probkit roundtrip [-batch N] [-channels C] [-size S] [-seed N]
//	probkit merge [-batch N] [-draws N]
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/born-ml/probkit/flows"
	"github.com/born-ml/probkit/sampledict"
	"github.com/born-ml/probkit/tensor"
	"github.com/pkg/errors"
)

const version = "v0.0.1-dev"

var (
	errUnknownCommand = errors.New("unknown command")
	errRoundTrip      = errors.New("inverse did not restore the input")
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "probkit: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, w io.Writer) error {
	if len(args) == 0 {
		usage(w)
		return nil
	}
	switch args[0] {
	case "version":
		fmt.Fprintf(w, "probkit %s\n", version)
		return nil
	case "roundtrip":
		return roundTrip(args[1:], w)
	case "merge":
		return merge(args[1:], w)
	default:
		usage(w)
		return errors.Wrapf(errUnknownCommand, "%q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "probkit %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version     Show version")
	fmt.Fprintln(w, "  roundtrip   Squeeze, shuffle and unsqueeze an image batch, then invert")
	fmt.Fprintln(w, "  merge       Merge a prior with Monte-Carlo draws under a deeper sample shape")
}

// roundTrip runs squeeze -> shuffle -> unsqueeze over counting values and
// checks that the inverse chain restores them.
func roundTrip(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("roundtrip", flag.ContinueOnError)
	fs.SetOutput(w)
	batch := fs.Int("batch", 2, "Batch size")
	channels := fs.Int("channels", 1, "Input channels")
	size := fs.Int("size", 4, "Image height and width (must be even)")
	seed := fs.Uint64("seed", 0, "Shuffle seed (0 = random)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	n := *batch * *channels * *size * *size
	x, err := tensor.Arange(1, float64(n+1)).Reshape(tensor.Shape{*batch, *channels, *size, *size})
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if *seed != 0 {
		rng = rand.New(rand.NewPCG(*seed, *seed))
	}
	shuffle, err := flows.NewShuffle(*channels*4, rng)
	if err != nil {
		return err
	}
	f := flows.NewChain(flows.NewSqueeze(), shuffle, flows.NewUnsqueeze())

	z, err := f.Forward(x)
	if err != nil {
		return err
	}
	back, err := f.Inverse(z)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "input:   %v\n", x.Shape())
	fmt.Fprintf(w, "shuffle: %v\n", shuffle.Indices())
	fmt.Fprintf(w, "output:  %v (log|det J| = %g)\n", z.Shape(), f.LogDetJacobian())
	if !back.Equal(x) {
		return errRoundTrip
	}
	fmt.Fprintln(w, "inverse restores input: true")
	return nil
}

// merge absorbs Monte-Carlo draws into a prior sampled without sampling
// dimensions and prints the merged shapes.
func merge(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	fs.SetOutput(w)
	batch := fs.Int("batch", 2, "Batch size")
	draws := fs.Int("draws", 3, "Monte-Carlo draws")
	if err := fs.Parse(args); err != nil {
		return err
	}

	prior, err := sampledict.FromEntries(nil,
		sampledict.Entry{Name: "z", Value: tensor.Zeros(tensor.Shape{*batch, 3})})
	if err != nil {
		return err
	}
	mc, err := sampledict.FromEntries(tensor.Shape{*draws},
		sampledict.Entry{Name: "x", Value: tensor.Zeros(tensor.Shape{*draws, *batch, 3})})
	if err != nil {
		return err
	}
	if err := prior.Update(mc); err != nil {
		return err
	}

	fmt.Fprintf(w, "sample shape: %v\n", prior.SampleShape())
	for name, v := range prior.All() {
		fmt.Fprintf(w, "%s: %v\n", name, v.Shape())
	}
	return nil
}
