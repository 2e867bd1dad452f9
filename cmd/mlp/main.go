package main

import (
	"flag"
	"fmt"
	"log"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cailib/nnlib/internal/loss"
	"github.com/cailib/nnlib/nnlib"
)

// Config holds the demo settings.
type Config struct {
	Arch      string
	Seed      uint64
	LR        float64
	Momentum  float64
	Steps     int
	Mutations int
	Sigma     float64
}

// MLP example: learns the OR gate with gradient steps, then tries to
// improve the result further by random weight mutation.
// The last input of every sample is a constant 1 standing in for a bias.
func main() {
	var cfg Config
	flag.StringVar(&cfg.Arch, "arch", "3-4-1", "layer widths, input first")
	flag.Uint64Var(&cfg.Seed, "seed", 42, "weight initialisation seed")
	flag.Float64Var(&cfg.LR, "lr", 0.5, "learning rate")
	flag.Float64Var(&cfg.Momentum, "momentum", 0, "momentum coefficient, 0 for plain SGD")
	flag.IntVar(&cfg.Steps, "steps", 2000, "passes over the training set")
	flag.IntVar(&cfg.Mutations, "mutations", 200, "random weight mutations to try after training")
	flag.Float64Var(&cfg.Sigma, "sigma", 0.05, "standard deviation of a mutation")
	flag.Parse()

	top, err := nnlib.ParseTopology(cfg.Arch)
	if err != nil {
		log.Fatal("Error parsing architecture:", err)
	}
	if top.Inputs != 3 || top.Outputs != 1 {
		log.Fatalf("Architecture %s must take 3 inputs and produce 1 output", top)
	}

	network, err := top.Build(nnlib.WithSeed(cfg.Seed))
	if err != nil {
		log.Fatal("Error building network:", err)
	}
	defer func() { network.Release() }()

	fmt.Println("=== OR gate ===")
	fmt.Printf("Network architecture: %s (%d weights)\n", top, network.ParamCount())

	optimizer := nnlib.SGD(cfg.LR)
	if cfg.Momentum > 0 {
		optimizer = nnlib.Momentum(cfg.LR, cfg.Momentum)
	}

	trainX := [][]float64{{0, 0, 1}, {0, 1, 1}, {1, 0, 1}, {1, 1, 1}}
	trainY := [][]float64{{0}, {1}, {1}, {1}}

	for step := 0; step < cfg.Steps; step++ {
		totalCost := 0.0
		for i := range trainX {
			cost, err := network.Train(trainX[i], trainY[i], optimizer)
			if err != nil {
				log.Fatal("Error training:", err)
			}
			totalCost += cost
		}
		if step%(cfg.Steps/5+1) == 0 {
			fmt.Printf("  Step %d, Cost: %.6f\n", step, totalCost/float64(len(trainX)))
		}
	}

	best := meanError(network, trainX, trainY)
	fmt.Printf("MSE after gradient steps: %.6f\n", best)

	noise := distuv.Normal{Mu: 0, Sigma: cfg.Sigma, Src: rand.NewSource(cfg.Seed + 1)}
	accepted := 0
	for i := 0; i < cfg.Mutations; i++ {
		candidate, err := network.Copy()
		if err != nil {
			log.Fatal("Error copying network:", err)
		}
		if _, err := candidate.TweakWeights(func(w float64) float64 { return w + noise.Rand() }); err != nil {
			log.Fatal("Error mutating network:", err)
		}

		if e := meanError(candidate, trainX, trainY); e < best {
			network.Release()
			network, best = candidate, e
			accepted++
		} else {
			candidate.Release()
		}
	}
	fmt.Printf("MSE after %d mutations (%d kept): %.6f\n", cfg.Mutations, accepted, best)

	fmt.Println("\nResults:")
	for i := range trainX {
		pred, err := network.FeedForward(trainX[i])
		if err != nil {
			log.Fatal("Error evaluating:", err)
		}
		fmt.Printf("  %v -> %.4f (target: %.0f)\n", trainX[i][:2], pred[0], trainY[i][0])
	}

	for li, w := range network.LayerWidths() {
		for j := 0; j < w; j++ {
			v, err := network.Value(li, j)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("  layer %d neuron %d: %.4f\n", li, j, v)
		}
	}
}

func meanError(n *nnlib.Network, X, Y [][]float64) float64 {
	var preds, targets []float64
	for i := range X {
		out, err := n.FeedForward(X[i])
		if err != nil {
			log.Fatal("Error evaluating:", err)
		}
		preds = append(preds, out...)
		targets = append(targets, Y[i]...)
	}
	return loss.MSE{}.Forward(preds, targets)
}
