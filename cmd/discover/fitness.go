package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/lenia/config"
	"github.com/pthm-cable/lenia/engine"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxFrames  int
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	lastQuality float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxFrames int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxFrames:  maxFrames,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Extinction thresholds: the run ends when the population stays below the
// minimum for the grace period after warmup.
const (
	minViablePop    = 2
	graceFrames     = 300
	warmupFrames    = 200
	seedBlobCount   = 12
	seedBlobRadius  = 6.0
	seedBlobMass    = 40.0
	sampleEvery     = 60 // frames between quality samples
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalFrames int
	populations    []float64
	predFractions  []float64
	drifts         []float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative survival frames scaled by ecosystem quality.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		q := fe.computeQuality(r)
		totalFitness += -(float64(r.survivalFrames) * (1.0 + 0.2*q))
		totalQuality += q
	}

	n := float64(len(fe.seeds))
	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()
	return totalFitness / n
}

// runSimulation executes one headless run until extinction or the frame cap.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Grid.Seed = seed
	cfg.Telemetry.OutputDir = ""
	cfg.Telemetry.StorePath = ""

	// Evaluations are silent; the search loop reports progress.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	eng, err := engine.New(cfg, quiet)
	if err != nil {
		return &runResult{}
	}
	defer eng.Close()
	eng.SeedRandom(seedBlobCount, seedBlobRadius, seedBlobMass)

	result := &runResult{}
	var belowFrames int
	for frame := 1; frame <= fe.maxFrames; frame++ {
		if err := eng.Step(); err != nil {
			break
		}

		if frame%sampleEvery == 0 {
			roster := eng.Tracker.Creatures()
			var preds int
			for _, cr := range roster {
				if cr.Genome.IsPredator {
					preds++
				}
			}
			result.populations = append(result.populations, float64(len(roster)))
			if len(roster) > 0 {
				result.predFractions = append(result.predFractions, float64(preds)/float64(len(roster)))
			}
			result.drifts = append(result.drifts, math.Abs(eng.LastDrift()))
		}

		if frame < warmupFrames {
			continue
		}
		if len(eng.Tracker.Creatures()) < minViablePop {
			belowFrames++
			if belowFrames >= graceFrames {
				result.survivalFrames = frame
				return result
			}
		} else {
			belowFrames = 0
		}
	}
	result.survivalFrames = fe.maxFrames
	return result
}

// copyConfig creates an independent copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// Quality component weights.
const (
	qualityWeightStability = 0.4
	qualityWeightGuilds    = 0.3
	qualityWeightDrift     = 0.3
)

// computeQuality scores a run in [0, 1]: stable population, a predator
// minority around 15%, and negligible mass drift.
func (fe *FitnessEvaluator) computeQuality(r *runResult) float64 {
	if len(r.populations) < 2 {
		return 0
	}

	stability := math.Exp(-math.Pow(cv(r.populations), 2))

	var guilds float64
	if len(r.predFractions) > 0 {
		var sum float64
		for _, f := range r.predFractions {
			sum += math.Exp(-math.Pow((f-0.15)/0.10, 2))
		}
		guilds = sum / float64(len(r.predFractions))
	}

	var worstDrift float64
	for _, d := range r.drifts {
		if d > worstDrift {
			worstDrift = d
		}
	}
	drift := math.Exp(-worstDrift / 0.001)

	q := qualityWeightStability*stability + qualityWeightGuilds*guilds + qualityWeightDrift*drift
	return clamp01(q)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}
	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff/n) / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
