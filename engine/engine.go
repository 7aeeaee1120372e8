// Package engine wires the field solver, creature tracker, environment, and
// telemetry into a stepped simulation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/lenia/config"
	"github.com/pthm-cable/lenia/creatures"
	"github.com/pthm-cable/lenia/env"
	"github.com/pthm-cable/lenia/field"
	"github.com/pthm-cable/lenia/kernels"
	"github.com/pthm-cable/lenia/telemetry"
)

// Engine owns all simulation state and advances it one frame at a time.
// Step order is fixed: creature behavior acts on the field before the solver
// moves mass, so every external mass change lands inside the same frame's
// conservation window.
type Engine struct {
	cfg *config.Config
	log *slog.Logger
	rng *rand.Rand

	Field    *field.MassField
	Blender  *field.Blender
	Detector *creatures.Detector
	Tracker  *creatures.Tracker
	Env      *env.Environment

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	lifetimes *telemetry.LifetimeTracker
	output    *telemetry.OutputManager
	store     *telemetry.Store

	frame     int
	lastDrift float64
	alive     map[uint64]bool
}

// New builds an engine from configuration. Telemetry sinks are optional and
// controlled by the config; a disabled sink is nil and all writes no-op.
func New(cfg *config.Config, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}

	n := cfg.Grid.Size
	if n < 8 {
		return nil, fmt.Errorf("engine: grid size %d too small", n)
	}

	k, err := kernels.Generate(kernels.Type(cfg.Kernel.Type), cfg.Kernel.Radius, kernels.Params{Peaks: cfg.Kernel.Peaks})
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Grid.Seed))

	f := field.New(n, cfg.Growth.Mu, cfg.Growth.Sigma, cfg.Growth.FlowStrength, cfg.Growth.FFTThreshold)
	f.SetKernel(k)

	environment := env.New(n, &cfg.Environment)
	tracker := creatures.NewTracker(cfg, f, environment, rng, log)

	output, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return nil, err
	}
	store, err := telemetry.OpenStore(cfg.Telemetry.StorePath, n, cfg.Grid.Seed)
	if err != nil {
		output.Close()
		return nil, err
	}
	if store != nil {
		log.Info("run store opened", "run_id", store.RunID(), "path", cfg.Telemetry.StorePath)
	}

	e := &Engine{
		cfg:       cfg,
		log:       log,
		rng:       rng,
		Field:     f,
		Blender:   field.NewBlender(n),
		Detector:  creatures.NewDetector(n, cfg.Detection.MassThreshold, cfg.Detection.MinCreatureMass, cfg.Detection.MaxCreatures),
		Tracker:   tracker,
		Env:       environment,
		collector: telemetry.NewCollector(cfg.Telemetry.WindowFrames),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.WindowFrames),
		lifetimes: telemetry.NewLifetimeTracker(),
		output:    output,
		store:     store,
		alive:     make(map[uint64]bool),
	}
	if err := output.WriteConfig(cfg); err != nil {
		log.Warn("failed to write run config", "err", err)
	}
	return e, nil
}

// Frame returns the current frame number.
func (e *Engine) Frame() int { return e.frame }

// LastDrift returns the relative mass drift of the last transport pass.
func (e *Engine) LastDrift() float64 { return e.lastDrift }

// Step advances the simulation one frame. A conservation failure is returned
// after the full step completes; state remains stepped.
func (e *Engine) Step() error {
	e.frame++
	e.perf.StartStep()

	e.perf.StartPhase(telemetry.PhaseDetection)
	cands := e.Detector.Detect(e.Field.A)
	e.Tracker.Match(cands, e.frame)

	e.perf.StartPhase(telemetry.PhaseBehavior)
	e.Tracker.UpdateEnergy()
	e.Tracker.ProcessPredation()
	e.Tracker.ProcessLifecycle()
	e.Tracker.Sense()
	e.Tracker.UpdateHeadings()

	e.perf.StartPhase(telemetry.PhaseEnvironment)
	e.Env.Step(e.cfg.Growth.DT)

	e.perf.StartPhase(telemetry.PhasePotential)
	e.Field.ComputePotential()

	e.perf.StartPhase(telemetry.PhaseBlending)
	e.Blender.Rebuild(e.Tracker.Influences(), e.Field.A)
	e.Field.ComputeAffinity(e.Blender)
	sx, sy := e.Tracker.Steering()
	e.Field.ComputeGradient(e.Blender, sx, sy)

	e.perf.StartPhase(telemetry.PhaseTransport)
	before := e.Field.TotalMass()
	e.Field.TransportMass(e.cfg.Growth.DT)
	e.Field.ApplyDiffusion(e.cfg.Growth.Diffusion)

	after := e.Field.TotalMass()
	if before > 0 {
		e.lastDrift = (after - before) / before
	} else {
		e.lastDrift = 0
	}
	conservation := e.Field.CheckConservation(before)

	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.recordTelemetry(after)
	e.perf.EndStep()

	var consErr field.ConservationError
	if errors.As(conservation, &consErr) {
		e.log.Error("mass conservation violated", "before", consErr.Before, "after", consErr.After, "frame", e.frame)
		return conservation
	}
	return nil
}

// recordTelemetry syncs lifetime tracking with the roster and flushes window
// stats when due.
func (e *Engine) recordTelemetry(totalMass float64) {
	roster := e.Tracker.Creatures()

	for _, id := range e.Tracker.Killers() {
		e.lifetimes.RecordKill(id)
	}

	current := make(map[uint64]bool, len(roster))
	for _, cr := range roster {
		current[cr.ID] = true
		if e.lifetimes.Get(cr.ID) == nil {
			e.lifetimes.Register(cr.ID, cr.ParentID, cr.Generation, cr.BirthFrame, cr.Genome.IsPredator)
		}
		e.lifetimes.Update(cr.ID, cr.Energy, cr.Mass)
	}
	for id := range e.alive {
		if current[id] {
			continue
		}
		lt := e.lifetimes.Remove(id, e.frame)
		if lt == nil {
			continue
		}
		if err := e.output.WriteLifetime(lt); err != nil {
			e.log.Warn("lifetime write failed", "err", err)
		}
		if err := e.store.SaveLifetime(lt); err != nil {
			e.log.Warn("lifetime save failed", "err", err)
		}
	}
	e.alive = current

	e.collector.RecordStep(e.Tracker.Stats(), e.lastDrift)
	if !e.collector.ShouldFlush(e.frame) {
		return
	}

	stats := e.collector.Flush(e.frame, roster, totalMass)
	e.log.Info("stats", "window", stats)
	if err := e.output.WriteTelemetry(stats); err != nil {
		e.log.Warn("telemetry write failed", "err", err)
	}
	if err := e.output.WritePerf(e.perf.Stats(), e.frame); err != nil {
		e.log.Warn("perf write failed", "err", err)
	}
	if err := e.store.SaveWindow(stats); err != nil {
		e.log.Warn("window save failed", "err", err)
	}
}

// Run advances the simulation until the frame budget is spent or the context
// is canceled. frames <= 0 runs until cancellation.
func (e *Engine) Run(ctx context.Context, frames int) error {
	for i := 0; frames <= 0 || i < frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// SeedBlob deposits a mass blob at a world position.
func (e *Engine) SeedBlob(x, y, radius, mass float64) {
	e.Field.SeedBlob(x, y, radius, mass)
}

// SeedRandom scatters count blobs of the given mass at random positions.
func (e *Engine) SeedRandom(count int, radius, mass float64) {
	n := float64(e.Field.N)
	for i := 0; i < count; i++ {
		e.Field.SeedBlob(e.rng.Float64()*n, e.rng.Float64()*n, radius, mass)
	}
}

// Clear wipes the field and all tracked creatures.
func (e *Engine) Clear() {
	e.Field.Clear()
	e.Tracker.Clear()
	e.Blender.Resize(e.Field.N)
}

// Resize changes the grid size, dropping all state.
func (e *Engine) Resize(n int) error {
	if n < 8 {
		return fmt.Errorf("engine: grid size %d too small", n)
	}
	e.Field.Resize(n)
	e.Blender.Resize(n)
	e.Detector.Resize(n)
	e.Tracker.Resize(n)
	e.Env = env.New(n, &e.cfg.Environment)
	return nil
}

// SetGrowth changes the global growth parameters. Takes effect next step.
func (e *Engine) SetGrowth(mu, sigma float64) {
	e.Field.Mu = mu
	e.Field.Sigma = sigma
}

// SetKernel swaps the convolution kernel. Takes effect next step.
func (e *Engine) SetKernel(typ kernels.Type, radius int, params kernels.Params) error {
	k, err := kernels.Generate(typ, radius, params)
	if err != nil {
		return err
	}
	e.Field.SetKernel(k)
	return nil
}

// Close flushes and closes all telemetry sinks.
func (e *Engine) Close() error {
	err := e.output.Close()
	if serr := e.store.Close(e.frame); err == nil {
		err = serr
	}
	return err
}
