package midi

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

// Player owns the lifecycle of one engine at a time and forwards validated
// dispatch calls to it. All methods are safe for concurrent use.
type Player struct {
	logger contracts.Logger
	opts   contracts.PlayerOptions

	mu      sync.RWMutex
	state   contracts.State
	engine  contracts.Engine
	ops     operations
	catalog map[string]contracts.Instrument
	gen     uint64
	cancel  context.CancelCauseFunc
	lastErr error
}

// operations holds the optional interfaces of the current engine, nil where
// the engine does not declare or implement them.
type operations struct {
	caps    contracts.Capability
	program contracts.ProgramChanger
	control contracts.ControlChanger
	bend    contracts.PitchBender
	channel contracts.ChannelAftertoucher
	poly    contracts.PolyAftertoucher
}

func resolveOperations(engine contracts.Engine) operations {
	declared := engine.Capabilities()
	var ops operations
	if v, ok := engine.(contracts.ProgramChanger); ok && declared.Has(contracts.CapProgramChange) {
		ops.program = v
		ops.caps |= contracts.CapProgramChange
	}
	if v, ok := engine.(contracts.ControlChanger); ok && declared.Has(contracts.CapControlChange) {
		ops.control = v
		ops.caps |= contracts.CapControlChange
	}
	if v, ok := engine.(contracts.PitchBender); ok && declared.Has(contracts.CapPitchBend) {
		ops.bend = v
		ops.caps |= contracts.CapPitchBend
	}
	if v, ok := engine.(contracts.ChannelAftertoucher); ok && declared.Has(contracts.CapChannelAftertouch) {
		ops.channel = v
		ops.caps |= contracts.CapChannelAftertouch
	}
	if v, ok := engine.(contracts.PolyAftertoucher); ok && declared.Has(contracts.CapPolyAftertouch) {
		ops.poly = v
		ops.caps |= contracts.CapPolyAftertouch
	}
	return ops
}

// Initialize starts loading an engine for cfg and returns without waiting
// for it. The configuration is validated up front; everything that can only
// fail while loading is reported through the returned Pending.
//
// Initialize may be called again once a previous load finished, in which
// case the previous engine is closed first.
func (p *Player) Initialize(cfg contracts.SynthConfig) (*Pending, error) {
	cfg, err := cfg.Normalized()
	if err != nil {
		return nil, err
	}
	factory := p.opts.Engines[cfg.API]
	if factory == nil {
		return nil, fmt.Errorf("%w: no engine registered for api %s", contracts.ErrInvalidConfig, cfg.API)
	}

	p.mu.Lock()
	if p.state == contracts.StateLoading {
		p.mu.Unlock()
		return nil, contracts.ErrLoadInProgress
	}
	previous := p.engine
	p.engine = nil
	p.ops = operations{}
	p.catalog = make(map[string]contracts.Instrument)
	p.lastErr = nil
	p.gen++
	gen := p.gen
	ctx, cancel := context.WithCancelCause(context.Background())
	p.cancel = cancel
	p.state = contracts.StateLoading
	p.mu.Unlock()

	if previous != nil {
		p.closeEngine(previous)
	}

	p.logger.Info("initializing engine",
		p.logger.Field().String("api", cfg.API.String()),
		p.logger.Field().String("format", cfg.TargetFormat.String()),
		p.logger.Field().Int("instruments", len(cfg.Instruments)))

	pending := newPending(p.logger, p.opts.ProgressBuffer)
	go p.load(ctx, gen, factory, cfg, pending)
	return pending, nil
}

func (p *Player) load(ctx context.Context, gen uint64, factory contracts.EngineFactory, cfg contracts.SynthConfig, pending *Pending) {
	start := time.Now()
	opts := p.opts

	engine, err := factory(&opts)
	var loaded []contracts.Instrument
	if err == nil {
		loaded, err = engine.Load(ctx, cfg, pending.report)
	}

	p.mu.Lock()
	if p.gen != gen || ctx.Err() != nil {
		p.mu.Unlock()
		if engine != nil {
			p.closeEngine(engine)
		}
		cause := context.Cause(ctx)
		if cause == nil {
			cause = contracts.ErrClosed
		}
		p.logger.Debug("discarding engine of a closed load", p.logger.Field().Error("cause", cause))
		pending.finish(cause)
		return
	}
	p.cancel = nil

	if err != nil {
		err = fmt.Errorf("initialize %s engine: %w", cfg.API, err)
		p.state = contracts.StateFailed
		p.lastErr = err
		p.mu.Unlock()
		if engine != nil {
			p.closeEngine(engine)
		}
		p.logger.Error("engine initialization failed", p.logger.Field().Error("error", err))
		pending.finish(err)
		return
	}

	p.engine = engine
	p.ops = resolveOperations(engine)
	for _, inst := range loaded {
		p.catalog[inst.Name] = inst
	}
	p.state = contracts.StateReady
	caps := p.ops.caps
	p.mu.Unlock()

	p.logger.Info("engine ready",
		p.logger.Field().String("api", cfg.API.String()),
		p.logger.Field().String("capabilities", caps.String()),
		p.logger.Field().Duration("elapsed", time.Since(start)))
	pending.finish(nil)
}

// LoadInstrument makes name available on the current engine. Names already
// in the catalog resolve immediately. A failed load leaves the player Ready.
func (p *Player) LoadInstrument(name string) (*Pending, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty instrument name", contracts.ErrInvalidConfig)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state != contracts.StateReady {
		return nil, fmt.Errorf("%w: state %s", contracts.ErrNotReady, p.state)
	}
	if _, ok := p.catalog[name]; ok {
		return resolvedPending(p.logger, nil), nil
	}

	pending := newPending(p.logger, p.opts.ProgressBuffer)
	go p.loadInstrument(p.engine, p.gen, name, pending)
	return pending, nil
}

func (p *Player) loadInstrument(engine contracts.Engine, gen uint64, name string, pending *Pending) {
	pending.report("loading instrument "+name, 0)
	inst, err := engine.LoadInstrument(context.Background(), name)
	if err != nil {
		err = fmt.Errorf("load instrument %q: %w", name, err)
		p.logger.Warn("instrument load failed", p.logger.Field().Error("error", err))
		pending.finish(err)
		return
	}

	p.mu.Lock()
	if p.gen != gen || p.engine != engine {
		p.mu.Unlock()
		pending.finish(contracts.ErrClosed)
		return
	}
	p.catalog[name] = inst
	if inst.Name != "" && inst.Name != name {
		p.catalog[inst.Name] = inst
	}
	p.mu.Unlock()

	p.logger.Debug("instrument loaded",
		p.logger.Field().String("name", name),
		p.logger.Field().Uint8("program", inst.Program))
	pending.report("instrument "+name+" loaded", 1)
	pending.finish(nil)
}

// State returns the current lifecycle state.
func (p *Player) State() contracts.State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Err returns the error of the last failed initialization, nil otherwise.
func (p *Player) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Capabilities returns the optional operations available on the current
// engine. It is CapNone unless the player is Ready.
func (p *Player) Capabilities() contracts.Capability {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state != contracts.StateReady {
		return contracts.CapNone
	}
	return p.ops.caps
}

// Supports reports whether every operation in c is available.
func (p *Player) Supports(c contracts.Capability) bool {
	return p.Capabilities().Has(c)
}

// Instruments returns a copy of the catalog, sorted by name.
func (p *Player) Instruments() []contracts.Instrument {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := slices.Sorted(maps.Keys(p.catalog))
	out := make([]contracts.Instrument, 0, len(names))
	for _, name := range names {
		out = append(out, p.catalog[name])
	}
	return out
}

// Instrument looks up one catalog entry.
func (p *Player) Instrument(name string) (contracts.Instrument, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	inst, ok := p.catalog[name]
	return inst, ok
}

// Close releases the current engine and returns the player to
// Uninitialized. A load still running resolves with contracts.ErrClosed.
func (p *Player) Close() error {
	p.mu.Lock()
	engine := p.engine
	cancel := p.cancel
	p.engine = nil
	p.cancel = nil
	p.ops = operations{}
	p.catalog = nil
	p.lastErr = nil
	p.gen++
	p.state = contracts.StateUninitialized
	p.mu.Unlock()

	if cancel != nil {
		cancel(contracts.ErrClosed)
	}
	if engine == nil {
		return nil
	}
	return p.closeEngine(engine)
}

func (p *Player) closeEngine(engine contracts.Engine) error {
	if err := engine.Close(); err != nil {
		p.logger.Warn("closing engine", p.logger.Field().Error("error", err))
		return err
	}
	return nil
}
