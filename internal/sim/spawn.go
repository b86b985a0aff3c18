package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSpawnCanceled is reported by PendingAgent.Wait when the spawn was
// cancelled before the agent attached.
var ErrSpawnCanceled = errors.New("spawn canceled")

// SpawnPose is the initial placement for a spawned agent.
type SpawnPose struct {
	Pos Vec3
	Yaw float64
}

// LoadError wraps an asset load failure with the ref that failed, so
// callers can errors.As on it and still see the root cause.
type LoadError struct {
	Ref string
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load asset %q: %v", e.Ref, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// AssetBundle is the loaded visual payload for an agent model.
type AssetBundle struct {
	Ref        string
	Animations map[string]bool // animation handles the rig provides
}

// AssetCatalog loads agent assets. Load may block; the sim always calls it
// from a spawn goroutine, never from the tick loop.
type AssetCatalog interface {
	Load(ctx context.Context, ref string) (*AssetBundle, error)
}

// StaticCatalog is an in-memory catalog with optional load delay and
// per-ref failure injection. The sandbox and the tests use it.
type StaticCatalog struct {
	Delay time.Duration
	Fail  map[string]error
}

func (c *StaticCatalog) Load(ctx context.Context, ref string) (*AssetBundle, error) {
	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := c.Fail[ref]; err != nil {
		return nil, err
	}
	return &AssetBundle{
		Ref: ref,
		Animations: map[string]bool{
			CueAnimMove:  true,
			CueAnimAlert: true,
			CueAnimDeath: true,
		},
	}, nil
}

// PendingAgent tracks an asynchronous spawn from request to attachment.
// The asset load runs on its own goroutine; the agent itself is only ever
// constructed on the sim goroutine when a tick drains the spawn inbox.
type PendingAgent struct {
	cfg    AgentConfig
	pose   SpawnPose
	route  *PatrolRoute
	cancel context.CancelFunc

	mu     sync.Mutex
	wanted bool
	bundle *AssetBundle
	agent  *Agent
	err    error

	done     chan struct{}
	doneOnce sync.Once
}

// LoadDone is closed once the spawn has finished: attached, failed, or
// cancelled.
func (p *PendingAgent) LoadDone() <-chan struct{} { return p.done }

// Wait blocks until the spawn finishes or ctx expires, then returns the
// attached agent or the reason there is none.
func (p *PendingAgent) Wait(ctx context.Context) (*Agent, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.agent, p.err
}

// Cancel marks the spawn unwanted and aborts an in-flight load. A bundle
// that still arrives afterwards is discarded instead of attached. Cancel
// after attachment does nothing.
func (p *PendingAgent) Cancel() {
	p.mu.Lock()
	if p.agent != nil {
		p.mu.Unlock()
		return
	}
	p.wanted = false
	if p.err == nil {
		p.err = ErrSpawnCanceled
	}
	p.mu.Unlock()
	p.cancel()
	p.finish()
}

func (p *PendingAgent) finish() {
	p.doneOnce.Do(func() { close(p.done) })
}

// SpawnAgent requests an agent asynchronously: the model ref loads on a
// fresh goroutine and the finished bundle lands in the spawn inbox, where
// the next Tick (or FlushSpawns) attaches the agent on the sim goroutine.
// A load failure finishes the pending spawn immediately with a LoadError.
func (s *Simulation) SpawnAgent(cfg AgentConfig, pose SpawnPose, route *PatrolRoute) *PendingAgent {
	ctx, cancel := context.WithCancel(context.Background())
	p := &PendingAgent{
		cfg:    cfg,
		pose:   pose,
		route:  route,
		cancel: cancel,
		wanted: true,
		done:   make(chan struct{}),
	}
	go func() {
		defer cancel()
		bundle, err := s.catalog.Load(ctx, cfg.ModelRef)
		p.mu.Lock()
		if err != nil {
			if p.err == nil {
				p.err = &LoadError{Ref: cfg.ModelRef, Err: err}
			}
			p.mu.Unlock()
			p.finish()
			return
		}
		p.bundle = bundle
		p.mu.Unlock()

		s.spawnMu.Lock()
		s.inbox = append(s.inbox, p)
		s.spawnMu.Unlock()
	}()
	return p
}

// FlushSpawns drains the spawn inbox and attaches every still-wanted
// pending agent. Tick calls this at the top of every step; tests and
// loading screens may call it directly. Returns the number attached.
// Must run on the sim goroutine.
func (s *Simulation) FlushSpawns() int {
	s.spawnMu.Lock()
	pending := s.inbox
	s.inbox = nil
	s.spawnMu.Unlock()

	attached := 0
	for _, p := range pending {
		p.mu.Lock()
		if !p.wanted {
			p.mu.Unlock()
			s.logEvent("--", "--", "spawn", "discarded", p.cfg.ModelRef, 0)
			p.finish()
			continue
		}
		a := s.attachAgent(p.cfg, p.pose, p.route)
		a.assets = p.bundle
		p.agent = a
		p.mu.Unlock()
		p.finish()
		attached++
	}
	return attached
}
