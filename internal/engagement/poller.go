package engagement

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is how often the notification feed is refreshed while
// it is being observed.
const DefaultPollInterval = 30 * time.Second

// Pollable is anything that can refresh itself from the remote.
type Pollable interface {
	Poll(ctx context.Context) error
}

// Poller refreshes a Pollable on a fixed interval between Start and Stop.
type Poller struct {
	target   Pollable
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	running bool
	runs    uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewPoller(target Pollable, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		target:   target,
		interval: interval,
		log:      log.With().Str("component", "poller").Logger(),
	}
}

// Start polls once immediately and then on every tick until Stop is called or
// ctx is done. Calling Start on a running poller does nothing; once ctx is
// done the poller can be started again.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.running = true
	p.runs++

	p.wg.Add(1)
	go p.run(ctx, p.runs)
	p.log.Info().Dur("interval", p.interval).Msg("poller started")
}

// Stop cancels the loop and waits for an in-progress poll to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info().Msg("poller stopped")
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) run(ctx context.Context, run uint64) {
	defer p.wg.Done()
	defer p.finish(run)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// finish marks the poller idle when its loop ends on its own. A loop that
// was replaced by a later Start leaves the state alone.
func (p *Poller) finish(run uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running && p.runs == run {
		p.cancel()
		p.running = false
	}
}

func (p *Poller) poll(ctx context.Context) {
	if err := p.target.Poll(ctx); err != nil && ctx.Err() == nil {
		p.log.Warn().Err(err).Msg("poll failed, keeping previous feed")
	}
}
