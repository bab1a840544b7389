package notifications

import (
	"context"
	"fmt"
	"sync"

	"nova-client/internal/common/logger"

	"github.com/robfig/cron/v3"
)

// Poller refreshes the unread count on a cron schedule.
type Poller struct {
	store    *Store
	cron     *cron.Cron
	log      logger.Logger
	onChange func(count int)

	mu   sync.Mutex
	last int
}

// NewPoller accepts standard cron specs and descriptors such as
// "@every 30s". onChange fires whenever the count differs from the last
// observed value; it may be nil.
func NewPoller(store *Store, schedule string, log logger.Logger, onChange func(int)) (*Poller, error) {
	p := &Poller{
		store:    store,
		cron:     cron.New(),
		log:      log.WithFields(map[string]interface{}{"component": "notification-poller"}),
		onChange: onChange,
		last:     -1,
	}
	if _, err := p.cron.AddFunc(schedule, p.tick); err != nil {
		return nil, fmt.Errorf("invalid poll schedule %q: %w", schedule, err)
	}
	return p, nil
}

func (p *Poller) tick() {
	p.Poll(context.Background())
}

// Poll runs one refresh immediately.
func (p *Poller) Poll(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.store.FetchUnreadCount(ctx)
	count := p.store.UnreadCount()
	if count == p.last {
		return
	}
	p.log.Debug("unread count changed", map[string]interface{}{"from": p.last, "to": count})
	p.last = count
	if p.onChange != nil {
		p.onChange(count)
	}
}

// Start polls once and then on schedule until ctx is done.
func (p *Poller) Start(ctx context.Context) {
	p.Poll(ctx)
	p.cron.Start()
	go func() {
		<-ctx.Done()
		<-p.cron.Stop().Done()
	}()
}

// Stop halts the schedule and waits for a running poll to finish.
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
}
