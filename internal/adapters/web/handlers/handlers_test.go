package handlers

import (
	"context"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
)

// memFlagStore is an in-memory ports.FlagStore double shared across handler tests.
type memFlagStore struct {
	flags map[string]domain.Flag
}

func newMemFlagStore() *memFlagStore {
	return &memFlagStore{flags: make(map[string]domain.Flag)}
}

func (m *memFlagStore) Insert(ctx context.Context, values []string, exploit, target, player string, tick int64) (domain.EnqueueResult, error) {
	var res domain.EnqueueResult
	for _, v := range values {
		if _, exists := m.flags[v]; exists {
			res.Duplicates = append(res.Duplicates, v)
			continue
		}
		m.flags[v] = domain.Flag{
			Value: v, Exploit: exploit, Target: target, Player: player,
			Tick: tick, Status: domain.StatusQueued, Timestamp: time.Now(),
		}
		res.New = append(res.New, v)
	}
	return res, nil
}

func (m *memFlagStore) QueuedValues(ctx context.Context) ([]domain.Flag, error) {
	var out []domain.Flag
	for _, f := range m.flags {
		if f.Status == domain.StatusQueued {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFlagStore) UpdateStatuses(ctx context.Context, accepted, rejected map[string]string) error {
	for v, resp := range accepted {
		f := m.flags[v]
		f.Status = domain.StatusAccepted
		f.Response = resp
		m.flags[v] = f
	}
	for v, resp := range rejected {
		f := m.flags[v]
		f.Status = domain.StatusRejected
		f.Response = resp
		m.flags[v] = f
	}
	return nil
}

func (m *memFlagStore) CountByStatus(ctx context.Context) (domain.StatusCounts, error) {
	var c domain.StatusCounts
	for _, f := range m.flags {
		switch f.Status {
		case domain.StatusQueued:
			c.Queued++
		case domain.StatusAccepted:
			c.Accepted++
		case domain.StatusRejected:
			c.Rejected++
		}
	}
	return c, nil
}

func (m *memFlagStore) CountByStatusForTick(ctx context.Context, tick int64) (domain.StatusCounts, error) {
	var c domain.StatusCounts
	for _, f := range m.flags {
		if f.Tick != tick {
			continue
		}
		switch f.Status {
		case domain.StatusQueued:
			c.Queued++
		case domain.StatusAccepted:
			c.Accepted++
		case domain.StatusRejected:
			c.Rejected++
		}
	}
	return c, nil
}

func (m *memFlagStore) Analytics(ctx context.Context, lo, hi int64) ([]domain.AnalyticsPoint, error) {
	counts := make(map[[3]interface{}]int64)
	for _, f := range m.flags {
		if f.Exploit == domain.ManualExploit || f.Status != domain.StatusAccepted {
			continue
		}
		if f.Tick < lo || f.Tick > hi {
			continue
		}
		key := [3]interface{}{f.Player, f.Exploit, f.Tick}
		counts[key]++
	}
	var out []domain.AnalyticsPoint
	for key, n := range counts {
		out = append(out, domain.AnalyticsPoint{
			Player: key[0].(string), Exploit: key[1].(string), Tick: key[2].(int64), Count: n,
		})
	}
	return out, nil
}

func (m *memFlagStore) AllFlags(ctx context.Context) ([]domain.Flag, error) {
	var out []domain.Flag
	for _, f := range m.flags {
		out = append(out, f)
	}
	return out, nil
}

// noopBus is a ports.EventBus double that discards everything.
type noopBus struct{}

func (noopBus) Publish(domain.Event) {}
func (noopBus) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event)
	return ch, func() {}
}

// fixedClock is a TickSource double with a constant tick/duration.
type fixedClock struct {
	tick      int64
	duration  time.Duration
	elapsed   time.Duration
	remaining time.Duration
	start     time.Time
}

func (f fixedClock) CurrentTick() int64           { return f.tick }
func (f fixedClock) TickDuration() time.Duration  { return f.duration }
func (f fixedClock) Elapsed() time.Duration       { return f.elapsed }
func (f fixedClock) Remaining() time.Duration     { return f.remaining }
func (f fixedClock) GameStart() time.Time         { return f.start }

// memWebhookStore is an in-memory ports.WebhookStore double.
type memWebhookStore struct {
	hooks map[string]domain.Webhook
}

func newMemWebhookStore() *memWebhookStore {
	return &memWebhookStore{hooks: make(map[string]domain.Webhook)}
}

func (m *memWebhookStore) Create(ctx context.Context, w domain.Webhook) error {
	m.hooks[w.ID] = w
	return nil
}

func (m *memWebhookStore) Update(ctx context.Context, w domain.Webhook) error {
	if _, ok := m.hooks[w.ID]; !ok {
		return domain.ErrNotFound
	}
	m.hooks[w.ID] = w
	return nil
}

func (m *memWebhookStore) Get(ctx context.Context, id string) (domain.Webhook, error) {
	w, ok := m.hooks[id]
	if !ok {
		return domain.Webhook{}, domain.ErrNotFound
	}
	return w, nil
}

func (m *memWebhookStore) List(ctx context.Context) ([]domain.Webhook, error) {
	var out []domain.Webhook
	for _, w := range m.hooks {
		out = append(out, w)
	}
	return out, nil
}

// fakeSubmitter is a ports.Submitter double with a canned verdict.
type fakeSubmitter struct {
	accepted map[string]string
	rejected map[string]string
	err      error
}

func (f fakeSubmitter) Submit(ctx context.Context, values []string) (map[string]string, map[string]string, error) {
	return f.accepted, f.rejected, f.err
}
