package ingestion

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFlagStore struct {
	values map[string]domain.Flag
}

func newMemFlagStore() *memFlagStore {
	return &memFlagStore{values: make(map[string]domain.Flag)}
}

func (m *memFlagStore) Insert(ctx context.Context, values []string, exploit, target, player string, tick int64) (domain.EnqueueResult, error) {
	var res domain.EnqueueResult
	for _, v := range values {
		if _, ok := m.values[v]; ok {
			res.Duplicates = append(res.Duplicates, v)
			continue
		}
		m.values[v] = domain.Flag{Value: v, Exploit: exploit, Target: target, Player: player, Tick: tick, Status: domain.StatusQueued}
		res.New = append(res.New, v)
	}
	return res, nil
}

func (m *memFlagStore) QueuedValues(ctx context.Context) ([]domain.Flag, error) { return nil, nil }
func (m *memFlagStore) UpdateStatuses(ctx context.Context, accepted, rejected map[string]string) error {
	for v, resp := range accepted {
		f := m.values[v]
		f.Status = domain.StatusAccepted
		f.Response = resp
		m.values[v] = f
	}
	for v, resp := range rejected {
		f := m.values[v]
		f.Status = domain.StatusRejected
		f.Response = resp
		m.values[v] = f
	}
	return nil
}
func (m *memFlagStore) CountByStatus(ctx context.Context) (domain.StatusCounts, error) {
	return domain.StatusCounts{}, nil
}
func (m *memFlagStore) CountByStatusForTick(ctx context.Context, tick int64) (domain.StatusCounts, error) {
	return domain.StatusCounts{}, nil
}
func (m *memFlagStore) Analytics(ctx context.Context, lo, hi int64) ([]domain.AnalyticsPoint, error) {
	return nil, nil
}
func (m *memFlagStore) AllFlags(ctx context.Context) ([]domain.Flag, error) { return nil, nil }

type capturingBus struct {
	events []domain.Event
}

func (b *capturingBus) Publish(evt domain.Event) { b.events = append(b.events, evt) }
func (b *capturingBus) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event)
	return ch, func() {}
}

type fixedClock struct {
	tick     int64
	start    time.Time
	duration time.Duration
}

func (c fixedClock) CurrentTick() int64          { return c.tick }
func (c fixedClock) GameStart() time.Time        { return c.start }
func (c fixedClock) TickDuration() time.Duration { return c.duration }

type fakeSubmitter struct {
	accepted map[string]string
	rejected map[string]string
	err      error
}

func (f fakeSubmitter) Submit(ctx context.Context, values []string) (map[string]string, map[string]string, error) {
	return f.accepted, f.rejected, f.err
}

var flagFormat = regexp.MustCompile(`FLAG\{[a-z0-9]+\}`)

func TestEnqueueInsertsNewAndDuplicates(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	svc := New(flags, bus, fixedClock{tick: 4}, nil, flagFormat)

	result, err := svc.Enqueue(context.Background(), []string{"FLAG{a}"}, "crack", "10.0.0.1", "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"FLAG{a}"}, result.New)

	result2, err := svc.Enqueue(context.Background(), []string{"FLAG{a}"}, "crack", "10.0.0.1", "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"FLAG{a}"}, result2.Duplicates)

	require.Len(t, bus.events, 2)
	assert.Equal(t, domain.EventEnqueue, bus.events[0].Kind)
}

func TestEnqueueOwnTeamPublishesVulnReportNotFlag(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	svc := New(flags, bus, fixedClock{tick: 1}, []string{"10.0.0.9"}, flagFormat)

	result, err := svc.Enqueue(context.Background(), []string{"FLAG{a}"}, "crack", "10.0.0.9", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Own)
	assert.Empty(t, flags.values)
	require.Len(t, bus.events, 1)
	assert.Equal(t, domain.EventVulnerabilityReport, bus.events[0].Kind)
}

func TestEnqueueFallbackGroupsByExploitAndTarget(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	svc := New(flags, bus, fixedClock{tick: 7}, nil, flagFormat)

	entries := []domain.FallbackEntry{
		{Flag: "FLAG{a}", Exploit: "crack", Target: "10.0.0.1", Player: "p1"},
		{Flag: "FLAG{b}", Exploit: "crack", Target: "10.0.0.1", Player: "p1"},
		{Flag: "FLAG{c}", Exploit: "leak", Target: "10.0.0.2", Player: "p2"},
	}
	result, err := svc.EnqueueFallback(context.Background(), entries)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"FLAG{a}", "FLAG{b}", "FLAG{c}"}, result.New)
}

func TestEnqueueFallbackDerivesTickFromTimestamp(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	start := time.Now().Add(-10 * time.Minute)
	svc := New(flags, bus, fixedClock{tick: 99, start: start, duration: time.Minute}, nil, flagFormat)

	ts := start.Add(3 * time.Minute)
	entries := []domain.FallbackEntry{{Flag: "FLAG{a}", Exploit: "crack", Target: "10.0.0.1", Player: "p1", Timestamp: &ts}}
	_, err := svc.EnqueueFallback(context.Background(), entries)
	require.NoError(t, err)

	assert.EqualValues(t, 3, flags.values["FLAG{a}"].Tick)
}

func TestEnqueueFallbackTimestampInPastFloorsAtZero(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	start := time.Now()
	svc := New(flags, bus, fixedClock{tick: 99, start: start, duration: time.Minute}, nil, flagFormat)

	ts := start.Add(-time.Hour)
	entries := []domain.FallbackEntry{{Flag: "FLAG{a}", Exploit: "crack", Target: "10.0.0.1", Player: "p1", Timestamp: &ts}}
	_, err := svc.EnqueueFallback(context.Background(), entries)
	require.NoError(t, err)

	assert.EqualValues(t, 0, flags.values["FLAG{a}"].Tick)
}

func TestEnqueueManualEnqueueActionInsertsWithManualExploit(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	svc := New(flags, bus, fixedClock{tick: 1}, nil, flagFormat)

	result, err := svc.EnqueueManual(context.Background(), []string{"FLAG{a}"}, "p1", ManualEnqueue, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"FLAG{a}"}, result.New)
	assert.Equal(t, domain.ManualExploit, flags.values["FLAG{a}"].Exploit)
}

func TestEnqueueManualSubmitActionCommitsTerminalStatuses(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	svc := New(flags, bus, fixedClock{tick: 1}, nil, flagFormat)

	submitter := fakeSubmitter{accepted: map[string]string{"FLAG{a}": "ok"}}
	result, err := svc.EnqueueManual(context.Background(), []string{"FLAG{a}"}, "p1", ManualSubmit, submitter)
	require.NoError(t, err)
	assert.Equal(t, []string{"FLAG{a}"}, result.New)
	assert.Equal(t, domain.StatusAccepted, flags.values["FLAG{a}"].Status)
}

func TestEnqueueManualSubmitActionPropagatesSubmitterError(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	svc := New(flags, bus, fixedClock{tick: 1}, nil, flagFormat)

	submitter := fakeSubmitter{err: assert.AnError}
	_, err := svc.EnqueueManual(context.Background(), []string{"FLAG{a}"}, "p1", ManualSubmit, submitter)
	assert.Error(t, err)
}

func TestExfiltrateExtractsFlagsFromBody(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	svc := New(flags, bus, fixedClock{tick: 1}, nil, flagFormat)

	wh := domain.Webhook{ID: "wh1", Exploit: "leak", Player: "p1"}
	result, err := svc.Exfiltrate(context.Background(), wh, "dump output: FLAG{leaked1} trailer")
	require.NoError(t, err)
	assert.Equal(t, []string{"FLAG{leaked1}"}, result.New)
}

func TestExfiltrateDisabledWebhookIsError(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	svc := New(flags, bus, fixedClock{tick: 1}, nil, flagFormat)

	wh := domain.Webhook{ID: "wh1", Disabled: true}
	_, err := svc.Exfiltrate(context.Background(), wh, "FLAG{a}")
	assert.ErrorIs(t, err, domain.ErrWebhookDisabled)
}

func TestExfiltrateNoMatchesReturnsEmptyResult(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	svc := New(flags, bus, fixedClock{tick: 1}, nil, flagFormat)

	wh := domain.Webhook{ID: "wh1", Exploit: "leak", Player: "p1"}
	result, err := svc.Exfiltrate(context.Background(), wh, "no flags here")
	require.NoError(t, err)
	assert.Empty(t, result.New)
}

func TestVulnReportPublishesEventAndReturnsMessage(t *testing.T) {
	flags := newMemFlagStore()
	bus := &capturingBus{}
	svc := New(flags, bus, fixedClock{tick: 1}, nil, flagFormat)

	msg := svc.VulnReport("crack", "10.0.0.1", "p1")
	assert.Contains(t, msg, "crack")
	require.Len(t, bus.events, 1)
	assert.Equal(t, domain.EventVulnerabilityReport, bus.events[0].Kind)
}
