package runner

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	output map[string]string
	delay  time.Duration
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, def domain.ExploitDefinition, host, flagID string) (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.output[host], nil
}

func (f *fakeRunner) RunHook(ctx context.Context, def domain.ExploitDefinition, script string) error {
	return nil
}

type fakeServerClient struct {
	failHosts map[string]bool
	calls     []string
}

func (f *fakeServerClient) Enqueue(ctx context.Context, flags []string, exploit, target, player string) (domain.EnqueueResult, error) {
	f.calls = append(f.calls, target)
	if f.failHosts[target] {
		return domain.EnqueueResult{}, errors.New("network unreachable")
	}
	return domain.EnqueueResult{New: flags}, nil
}

func (f *fakeServerClient) EnqueueFallback(ctx context.Context, entries []domain.FallbackEntry) error {
	return nil
}

func (f *fakeServerClient) Sync(ctx context.Context) (domain.SyncResponse, error) {
	return domain.SyncResponse{}, nil
}

func (f *fakeServerClient) TriggerSubmit(ctx context.Context) error { return nil }

type fakeFallbackStore struct {
	entries []string
}

func (f *fakeFallbackStore) Enqueue(ctx context.Context, value, exploit, target string, ts time.Time) error {
	f.entries = append(f.entries, value)
	return nil
}

func (f *fakeFallbackStore) Pending(ctx context.Context) ([]domain.FallbackFlag, error) {
	return nil, nil
}

func (f *fakeFallbackStore) MarkForwarded(ctx context.Context, values []string) error { return nil }

func newTestSession(t *testing.T, runner *fakeRunner, client *fakeServerClient, fallback *fakeFallbackStore) *Session {
	fl, err := NewFileLogger(t.TempDir())
	require.NoError(t, err)
	return &Session{
		Runner:     runner,
		Client:     client,
		Fallback:   fallback,
		Memos:      NewMemoSet(),
		Logger:     slog.Default(),
		FileLog:    fl,
		Player:     "alice",
		FlagFormat: regexp.MustCompile(`FLAG\{[^}]+\}`),
	}
}

func TestSession_Run_EnqueuesMatchedFlags(t *testing.T) {
	runner := &fakeRunner{output: map[string]string{"10.0.0.1": "got FLAG{abc123}"}}
	client := &fakeServerClient{}
	fallback := &fakeFallbackStore{}
	sess := newTestSession(t, runner, client, fallback)

	def := domain.ExploitDefinition{Name: "exp1", Targets: []string{"10.0.0.1"}, Timeout: 1}
	sess.Run(context.Background(), def, nil, nil)

	assert.Contains(t, client.calls, "10.0.0.1")
	assert.Empty(t, fallback.entries)
}

func TestSession_Run_FallsBackOnNetworkFailure(t *testing.T) {
	runner := &fakeRunner{output: map[string]string{"10.0.0.2": "FLAG{xyz789}"}}
	client := &fakeServerClient{failHosts: map[string]bool{"10.0.0.2": true}}
	fallback := &fakeFallbackStore{}
	sess := newTestSession(t, runner, client, fallback)

	def := domain.ExploitDefinition{Name: "exp2", Targets: []string{"10.0.0.2"}, Timeout: 1}
	sess.Run(context.Background(), def, nil, nil)

	assert.Equal(t, []string{"FLAG{xyz789}"}, fallback.entries)
}

func TestSession_Run_NoTargetsIsNoOp(t *testing.T) {
	runner := &fakeRunner{}
	client := &fakeServerClient{}
	fallback := &fakeFallbackStore{}
	sess := newTestSession(t, runner, client, fallback)

	def := domain.ExploitDefinition{Name: "exp3", Targets: []string{}}
	sess.Run(context.Background(), def, nil, nil)

	assert.Empty(t, client.calls)
}

func TestSession_Run_TimeoutAbandonsSlowWorker(t *testing.T) {
	runner := &fakeRunner{delay: 3 * time.Second}
	client := &fakeServerClient{}
	fallback := &fakeFallbackStore{}
	sess := newTestSession(t, runner, client, fallback)

	def := domain.ExploitDefinition{Name: "exp4", Targets: []string{"10.0.0.3"}, Timeout: 1}
	start := time.Now()
	sess.Run(context.Background(), def, nil, nil)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPartitionBatches_CoversEveryBatch(t *testing.T) {
	def := domain.ExploitDefinition{Batches: &domain.BatchConfig{Count: 2}}
	batches := partitionBatches(attacksOf(5), def.Batches)
	assert.Len(t, batches, 2)
}
