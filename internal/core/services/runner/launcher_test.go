package runner

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

type fakeDefinitionsSource struct {
	defs []domain.ExploitDefinition
	ok   bool
}

func (f fakeDefinitionsSource) Snapshot() ([]domain.ExploitDefinition, bool) {
	return f.defs, f.ok
}

type fakeDrainer struct {
	calls int
	mu    sync.Mutex
}

func (d *fakeDrainer) DrainOnce(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
}

func TestFireNamed_StartsOnlyMatchingDefinitions(t *testing.T) {
	defs := []domain.ExploitDefinition{
		{Name: "alpha", Targets: []string{"10.0.0.1"}},
		{Name: "beta", Targets: []string{"10.0.0.2"}},
		{Name: "gamma", Targets: []string{"10.0.0.3"}},
	}

	launcher := &Launcher{
		Definitions: fakeDefinitionsSource{defs: defs, ok: true},
		Drain:       &fakeDrainer{},
		NewSession: func() *Session {
			return newTestSession(t, &fakeRunner{output: map[string]string{}}, &fakeServerClient{}, &fakeFallbackStore{})
		},
		Logger:     slog.Default(),
		TeamHosts:  func() []string { return nil },
		OwnTeamIPs: map[string]struct{}{},
	}

	n := launcher.FireNamed(context.Background(), []string{"alpha", "gamma", "missing"})
	assert.Equal(t, 2, n)
}

func TestFireNamed_NoValidDefinitionsReturnsZero(t *testing.T) {
	launcher := &Launcher{
		Definitions: fakeDefinitionsSource{ok: false},
		Drain:       &fakeDrainer{},
		NewSession:  func() *Session { return newTestSession(t, &fakeRunner{}, &fakeServerClient{}, &fakeFallbackStore{}) },
		Logger:      slog.Default(),
		TeamHosts:   func() []string { return nil },
		OwnTeamIPs:  map[string]struct{}{},
	}

	n := launcher.FireNamed(context.Background(), []string{"alpha"})
	assert.Equal(t, 0, n)
}

func TestLaunchTick_DrainsEvenWithoutValidDefinitions(t *testing.T) {
	drain := &fakeDrainer{}
	launcher := &Launcher{
		Definitions: fakeDefinitionsSource{ok: false},
		Drain:       drain,
		NewSession:  func() *Session { return newTestSession(t, &fakeRunner{}, &fakeServerClient{}, &fakeFallbackStore{}) },
		Logger:      slog.Default(),
		TeamHosts:   func() []string { return nil },
		OwnTeamIPs:  map[string]struct{}{},
	}

	launcher.LaunchTick(context.Background())
	assert.Equal(t, 1, drain.calls)
}
