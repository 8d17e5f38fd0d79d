package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lcalzada-xor/fast/internal/config"
	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/lcalzada-xor/fast/internal/core/services/recovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecoveryStore struct{}

func (fakeRecoveryStore) Load(ctx context.Context) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (fakeRecoveryStore) Save(ctx context.Context, started time.Time) error {
	return nil
}

func TestHandleSyncIntervalMode(t *testing.T) {
	clock := fixedClock{tick: 2, duration: 120 * time.Second, elapsed: 40 * time.Second, remaining: 80 * time.Second}
	h := &Handlers{
		Config:    &config.ServerConfig{Submitter: config.SubmitterConfig{Interval: 30}},
		Recovery:  recovery.New(fakeRecoveryStore{}),
		Clock:     clock,
		GameStart: time.Now().Add(-45 * time.Second),
	}

	req := httptest.NewRequest(http.MethodGet, "/sync", nil)
	rec := httptest.NewRecorder()
	h.HandleSync(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.SyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp.Tick.Current)
	assert.Equal(t, 30.0, resp.Submitter.Interval)
	assert.Zero(t, resp.Submitter.Delay)
}

func TestHandleSyncDelayMode(t *testing.T) {
	clock := fixedClock{tick: 5, duration: 120 * time.Second, elapsed: 10 * time.Second}
	h := &Handlers{
		Config:   &config.ServerConfig{Submitter: config.SubmitterConfig{Delay: 20}},
		Recovery: recovery.New(fakeRecoveryStore{}),
		Clock:    clock,
	}

	req := httptest.NewRequest(http.MethodGet, "/sync", nil)
	rec := httptest.NewRecorder()
	h.HandleSync(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.SyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 20.0, resp.Submitter.Delay)
	assert.Zero(t, resp.Submitter.Interval)
}
