package exploit

import (
	"context"
	"testing"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellRunnerSubstitutesPlaceholders(t *testing.T) {
	r := New()
	def := domain.ExploitDefinition{Name: "probe", Run: `echo "host=[ip] id=[flag_id]"`}

	out, err := r.Run(context.Background(), def, "10.0.1.1", "abc123")
	require.NoError(t, err)
	assert.Contains(t, out, "host=10.0.1.1")
	assert.Contains(t, out, "id=abc123")
}

func TestShellRunnerNonZeroExitIsNotAnError(t *testing.T) {
	r := New()
	def := domain.ExploitDefinition{Name: "probe", Run: `echo failing; exit 1`}

	out, err := r.Run(context.Background(), def, "10.0.1.1", "")
	assert.NoError(t, err)
	assert.Contains(t, out, "failing")
}

func TestShellRunnerRespectsContextCancellation(t *testing.T) {
	r := New()
	def := domain.ExploitDefinition{Name: "probe", Run: `sleep 5`}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, def, "10.0.1.1", "")
	assert.Error(t, err)
}

func TestShellRunnerRunHookEmptyScriptIsNoop(t *testing.T) {
	r := New()
	def := domain.ExploitDefinition{Name: "probe"}

	assert.NoError(t, r.RunHook(context.Background(), def, ""))
}

func TestShellRunnerRunHookFailurePropagates(t *testing.T) {
	r := New()
	def := domain.ExploitDefinition{Name: "probe"}

	err := r.RunHook(context.Background(), def, "exit 3")
	assert.Error(t, err)
}
