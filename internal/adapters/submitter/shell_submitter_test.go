package submitter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellSubmitterParsesAcceptedAndRejected(t *testing.T) {
	module := `cat <<'EOF'
{"accepted":{"FLAG1":"ok"},"rejected":{"FLAG2":"expired"}}
EOF`
	s := New(module)

	accepted, rejected, err := s.Submit(context.Background(), []string{"FLAG1", "FLAG2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FLAG1": "ok"}, accepted)
	assert.Equal(t, map[string]string{"FLAG2": "expired"}, rejected)
}

func TestShellSubmitterReceivesValuesOnStdin(t *testing.T) {
	module := `input=$(cat | tr -d '"'); echo "{\"accepted\":{},\"rejected\":{\"seen\":\"$input\"}}"`
	s := New(module)

	_, rejected, err := s.Submit(context.Background(), []string{"FLAG1"})
	require.NoError(t, err)
	assert.Contains(t, rejected["seen"], "FLAG1")
}

func TestShellSubmitterChildFailureIsError(t *testing.T) {
	s := New("exit 1")

	_, _, err := s.Submit(context.Background(), []string{"FLAG1"})
	assert.Error(t, err)
}

func TestShellSubmitterInvalidJSONIsError(t *testing.T) {
	s := New("echo not-json")

	_, _, err := s.Submit(context.Background(), []string{"FLAG1"})
	assert.Error(t, err)
}
