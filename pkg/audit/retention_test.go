package audit

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseward/caseward/pkg/observability"
)

func TestSweepOnce(t *testing.T) {
	recorder := setupRecorder(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, recorder.Record(ctx, decisionFixture("p1", "POLICY_PASS", true, now.AddDate(0, 0, -10))))
	require.NoError(t, recorder.Record(ctx, decisionFixture("p1", "POLICY_PASS", true, now)))

	sweeper := NewRetentionSweeper(recorder, RetentionPolicy{RetentionDays: 7}, observability.NewLogger(observability.ErrorLevel, io.Discard))
	require.NoError(t, sweeper.SweepOnce(ctx))

	remaining, err := recorder.Search(ctx, SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDefaultRetentionPolicy(t *testing.T) {
	policy := DefaultRetentionPolicy()
	assert.Equal(t, 180, policy.RetentionDays)
	assert.NotEmpty(t, policy.Schedule)
}
