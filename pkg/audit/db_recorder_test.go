package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRecorder(t *testing.T) *DBRecorder {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	recorder, err := NewDBRecorder(db)
	require.NoError(t, err)
	return recorder
}

func decisionFixture(principalID, reason string, allowed bool, ts time.Time) *PolicyDecision {
	return &PolicyDecision{
		ID:                uuid.NewString(),
		Timestamp:         ts,
		PrincipalID:       principalID,
		Mode:              "member",
		FirmID:            "f1",
		ResourceNamespace: "cases",
		ResourceID:        "C1",
		Action:            "edit",
		Allowed:           allowed,
		ReasonCode:        reason,
		RequestID:         "req-1",
		EvalTime:          420 * time.Microsecond,
	}
}

func TestDBRecorderRecordAndSearch(t *testing.T) {
	recorder := setupRecorder(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, recorder.Record(ctx, decisionFixture("p1", "POLICY_PASS", true, now)))
	require.NoError(t, recorder.Record(ctx, decisionFixture("p1", "PERMISSION_DENIED", false, now.Add(time.Second))))
	require.NoError(t, recorder.Record(ctx, decisionFixture("p2", "ROLE_BYPASS", true, now.Add(2*time.Second))))

	all, err := recorder.Search(ctx, SearchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "p2", all[0].PrincipalID)

	byPrincipal, err := recorder.Search(ctx, SearchFilter{PrincipalID: "p1"})
	require.NoError(t, err)
	assert.Len(t, byPrincipal, 2)

	denied := false
	deniedOnly, err := recorder.Search(ctx, SearchFilter{Allowed: &denied})
	require.NoError(t, err)
	require.Len(t, deniedOnly, 1)
	assert.Equal(t, "PERMISSION_DENIED", deniedOnly[0].ReasonCode)
	assert.Equal(t, 420*time.Microsecond, deniedOnly[0].EvalTime)

	byReason, err := recorder.Search(ctx, SearchFilter{ReasonCode: "ROLE_BYPASS"})
	require.NoError(t, err)
	assert.Len(t, byReason, 1)

	limited, err := recorder.Search(ctx, SearchFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "PERMISSION_DENIED", limited[0].ReasonCode)
}

func TestDBRecorderTimeRange(t *testing.T) {
	recorder := setupRecorder(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, recorder.Record(ctx, decisionFixture("p1", "POLICY_PASS", true, now.Add(-2*time.Hour))))
	require.NoError(t, recorder.Record(ctx, decisionFixture("p1", "POLICY_PASS", true, now)))

	start := now.Add(-time.Hour)
	recent, err := recorder.Search(ctx, SearchFilter{StartTime: &start})
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestDBRecorderDeleteOlderThan(t *testing.T) {
	recorder := setupRecorder(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, recorder.Record(ctx, decisionFixture("p1", "POLICY_PASS", true, now.AddDate(0, 0, -200))))
	require.NoError(t, recorder.Record(ctx, decisionFixture("p1", "POLICY_PASS", true, now)))

	dropped, err := recorder.DeleteOlderThan(ctx, now.AddDate(0, 0, -180))
	require.NoError(t, err)
	assert.EqualValues(t, 1, dropped)

	remaining, err := recorder.Search(ctx, SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
