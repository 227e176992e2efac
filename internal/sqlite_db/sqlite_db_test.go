package sqlite_db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunLifecycle(t *testing.T) {
	db := setupTestDB(t)
	id, err := StartRun(db, "pos", "corpus.txt", 10)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	run, err := GetRun(db, id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.False(t, run.Finished.Valid)

	require.NoError(t, SaveReport(db, Report{RunID: id, Epoch: 2, Hits: 9, Total: 10, Accuracy: 0.9, Improved: true, Elapsed: 1500 * time.Millisecond}))
	require.NoError(t, SaveReport(db, Report{RunID: id, Epoch: 1, Hits: 5, Total: 10, Accuracy: 0.5}))
	require.NoError(t, FinishRun(db, id, false))

	run, err = GetRun(db, id)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, run.Status)
	assert.True(t, run.Finished.Valid)

	reports, err := GetReports(db, id)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, 1, reports[0].Epoch)
	assert.True(t, reports[1].Improved)
	assert.Equal(t, 1500*time.Millisecond, reports[1].Elapsed)
}

func TestBestAccuracyIgnoresFailedRuns(t *testing.T) {
	db := setupTestDB(t)
	_, ok, err := BestAccuracy(db, "ner")
	require.NoError(t, err)
	assert.False(t, ok)

	good, err := StartRun(db, "ner", "a", 1)
	require.NoError(t, err)
	require.NoError(t, SaveReport(db, Report{RunID: good, Epoch: 1, Hits: 7, Total: 10, Accuracy: 0.7}))
	require.NoError(t, FinishRun(db, good, false))

	bad, err := StartRun(db, "ner", "b", 1)
	require.NoError(t, err)
	require.NoError(t, SaveReport(db, Report{RunID: bad, Epoch: 1, Hits: 9, Total: 10, Accuracy: 0.9}))
	require.NoError(t, FinishRun(db, bad, true))

	best, ok, err := BestAccuracy(db, "ner")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 0.7, best, 1e-9)
}

func TestFinishUnknownRun(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, FinishRun(db, "missing", false))
	_, err := GetRun(db, "missing")
	assert.Error(t, err)
}

func TestOpenDBCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history.db")
	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()
	_, err = StartRun(db, "pos", "c", 1)
	assert.NoError(t, err)
}
