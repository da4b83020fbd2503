package results

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenAndMigrate(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() *Run {
	return &Run{
		InputPath:      "events/pythia8-100.hepmc3",
		Algorithm:      "AntiKt",
		Strategy:       "N2Tiled",
		Radius:         0.4,
		Power:          -1,
		SelectionMode:  "ptmin",
		SelectionValue: 5,
		Trials:         3,
		Events:         100,
		Normalization:  "full",
		NormalizedBy:   100,
		MeanTotalUs:    4200,
		MeanUs:         42,
		StdDevUs:       1.5,
		MinUs:          40.1,
		Version:        "dev",
		TrialUs:        []float64{4300, 4290, 4010},
	}
}

func TestMigrations(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer s.Close()

	v, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)

	require.NoError(t, s.MigrateUp())
	v, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(LatestVersion), v)

	// Up again is a no-op.
	require.NoError(t, s.MigrateUp())

	require.NoError(t, s.MigrateDown())
	v, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	var n int
	require.NoError(t, s.DB().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='bench_trials'`).Scan(&n))
	assert.Equal(t, 0, n)

	require.NoError(t, s.MigrateUp())
	v, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(LatestVersion), v)
}

func TestInsertAndGetRun(t *testing.T) {
	s := setupTestStore(t)

	run := sampleRun()
	require.NoError(t, s.InsertRun(run))
	assert.NotEmpty(t, run.RunID)
	assert.NotZero(t, run.CreatedAt)

	got, err := s.GetRun(run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("stored run mismatch (-want +got):\n%s", diff)
	}

	byPrefix, err := s.GetRun(run.RunID[:8])
	require.NoError(t, err)
	assert.Equal(t, run.RunID, byPrefix.RunID)
}

func TestGetRunErrors(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetRun("does-not-exist")
	assert.True(t, errors.Is(err, ErrRunNotFound))
	_, err = s.GetRun("")
	assert.ErrorIs(t, err, ErrRunNotFound)

	a, b := sampleRun(), sampleRun()
	a.RunID, b.RunID = "abc-1", "abc-2"
	require.NoError(t, s.InsertRun(a))
	require.NoError(t, s.InsertRun(b))
	_, err = s.GetRun("abc")
	assert.ErrorIs(t, err, ErrAmbiguousRunID)

	got, err := s.GetRun("abc-2")
	require.NoError(t, err)
	assert.Equal(t, "abc-2", got.RunID)
}

func TestListAndDeleteRuns(t *testing.T) {
	s := setupTestStore(t)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		r := sampleRun()
		r.RunID = id
		r.CreatedAt = int64(1000 + i)
		require.NoError(t, s.InsertRun(r))
	}

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-c", runs[0].RunID)
	assert.Equal(t, "run-a", runs[2].RunID)
	assert.Nil(t, runs[0].TrialUs)

	limited, err := s.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, s.DeleteRun("run-b"))
	assert.ErrorIs(t, s.DeleteRun("run-b"), ErrRunNotFound)

	var trials int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM bench_trials WHERE run_id = 'run-b'`).Scan(&trials))
	assert.Equal(t, 0, trials, "trials cascade with their run")
}

func TestRetryOnBusy(t *testing.T) {
	busy := errors.New("database is locked (5) (SQLITE_BUSY)")

	t.Run("success after retry", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			if calls < 3 {
				return busy
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		other := errors.New("constraint failed")
		err := retryOnBusy(func() error {
			calls++
			return other
		})
		assert.Equal(t, other, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			return busy
		})
		assert.Equal(t, busy, err)
		assert.Equal(t, maxBusyRetries, calls)
	})
}
