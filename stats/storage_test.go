package stats

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, dir string) *Storage {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	storage, err := NewStorage(dir, log)
	require.NoError(t, err)
	return storage
}

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()
	storage := newTestStorage(t, tempDir)

	t.Run("RecordAnalysis", func(t *testing.T) {
		storage.RecordAnalysis(80, false)
		storage.RecordAnalysis(60, true)
		storage.RecordCaptureFailure()

		stats := storage.GetCurrentStats()
		assert.Equal(t, 2, stats.Analyses)
		assert.Equal(t, 1, stats.ReportCacheHits)
		assert.Equal(t, 1, stats.ReportCacheMisses)
		assert.Equal(t, 1, stats.CaptureFailures)
		assert.Equal(t, 70.0, stats.AverageScore())
	})

	t.Run("Persistence", func(t *testing.T) {
		require.NoError(t, storage.Shutdown())

		storage2 := newTestStorage(t, tempDir)
		defer storage2.Shutdown()

		stats := storage2.GetCurrentStats()
		assert.Equal(t, 2, stats.Analyses)
		assert.Equal(t, 140, stats.ScoreTotal)
	})

	t.Run("ShutdownIsIdempotent", func(t *testing.T) {
		assert.NoError(t, storage.Shutdown())
	})
}

func TestStorageCleanup(t *testing.T) {
	storage := newTestStorage(t, t.TempDir())
	defer storage.Shutdown()

	first := time.Date(time.Now().Year(), time.Now().Month(), 1, 12, 0, 0, 0, time.Local)
	oldMonth := first.AddDate(0, -2, 0).Format("2006-01")
	previousMonth := first.AddDate(0, -1, 0).Format("2006-01")
	storage.stats[oldMonth] = &MonthlyStats{Analyses: 100}
	storage.stats[previousMonth] = &MonthlyStats{Analyses: 10}
	storage.RecordAnalysis(90, false)

	assert.Equal(t, []string{getCurrentMonth(), previousMonth, oldMonth}, storage.GetAllMonths())

	storage.Cleanup(2)

	_, exists := storage.GetMonthlyStats(oldMonth)
	assert.False(t, exists, "old stats should have been cleaned up")
	_, exists = storage.GetMonthlyStats(previousMonth)
	assert.True(t, exists)
}

func TestStorageFileSize(t *testing.T) {
	tempDir := t.TempDir()
	storage := newTestStorage(t, tempDir)
	storage.RecordAnalysis(100, false)
	require.NoError(t, storage.Shutdown())

	info, err := os.Stat(filepath.Join(tempDir, "stats.json"))
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(1024))
}

func TestStorageConcurrentAccess(t *testing.T) {
	storage := newTestStorage(t, t.TempDir())
	defer storage.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				storage.RecordAnalysis(50, j%2 == 0)
				storage.GetCurrentStats()
			}
		}()
	}
	wg.Wait()

	stats := storage.GetCurrentStats()
	assert.Equal(t, 1000, stats.Analyses)
	assert.Equal(t, 500, stats.ReportCacheHits)
	assert.Equal(t, 50.0, stats.AverageScore())
}

func TestMonthsToKeep(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		n    int
		want map[string]bool
	}{
		{
			name: "end of month",
			now:  time.Date(2026, time.October, 31, 23, 0, 0, 0, time.UTC),
			n:    2,
			want: map[string]bool{"2026-10": true, "2026-09": true},
		},
		{
			name: "march 30th",
			now:  time.Date(2026, time.March, 30, 0, 0, 0, 0, time.UTC),
			n:    2,
			want: map[string]bool{"2026-03": true, "2026-02": true},
		},
		{
			name: "across year",
			now:  time.Date(2027, time.January, 31, 0, 0, 0, 0, time.UTC),
			n:    3,
			want: map[string]bool{"2027-01": true, "2026-12": true, "2026-11": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, monthsToKeep(tt.now, tt.n))
		})
	}
}

func TestStorageLoadNullFile(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "stats.json"), []byte("null"), 0644))

	storage := newTestStorage(t, tempDir)
	defer storage.Shutdown()

	assert.NotPanics(t, func() { storage.RecordAnalysis(75, false) })
	assert.Equal(t, 1, storage.GetCurrentStats().Analyses)
}
