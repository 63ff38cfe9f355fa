package stats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"uct/game"

	"github.com/stretchr/testify/require"
)

func TestStatsMean(t *testing.T) {
	t.Run("unvisited state", func(t *testing.T) {
		require.Equal(t, 0.0, Stats{}.Mean())
	})

	t.Run("visited state", func(t *testing.T) {
		require.InDelta(t, 0.75, Stats{Value: 3, Visits: 4}.Mean(), 1e-9)
	})
}

func TestTable(t *testing.T) {
	t.Run("probing does not allocate an entry", func(t *testing.T) {
		table := New()

		_, ok := table.Get(1)
		require.False(t, ok)
		require.Equal(t, 0, table.Len(), "Get should not insert")
	})

	t.Run("ensuring inserts every missing key with zero stats", func(t *testing.T) {
		table := New()
		table.Ensure(1)
		table.Record(1, 1)

		table.Ensure(1, 2, 3)

		require.Equal(t, 3, table.Len())
		require.True(t, table.Contains(1, 2, 3))
		got, _ := table.Get(1)
		require.Equal(t, Stats{Value: 1, Visits: 1}, got, "Existing stats should survive Ensure")
		got, _ = table.Get(2)
		require.Equal(t, Stats{}, got)
	})

	t.Run("recording counts every call", func(t *testing.T) {
		table := New()
		table.Ensure(7)

		previous := uint64(0)
		for i := 1; i <= 10; i++ {
			require.True(t, table.Record(7, 0.5))
			got, _ := table.Get(7)
			require.GreaterOrEqual(t, got.Visits, previous, "Visits should never decrease")
			require.Equal(t, uint64(i), got.Visits)
			previous = got.Visits
		}
		got, _ := table.Get(7)
		require.InDelta(t, 5.0, got.Value, 1e-9)
	})

	t.Run("recording an unknown key is ignored", func(t *testing.T) {
		table := New()

		require.False(t, table.Record(9, 1))
		require.Equal(t, 0, table.Len())
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		table := New()
		table.Ensure(1)
		snapshot := table.Snapshot()

		table.Record(1, 1)

		require.Equal(t, Stats{}, snapshot[1])
	})
}

func filled(n int) *Table {
	table := New()
	for i := 0; i < n; i++ {
		key := game.Key(i * 31)
		table.Ensure(key)
		for j := 0; j <= i%5; j++ {
			table.Record(key, float64(i%3)/2)
		}
	}
	return table
}

func TestPersistenceRoundTrip(t *testing.T) {
	for _, name := range []string{"bot_stat.json", "bot.parquet"} {
		t.Run(fmt.Sprintf("saving then loading %s", filepath.Ext(name)), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			table := filled(100)

			require.NoError(t, table.Save(path))

			loaded, err := Open(path)
			require.NoError(t, err)
			require.Equal(t, table.Snapshot(), loaded.Snapshot(), "Loaded table should match the saved one")

			_, err = os.Stat(path + ".tmp")
			require.True(t, os.IsNotExist(err), "Temporary file should be renamed away")
		})
	}

	t.Run("loading a missing file starts empty", func(t *testing.T) {
		table, err := Open(filepath.Join(t.TempDir(), FileName("nobody")))

		require.NoError(t, err)
		require.Equal(t, 0, table.Len())
	})
}

func TestLoadRejectsMalformedFiles(t *testing.T) {
	cases := map[string]string{
		"not json":         "{not json",
		"not an object":    `[1, 2, 3]`,
		"malformed key":    `{"zz": {"value": 1, "visits": 1}}`,
		"negative visits":  `{"0000000000000001": {"value": 1, "visits": -1}}`,
		"unknown field":    `{"0000000000000001": {"values": 1, "visits": 1}}`,
		"missing stats":    `{"0000000000000001": null}`,
		"trailing garbage": `{"0000000000000001": {"value": 1, "visits": 1}} {}`,
		"short key":        `{"1": {"value": 1, "visits": 1}}`,
		"duplicate key":    `{"000000000000000a": {"value": 1, "visits": 1}, "000000000000000A": {"value": 5, "visits": 9}}`,
		"repeated key":     `{"0000000000000001": {"value": 1, "visits": 1}, "0000000000000001": {"value": 5, "visits": 9}}`,
		"missing fields":   `{"0000000000000001": {}}`,
		"missing visits":   `{"0000000000000001": {"value": 1}}`,
		"null file":        `null`,
		"key too long":     `{"00000000000000001": {"value": 1, "visits": 1}}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName("bot"))
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			table := New()
			table.Ensure(42)
			err := table.Load(path)

			require.Error(t, err)
			require.True(t, errors.Is(err, ErrMalformedFile), "Should wrap ErrMalformedFile")
			require.True(t, table.Contains(42), "A failed load should not touch the table")
		})
	}

	t.Run("key rejected by the validator", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), FileName("bot"))
		require.NoError(t, filled(3).Save(path))

		reject := func(key game.Key) error {
			if key == 31 {
				return fmt.Errorf("%w: test", game.ErrMalformedKey)
			}
			return nil
		}
		_, err := Open(path, WithValidator(reject))

		require.Error(t, err)
		require.True(t, errors.Is(err, ErrMalformedFile))
		require.True(t, errors.Is(err, game.ErrMalformedKey))
	})

	t.Run("corrupted parquet file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bot.parquet")
		require.NoError(t, os.WriteFile(path, []byte("PAR1 definitely not parquet"), 0o644))

		_, err := Open(path)

		require.Error(t, err)
		require.True(t, errors.Is(err, ErrMalformedFile))
	})
}

func TestSaveSizeLimit(t *testing.T) {
	t.Run("skipping save when the existing file is too large", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), FileName("bot"))
		require.NoError(t, filled(50).Save(path))
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		table := filled(200)
		table.sizeLimit = int64(len(before)) - 1
		err = table.Save(path)

		require.Error(t, err)
		require.True(t, errors.Is(err, ErrSizeLimit), "Should wrap ErrSizeLimit")
		after, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, before, after, "File should be unchanged")
		require.Equal(t, 200, table.Len(), "The in-memory table is never pruned")
	})

	t.Run("saving when the existing file is under the limit", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), FileName("bot"))
		require.NoError(t, filled(5).Save(path))

		table := New(WithSizeLimit(1 << 20))
		table.Ensure(1, 2)
		require.NoError(t, table.Save(path))

		loaded, err := Open(path)
		require.NoError(t, err)
		require.Equal(t, 2, loaded.Len())
	})

	t.Run("defaulting to 20 MiB", func(t *testing.T) {
		require.Equal(t, int64(20*1024*1024), New().sizeLimit)
		require.Equal(t, int64(20*1024*1024), New(WithSizeLimit(0)).sizeLimit, "Non-positive limits are ignored")
	})
}

func TestFileName(t *testing.T) {
	require.Equal(t, "black_stat.json", FileName("black"))
}
