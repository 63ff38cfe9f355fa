package stats

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"uct/game"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/samber/lo"
)

// FileSuffix is appended to an engine name to form its stats file name.
const FileSuffix = "_stat.json"

var (
	// ErrMalformedFile is returned by Load for a file that does not decode.
	ErrMalformedFile = errors.New("malformed stats file")
	// ErrSizeLimit is returned by Save when the file on disk is over the limit.
	ErrSizeLimit = errors.New("stats file exceeds size limit")
)

// FileName returns the stats file of the engine called name.
func FileName(name string) string {
	return name + FileSuffix
}

// Open creates a table and loads path into it.
func Open(path string, options ...Option) (*Table, error) {
	t := New(options...)
	if err := t.Load(path); err != nil {
		return nil, err
	}
	return t, nil
}

// Load replaces the table contents with the records persisted at path. A
// missing file leaves the table untouched. A file that does not decode, or
// that holds a key rejected by the validator, fails the whole load.
func (t *Table) Load(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to stat stats file: %w", err)
	}

	var entries map[game.Key]*Stats
	var err error
	if isParquet(path) {
		entries, err = readParquet(path)
	} else {
		entries, err = readJSON(path)
	}
	if err != nil {
		return err
	}

	if t.validate != nil {
		for key := range entries {
			if err := t.validate(key); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrMalformedFile, path, err)
			}
		}
	}

	t.Lock()
	t.entries = entries
	t.Unlock()
	return nil
}

// Save writes every entry to path. If the file already on disk is larger than
// the size limit nothing is written and the returned error wraps
// ErrSizeLimit. The file is replaced atomically.
func (t *Table) Save(path string) error {
	info, err := os.Stat(path)
	if err == nil && info.Size() > t.sizeLimit {
		return fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrSizeLimit, path, info.Size(), t.sizeLimit)
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat stats file: %w", err)
	}

	snapshot := t.Snapshot()

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create stats directory: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)
	if isParquet(path) {
		err = writeParquet(tmpPath, snapshot)
	} else {
		err = writeJSON(tmpPath, snapshot)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename stats file: %w", err)
	}
	return nil
}

func isParquet(path string) bool {
	return filepath.Ext(path) == ".parquet"
}

const keyDigits = 16

func formatKey(key game.Key) string {
	return fmt.Sprintf("%0*x", keyDigits, uint64(key))
}

func parseKey(s string) (game.Key, error) {
	if len(s) != keyDigits {
		return 0, fmt.Errorf("%w: key %q is not %d hex digits", game.ErrMalformedKey, s, keyDigits)
	}
	k, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: key %q", game.ErrMalformedKey, s)
	}
	return game.Key(k), nil
}

// jsonRecord tells a missing field from a zero one.
type jsonRecord struct {
	Value  *float64 `json:"value"`
	Visits *uint64  `json:"visits"`
}

// readJSON streams the top-level object so that repeated keys are caught
// before they overwrite each other.
func readJSON(path string) (map[game.Key]*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats file: %w", err)
	}
	defer f.Close()

	malformed := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrMalformedFile, path, fmt.Sprintf(format, args...))
	}

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if tok, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedFile, path, err)
	} else if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, malformed("expected an object, found %v", tok)
	}

	entries := make(map[game.Key]*Stats)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedFile, path, err)
		}
		name, _ := tok.(string)
		key, err := parseKey(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedFile, path, err)
		}
		if _, dup := entries[key]; dup {
			return nil, malformed("duplicate key %s", formatKey(key))
		}

		var rec jsonRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: %s: key %s: %w", ErrMalformedFile, path, name, err)
		}
		if rec.Value == nil || rec.Visits == nil {
			return nil, malformed("key %s misses value or visits", name)
		}
		entries[key] = &Stats{Value: *rec.Value, Visits: *rec.Visits}
	}
	if _, err := dec.Token(); err != nil { // Closing brace
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedFile, path, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("trailing data")
	}
	return entries, nil
}

func writeJSON(path string, snapshot map[game.Key]Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create stats file: %w", err)
	}
	defer f.Close()

	raw := lo.MapKeys(snapshot, func(_ Stats, key game.Key) string {
		return formatKey(key)
	})
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("failed to encode stats file: %w", err)
	}
	return f.Sync()
}

type record struct {
	Key    uint64  `parquet:"key"`
	Value  float64 `parquet:"value"`
	Visits uint64  `parquet:"visits"`
}

func readParquet(path string) (map[game.Key]*Stats, error) {
	rows, err := parquet.ReadFile[record](path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedFile, path, err)
	}

	entries := make(map[game.Key]*Stats, len(rows))
	for _, row := range rows {
		key := game.Key(row.Key)
		if _, dup := entries[key]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate key %s", ErrMalformedFile, path, formatKey(key))
		}
		entries[key] = &Stats{Value: row.Value, Visits: row.Visits}
	}
	return entries, nil
}

func writeParquet(path string, snapshot map[game.Key]Stats) error {
	rows := lo.MapToSlice(snapshot, func(key game.Key, s Stats) record {
		return record{Key: uint64(key), Value: s.Value, Visits: s.Visits}
	})
	slices.SortFunc(rows, func(a, b record) int {
		return cmp.Compare(a.Key, b.Key)
	})

	if err := parquet.WriteFile(path, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "uct_stats_v1"),
	); err != nil {
		return fmt.Errorf("failed to write parquet stats file: %w", err)
	}
	return nil
}
