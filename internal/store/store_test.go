package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/value"
)

// createTestStore creates a new history store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createForeignDB creates a SQLite file with a files table and returns its
// path.
func createForeignDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE files (name TEXT, size INTEGER, ratio REAL, hidden INTEGER, age TEXT);
		INSERT INTO files VALUES ('a.go', 120, 0.5, 0, '2s');
		INSERT INTO files VALUES ('b.go', NULL, 1.5, 1, '1m');
		INSERT INTO files VALUES ('c.md', 7, 2.0, 0, 'soon');
	`)
	require.NoError(t, err)
	return path
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	for _, p := range historyPragmas {
		got, err := s.pragmaValue(p.name)
		require.NoError(t, err)
		assert.Equal(t, p.want, got, p.name)
	}

	version, err := s.pragmaValue("user_version")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(len(migrations)), version)
}

func TestOpen_MigrationsRunOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordPipeline(context.Background(), "id-1", "echo a", nil))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "id-1", entries[0].ID)
}

func TestOpen_MigrationIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_history_status'",
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_history_status", name)
}

func TestOpenReadOnly_MissingFile(t *testing.T) {
	_, err := OpenReadOnly(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestOpenReadOnly_RejectsWrites(t *testing.T) {
	path := createForeignDB(t)

	s, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.Exec("DELETE FROM files")
	assert.Error(t, err)
	assert.Error(t, s.RecordPipeline(context.Background(), "id", "echo", nil))
}

func TestHistory_RecordAndList(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordPipeline(ctx, "id-1", "echo a", nil))
	require.NoError(t, s.RecordPipeline(ctx, "id-2", "where x", errors.New("unknown column")))
	require.NoError(t, s.RecordPipeline(ctx, "id-3", "count", nil))

	entries, err := s.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "id-1", entries[0].ID)
	assert.Equal(t, "echo a", entries[0].Pipeline)
	assert.Equal(t, StatusOK, entries[0].Status)
	assert.WithinDuration(t, time.Now(), entries[0].CreatedAt, time.Minute)

	assert.Equal(t, StatusError, entries[1].Status)
	assert.Equal(t, "unknown column", entries[1].Error)

	assert.Less(t, entries[0].Seq, entries[1].Seq)
	assert.Less(t, entries[1].Seq, entries[2].Seq)
}

func TestHistory_LimitKeepsMostRecent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.RecordPipeline(ctx, id, "echo "+id, nil))
	}

	entries, err := s.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].ID)
	assert.Equal(t, "d", entries[1].ID)
}

func TestHistory_OrdersBySeqNotID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha", "Mid"} {
		require.NoError(t, s.RecordPipeline(ctx, id, "echo "+id, nil))
	}

	entries, err := s.History(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"zeta", "alpha", "Mid"}, ids)

	last, err := s.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "Mid", last[0].ID)
}

func TestHistory_DuplicateIDIgnored(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordPipeline(ctx, "same", "echo 1", nil))
	require.NoError(t, s.RecordPipeline(ctx, "same", "echo 2", nil))

	entries, err := s.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "echo 1", entries[0].Pipeline)
}

func TestEntry_Row(t *testing.T) {
	e := Entry{Seq: 3, ID: "x", Pipeline: "echo", Status: StatusOK}

	require.NoError(t, HistorySchema.Check(e.Row()))
}

func TestScan(t *testing.T) {
	s, err := OpenReadOnly(createForeignDB(t))
	require.NoError(t, err)
	defer s.Close()

	schema := value.Schema{
		value.Column("name", value.TypeText),
		value.Column("size", value.TypeInteger),
		value.Column("ratio", value.TypeFloat),
		value.Column("hidden", value.TypeBool),
		value.Column("age", value.TypeDuration),
	}

	var (
		rows    []value.Row
		rowErrs []error
	)
	err = s.Scan(context.Background(), schema,
		"SELECT name, size, ratio, hidden, age FROM files ORDER BY name", nil,
		func(row value.Row, rowErr error) error {
			if rowErr != nil {
				rowErrs = append(rowErrs, rowErr)
				return nil
			}
			rows = append(rows, row)
			return nil
		})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, value.NewRow(
		value.Text("a.go"), value.Integer(120), value.Float(0.5), value.Bool(false), value.Duration(2*time.Second),
	), rows[0])

	require.Len(t, rowErrs, 2)
	assert.Contains(t, rowErrs[0].Error(), `column "size": NULL value`)
	assert.Contains(t, rowErrs[1].Error(), `column "age"`)
	for _, e := range rowErrs {
		assert.True(t, errs.Is(e, errs.CodeType))
	}
}

func TestScan_ColumnCountMismatch(t *testing.T) {
	s, err := OpenReadOnly(createForeignDB(t))
	require.NoError(t, err)
	defer s.Close()

	err = s.Scan(context.Background(), value.Schema{value.Column("name", value.TypeText)},
		"SELECT name, size FROM files", nil,
		func(value.Row, error) error { return nil })

	assert.True(t, errs.Is(err, errs.CodeArgument))
}

func TestScan_StopsWhenCallbackFails(t *testing.T) {
	s, err := OpenReadOnly(createForeignDB(t))
	require.NoError(t, err)
	defer s.Close()

	stop := errors.New("stop")
	calls := 0
	err = s.Scan(context.Background(), value.Schema{value.Column("name", value.TypeText)},
		"SELECT name FROM files", nil,
		func(value.Row, error) error {
			calls++
			return stop
		})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestConvertCell(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		typ  value.ValueType
		want value.Value
	}{
		{"bytes to text", []byte("hi"), value.TypeText, value.Text("hi")},
		{"int to float", int64(3), value.TypeFloat, value.Float(3)},
		{"int to text", int64(3), value.TypeText, value.Text("3")},
		{"whole float to int", float64(4), value.TypeInteger, value.Integer(4)},
		{"bool", true, value.TypeBool, value.Bool(true)},
		{"int to duration", int64(time.Second), value.TypeDuration, value.Duration(time.Second)},
		{"string to file", "/tmp/x", value.TypeFile, value.File("/tmp/x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertCell(tt.raw, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := convertCell(float64(-(1 << 63)), value.TypeInteger)
	require.NoError(t, err)
	assert.Equal(t, value.Integer(math.MinInt64), got)

	for _, f := range []float64{1.5, 1 << 63, 1e300, -1e300, math.Inf(1), math.NaN()} {
		_, err := convertCell(f, value.TypeInteger)
		assert.True(t, errs.Is(err, errs.CodeType), "%v", f)
	}
}
