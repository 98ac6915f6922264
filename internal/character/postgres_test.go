package character

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ---------------------------------------------------------------------------
// Test helpers — mock DB types
// ---------------------------------------------------------------------------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return nil, errors.New("query not configured")
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()

	var gotSQL string
	db := &mockDB{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			return pgconn.CommandTag{}, nil
		},
	}

	store := NewPostgresStore(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !strings.Contains(gotSQL, "CREATE TABLE IF NOT EXISTS character_definitions") {
		t.Errorf("Migrate() executed unexpected SQL: %s", gotSQL)
	}
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	t.Parallel()

	store := NewPostgresStore(&mockDB{})
	def, err := store.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get() error = %v, want nil for missing row", err)
	}
	if def != nil {
		t.Errorf("Get() = %+v, want nil", def)
	}
}

func TestPostgresStore_CreateDuplicate(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error {
				return &pgconn.PgError{Code: "23505"}
			}}
		},
	}

	store := NewPostgresStore(db)
	def := Definition{ID: "sage", Name: "Greymantle"}
	err := store.Create(context.Background(), &def)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("Create() duplicate = %v, want already-exists error", err)
	}
}

func TestPostgresStore_CreateSetsTimestamps(t *testing.T) {
	t.Parallel()

	now := time.Now()
	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error {
				for _, d := range dest {
					if ts, ok := d.(*time.Time); ok {
						*ts = now
					}
				}
				return nil
			}}
		},
	}

	store := NewPostgresStore(db)
	def := Definition{ID: "sage", Name: "Greymantle"}
	if err := store.Create(context.Background(), &def); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !def.CreatedAt.Equal(now) || !def.UpdatedAt.Equal(now) {
		t.Error("Create() did not populate timestamps from RETURNING")
	}
}

func TestPostgresStore_ValidatesBeforeWrite(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			t.Error("store issued a query for an invalid definition")
			return &mockRow{scanFunc: func(dest ...any) error { return nil }}
		},
	}

	store := NewPostgresStore(db)
	bad := Definition{}
	if err := store.Create(context.Background(), &bad); err == nil {
		t.Error("Create(invalid) = nil error, want error")
	}
	if err := store.Update(context.Background(), &bad); err == nil {
		t.Error("Update(invalid) = nil error, want error")
	}
	if err := store.Upsert(context.Background(), &bad); err == nil {
		t.Error("Upsert(invalid) = nil error, want error")
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	t.Parallel()

	if !isDuplicateKeyError(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique-violation code not detected")
	}
	if isDuplicateKeyError(&pgconn.PgError{Code: "42P01"}) {
		t.Error("unrelated pg error treated as duplicate key")
	}
	if isDuplicateKeyError(errors.New("plain")) {
		t.Error("plain error treated as duplicate key")
	}
}
