package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goBank/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	execTag  pgconn.CommandTag
	execErr  error
	row      fakeRow
	pingErr  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return f.execTag, f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row { return f.row }

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func adjustRow(next, prev *int64) fakeRow {
	return fakeRow{scan: func(dest ...any) error {
		*(dest[0].(**int64)) = next
		*(dest[1].(**int64)) = prev
		return nil
	}}
}

func ptr(v int64) *int64 { return &v }

func TestInsertMapsConflictToExists(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 0")}
	s := NewStore(db)

	err := s.Insert(context.Background(), store.Account{Identity: "alice", PasswordHash: "h", Balance: 1})
	if !errors.Is(err, store.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if !strings.Contains(db.execSQL[0], "ON CONFLICT (identity) DO NOTHING") {
		t.Fatalf("insert must be conditional: %s", db.execSQL[0])
	}
	if _, ok := db.execArgs[0][3].(time.Time); !ok {
		t.Fatalf("expected created_at argument, got %T", db.execArgs[0][3])
	}
}

func TestInsertSuccess(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	if err := NewStore(db).Insert(context.Background(), store.Account{Identity: "alice"}); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	db := &fakeDB{row: fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}}
	if _, err := NewStore(db).Get(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdjustClassification(t *testing.T) {
	tests := []struct {
		name    string
		row     fakeRow
		delta   int64
		want    int64
		wantErr error
	}{
		{name: "applied", row: adjustRow(ptr(150), ptr(100)), delta: 50, want: 150},
		{name: "missing", row: adjustRow(nil, nil), delta: 50, wantErr: store.ErrNotFound},
		{name: "overdraw", row: adjustRow(nil, ptr(100)), delta: -101, want: 100, wantErr: store.ErrInsufficientFunds},
		{name: "over limit", row: adjustRow(nil, ptr(100)), delta: 901, want: 100, wantErr: store.ErrLimitExceeded},
		{name: "raced withdraw", row: adjustRow(nil, ptr(100)), delta: -10, want: 100, wantErr: store.ErrInsufficientFunds},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(&fakeDB{row: tc.row})
			got, err := s.Adjust(context.Background(), "alice", tc.delta, 1000)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Adjust err = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("Adjust = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestBackendFaultsWrapUnavailable(t *testing.T) {
	boom := errors.New("connection reset")
	db := &fakeDB{
		execErr: boom,
		row:     fakeRow{scan: func(...any) error { return boom }},
		pingErr: boom,
	}
	s := NewStore(db)
	ctx := context.Background()

	if err := s.Insert(ctx, store.Account{Identity: "a"}); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("Insert: expected ErrUnavailable, got %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("Get: expected ErrUnavailable, got %v", err)
	}
	if _, err := s.Adjust(ctx, "a", 1, 10); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("Adjust: expected ErrUnavailable, got %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("Ping: expected ErrUnavailable, got %v", err)
	}
	if err := s.EnsureSchema(ctx); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("EnsureSchema: expected ErrUnavailable, got %v", err)
	}
}

func TestContextErrorsPassThrough(t *testing.T) {
	db := &fakeDB{row: fakeRow{scan: func(...any) error { return context.DeadlineExceeded }}}
	if _, err := NewStore(db).Adjust(context.Background(), "a", 1, 10); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "", 0); err == nil {
		t.Fatal("expected empty database url to fail")
	}
}
