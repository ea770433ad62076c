package testsupport

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-association-cache/store/bunstore"
)

var dbSeq atomic.Int64

// OpenSQLite opens a private in-memory sqlite database with the test schema
// created. It is closed when the test ends.
func OpenSQLite(t testing.TB) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:assoccache_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := bunstore.Open(bunstore.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, m := range []any{(*Account)(nil), (*User)(nil), (*Project)(nil), (*ProjectUser)(nil)} {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("failed to create table for %T: %v", m, err)
		}
	}
	return db
}

// Seed inserts the dataset.
func Seed(t testing.TB, db *bun.DB, ds Dataset) {
	t.Helper()

	ctx := context.Background()
	insert := func(name string, n int, model any) {
		if n == 0 {
			return
		}
		if _, err := db.NewInsert().Model(model).Exec(ctx); err != nil {
			t.Fatalf("failed to seed %s: %v", name, err)
		}
	}

	insert("accounts", len(ds.Accounts), &ds.Accounts)
	insert("users", len(ds.Users), &ds.Users)
	insert("projects", len(ds.Projects), &ds.Projects)
	insert("projects_users", len(ds.ProjectUsers), &ds.ProjectUsers)
}

// OpenSeeded opens a database, seeds the default dataset and returns a bun
// store with the test models registered.
func OpenSeeded(t testing.TB) *bunstore.Store {
	t.Helper()

	db := OpenSQLite(t)
	Seed(t, db, DefaultDataset(t))

	s := bunstore.New(db)
	RegisterModels(s)
	return s
}
