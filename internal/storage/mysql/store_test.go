package mysql

import (
	"context"
	"database/sql/driver"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	xerrors "OxyGent-Console/internal/errors"
	"OxyGent-Console/internal/registry"
)

type note struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Body string `json:"body"`
}

func (n note) ResourceID() string   { return n.ID }
func (n note) ResourceName() string { return n.Name }
func (n note) Clone() note          { return n }

var fixedNow = time.UnixMilli(1700000000000)

func newNoteStore(t *testing.T, ops []fakeOp) (*Store[note], *scriptDriver) {
	t.Helper()
	db, drv := newFakeDB(t, ops)
	t.Cleanup(func() { db.Close() })
	store := NewStore[note](db, "notes")
	store.now = func() time.Time { return fixedNow }
	return store, drv
}

func TestStoreInsert(t *testing.T) {
	t.Parallel()

	body := []byte(`{"id":"1","name":"n1","body":"hello"}`)
	store, drv := newNoteStore(t, []fakeOp{
		beginOp(),
		queryOp(selectByNameSQL, fakeRows{columns: []string{"id"}}).with("notes", "n1"),
		execOp(insertSQL, fakeResult{rowsAffected: 1}).with("notes", "1", "n1", body, fixedNow.UnixMilli(), fixedNow.UnixMilli()),
		commitOp(),
	})
	defer drv.assertConsumed(t)

	if err := store.Insert(context.Background(), note{ID: "1", Name: "n1", Body: "hello"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
}

func TestStoreInsertConflicts(t *testing.T) {
	t.Parallel()

	store, drv := newNoteStore(t, []fakeOp{
		beginOp(),
		queryOp(selectByNameSQL, fakeRows{columns: []string{"id"}, values: [][]driver.Value{{"1"}}}),
		rollbackOp(),
		beginOp(),
		queryOp(selectByNameSQL, fakeRows{columns: []string{"id"}}),
		execOp(insertSQL, fakeResult{}).failing(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}),
		rollbackOp(),
	})
	defer drv.assertConsumed(t)

	ctx := context.Background()
	if err := store.Insert(ctx, note{ID: "2", Name: "n1"}); !stdErrors.Is(err, registry.ErrConflict) {
		t.Fatalf("expected conflict for taken name, got %v", err)
	}
	if err := store.Insert(ctx, note{ID: "1", Name: "n2"}); !stdErrors.Is(err, registry.ErrConflict) {
		t.Fatalf("expected conflict for duplicate key, got %v", err)
	}
}

func TestStoreInsertRetriesDeadlock(t *testing.T) {
	t.Parallel()

	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	store, drv := newNoteStore(t, []fakeOp{
		// 同名插入：死锁后重试，此时对方已提交。
		beginOp(),
		queryOp(selectByNameSQL, fakeRows{columns: []string{"id"}}),
		execOp(insertSQL, fakeResult{}).failing(deadlock),
		rollbackOp(),
		beginOp(),
		queryOp(selectByNameSQL, fakeRows{columns: []string{"id"}, values: [][]driver.Value{{"1"}}}),
		rollbackOp(),
		// 不同名插入：重试后成功。
		beginOp(),
		queryOp(selectByNameSQL, fakeRows{columns: []string{"id"}}),
		execOp(insertSQL, fakeResult{}).failing(deadlock),
		rollbackOp(),
		beginOp(),
		queryOp(selectByNameSQL, fakeRows{columns: []string{"id"}}),
		execOp(insertSQL, fakeResult{rowsAffected: 1}),
		commitOp(),
	})
	defer drv.assertConsumed(t)

	ctx := context.Background()
	if err := store.Insert(ctx, note{ID: "2", Name: "n1"}); !stdErrors.Is(err, registry.ErrConflict) {
		t.Fatalf("expected conflict after deadlock retry, got %v", err)
	}
	if err := store.Insert(ctx, note{ID: "3", Name: "n3"}); err != nil {
		t.Fatalf("expected insert to succeed after deadlock retry, got %v", err)
	}
}

func TestStoreInsertGivesUpAfterRepeatedDeadlocks(t *testing.T) {
	t.Parallel()

	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	var ops []fakeOp
	for i := 0; i < insertAttempts; i++ {
		ops = append(ops,
			beginOp(),
			queryOp(selectByNameSQL, fakeRows{columns: []string{"id"}}),
			execOp(insertSQL, fakeResult{}).failing(deadlock),
			rollbackOp(),
		)
	}
	store, drv := newNoteStore(t, ops)
	defer drv.assertConsumed(t)

	err := store.Insert(context.Background(), note{ID: "4", Name: "n4"})
	if xerrors.CodeOf(err) != xerrors.CodeStorageFailure {
		t.Fatalf("expected storage failure, got %v", err)
	}
}

func TestStoreGetAndFindByName(t *testing.T) {
	t.Parallel()

	row := fakeRows{columns: []string{"body"}, values: [][]driver.Value{{[]byte(`{"id":"7","name":"n7","body":"x"}`)}}}
	store, drv := newNoteStore(t, []fakeOp{
		queryOp(getSQL, row).with("notes", "7"),
		queryOp(findByNameSQL, row).with("notes", "n7"),
		queryOp(getSQL, fakeRows{columns: []string{"body"}}),
	})
	defer drv.assertConsumed(t)

	ctx := context.Background()
	rec, err := store.Get(ctx, "7")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rec != (note{ID: "7", Name: "n7", Body: "x"}) {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, err := store.FindByName(ctx, "n7"); err != nil {
		t.Fatalf("find by name failed: %v", err)
	}
	if _, err := store.Get(ctx, "8"); !stdErrors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreReplaceAndDelete(t *testing.T) {
	t.Parallel()

	body := []byte(`{"id":"7","name":"renamed","body":""}`)
	store, drv := newNoteStore(t, []fakeOp{
		execOp(replaceSQL, fakeResult{rowsAffected: 1}).with("renamed", body, fixedNow.UnixMilli(), "notes", "7"),
		execOp(replaceSQL, fakeResult{rowsAffected: 0}),
		execOp(deleteSQL, fakeResult{rowsAffected: 1}).with("notes", "7"),
		execOp(deleteSQL, fakeResult{rowsAffected: 0}),
	})
	defer drv.assertConsumed(t)

	ctx := context.Background()
	if err := store.Replace(ctx, note{ID: "7", Name: "renamed"}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := store.Replace(ctx, note{ID: "8", Name: "x"}); !stdErrors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected not found on replace, got %v", err)
	}
	if err := store.Delete(ctx, "7"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete(ctx, "7"); !stdErrors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestStoreList(t *testing.T) {
	t.Parallel()

	store, drv := newNoteStore(t, []fakeOp{
		queryOp(listSQL, fakeRows{columns: []string{"body"}, values: [][]driver.Value{
			{[]byte(`{"id":"1","name":"a"}`)},
			{[]byte(`{"id":"3","name":"c"}`)},
		}}).with("notes"),
		queryOp(listSQL, fakeRows{columns: []string{"body"}}),
	})
	defer drv.assertConsumed(t)

	ctx := context.Background()
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "1" || list[1].ID != "3" {
		t.Fatalf("unexpected list: %+v", list)
	}
	empty, err := store.List(ctx)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v %v", empty, err)
	}
}

func TestSequenceNext(t *testing.T) {
	t.Parallel()

	db, drv := newFakeDB(t, []fakeOp{
		beginOp(),
		execOp(bumpSequenceSQL, fakeResult{rowsAffected: 2}).with("agents"),
		queryOp(readSequenceSQL, fakeRows{columns: []string{"value"}, values: [][]driver.Value{{int64(5)}}}).with("agents"),
		commitOp(),
	})
	defer drv.assertConsumed(t)
	defer db.Close()

	id, err := NewSequence(db, "agents").Next(context.Background())
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if id != "5" {
		t.Fatalf("expected id 5, got %s", id)
	}
}

func TestRegistryOverMySQLStore(t *testing.T) {
	t.Parallel()

	store, drv := newNoteStore(t, []fakeOp{
		queryOp(findByNameSQL, fakeRows{columns: []string{"body"}}).with("notes", "n1"),
		beginOp(),
		queryOp(selectByNameSQL, fakeRows{columns: []string{"id"}}),
		execOp(insertSQL, fakeResult{rowsAffected: 1}),
		commitOp(),
	})
	defer drv.assertConsumed(t)

	kind := registry.Kind[note, note, note]{
		Name:   "Note",
		Key:    "notes",
		NameOf: func(in note) string { return in.Name },
		Build:  func(id string, in note) note { in.ID = id; return in },
		Patch:  func(rec *note, in note) {},
	}
	reg := registry.New(kind, store)
	rec, err := reg.Create(context.Background(), note{Name: "n1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.ID != "1" {
		t.Fatalf("expected sequence id 1, got %s", rec.ID)
	}
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	content, err := embeddedMigrations.ReadFile("0001_create_registry.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	statements := splitSQLStatements(string(content))
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(statements))
	}

	ops := []fakeOp{
		execOp(`CREATE TABLE IF NOT EXISTS schema_migrations (
        version VARCHAR(32) NOT NULL PRIMARY KEY,
        applied_at BIGINT NOT NULL
)`, fakeResult{}),
		queryOp(`SELECT version FROM schema_migrations`, fakeRows{columns: []string{"version"}}),
		beginOp(),
		execOp(statements[0], fakeResult{}),
		execOp(statements[1], fakeResult{}),
		execOp(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, fakeResult{rowsAffected: 1}),
		commitOp(),
	}
	db, drv := newFakeDB(t, ops)
	defer drv.assertConsumed(t)
	defer db.Close()

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
}

func TestMigrateSkipsAppliedVersions(t *testing.T) {
	t.Parallel()

	db, drv := newFakeDB(t, []fakeOp{
		execOp(`CREATE TABLE IF NOT EXISTS schema_migrations (
        version VARCHAR(32) NOT NULL PRIMARY KEY,
        applied_at BIGINT NOT NULL
)`, fakeResult{}),
		queryOp(`SELECT version FROM schema_migrations`, fakeRows{columns: []string{"version"}, values: [][]driver.Value{{"0001"}}}),
	})
	defer drv.assertConsumed(t)
	defer db.Close()

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
}

func TestNormalizeDSN(t *testing.T) {
	t.Parallel()

	dsn, err := normalizeDSN("user:pass@tcp(127.0.0.1:3306)/oxygent")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("parse normalized dsn: %v", err)
	}
	if !cfg.ClientFoundRows || cfg.DBName != "oxygent" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if _, err := normalizeDSN("  "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
