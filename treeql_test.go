package treeql_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/treeql/treeql"
)

func openTestDB(t *testing.T) *treeql.DB {
	t.Helper()
	db, err := treeql.Open("sqlite3", ":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE album (album_id INTEGER PRIMARY KEY, title TEXT, artist_id INTEGER);
		CREATE TABLE artist (artist_id INTEGER PRIMARY KEY, name TEXT);
		INSERT INTO artist (artist_id, name) VALUES (9, 'The Beatles');
		INSERT INTO album (album_id, title, artist_id) VALUES (1, 'Abbey Road', 9);
	`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func TestEntityFetchesPromotedRecord(t *testing.T) {
	db := openTestDB(t)
	cs, err := treeql.Compile(`(Table album :fields "title" {["artist_id" :flatten] (Table artist :fields "name")})`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	rec, err := treeql.Entity(context.Background(), db, cs, 1, nil)
	if err != nil {
		t.Fatalf("entity: %v", err)
	}
	if rec["title"] != "Abbey Road" || rec["name"] != "The Beatles" {
		t.Fatalf("unexpected record: %#v", rec)
	}
}

func TestEntityMissingRowReturnsNil(t *testing.T) {
	db := openTestDB(t)
	cs, err := treeql.Compile(`(Table album :fields "title")`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	rec, err := treeql.Entity(context.Background(), db, cs, 999, nil)
	if err != nil {
		t.Fatalf("entity: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %#v", rec)
	}
}

func TestEntityIDsSelectsAll(t *testing.T) {
	db := openTestDB(t)
	cs, err := treeql.Compile(`(Table album :fields "title")`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	ids, err := treeql.EntityIDs(context.Background(), db, cs, treeql.SelectionOptions{})
	if err != nil {
		t.Fatalf("entity ids: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 id, got %d", len(ids))
	}
}

func TestEntitiesStreamsRecords(t *testing.T) {
	db := openTestDB(t)
	cs, err := treeql.Compile(`(Table album :fields "title")`, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	var count int
	err = treeql.Entities(context.Background(), db, cs, treeql.SelectionOptions{}, nil, func(id any, rec treeql.Record) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
}

func TestAutoTransformCopiesFields(t *testing.T) {
	type Album struct {
		Title string
	}
	rec := treeql.Record{"title": "Abbey Road"}
	dst, err := treeql.AutoTransform[Album](rec)
	if err != nil {
		t.Fatalf("auto transform: %v", err)
	}
	if dst.Title != "Abbey Road" {
		t.Fatalf("unexpected title: %q", dst.Title)
	}
}
