package driver_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/treeql/treeql/internal/assemble"
	"github.com/treeql/treeql/internal/driver"
	"github.com/treeql/treeql/internal/dsl"
	"github.com/treeql/treeql/internal/selector"
	"github.com/treeql/treeql/internal/spec"
	"github.com/treeql/treeql/internal/transform"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE album (album_id INTEGER PRIMARY KEY, title TEXT, artist_id INTEGER);
		CREATE TABLE artist (artist_id INTEGER PRIMARY KEY, name TEXT);
		CREATE TABLE tracks (track_id INTEGER PRIMARY KEY, album_id INTEGER, name TEXT);

		INSERT INTO artist (artist_id, name) VALUES (9, 'The Beatles');
		INSERT INTO album (album_id, title, artist_id) VALUES (1, 'Abbey Road', 9);
		INSERT INTO album (album_id, title, artist_id) VALUES (2, 'Let It Be', 9);
		INSERT INTO tracks (track_id, album_id, name) VALUES (1, 1, 'Come Together');
		INSERT INTO tracks (track_id, album_id, name) VALUES (2, 1, 'Something');
	`)
	require.NoError(t, err)
	return db
}

func openPromotedManyTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE a (a_id INTEGER PRIMARY KEY, b_id INTEGER);
		CREATE TABLE b (b_id INTEGER PRIMARY KEY);
		CREATE TABLE tracks (track_id INTEGER PRIMARY KEY, b_id INTEGER, name TEXT);

		INSERT INTO b (b_id) VALUES (10);
		INSERT INTO a (a_id, b_id) VALUES (1, 10);
		INSERT INTO tracks (track_id, b_id, name) VALUES (100, 10, 'x');
		INSERT INTO tracks (track_id, b_id, name) VALUES (101, 10, 'y');
	`)
	require.NoError(t, err)
	return db
}

func compileGrouped(t *testing.T, src string) *spec.TableSpec {
	t.Helper()
	node, err := dsl.Parse(src)
	require.NoError(t, err)
	built, err := spec.Build(node)
	require.NoError(t, err)
	grouped, err := spec.Analyze(built)
	require.NoError(t, err)
	return grouped
}

func TestResolveIDsSelectsAll(t *testing.T) {
	db := openTestDB(t)
	ts := compileGrouped(t, `(Table album :fields "title")`)
	d := driver.New(db, transform.NewRegistry(nil), driver.Options{})

	ids, err := d.ResolveIDs(context.Background(), ts, selector.Options{})
	require.NoError(t, err)
	require.Len(t, ids, 2)
}

func TestFetchAllAssemblesPromotedAndManyRelationships(t *testing.T) {
	db := openTestDB(t)
	ts := compileGrouped(t, `(Table album :fields "title"
		{["artist_id" :flatten] (Table artist :fields "name")}
		{["_album_id" :as "tracks"] (Table tracks :fields "name")})`)
	d := driver.New(db, transform.NewRegistry(nil), driver.Options{})

	var got []driver.Emitted
	err := d.FetchAll(context.Background(), ts, selector.Options{}, func(e driver.Emitted) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0].Record
	require.Equal(t, "Abbey Road", first["title"])
	require.Equal(t, "The Beatles", first["name"])
	tracks, ok := first["tracks"].([]assemble.Record)
	require.True(t, ok)
	require.Len(t, tracks, 2)
}

func TestFetchAllAssemblesManyPromotedFromSingleValuedSubtree(t *testing.T) {
	// Many promotion (as in TestAnalyzeManyPromotion): the many-valued tracks relationship
	// is lifted from b up to a's root, but must still be fetched and bucketed by
	// b's own id column, not a's.
	db := openPromotedManyTestDB(t)
	ts := compileGrouped(t, `(Table a :fields {"b_id" (Table b :fields {["_b_id" :as "tracks"] (Table tracks :fields "name")})})`)
	d := driver.New(db, transform.NewRegistry(nil), driver.Options{})

	var got []driver.Emitted
	err := d.FetchAll(context.Background(), ts, selector.Options{}, func(e driver.Emitted) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)

	b, ok := got[0].Record["b_id"].(assemble.Record)
	require.True(t, ok)
	tracks, ok := b["tracks"].([]assemble.Record)
	require.True(t, ok)
	require.Len(t, tracks, 2)
	require.Equal(t, "x", tracks[0]["name"])
	require.Equal(t, "y", tracks[1]["name"])
}

func TestFetchAllBatching(t *testing.T) {
	db := openTestDB(t)
	ts := compileGrouped(t, `(Table album :fields "title")`)
	d := driver.New(db, transform.NewRegistry(nil), driver.Options{BatchSize: 1})

	var count int
	err := d.FetchAll(context.Background(), ts, selector.Options{}, func(e driver.Emitted) error {
		count++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestFetchAllStopsOnEmitError(t *testing.T) {
	db := openTestDB(t)
	ts := compileGrouped(t, `(Table album :fields "title")`)
	d := driver.New(db, transform.NewRegistry(nil), driver.Options{})

	called := 0
	err := d.FetchAll(context.Background(), ts, selector.Options{}, func(e driver.Emitted) error {
		called++
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, called)
}
