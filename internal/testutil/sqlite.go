package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	// sqlite driver for test databases.
	_ "modernc.org/sqlite"
)

// SampleSchema is a small catalog used across command tests.
const SampleSchema = `
	CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT
	);
	CREATE INDEX idx_users_name ON users(name);
	CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		total REAL DEFAULT 0
	);

	INSERT INTO users (id, name, email) VALUES
		(1, 'alice', 'alice@example.com'),
		(2, 'bob', NULL),
		(3, 'carol', 'carol@example.com');
	INSERT INTO orders (user_id, total) VALUES (1, 9.5), (2, 3), (3, 12);
`

// CreateDatabase writes a SQLite file named name under dir and runs ddl
// against it. It returns the file path.
func CreateDatabase(t testing.TB, dir, name, ddl string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("init %s: %v", path, err)
	}
	return path
}

// SampleDatabase creates a database with SampleSchema in a temp dir.
func SampleDatabase(t testing.TB) string {
	t.Helper()
	return CreateDatabase(t, t.TempDir(), "sample.db", SampleSchema)
}
