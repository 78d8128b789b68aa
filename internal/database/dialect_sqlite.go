package database

import (
	"database/sql"
	"time"

	"github.com/mattn/go-sqlite3"

	"oraia/internal/textnorm"
)

// sqliteDriverName is go-sqlite3 with the casefold() SQL function registered.
// SQLite's own lower() and LIKE only fold ASCII.
const sqliteDriverName = "sqlite3_oraia"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("casefold", textnorm.CaseFold, true)
		},
	})
}

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct {
	ReadOnly bool
}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

// NewReadOnlySQLiteDialect opens files with mode=ro
func NewReadOnlySQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{ReadOnly: true}
}

func (d *SQLiteDialect) DriverName() string {
	return sqliteDriverName
}

func (d *SQLiteDialect) DSN(config DialectConfig) string {
	if d.ReadOnly {
		return "file:" + config.Path + "?mode=ro&_foreign_keys=1"
	}
	return "file:" + config.Path + "?_foreign_keys=1&_busy_timeout=5000"
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) SupportsLastInsertId() bool {
	return true
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// the driver opens files lazily; force a read so a corrupt file fails here
	var n int
	if err := db.QueryRow("SELECT count(*) FROM sqlite_master").Scan(&n); err != nil {
		return err
	}

	if d.ReadOnly {
		return nil
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}
	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *SQLiteDialect) UpsertUserStateQuery(columns ...string) string {
	return userStateInsert(columns) + onConflictUpdate(columns)
}

func (d *SQLiteDialect) InsertIgnoreQuery(table string, columns ...string) string {
	return plainInsert("INSERT OR IGNORE INTO", table, columns)
}
