package relational

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/VitaminP8/forum/internal/post"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var errConnClosed = errors.New("database connection is closed")

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS forum_posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			root_id INTEGER,
			parent_id INTEGER,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at DATETIME,
			author TEXT NOT NULL,
			message TEXT NOT NULL,
			FOREIGN KEY (root_id) REFERENCES forum_posts(id) ON DELETE CASCADE,
			FOREIGN KEY (parent_id) REFERENCES forum_posts(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forum_posts_root ON forum_posts(root_id)`,
		`CREATE INDEX IF NOT EXISTS idx_forum_posts_parent ON forum_posts(parent_id)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS forum_posts (
			id BIGSERIAL PRIMARY KEY,
			root_id BIGINT REFERENCES forum_posts(id) ON DELETE CASCADE,
			parent_id BIGINT REFERENCES forum_posts(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP,
			author TEXT NOT NULL,
			message TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forum_posts_root ON forum_posts(root_id)`,
		`CREATE INDEX IF NOT EXISTS idx_forum_posts_parent ON forum_posts(parent_id)`,
	},
}

// Conn - единственное соединение с БД под мьютексом.
// Все запросы хранилища выполняются через Do.
type Conn struct {
	mu       sync.Mutex
	db       *gorm.DB
	poisoned bool
	cause    string
}

// Open подключается к БД и создает схему.
// Для sqlite3 dsn - путь к файлу (или ":memory:").
func Open(driver, dsn string) (*Conn, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	conn, err := NewConn(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("Successfully connected to the %s database.", driver)
	return conn, nil
}

// NewConn оборачивает уже открытое соединение (используется в тестах) и создает схему
func NewConn(db *gorm.DB) (*Conn, error) {
	driver := db.Dialect().GetName()
	stmts, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	// Одно постоянное соединение: для ":memory:" каждое новое соединение - новая пустая БД
	db.DB().SetMaxOpenConns(1)
	db.DB().SetMaxIdleConns(1)
	db.DB().SetConnMaxLifetime(0)
	db.LogMode(false)

	if driver == DriverSQLite {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Conn{db: db}, nil
}

// Do выполняет fn, удерживая блокировку соединения. Паника внутри fn
// помечает соединение как "отравленное": все последующие вызовы Do
// возвращают post.ErrLockPoisoned.
func (c *Conn) Do(fn func(db *gorm.DB) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poisoned {
		return &post.LockError{Cause: c.cause}
	}
	if c.db == nil {
		return &post.StorageError{Op: "connect", Err: errConnClosed}
	}

	defer func() {
		if r := recover(); r != nil {
			c.poisoned = true
			c.cause = fmt.Sprint(r)
			panic(r)
		}
	}()

	return fn(c.db)
}

// SetDebug включает логирование SQL запросов gorm
func (c *Conn) SetDebug(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		c.db.LogMode(enabled)
	}
}

// Close закрывает соединение с базой данных
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	err := c.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close the database connection: %w", err)
	}
	c.db = nil

	log.Println("Database connection closed.")
	return nil
}
