package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dukaanlabs/dukaanbot/inventory"
	"github.com/dukaanlabs/dukaanbot/llm"
)

// Sqlite is a persistent Store backed by a SQLite database file.
type Sqlite struct {
	db *sql.DB
}

var _ Store = (*Sqlite)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	scope TEXT NOT NULL,
	sku   TEXT NOT NULL,
	name  TEXT NOT NULL,
	stock INTEGER NOT NULL DEFAULT 0,
	unit  TEXT NOT NULL DEFAULT '',
	pos   INTEGER NOT NULL,
	PRIMARY KEY (scope, sku)
);

CREATE TABLE IF NOT EXISTS orders (
	id            TEXT PRIMARY KEY,
	product_name  TEXT NOT NULL,
	requested_qty INTEGER NOT NULL,
	source_query  TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	pos        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	PRIMARY KEY (session_id, pos)
);
`

// OpenSqlite opens (creating if necessary) a SQLite database at path and
// bootstraps the schema.
func OpenSqlite(path string) (*Sqlite, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", path+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Sqlite{db: db}, nil
}

// NewSqliteInMemory opens a fresh in-memory database. Used by tests.
func NewSqliteInMemory() (*Sqlite, error) {
	// Shared cache so every pooled connection sees the same database.
	s, err := OpenSqlite("file::memory:?cache=shared")
	if err != nil {
		return nil, err
	}
	s.db.SetMaxOpenConns(1)
	return s, nil
}

func (s *Sqlite) Close() error {
	return s.db.Close()
}

func (s *Sqlite) ListCatalog(ctx context.Context, scope string) ([]inventory.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, sku, stock, unit FROM products WHERE scope = ? ORDER BY pos`, scope)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	items := []inventory.CatalogItem{}
	for rows.Next() {
		var it inventory.CatalogItem
		if err := rows.Scan(&it.ProductName, &it.SKU, &it.AvailableStock, &it.Unit); err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Sqlite) UpsertItem(ctx context.Context, scope string, item inventory.CatalogItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (scope, sku, name, stock, unit, pos)
		VALUES (?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(pos), 0) + 1 FROM products WHERE scope = ?))
		ON CONFLICT (scope, sku) DO UPDATE SET
			name = excluded.name, stock = excluded.stock, unit = excluded.unit`,
		scope, item.SKU, item.ProductName, item.AvailableStock, item.Unit, scope)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", item.SKU, err)
	}
	return nil
}

func (s *Sqlite) SetStock(ctx context.Context, scope, sku string, stock int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET stock = ? WHERE scope = ? AND sku = ?`, stock, scope, sku)
	if err != nil {
		return fmt.Errorf("set stock %s: %w", sku, err)
	}
	return requireRow(res, sku)
}

func (s *Sqlite) DecrementStock(ctx context.Context, scope, sku string, qty int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET stock = stock - ? WHERE scope = ? AND sku = ? AND stock >= ?`,
		qty, scope, sku, qty)
	if err != nil {
		return fmt.Errorf("decrement stock %s: %w", sku, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish missing item from insufficient stock.
		var exists int
		row := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM products WHERE scope = ? AND sku = ?`, scope, sku)
		if err := row.Scan(&exists); err == sql.ErrNoRows {
			return fmt.Errorf("item %s: %w", sku, ErrNotFound)
		} else if err != nil {
			return err
		}
		return fmt.Errorf("item %s qty %d: %w", sku, qty, ErrInsufficientStock)
	}
	return nil
}

func (s *Sqlite) CreateOrder(ctx context.Context, rec inventory.OrderRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = inventory.OrderPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, product_name, requested_qty, source_query, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProductName, rec.RequestedQty, rec.SourceQuery, string(rec.Status), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	return rec.ID, nil
}

func (s *Sqlite) GetOrder(ctx context.Context, id string) (inventory.OrderRecord, error) {
	var rec inventory.OrderRecord
	var status string
	row := s.db.QueryRowContext(ctx,
		`SELECT id, product_name, requested_qty, source_query, status FROM orders WHERE id = ?`, id)
	err := row.Scan(&rec.ID, &rec.ProductName, &rec.RequestedQty, &rec.SourceQuery, &status)
	if err == sql.ErrNoRows {
		return rec, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("get order %s: %w", id, err)
	}
	rec.Status = inventory.OrderStatus(status)
	return rec, nil
}

func (s *Sqlite) ListOrders(ctx context.Context) ([]inventory.OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_name, requested_qty, source_query, status FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []inventory.OrderRecord{}
	for rows.Next() {
		var rec inventory.OrderRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.ProductName, &rec.RequestedQty, &rec.SourceQuery, &status); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		rec.Status = inventory.OrderStatus(status)
		orders = append(orders, rec)
	}
	return orders, rows.Err()
}

func (s *Sqlite) UpdateOrderStatus(ctx context.Context, id string, status inventory.OrderStatus) error {
	rec, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if !rec.Status.CanTransitionTo(status) {
		return fmt.Errorf("order %s %s -> %s: %w", id, rec.Status, status, ErrInvalidTransition)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	return nil
}

func (s *Sqlite) SaveHistory(ctx context.Context, sessionID string, history []llm.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save history: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, updated_at) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	for i, m := range history {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, pos, role, content) VALUES (?, ?, ?, ?)`,
			sessionID, i, m.Role, m.Content)
		if err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *Sqlite) LoadHistory(ctx context.Context, sessionID string) ([]llm.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM messages WHERE session_id = ? ORDER BY pos`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	history := []llm.Message{}
	for rows.Next() {
		var m llm.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		history = append(history, m)
	}
	return history, rows.Err()
}

func (s *Sqlite) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Sqlite) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func requireRow(res sql.Result, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", key, ErrNotFound)
	}
	return nil
}
