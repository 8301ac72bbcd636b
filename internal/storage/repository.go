package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"roommates/internal/core"

	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteRepository)(nil)

// SQLiteRepository stores the snapshots in SQLite. Each save replaces the
// collection inside a single transaction, so a failed save leaves the
// previous snapshot intact.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer; the cache above already serializes writes.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements Store.
func (r *SQLiteRepository) Load(ctx context.Context) (core.Snapshot, error) {
	roommates, err := r.listRoommates(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	expenses, err := r.listExpenses(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	return core.Snapshot{Roommates: roommates, Expenses: expenses}, nil
}

func (r *SQLiteRepository) listRoommates(ctx context.Context) ([]core.Roommate, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, nombre, email, debe, recibe FROM roommates ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query roommates: %w", err)
	}
	defer rows.Close()

	roommates := []core.Roommate{}
	for rows.Next() {
		var rm core.Roommate
		if err := rows.Scan(&rm.ID, &rm.Nombre, &rm.Email, &rm.Debe, &rm.Recibe); err != nil {
			return nil, fmt.Errorf("scan roommate: %w", err)
		}
		roommates = append(roommates, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roommates: %w", err)
	}
	return roommates, nil
}

func (r *SQLiteRepository) listExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, roommate, roommate_id, descripcion, monto FROM gastos ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query gastos: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Roommate, &e.RoommateID, &e.Descripcion, &e.Monto); err != nil {
			return nil, fmt.Errorf("scan gasto: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gastos: %w", err)
	}
	return expenses, nil
}

// SaveRoommates implements Store.
func (r *SQLiteRepository) SaveRoommates(ctx context.Context, roommates []core.Roommate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM roommates"); err != nil {
		return fmt.Errorf("clear roommates: %w", err)
	}
	for i, rm := range roommates {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO roommates (id, position, nombre, email, debe, recibe) VALUES (?, ?, ?, ?, ?, ?)",
			rm.ID, i, rm.Nombre, rm.Email, rm.Debe, rm.Recibe,
		)
		if err != nil {
			return fmt.Errorf("insert roommate %s: %w", rm.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roommates: %w", err)
	}
	slog.DebugContext(ctx, "Roommates saved to SQLite", "count", len(roommates))
	return nil
}

// SaveExpenses implements Store.
func (r *SQLiteRepository) SaveExpenses(ctx context.Context, expenses []core.Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM gastos"); err != nil {
		return fmt.Errorf("clear gastos: %w", err)
	}
	for i, e := range expenses {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO gastos (id, position, roommate, roommate_id, descripcion, monto) VALUES (?, ?, ?, ?, ?, ?)",
			e.ID, i, e.Roommate, e.RoommateID, e.Descripcion, e.Monto,
		)
		if err != nil {
			return fmt.Errorf("insert gasto %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit gastos: %w", err)
	}
	slog.DebugContext(ctx, "Expenses saved to SQLite", "count", len(expenses))
	return nil
}
