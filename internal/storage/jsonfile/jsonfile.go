// Package jsonfile stores roommates and expenses as two whole-file JSON
// documents, roommates.json ({"roommates": [...]}) and gastos.json
// ({"gastos": [...]}).
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"roommates/internal/core"
	"roommates/internal/storage"
)

const (
	RoommatesFile = "roommates.json"
	ExpensesFile  = "gastos.json"
)

var _ storage.Store = (*Store)(nil)

type (
	roommatesDoc struct {
		Roommates []core.Roommate `json:"roommates"`
	}

	expensesDoc struct {
		Gastos []core.Expense `json:"gastos"`
	}
)

type Store struct {
	mu            sync.Mutex
	dir           string
	roommatesPath string
	expensesPath  string
}

// New returns a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{
		dir:           dir,
		roommatesPath: filepath.Join(dir, RoommatesFile),
		expensesPath:  filepath.Join(dir, ExpensesFile),
	}, nil
}

// Load reads both documents. A missing document is created with an empty
// collection; a malformed one is an error.
func (s *Store) Load(ctx context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rd roommatesDoc
	if err := s.readOrInit(ctx, s.roommatesPath, &rd, roommatesDoc{Roommates: []core.Roommate{}}); err != nil {
		return core.Snapshot{}, err
	}
	var ed expensesDoc
	if err := s.readOrInit(ctx, s.expensesPath, &ed, expensesDoc{Gastos: []core.Expense{}}); err != nil {
		return core.Snapshot{}, err
	}

	if rd.Roommates == nil {
		rd.Roommates = []core.Roommate{}
	}
	if ed.Gastos == nil {
		ed.Gastos = []core.Expense{}
	}
	return core.Snapshot{Roommates: rd.Roommates, Expenses: ed.Gastos}, nil
}

// SaveRoommates rewrites roommates.json.
func (s *Store) SaveRoommates(_ context.Context, roommates []core.Roommate) error {
	if roommates == nil {
		roommates = []core.Roommate{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.roommatesPath, roommatesDoc{Roommates: roommates})
}

// SaveExpenses rewrites gastos.json.
func (s *Store) SaveExpenses(_ context.Context, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.expensesPath, expensesDoc{Gastos: expenses})
}

// Ping checks that the data directory is still accessible.
func (s *Store) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", s.dir)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) readOrInit(ctx context.Context, path string, dst, def any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.InfoContext(ctx, "Data file missing, creating default", "path", path)
		if err := writeJSON(path, def); err != nil {
			return err
		}
		data, err = json.Marshal(def)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// writeJSON replaces path with the indented encoding of v via a temp file and
// rename, so readers never observe a half-written document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
