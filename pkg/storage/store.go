package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// ErrRunNotFound is returned by GetRun for an unknown id
var ErrRunNotFound = errors.New("audit run not found")

// Store persists audit runs. Run ids and history are caller-owned state kept outside the engine.
type Store interface {
	SaveRun(ctx context.Context, run *models.AuditRun) error
	GetRun(ctx context.Context, id string) (*models.AuditRun, error)
	// ListRuns returns the newest runs first without their result bodies
	ListRuns(ctx context.Context, limit int) ([]*models.AuditRun, error)

	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Type string // sqlite, postgres
	Path string
	URL  string
}

// New opens the store selected by cfg.Type
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case "", "sqlite":
		open := NewSQLiteStore
		if cfg.Path == ":memory:" {
			open = func(string) (*SQLiteStore, error) { return OpenMemory() }
		}
		store, err := open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := NewPostgresStore(cfg.URL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
}
