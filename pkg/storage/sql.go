package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// sqlStore holds the queries shared by the SQLite and PostgreSQL stores
type sqlStore struct {
	db *sql.DB
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
}

// migrate runs database migrations
func (s *sqlStore) migrate() error {
	schema, err := migrationsFS.ReadFile("migrations/001_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	for _, stmt := range strings.Split(string(schema), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders for drivers that number them
func (s *sqlStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveRun assigns an id and timestamp when missing and inserts the run
func (s *sqlStore) SaveRun(ctx context.Context, run *models.AuditRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	ids := run.AnalyzedIDs
	if ids == nil {
		ids = []string{}
	}
	analyzed, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode analyzed ids: %w", err)
	}

	var declared sql.NullInt64
	if run.DeclaredUsage != nil {
		declared = sql.NullInt64{Int64: int64(*run.DeclaredUsage), Valid: true}
	}

	query := s.rebind(`
		INSERT INTO audit_runs (
			id, created_at, source, plan, declared_usage, analyzed_ids, top_n,
			analysis_mode, schema_version, total_zaps, flag_count,
			monthly_waste_usd, result_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = s.db.ExecContext(ctx, query,
		run.ID, run.CreatedAt.UnixMilli(), run.Source, string(run.Plan), declared, string(analyzed), run.TopN,
		string(run.AnalysisMode), run.SchemaVersion, run.TotalZaps, run.FlagCount,
		run.MonthlyWasteUSD, string(run.ResultJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

const runColumns = `id, created_at, source, plan, declared_usage, analyzed_ids, top_n,
	analysis_mode, schema_version, total_zaps, flag_count, monthly_waste_usd`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner, extra ...any) (*models.AuditRun, error) {
	var run models.AuditRun
	var createdAt int64
	var plan, analyzed, mode string
	var declared sql.NullInt64

	dest := []any{
		&run.ID, &createdAt, &run.Source, &plan, &declared, &analyzed, &run.TopN,
		&mode, &run.SchemaVersion, &run.TotalZaps, &run.FlagCount, &run.MonthlyWasteUSD,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	run.CreatedAt = time.UnixMilli(createdAt).UTC()
	run.Plan = models.PlanFamily(plan)
	run.AnalysisMode = models.AnalysisMode(mode)
	if declared.Valid {
		usage := int(declared.Int64)
		run.DeclaredUsage = &usage
	}
	if err := json.Unmarshal([]byte(analyzed), &run.AnalyzedIDs); err != nil {
		return nil, fmt.Errorf("failed to decode analyzed ids: %w", err)
	}
	return &run, nil
}

// GetRun retrieves a run, including its result, by id
func (s *sqlStore) GetRun(ctx context.Context, id string) (*models.AuditRun, error) {
	query := s.rebind(`SELECT ` + runColumns + `, result_json FROM audit_runs WHERE id = ?`)

	var result string
	run, err := scanRun(s.db.QueryRowContext(ctx, query, id), &result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	run.ResultJSON = []byte(result)
	return run, nil
}

// ListRuns lists the newest runs first
func (s *sqlStore) ListRuns(ctx context.Context, limit int) ([]*models.AuditRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := s.rebind(`SELECT ` + runColumns + ` FROM audit_runs ORDER BY created_at DESC, id LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.AuditRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Ping checks database connectivity
func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}
