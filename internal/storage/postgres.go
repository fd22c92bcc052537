package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"clearance-engine/internal/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const recordColumns = `
	id, candidate_id, candidate_name, candidate_email, job_title, client_name,
	clearance_level, status, priority,
	submitted_date, expected_completion_date, actual_completion_date, expiry_date,
	background_checks, required_documents, risk_factors, workflow_stages, periodic_review,
	version`

// CreateRecord persists a fresh record together with its first audit entry.
// Both land in one transaction, so a record never exists without its
// creation line in the log.
func (s *PostgresStore) CreateRecord(ctx context.Context, rec domain.ClearanceRecord, entry domain.AuditEntry) error {
	checks, docs, risks, stages, review, err := marshalSubDocuments(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO clearance_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14::jsonb, $15::jsonb, $16::jsonb, $17::jsonb, $18::jsonb, $19)
	`,
		rec.ID, rec.CandidateID, rec.CandidateName, rec.CandidateEmail, rec.JobTitle, rec.ClientName,
		rec.Level, rec.Status, rec.Priority,
		rec.SubmittedDate, rec.ExpectedCompletionDate, rec.ActualCompletionDate, rec.ExpiryDate,
		checks, docs, risks, stages, review,
		rec.Version,
	)
	if err != nil {
		return err
	}
	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (domain.ClearanceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM clearance_records
		WHERE id = $1
	`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ClearanceRecord{}, fmt.Errorf("%w: clearance %s", domain.ErrNotFound, id)
	}
	return rec, err
}

// UpdateRecordWithAudit is a compare-and-swap on version that writes the
// mutation's audit entry in the same transaction: either the new record
// state and its decision line both land, or neither does. A zero-row update
// against an existing id means another writer won the race.
func (s *PostgresStore) UpdateRecordWithAudit(ctx context.Context, rec *domain.ClearanceRecord, entry domain.AuditEntry) error {
	checks, docs, risks, stages, review, err := marshalSubDocuments(*rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE clearance_records
		SET status = $3, priority = $4,
		    actual_completion_date = $5, expiry_date = $6,
		    background_checks = $7::jsonb, required_documents = $8::jsonb,
		    risk_factors = $9::jsonb, workflow_stages = $10::jsonb,
		    periodic_review = $11::jsonb,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
	`,
		rec.ID, rec.Version,
		rec.Status, rec.Priority,
		rec.ActualCompletionDate, rec.ExpiryDate,
		checks, docs, risks, stages, review,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		_ = tx.Rollback()
		if _, getErr := s.GetRecord(ctx, rec.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: clearance %s version %d", domain.ErrConcurrentModification, rec.ID, rec.Version)
	}
	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	rec.Version++
	return nil
}

// ListRecords answers conjunctive filter queries. Free text matches with
// ILIKE over candidate name/email, job title, and client name, mirroring
// the filter chain the back-office UI applies.
func (s *PostgresStore) ListRecords(ctx context.Context, filter domain.Filter, sortKey domain.SortKey) ([]domain.ClearanceRecord, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)
	addClause := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != nil {
		addClause("status = $%d", *filter.Status)
	}
	if filter.Level != nil {
		addClause("clearance_level = $%d", *filter.Level)
	}
	if filter.Priority != nil {
		addClause("priority = $%d", *filter.Priority)
	}
	if filter.FreeText != "" {
		pattern := "%" + escapeLike(filter.FreeText) + "%"
		args = append(args, pattern)
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(candidate_name ILIKE $%d OR candidate_email ILIKE $%d OR job_title ILIKE $%d OR client_name ILIKE $%d)",
			n, n, n, n))
	}

	query := `SELECT ` + recordColumns + ` FROM clearance_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += orderClause(sortKey)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.ClearanceRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if sortKey == domain.SortRisk {
		// Risk ranking lives in the domain, not in SQL.
		domain.SortRecords(records, domain.SortRisk)
	}
	return records, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so free text always matches
// literally, the same way the in-memory filter does.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func orderClause(sortKey domain.SortKey) string {
	switch sortKey {
	case domain.SortPriority:
		return ` ORDER BY CASE priority
			WHEN 'urgent' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0
		END DESC, submitted_date DESC`
	case domain.SortExpectedCompletion:
		return ` ORDER BY expected_completion_date ASC, submitted_date DESC`
	default:
		return ` ORDER BY submitted_date DESC`
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAudit(ctx context.Context, db execer, entry domain.AuditEntry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return err
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO audit_log (clearance_id, stage_id, decision, actor, comments, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
	`, entry.ClearanceID, string(entry.StageID), entry.Decision, entry.Actor, entry.Comments, string(detail), ts)
	return err
}

func (s *PostgresStore) ListAudit(ctx context.Context, clearanceID string) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT clearance_id, stage_id, decision, actor, comments, detail, created_at
		FROM audit_log
		WHERE clearance_id = $1
		ORDER BY id ASC
	`, clearanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var entry domain.AuditEntry
		var stageID string
		var detail []byte
		if err := rows.Scan(&entry.ClearanceID, &stageID, &entry.Decision, &entry.Actor, &entry.Comments, &detail, &entry.Timestamp); err != nil {
			return nil, err
		}
		entry.StageID = domain.StageID(stageID)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &entry.Detail); err != nil {
				return nil, fmt.Errorf("%w: audit detail for %s: %v", domain.ErrDataIntegrity, clearanceID, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) CountRecords(ctx context.Context) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clearance_records`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count clearance records: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.ClearanceRecord, error) {
	var rec domain.ClearanceRecord
	var actualCompletion, expiry sql.NullTime
	var checks, docs, risks, stages, review []byte
	err := row.Scan(
		&rec.ID, &rec.CandidateID, &rec.CandidateName, &rec.CandidateEmail, &rec.JobTitle, &rec.ClientName,
		&rec.Level, &rec.Status, &rec.Priority,
		&rec.SubmittedDate, &rec.ExpectedCompletionDate, &actualCompletion, &expiry,
		&checks, &docs, &risks, &stages, &review,
		&rec.Version,
	)
	if err != nil {
		return domain.ClearanceRecord{}, err
	}
	if actualCompletion.Valid {
		t := actualCompletion.Time
		rec.ActualCompletionDate = &t
	}
	if expiry.Valid {
		t := expiry.Time
		rec.ExpiryDate = &t
	}
	if err := unmarshalSubDocuments(&rec, checks, docs, risks, stages, review); err != nil {
		return domain.ClearanceRecord{}, err
	}
	return rec, nil
}

func marshalSubDocuments(rec domain.ClearanceRecord) (checks, docs, risks, stages, review []byte, err error) {
	if checks, err = json.Marshal(rec.BackgroundChecks); err != nil {
		return
	}
	if docs, err = json.Marshal(rec.RequiredDocuments); err != nil {
		return
	}
	if risks, err = json.Marshal(rec.RiskFactors); err != nil {
		return
	}
	if stages, err = json.Marshal(rec.Stages); err != nil {
		return
	}
	review, err = json.Marshal(rec.PeriodicReview)
	return
}

func unmarshalSubDocuments(rec *domain.ClearanceRecord, checks, docs, risks, stages, review []byte) error {
	fields := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"background_checks", checks, &rec.BackgroundChecks},
		{"required_documents", docs, &rec.RequiredDocuments},
		{"risk_factors", risks, &rec.RiskFactors},
		{"workflow_stages", stages, &rec.Stages},
		{"periodic_review", review, &rec.PeriodicReview},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return fmt.Errorf("%w: %s for clearance %s: %v", domain.ErrDataIntegrity, f.name, rec.ID, err)
		}
	}
	return nil
}
