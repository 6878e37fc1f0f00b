package evaluation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS evaluations (
	id                UUID PRIMARY KEY,
	reference_number  TEXT NOT NULL UNIQUE,
	created_at        TIMESTAMPTZ NOT NULL,
	entity_name       TEXT NOT NULL,
	entity_category   TEXT NOT NULL,
	relationship_kind TEXT NOT NULL,
	service_id        BIGINT NOT NULL,
	legal_gate_passed BOOLEAN NOT NULL,
	legal_gate_reason TEXT NOT NULL DEFAULT '',
	conclusion        TEXT NOT NULL,
	notes             TEXT NOT NULL DEFAULT '',
	auditor_name      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS evaluation_threats (
	id            UUID PRIMARY KEY,
	evaluation_id UUID NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
	threat_id     BIGINT NOT NULL,
	significance  TEXT NOT NULL,
	notes         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS evaluation_safeguards (
	id            UUID PRIMARY KEY,
	evaluation_id UUID NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
	safeguard_id  BIGINT NOT NULL,
	applied       BOOLEAN NOT NULL DEFAULT TRUE,
	notes         TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_evaluation_threats_eval ON evaluation_threats(evaluation_id);
CREATE INDEX IF NOT EXISTS idx_evaluation_safeguards_eval ON evaluation_safeguards(evaluation_id);
`

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresStore persists evaluation aggregates in PostgreSQL. Every Create
// runs in a single transaction so partial aggregates are never observable;
// the reference_number unique constraint is the collision enforcement the
// builder retries against.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs the store and bootstraps its schema.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("evaluation schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Create(ctx context.Context, eval *Evaluation) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create evaluation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `INSERT INTO evaluations
		(id, reference_number, created_at, entity_name, entity_category, relationship_kind,
		 service_id, legal_gate_passed, legal_gate_reason, conclusion, notes, auditor_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		eval.ID, eval.ReferenceNumber, eval.CreatedAt, eval.EntityName,
		eval.EntityCategory, eval.RelationshipKind, eval.ServiceID,
		eval.LegalGatePassed, eval.LegalGateReason, eval.Conclusion,
		eval.Notes, eval.AuditorName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateReference
		}
		return fmt.Errorf("insert evaluation: %w", err)
	}

	for _, t := range eval.Threats {
		_, err = tx.Exec(ctx, `INSERT INTO evaluation_threats (id, evaluation_id, threat_id, significance, notes)
			VALUES ($1, $2, $3, $4, $5)`,
			t.ID, eval.ID, t.ThreatID, t.Significance, t.Notes)
		if err != nil {
			return fmt.Errorf("insert evaluation threat: %w", err)
		}
	}
	for _, sg := range eval.Safeguards {
		_, err = tx.Exec(ctx, `INSERT INTO evaluation_safeguards (id, evaluation_id, safeguard_id, applied, notes)
			VALUES ($1, $2, $3, $4, $5)`,
			sg.ID, eval.ID, sg.SafeguardID, sg.Applied, sg.Notes)
		if err != nil {
			return fmt.Errorf("insert evaluation safeguard: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create evaluation: %w", err)
	}
	return nil
}

const evaluationColumns = `id, reference_number, created_at, entity_name, entity_category,
	relationship_kind, service_id, legal_gate_passed, legal_gate_reason, conclusion, notes, auditor_name`

func scanEvaluation(row pgx.Row) (*Evaluation, error) {
	var eval Evaluation
	err := row.Scan(&eval.ID, &eval.ReferenceNumber, &eval.CreatedAt, &eval.EntityName,
		&eval.EntityCategory, &eval.RelationshipKind, &eval.ServiceID,
		&eval.LegalGatePassed, &eval.LegalGateReason, &eval.Conclusion,
		&eval.Notes, &eval.AuditorName)
	if err != nil {
		return nil, err
	}
	return &eval, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Evaluation, error) {
	eval, err := scanEvaluation(s.db.QueryRow(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find evaluation: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT id, evaluation_id, threat_id, significance, notes
		FROM evaluation_threats WHERE evaluation_id = $1 ORDER BY threat_id`, id)
	if err != nil {
		return nil, fmt.Errorf("load evaluation threats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t ThreatAssessment
		if err := rows.Scan(&t.ID, &t.EvaluationID, &t.ThreatID, &t.Significance, &t.Notes); err != nil {
			return nil, err
		}
		eval.Threats = append(eval.Threats, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sgRows, err := s.db.Query(ctx, `SELECT id, evaluation_id, safeguard_id, applied, notes
		FROM evaluation_safeguards WHERE evaluation_id = $1 ORDER BY safeguard_id`, id)
	if err != nil {
		return nil, fmt.Errorf("load evaluation safeguards: %w", err)
	}
	defer sgRows.Close()
	for sgRows.Next() {
		var sg SafeguardApplication
		if err := sgRows.Scan(&sg.ID, &sg.EvaluationID, &sg.SafeguardID, &sg.Applied, &sg.Notes); err != nil {
			return nil, err
		}
		eval.Safeguards = append(eval.Safeguards, sg)
	}
	return eval, sgRows.Err()
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Evaluation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `SELECT `+evaluationColumns+` FROM evaluations
		ORDER BY created_at, reference_number LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()
	var out []*Evaluation
	for rows.Next() {
		eval, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, eval)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete evaluation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Children first; the FK cascade would cover this, but the ordering is
	// part of the storage contract and keeps non-cascading schemas safe.
	if _, err := tx.Exec(ctx, `DELETE FROM evaluation_threats WHERE evaluation_id = $1`, id); err != nil {
		return fmt.Errorf("delete evaluation threats: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM evaluation_safeguards WHERE evaluation_id = $1`, id); err != nil {
		return fmt.Errorf("delete evaluation safeguards: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM evaluations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete evaluation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}
