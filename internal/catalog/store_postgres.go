package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sdagate/pkg/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS categories (
	id              BIGSERIAL PRIMARY KEY,
	code            TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL,
	parent_category TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS services (
	id              BIGSERIAL PRIMARY KEY,
	code            TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL,
	category_id     BIGINT REFERENCES categories(id),
	eip_audited     TEXT NOT NULL DEFAULT '',
	eip_chain       TEXT NOT NULL DEFAULT '',
	eip_affiliated  TEXT NOT NULL DEFAULT '',
	no_eip_audited  TEXT NOT NULL DEFAULT '',
	no_eip_chain    TEXT NOT NULL DEFAULT '',
	no_eip_affiliated TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS threats (
	id           BIGSERIAL PRIMARY KEY,
	code         TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS safeguard_levels (
	id           BIGSERIAL PRIMARY KEY,
	code         TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS safeguards (
	id                  BIGSERIAL PRIMARY KEY,
	threat_id           BIGINT NOT NULL REFERENCES threats(id),
	level_id            BIGINT NOT NULL REFERENCES safeguard_levels(id),
	description         TEXT NOT NULL,
	display_description TEXT NOT NULL DEFAULT '',
	UNIQUE (threat_id, level_id, description)
);

CREATE TABLE IF NOT EXISTS legal_rules (
	id                BIGSERIAL PRIMARY KEY,
	rule_type         TEXT NOT NULL,
	article           TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	applies_to_eip    BOOLEAN NOT NULL DEFAULT FALSE,
	applies_to_no_eip BOOLEAN NOT NULL DEFAULT FALSE,
	safeguard_text    TEXT NOT NULL DEFAULT '',
	UNIQUE (rule_type, article)
);

CREATE TABLE IF NOT EXISTS service_threats (
	service_id BIGINT NOT NULL REFERENCES services(id),
	threat_id  BIGINT NOT NULL REFERENCES threats(id),
	PRIMARY KEY (service_id, threat_id)
);
`

// PostgresStore persists reference data in PostgreSQL via pgx.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs the store and bootstraps its schema.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("catalog schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

const serviceColumns = `id, code, name, COALESCE(category_id, 0),
	eip_audited, eip_chain, eip_affiliated,
	no_eip_audited, no_eip_chain, no_eip_affiliated`

func scanService(row pgx.Row) (*Service, error) {
	var svc Service
	var cells [6]string
	err := row.Scan(&svc.ID, &svc.Code, &svc.Name, &svc.CategoryID,
		&cells[0], &cells[1], &cells[2], &cells[3], &cells[4], &cells[5])
	if err != nil {
		return nil, err
	}
	svc.Matrix = matrixFromCells(cells)
	return &svc, nil
}

// matrixFromCells rebuilds the tuple-keyed matrix from the flattened column
// order of domain.Cells. Empty columns stay absent so they resolve as UNSET.
func matrixFromCells(cells [6]string) domain.PermissionMatrix {
	m := make(domain.PermissionMatrix, len(cells))
	for i, key := range domain.Cells() {
		if cells[i] != "" {
			m[key] = domain.PermissionCode(cells[i])
		}
	}
	return m
}

func matrixToCells(m domain.PermissionMatrix) [6]string {
	var cells [6]string
	for i, key := range domain.Cells() {
		cells[i] = string(m[key])
	}
	return cells
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.Query(ctx, `SELECT id, code, name, parent_category FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Parent); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListServices(ctx context.Context, filter ServiceFilter) ([]Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE ($1 = 0 OR category_id = $1)
		AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR code ILIKE '%' || $2 || '%')
		ORDER BY id`
	rows, err := s.db.Query(ctx, query, filter.CategoryID, filter.Search)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()
	var out []Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *svc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindService(ctx context.Context, id int64) (*Service, error) {
	svc, err := scanService(s.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find service: %w", err)
	}
	return svc, nil
}

func (s *PostgresStore) ListThreats(ctx context.Context) ([]Threat, error) {
	return s.queryThreats(ctx, `SELECT id, code, name, display_name, description FROM threats ORDER BY id`)
}

func (s *PostgresStore) ListThreatsForService(ctx context.Context, serviceID int64) ([]Threat, error) {
	if _, err := s.FindService(ctx, serviceID); err != nil {
		return nil, err
	}
	return s.queryThreats(ctx, `SELECT t.id, t.code, t.name, t.display_name, t.description
		FROM threats t JOIN service_threats st ON st.threat_id = t.id
		WHERE st.service_id = $1 ORDER BY t.id`, serviceID)
}

func (s *PostgresStore) queryThreats(ctx context.Context, query string, args ...any) ([]Threat, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list threats: %w", err)
	}
	defer rows.Close()
	var out []Threat
	for rows.Next() {
		var t Threat
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.DisplayName, &t.Description); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindThreat(ctx context.Context, id int64) (*Threat, error) {
	var t Threat
	err := s.db.QueryRow(ctx, `SELECT id, code, name, display_name, description FROM threats WHERE id = $1`, id).
		Scan(&t.ID, &t.Code, &t.Name, &t.DisplayName, &t.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find threat: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) ListSafeguardLevels(ctx context.Context) ([]SafeguardLevel, error) {
	rows, err := s.db.Query(ctx, `SELECT id, code, name, display_name FROM safeguard_levels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list safeguard levels: %w", err)
	}
	defer rows.Close()
	var out []SafeguardLevel
	for rows.Next() {
		var l SafeguardLevel
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.DisplayName); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListSafeguards(ctx context.Context, filter SafeguardFilter) ([]Safeguard, error) {
	query := `SELECT sg.id, sg.threat_id, sg.level_id, sg.description, sg.display_description
		FROM safeguards sg JOIN safeguard_levels lv ON lv.id = sg.level_id
		WHERE ($1 = 0 OR sg.threat_id = $1) AND ($2 = '' OR lv.code = $2)
		ORDER BY sg.id`
	rows, err := s.db.Query(ctx, query, filter.ThreatID, filter.LevelCode)
	if err != nil {
		return nil, fmt.Errorf("list safeguards: %w", err)
	}
	defer rows.Close()
	var out []Safeguard
	for rows.Next() {
		var sg Safeguard
		if err := rows.Scan(&sg.ID, &sg.ThreatID, &sg.LevelID, &sg.Description, &sg.DisplayDescription); err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindSafeguard(ctx context.Context, id int64) (*Safeguard, error) {
	var sg Safeguard
	err := s.db.QueryRow(ctx, `SELECT id, threat_id, level_id, description, display_description FROM safeguards WHERE id = $1`, id).
		Scan(&sg.ID, &sg.ThreatID, &sg.LevelID, &sg.Description, &sg.DisplayDescription)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find safeguard: %w", err)
	}
	return &sg, nil
}

func (s *PostgresStore) ListLegalRules(ctx context.Context, filter LegalRuleFilter) ([]LegalRule, error) {
	query := `SELECT id, rule_type, article, description, applies_to_eip, applies_to_no_eip, safeguard_text
		FROM legal_rules
		WHERE ($1 = '' OR ($1 = 'EIP' AND applies_to_eip) OR ($1 = 'NO_EIP' AND applies_to_no_eip))
		AND ($2 = '' OR rule_type = $2)
		ORDER BY id`
	rows, err := s.db.Query(ctx, query, filter.EntityCategory, filter.RuleType)
	if err != nil {
		return nil, fmt.Errorf("list legal rules: %w", err)
	}
	defer rows.Close()
	var out []LegalRule
	for rows.Next() {
		var r LegalRule
		if err := rows.Scan(&r.ID, &r.RuleType, &r.Article, &r.Description, &r.AppliesToEIP, &r.AppliesNonEIP, &r.SafeguardText); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertCategory(ctx context.Context, c *Category) error {
	return s.db.QueryRow(ctx, `INSERT INTO categories (code, name, parent_category)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET name = $2, parent_category = $3
		RETURNING id`, c.Code, c.Name, c.Parent).Scan(&c.ID)
}

func (s *PostgresStore) UpsertService(ctx context.Context, svc *Service) error {
	cells := matrixToCells(svc.Matrix)
	var categoryID any
	if svc.CategoryID != 0 {
		categoryID = svc.CategoryID
	}
	return s.db.QueryRow(ctx, `INSERT INTO services
		(code, name, category_id, eip_audited, eip_chain, eip_affiliated, no_eip_audited, no_eip_chain, no_eip_affiliated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET name = $2, category_id = $3,
			eip_audited = $4, eip_chain = $5, eip_affiliated = $6,
			no_eip_audited = $7, no_eip_chain = $8, no_eip_affiliated = $9
		RETURNING id`,
		svc.Code, svc.Name, categoryID,
		cells[0], cells[1], cells[2], cells[3], cells[4], cells[5]).Scan(&svc.ID)
}

func (s *PostgresStore) UpsertThreat(ctx context.Context, t *Threat) error {
	return s.db.QueryRow(ctx, `INSERT INTO threats (code, name, display_name, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET name = $2, display_name = $3, description = $4
		RETURNING id`, t.Code, t.Name, t.DisplayName, t.Description).Scan(&t.ID)
}

func (s *PostgresStore) UpsertSafeguardLevel(ctx context.Context, l *SafeguardLevel) error {
	return s.db.QueryRow(ctx, `INSERT INTO safeguard_levels (code, name, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET name = $2, display_name = $3
		RETURNING id`, l.Code, l.Name, l.DisplayName).Scan(&l.ID)
}

func (s *PostgresStore) UpsertSafeguard(ctx context.Context, sg *Safeguard) error {
	return s.db.QueryRow(ctx, `INSERT INTO safeguards (threat_id, level_id, description, display_description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (threat_id, level_id, description) DO UPDATE SET display_description = $4
		RETURNING id`, sg.ThreatID, sg.LevelID, sg.Description, sg.DisplayDescription).Scan(&sg.ID)
}

func (s *PostgresStore) UpsertLegalRule(ctx context.Context, r *LegalRule) error {
	return s.db.QueryRow(ctx, `INSERT INTO legal_rules
		(rule_type, article, description, applies_to_eip, applies_to_no_eip, safeguard_text)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (rule_type, article) DO UPDATE SET description = $3,
			applies_to_eip = $4, applies_to_no_eip = $5, safeguard_text = $6
		RETURNING id`, r.RuleType, r.Article, r.Description, r.AppliesToEIP, r.AppliesNonEIP, r.SafeguardText).Scan(&r.ID)
}

func (s *PostgresStore) LinkServiceThreat(ctx context.Context, serviceID, threatID int64) error {
	_, err := s.db.Exec(ctx, `INSERT INTO service_threats (service_id, threat_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, serviceID, threatID)
	return err
}
