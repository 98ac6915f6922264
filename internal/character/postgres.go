package character

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the character_definitions table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS character_definitions (
    id             TEXT PRIMARY KEY,
    troupe_id      TEXT NOT NULL DEFAULT '',
    name           TEXT NOT NULL,
    role           TEXT NOT NULL DEFAULT '',
    description    TEXT NOT NULL DEFAULT '',
    prompt_body    TEXT NOT NULL DEFAULT '',
    voice          JSONB NOT NULL DEFAULT '{}',
    temperaments   JSONB NOT NULL DEFAULT '[]',
    behavior_rules JSONB NOT NULL DEFAULT '[]',
    attributes     JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_character_definitions_troupe ON character_definitions(troupe_id);
CREATE INDEX IF NOT EXISTS idx_character_definitions_name ON character_definitions(name);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
// It serialises structured sub-fields (voice, temperaments, etc.) as JSONB.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// character_definitions table and indexes if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("character: migrate: %w", err)
	}
	return nil
}

// Create inserts a new character definition. It validates the definition and
// returns an error if a character with the same ID already exists.
func (s *PostgresStore) Create(ctx context.Context, def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	voiceJSON, tempsJSON, rulesJSON, attrJSON, err := marshalFields(def)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO character_definitions (
			id, troupe_id, name, role, description, prompt_body,
			voice, temperaments, behavior_rules, attributes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`

	err = s.db.QueryRow(ctx, query,
		def.ID, def.TroupeID, def.Name, def.Role, def.Description, def.PromptBody,
		voiceJSON, tempsJSON, rulesJSON, attrJSON,
	).Scan(&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("character: character with id %q already exists", def.ID)
		}
		return fmt.Errorf("character: create: %w", err)
	}
	return nil
}

// Get retrieves a character definition by ID. It returns (nil, nil) if no
// character with the given ID exists.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Definition, error) {
	const query = `
		SELECT id, troupe_id, name, role, description, prompt_body,
		       voice, temperaments, behavior_rules, attributes,
		       created_at, updated_at
		FROM character_definitions
		WHERE id = $1`

	var def Definition
	var voiceJSON, tempsJSON, rulesJSON, attrJSON []byte

	err := s.db.QueryRow(ctx, query, id).Scan(
		&def.ID, &def.TroupeID, &def.Name, &def.Role, &def.Description, &def.PromptBody,
		&voiceJSON, &tempsJSON, &rulesJSON, &attrJSON,
		&def.CreatedAt, &def.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("character: get %q: %w", id, err)
	}

	if err := unmarshalFields(&def, voiceJSON, tempsJSON, rulesJSON, attrJSON); err != nil {
		return nil, err
	}
	return &def, nil
}

// Update replaces an existing character definition. It validates the new
// definition and returns an error if the character is not found.
func (s *PostgresStore) Update(ctx context.Context, def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	voiceJSON, tempsJSON, rulesJSON, attrJSON, err := marshalFields(def)
	if err != nil {
		return err
	}

	const query = `
		UPDATE character_definitions SET
			troupe_id = $2, name = $3, role = $4, description = $5,
			prompt_body = $6, voice = $7, temperaments = $8,
			behavior_rules = $9, attributes = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err = s.db.QueryRow(ctx, query,
		def.ID, def.TroupeID, def.Name, def.Role, def.Description, def.PromptBody,
		voiceJSON, tempsJSON, rulesJSON, attrJSON,
	).Scan(&def.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("character: character with id %q not found", def.ID)
		}
		return fmt.Errorf("character: update: %w", err)
	}
	return nil
}

// Delete removes a character definition by ID. Deleting a non-existent
// character is not an error.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM character_definitions WHERE id = $1`
	_, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("character: delete %q: %w", id, err)
	}
	return nil
}

// List returns all character definitions, optionally filtered by troupe ID.
// An empty troupeID returns all definitions.
func (s *PostgresStore) List(ctx context.Context, troupeID string) ([]Definition, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if troupeID == "" {
		const query = `
			SELECT id, troupe_id, name, role, description, prompt_body,
			       voice, temperaments, behavior_rules, attributes,
			       created_at, updated_at
			FROM character_definitions
			ORDER BY name`
		rows, err = s.db.Query(ctx, query)
	} else {
		const query = `
			SELECT id, troupe_id, name, role, description, prompt_body,
			       voice, temperaments, behavior_rules, attributes,
			       created_at, updated_at
			FROM character_definitions
			WHERE troupe_id = $1
			ORDER BY name`
		rows, err = s.db.Query(ctx, query, troupeID)
	}
	if err != nil {
		return nil, fmt.Errorf("character: list: %w", err)
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var def Definition
		var voiceJSON, tempsJSON, rulesJSON, attrJSON []byte

		if err := rows.Scan(
			&def.ID, &def.TroupeID, &def.Name, &def.Role, &def.Description, &def.PromptBody,
			&voiceJSON, &tempsJSON, &rulesJSON, &attrJSON,
			&def.CreatedAt, &def.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("character: scan: %w", err)
		}
		if err := unmarshalFields(&def, voiceJSON, tempsJSON, rulesJSON, attrJSON); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("character: list rows: %w", err)
	}
	return defs, nil
}

// Upsert creates or replaces a character definition.
func (s *PostgresStore) Upsert(ctx context.Context, def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	voiceJSON, tempsJSON, rulesJSON, attrJSON, err := marshalFields(def)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO character_definitions (
			id, troupe_id, name, role, description, prompt_body,
			voice, temperaments, behavior_rules, attributes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			troupe_id = EXCLUDED.troupe_id,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			description = EXCLUDED.description,
			prompt_body = EXCLUDED.prompt_body,
			voice = EXCLUDED.voice,
			temperaments = EXCLUDED.temperaments,
			behavior_rules = EXCLUDED.behavior_rules,
			attributes = EXCLUDED.attributes,
			updated_at = now()
		RETURNING created_at, updated_at`

	err = s.db.QueryRow(ctx, query,
		def.ID, def.TroupeID, def.Name, def.Role, def.Description, def.PromptBody,
		voiceJSON, tempsJSON, rulesJSON, attrJSON,
	).Scan(&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return fmt.Errorf("character: upsert: %w", err)
	}
	return nil
}

// marshalFields serialises the JSONB columns from a [Definition].
func marshalFields(def *Definition) (voice, temps, rules, attrs []byte, err error) {
	voice, err = json.Marshal(def.Voice)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("character: marshal voice: %w", err)
	}
	temps, err = json.Marshal(emptySlice(def.Temperaments))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("character: marshal temperaments: %w", err)
	}
	rules, err = json.Marshal(emptySlice(def.BehaviorRules))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("character: marshal behavior_rules: %w", err)
	}
	attrs, err = json.Marshal(emptyMap(def.Attributes))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("character: marshal attributes: %w", err)
	}
	return voice, temps, rules, attrs, nil
}

// unmarshalFields deserialises the JSONB columns into the corresponding
// [Definition] fields.
func unmarshalFields(def *Definition, voice, temps, rules, attrs []byte) error {
	if err := json.Unmarshal(voice, &def.Voice); err != nil {
		return fmt.Errorf("character: unmarshal voice: %w", err)
	}
	if err := json.Unmarshal(temps, &def.Temperaments); err != nil {
		return fmt.Errorf("character: unmarshal temperaments: %w", err)
	}
	if err := json.Unmarshal(rules, &def.BehaviorRules); err != nil {
		return fmt.Errorf("character: unmarshal behavior_rules: %w", err)
	}
	if err := json.Unmarshal(attrs, &def.Attributes); err != nil {
		return fmt.Errorf("character: unmarshal attributes: %w", err)
	}
	return nil
}

// emptySlice returns s if non-nil, otherwise an empty non-nil slice. This
// ensures JSON marshalling produces "[]" instead of "null".
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// emptyMap returns m if non-nil, otherwise an empty non-nil map. This ensures
// JSON marshalling produces "{}" instead of "null".
func emptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// isDuplicateKeyError checks whether a PostgreSQL error is a unique-violation
// (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
