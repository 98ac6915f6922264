package character

import "context"

// Store provides CRUD operations for character definitions.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create inserts a new character definition. The definition is validated
	// before insertion. Returns an error if a character with the same ID
	// already exists.
	Create(ctx context.Context, def *Definition) error

	// Get retrieves a character definition by ID. Returns (nil, nil) if not
	// found.
	Get(ctx context.Context, id string) (*Definition, error)

	// Update replaces an existing character definition. The definition is
	// validated before the update. Returns an error if the character is not
	// found.
	Update(ctx context.Context, def *Definition) error

	// Delete removes a character definition by ID. Deleting a non-existent
	// character is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all character definitions, optionally filtered by troupe
	// ID. An empty troupeID returns all definitions.
	List(ctx context.Context, troupeID string) ([]Definition, error)

	// Upsert creates or replaces a character definition (useful for YAML
	// import). The definition is validated before persistence.
	Upsert(ctx context.Context, def *Definition) error
}
