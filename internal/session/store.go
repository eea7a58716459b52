package session

import "context"

// Store provides persistent storage for local session records
type Store interface {
	// Save persists a record
	Save(ctx context.Context, record *Record) error

	// Load retrieves a record by ID
	Load(ctx context.Context, id string) (*Record, error)

	// List returns all records
	List(ctx context.Context) ([]*Record, error)

	// Remove deletes a record
	Remove(ctx context.Context, id string) error
}
