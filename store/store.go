package store

import "github.com/kavos113/assistant-artifacts/domain"

// Store is the local ledger of completed uploads.
type Store interface {
	Record(rec domain.UploadRecord) error
	// List returns records whose key starts with prefix, ordered by key.
	List(prefix string) ([]domain.UploadRecord, error)
	Close() error
}
