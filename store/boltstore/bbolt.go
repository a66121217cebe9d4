package boltstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kavos113/assistant-artifacts/domain"
	"github.com/kavos113/assistant-artifacts/storage"
	bolt "go.etcd.io/bbolt"
)

const openTimeout = 5 * time.Second

var bucketNameUploads = []byte("uploads")

type Storage struct {
	db *bolt.DB
}

func NewStore(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger dir: %w", storage.ErrStorageFail)
	}

	_db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}

	err = _db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketNameUploads)
		return err
	})
	if err != nil {
		_db.Close()
		return nil, fmt.Errorf("failed to init ledger: %w", err)
	}

	return &Storage{db: _db}, nil
}

func (s *Storage) Record(rec domain.UploadRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("broken record: %w", storage.ErrStorageFail)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNameUploads).Put([]byte(rec.Key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save record: %w", storage.ErrStorageFail)
	}
	return nil
}

func (s *Storage) List(prefix string) ([]domain.UploadRecord, error) {
	records := make([]domain.UploadRecord, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketNameUploads).Cursor()

		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			var rec domain.UploadRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("broken record %s: %w", k, storage.ErrStorageFail)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
