package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"
)

// ImageBlob holds image bytes in the primary database.
type ImageBlob struct {
	Key         string    `gorm:"column:blob_key;primaryKey;size:191"`
	ContentType string    `gorm:"size:100"`
	Size        int64     `gorm:"not null"`
	Data        []byte    `gorm:"not null"`
	CreatedAt   time.Time
}

type DatabaseStore struct {
	db *gorm.DB
}

func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) Migrate() error {
	if err := s.db.AutoMigrate(&ImageBlob{}); err != nil {
		return fmt.Errorf("failed to migrate image blobs: %w", err)
	}
	return nil
}

func (s *DatabaseStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("blob %s: expected %d bytes, read %d", key, size, len(data))
	}

	blob := ImageBlob{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}
	if err := s.db.WithContext(ctx).Create(&blob).Error; err != nil {
		return fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return nil
}

func (s *DatabaseStore) Get(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	var blob ImageBlob
	if err := s.db.WithContext(ctx).First(&blob, "blob_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Object{}, ErrObjectNotFound
		}
		return nil, Object{}, fmt.Errorf("failed to load blob %s: %w", key, err)
	}

	return io.NopCloser(bytes.NewReader(blob.Data)), Object{
		Key:         blob.Key,
		ContentType: blob.ContentType,
		Size:        blob.Size,
	}, nil
}

func (s *DatabaseStore) Delete(ctx context.Context, key string) error {
	res := s.db.WithContext(ctx).Where("blob_key = ?", key).Delete(&ImageBlob{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrObjectNotFound
	}
	return nil
}
