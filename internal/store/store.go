// Package store keeps the browser-side key/value state of the portal: the
// signed-in user, the current head office and per-screen filter blobs.  Each
// browser owns one storage partition; values are JSON documents.
//
// Writes are best effort.  A failed write is logged and otherwise ignored:
// losing the persisted session only forces the user to sign in again.
package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Keys owned by the portal.  Clear removes these and anything else that
// lives in the partition.
const (
	KeyUser             = "@portal-compras:user"
	KeyHeadOffice       = "@portal-compras:head-office"
	KeyApprovalsFilters = "@portal-compras:approvals-filters"
	KeySignIn           = "@portal-compras:sign-in"
)

// Backend is the raw partitioned storage.  Get reports ok=false for missing
// keys without an error.
type Backend interface {
	Set(ctx context.Context, partition, key string, value []byte) error
	Get(ctx context.Context, partition, key string) (value []byte, ok bool, err error)
	Delete(ctx context.Context, partition, key string) error
	Clear(ctx context.Context, partition string) error
	Keys(ctx context.Context, partition string) ([]string, error)
}

// Store is the session storage of one browser.
type Store struct {
	backend   Backend
	partition string
	log       logrus.FieldLogger
}

func New(backend Backend, partition string, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{backend: backend, partition: partition, log: log.WithField("partition", partition)}
}

// Partition returns the id of the storage partition.
func (s *Store) Partition() string { return s.partition }

// SetItem serializes value and stores it under key.  Errors never reach the
// caller.
func (s *Store) SetItem(ctx context.Context, key string, value any) {
	if err := s.trySet(ctx, key, value); err != nil {
		s.log.WithError(err).WithField("key", key).Debug("store: set item failed")
	}
}

func (s *Store) trySet(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	return errors.Wrap(s.backend.Set(ctx, s.partition, key, raw), "backend set")
}

// GetItem decodes the value stored under key into out.  It returns false
// when the key is absent, the backend fails or the stored text does not
// parse; out is left untouched in that case.
func (s *Store) GetItem(ctx context.Context, key string, out any) bool {
	raw, ok, err := s.backend.Get(ctx, s.partition, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Debug("store: get item failed")
		return false
	}
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.WithError(err).WithField("key", key).Debug("store: stored value does not parse")
		return false
	}
	return true
}

// RemoveItem deletes one key.
func (s *Store) RemoveItem(ctx context.Context, key string) {
	if err := s.backend.Delete(ctx, s.partition, key); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("store: remove item failed")
	}
}

// Clear deletes every key of the partition, including keys the portal did
// not write.
func (s *Store) Clear(ctx context.Context) {
	if err := s.backend.Clear(ctx, s.partition); err != nil {
		s.log.WithError(err).Warn("store: clear failed")
	}
}

// Keys lists the keys currently stored in the partition.
func (s *Store) Keys(ctx context.Context) []string {
	keys, err := s.backend.Keys(ctx, s.partition)
	if err != nil {
		s.log.WithError(err).Debug("store: keys failed")
		return nil
	}
	return keys
}
