// Package postgres implements the repository contracts on gorm and PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"resto-system/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// tableLockClass namespaces the advisory locks taken for order tables.
const tableLockClass = 7301

type Store struct {
	db *gorm.DB
}

var (
	_ repository.OrderStore   = (*Store)(nil)
	_ repository.OrderQueries = (*Store)(nil)
	_ repository.ProductStore = (*Store)(nil)
	_ repository.AccountStore = (*Store)(nil)
)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTableLock holds a session-level advisory lock on a pinned connection
// for the duration of fn, so every process sharing the database serializes
// on the same table. Store calls made with the ctx passed to fn run on that
// same connection; a lock holder never waits on the pool.
func (s *Store) WithTableLock(ctx context.Context, table string, fn func(ctx context.Context) error) error {
	return s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("SELECT pg_advisory_lock(?::int, hashtext(?))", tableLockClass, table).Error; err != nil {
			return fmt.Errorf("failed to lock table %s: %w", table, err)
		}
		defer func() {
			// Unlock even when the request context is already cancelled.
			err := conn.WithContext(context.Background()).
				Exec("SELECT pg_advisory_unlock(?::int, hashtext(?))", tableLockClass, table).Error
			if err != nil {
				log.Error().Err(err).Str("table", table).Msg("failed to release table lock")
			}
		}()

		return fn(context.WithValue(ctx, pinnedConnKey{}, pinnedConn{store: s, db: conn}))
	})
}

type pinnedConnKey struct{}

type pinnedConn struct {
	store *Store
	db    *gorm.DB
}

// conn returns the connection pinned by an enclosing WithTableLock, or the pool.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if pc, ok := ctx.Value(pinnedConnKey{}).(pinnedConn); ok && pc.store == s {
		return pc.db.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicate
	}
	return err
}
