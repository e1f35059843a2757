// Package store persists estimates, services, inventory and job cards.
// Every write runs in its own transaction and commits before returning.
package store

import (
	"errors"
	"iter"
	"sync"

	"github.com/diewo77/go-garage/internal/models"
	"github.com/diewo77/go-garage/internal/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Opener dials the database. It is called again after Close.
type Opener func() (*gorm.DB, error)

// Store holds the single shared database handle. It is meant to be used from
// one goroutine at a time.
type Store struct {
	mu   sync.Mutex
	open Opener
	db   *gorm.DB
	log  *logrus.Entry
}

// New returns a store that opens its connection through open on first use.
func New(open Opener, log *logrus.Entry) *Store {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Store{open: open, log: log.WithField("component", "store")}
}

// conn returns the live handle, opening it if absent.
func (s *Store) conn() (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	db, err := s.open()
	if err != nil {
		return nil, &PersistenceError{Op: "connect", Err: err}
	}
	s.db = db
	s.log.Debug("database handle opened")
	return db, nil
}

// DB exposes the handle for schema and seed tooling.
func (s *Store) DB() (*gorm.DB, error) { return s.conn() }

// Close releases the handle. A later call reopens it lazily.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return &PersistenceError{Op: "close", Err: err}
	}
	if err := sqlDB.Close(); err != nil {
		return &PersistenceError{Op: "close", Err: err}
	}
	return nil
}

// write runs fn in a transaction and maps its failure to the typed errors.
func (s *Store) write(op string, fn func(tx *gorm.DB) error) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	return s.fail(op, db.Transaction(fn))
}

func (s *Store) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *validation.Error
	var nf *NotFoundError
	var pe *PersistenceError
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func (s *Store) estimateExists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Estimate{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{Entity: "estimate", ID: id}
	}
	return nil
}

// scan streams the rows selected by query. Each range re-runs the query, so
// the sequence always reflects current state. A failure is logged and yielded
// once, after which the sequence ends.
func scan[T any](s *Store, op string, query func(*gorm.DB) *gorm.DB) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		db, err := s.conn()
		if err != nil {
			s.log.WithError(err).Warn(op + " failed")
			yield(zero, err)
			return
		}
		rows, err := query(db).Rows()
		if err != nil {
			s.log.WithError(err).Warn(op + " failed")
			yield(zero, &PersistenceError{Op: op, Err: err})
			return
		}
		defer rows.Close()
		for rows.Next() {
			var rec T
			if err := db.ScanRows(rows, &rec); err != nil {
				s.log.WithError(err).Warn(op + " failed")
				yield(zero, &PersistenceError{Op: op, Err: err})
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			s.log.WithError(err).Warn(op + " failed")
			yield(zero, &PersistenceError{Op: op, Err: err})
		}
	}
}

// Collect drains a sequence, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for rec, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
