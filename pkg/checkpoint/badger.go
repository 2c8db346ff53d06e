package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

var (
	ErrDBConnection = errors.New("badger database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrCreate       = errors.New("create error")
)

var keyPrefix = []byte("ckpt:")

var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}

	return em
}()

type Database struct {
	db *badger.DB
}

// NewDatabase opens a badger store at path, or a purely in-memory one.
func NewDatabase(path string, inMemory bool) (*Database, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

var _ Repository = (*badgerRepo)(nil)

type badgerRepo struct {
	db *Database
}

func NewBadgerRepository(db *Database) Repository {
	return &badgerRepo{db: db}
}

func key(id string) []byte {
	return append(append([]byte{}, keyPrefix...), id...)
}

func (r *badgerRepo) Save(_ context.Context, c Checkpoint) (Checkpoint, error) {
	c, err := prepare(c)
	if err != nil {
		return Checkpoint{}, err
	}

	val, err := encMode.Marshal(c)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("marshal error: %w", err)
	}

	err = r.db.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key(c.ID))
		switch {
		case err == nil:
			return ErrConflict
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		return txn.Set(key(c.ID), val)
	})
	switch {
	case errors.Is(err, ErrConflict):
		return Checkpoint{}, err
	case err != nil:
		return Checkpoint{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return c, nil
}

func (r *badgerRepo) Get(_ context.Context, id string) (Checkpoint, error) {
	var c Checkpoint
	err := r.db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &c)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return Checkpoint{}, ErrNotFound
		}

		return Checkpoint{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return c, nil
}

func (r *badgerRepo) Latest(_ context.Context) (Checkpoint, error) {
	var (
		c     Checkpoint
		found bool
	)
	err := r.db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(append(append([]byte{}, keyPrefix...), 0xff))
		if !it.ValidForPrefix(keyPrefix) {
			return nil
		}
		found = true

		return it.Item().Value(func(val []byte) error {
			return cbor.Unmarshal(val, &c)
		})
	})
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}
	if !found {
		return Checkpoint{}, ErrNotFound
	}

	return c, nil
}

func (r *badgerRepo) List(_ context.Context, offset, limit uint64) (Page, error) {
	page := Page{Offset: offset, Limit: limit, Checkpoints: []Checkpoint{}}
	err := r.db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			pos := page.Total
			page.Total++
			if pos < offset || pos >= offset+limit {
				continue
			}

			var c Checkpoint
			if err := it.Item().Value(func(val []byte) error {
				return cbor.Unmarshal(val, &c)
			}); err != nil {
				return err
			}
			page.Checkpoints = append(page.Checkpoints, c)
		}

		return nil
	})
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return page, nil
}
