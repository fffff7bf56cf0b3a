// Package bbolt is a storage backend keeping tokens in a bbolt[1] file.
//
// Each key gets its own top-level bucket holding two entries: "data" with the
// raw value and "expiresAt" with the expiry as decimal unix nanoseconds.
// Splitting the expiry out lets the cleanup pass scan deadlines without
// decoding any values.
//
// bbolt is single-writer and file-backed, so this backend fits one sortcha
// instance that needs tokens to survive restarts. Use the valkey backend when
// multiple replicas share one token space.
//
// [1]: https://github.com/etcd-io/bbolt
package bbolt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sortcha/sortcha/lib/store"
	"go.etcd.io/bbolt"
)

var (
	keyData      = []byte("data")
	keyExpiresAt = []byte("expiresAt")

	// ErrNotExists is a sentinel for deletes against absent keys, visible in
	// admin-facing error messages.
	ErrNotExists = errors.New("bbolt: value does not exist in store")
)

type Store struct {
	bdb *bbolt.DB
}

// Delete a key from the datastore. If the key does not exist, return an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(key)) == nil {
			return fmt.Errorf("%w: %q", ErrNotExists, key)
		}

		return tx.DeleteBucket([]byte(key))
	})
}

// Get a value from the datastore. A key whose deadline has passed reads as
// absent; the stale bucket is deleted in the background.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var result []byte

	if err := s.bdb.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(key))
		if bkt == nil {
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}

		expiry, err := readExpiry(bkt)
		if err != nil {
			return fmt.Errorf("[unexpected] %w: %q: %w", store.ErrCantDecode, key, err)
		}

		if time.Now().After(expiry) {
			go s.Delete(context.Background(), key)
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}

		data := bkt.Get(keyData)
		if data == nil {
			return fmt.Errorf("[unexpected] %w: %q (data is nil)", store.ErrNotFound, key)
		}

		// data is only valid for the life of the transaction
		result = make([]byte, len(data))
		copy(result, data)

		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// Set a value into the store with a given expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, expiry time.Duration) error {
	deadline := time.Now().Add(expiry)

	return s.bdb.Update(func(tx *bbolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return fmt.Errorf("%w: %w: %q (create bucket)", store.ErrCantEncode, err, key)
		}

		if err := bkt.Put(keyExpiresAt, []byte(strconv.FormatInt(deadline.UnixNano(), 10))); err != nil {
			return fmt.Errorf("%w: %q (expiresAt)", store.ErrCantEncode, key)
		}

		if err := bkt.Put(keyData, value); err != nil {
			return fmt.Errorf("%w: %q (data)", store.ErrCantEncode, key)
		}

		return nil
	})
}

func readExpiry(bkt *bbolt.Bucket) (time.Time, error) {
	raw := bkt.Get(keyExpiresAt)
	if raw == nil {
		return time.Time{}, errors.New("expiresAt is not set")
	}

	nanos, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(0, nanos), nil
}

func (s *Store) cleanup(ctx context.Context) error {
	now := time.Now()
	var stale [][]byte

	if err := s.bdb.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(key []byte, bkt *bbolt.Bucket) error {
			expiry, err := readExpiry(bkt)
			if err != nil {
				slog.Warn("cleanup found a bucket without a parseable deadline, file a bug?", "key", string(key), "err", err)
				return nil
			}

			if now.After(expiry) {
				k := make([]byte, len(key))
				copy(k, key)
				stale = append(stale, k)
			}

			return nil
		})
	}); err != nil {
		return err
	}

	if len(stale) == 0 {
		return nil
	}

	return s.bdb.Update(func(tx *bbolt.Tx) error {
		for _, key := range stale {
			if err := tx.DeleteBucket(key); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
		}
		return nil
	})
}

func (s *Store) cleanupThread(ctx context.Context) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.cleanup(ctx); err != nil {
				slog.Error("error during bbolt cleanup", "err", err)
			}
		}
	}
}
