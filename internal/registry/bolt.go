package registry

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const boltBucketRegistrations = "registrations" // key: big-endian club id -> Registration JSON

// Bolt is a registry persisted in a bbolt file. List returns registrations in
// ascending club id order.
type Bolt struct {
	storage *bbolt.DB
}

// NewBolt opens or creates the registry file at path
func NewBolt(path string) (*Bolt, error) {
	instance, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt registry: %w", err)
	}

	if err := instance.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketRegistrations))
		return err
	}); err != nil {
		_ = instance.Close()
		return nil, err
	}

	return &Bolt{storage: instance}, nil
}

func clubKey(clubID int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(clubID))
	return key
}

func (b *Bolt) Register(_ context.Context, reg Registration) error {
	return b.storage.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucketRegistrations))
		key := clubKey(reg.ClubID)

		reg.LastSyncAt = nil
		if data := bucket.Get(key); data != nil {
			var existing Registration
			if err := json.Unmarshal(data, &existing); err != nil {
				return fmt.Errorf("decoding registration %d: %w", reg.ClubID, err)
			}
			reg.LastSyncAt = existing.LastSyncAt
		}

		data, err := json.Marshal(reg)
		if err != nil {
			return err
		}
		return bucket.Put(key, data)
	})
}

func (b *Bolt) Unregister(_ context.Context, clubID int64) error {
	return b.storage.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketRegistrations)).Delete(clubKey(clubID))
	})
}

func (b *Bolt) Get(_ context.Context, clubID int64) (*Registration, error) {
	var reg *Registration
	err := b.storage.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(boltBucketRegistrations)).Get(clubKey(clubID))
		if data == nil {
			return ErrNotFound
		}
		reg = &Registration{}
		return json.Unmarshal(data, reg)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (b *Bolt) List(_ context.Context) ([]Registration, error) {
	regs := []Registration{}
	err := b.storage.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketRegistrations)).ForEach(func(_, data []byte) error {
			var reg Registration
			if err := json.Unmarshal(data, &reg); err != nil {
				return err
			}
			regs = append(regs, reg)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return regs, nil
}

func (b *Bolt) MarkSynced(_ context.Context, clubID int64, at time.Time) error {
	return b.storage.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucketRegistrations))
		key := clubKey(clubID)

		data := bucket.Get(key)
		if data == nil {
			return ErrNotFound
		}

		var reg Registration
		if err := json.Unmarshal(data, &reg); err != nil {
			return fmt.Errorf("decoding registration %d: %w", clubID, err)
		}
		reg.LastSyncAt = laterOf(reg.LastSyncAt, at)

		updated, err := json.Marshal(reg)
		if err != nil {
			return err
		}
		return bucket.Put(key, updated)
	})
}

// Close closes the database.
func (b *Bolt) Close() error {
	return b.storage.Close()
}
