package loader

import (
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

// Batch holds the records pending insert, grouped by partition. Partitions
// iterate in the order their first record was added.
type Batch struct {
	order   []domain.PartitionKey
	pending map[domain.PartitionKey][]domain.Record
}

// NewBatch returns an empty batch
func NewBatch() *Batch {
	return &Batch{pending: make(map[domain.PartitionKey][]domain.Record)}
}

// Add appends rec to its partition
func (b *Batch) Add(rec domain.Record) error {
	key, err := rec.Partition()
	if err != nil {
		return err
	}

	if _, ok := b.pending[key]; !ok {
		b.order = append(b.order, key)
	}
	b.pending[key] = append(b.pending[key], rec)
	return nil
}

// Partitions returns the partition keys in first-seen order
func (b *Batch) Partitions() []domain.PartitionKey {
	keys := make([]domain.PartitionKey, len(b.order))
	copy(keys, b.order)
	return keys
}

// Records returns the pending records of one partition
func (b *Batch) Records(key domain.PartitionKey) []domain.Record {
	return b.pending[key]
}

// Len returns the number of pending records across partitions
func (b *Batch) Len() int {
	n := 0
	for _, records := range b.pending {
		n += len(records)
	}
	return n
}
