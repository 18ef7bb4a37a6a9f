// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"fmt"
	"sync"
)

// SampleStorage is an interface for storing the block samples of the main chain by height.
type SampleStorage interface {
	// Store is called to store a sample. The tip advances if the sample is above it.
	Store(sample BlockSample) error

	// GetSample returns the sample at the height or nil if there is none.
	GetSample(height int64) (*BlockSample, error)

	// GetRange returns the stored samples with start <= height < end in height order.
	GetRange(start, end int64) ([]BlockSample, error)

	// GetTip returns the highest stored sample or nil if the storage is empty.
	GetTip() (*BlockSample, error)

	// Close is called to close any underlying storage.
	Close() error
}

// LastSamples returns the k most recent samples below height in height order.
// Fewer are returned near genesis.
func LastSamples(store SampleStorage, height int64, k int) ([]BlockSample, error) {
	if k <= 0 || height <= 0 {
		return nil, nil
	}
	start := height - int64(k)
	if start < 0 {
		start = 0
	}
	return store.GetRange(start, height)
}

// HistoryFor returns the trailing samples every evaluation of the block at height needs.
func HistoryFor(store SampleStorage, p *ParameterSet, height int64) ([]BlockSample, error) {
	return LastSamples(store, height, p.HistoryDepth())
}

// SampleStorageMemory is an in-memory SampleStorage implementation.
type SampleStorageMemory struct {
	lock    sync.RWMutex
	samples map[int64]BlockSample
	tip     int64
	hasTip  bool
}

// NewSampleStorageMemory returns a new instance of in-memory sample storage.
func NewSampleStorageMemory() *SampleStorageMemory {
	return &SampleStorageMemory{samples: make(map[int64]BlockSample)}
}

// Store is called to store a sample.
func (s *SampleStorageMemory) Store(sample BlockSample) error {
	if sample.Height < 0 {
		return fmt.Errorf("Negative sample height %d", sample.Height)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.samples[sample.Height] = sample
	if !s.hasTip || sample.Height > s.tip {
		s.tip, s.hasTip = sample.Height, true
	}
	return nil
}

// GetSample returns the sample at the height.
func (s *SampleStorageMemory) GetSample(height int64) (*BlockSample, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	sample, ok := s.samples[height]
	if !ok {
		return nil, nil
	}
	return &sample, nil
}

// GetRange returns the stored samples with start <= height < end.
func (s *SampleStorageMemory) GetRange(start, end int64) ([]BlockSample, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	var samples []BlockSample
	for height := start; height < end; height++ {
		if sample, ok := s.samples[height]; ok {
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

// GetTip returns the highest stored sample.
func (s *SampleStorageMemory) GetTip() (*BlockSample, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if !s.hasTip {
		return nil, nil
	}
	sample := s.samples[s.tip]
	return &sample, nil
}

// Close is a no-op.
func (s *SampleStorageMemory) Close() error {
	return nil
}
