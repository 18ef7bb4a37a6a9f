// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// SampleStorageDisk is an on-disk SampleStorage implementation using LevelDB.
type SampleStorageDisk struct {
	db       *leveldb.DB
	readOnly bool
	log      Logger
}

// NewSampleStorageDisk returns a new instance of on-disk sample storage.
func NewSampleStorageDisk(dbPath string, readOnly bool, log Logger) (*SampleStorageDisk, error) {
	if log == nil {
		log = NewLogrusNoOp()
	}

	// open the database
	opts := opt.Options{ReadOnly: readOnly}
	db, err := leveldb.OpenFile(dbPath, &opts)
	if err != nil {
		return nil, fmt.Errorf("Opening sample storage %s: %w", dbPath, err)
	}
	s := &SampleStorageDisk{db: db, readOnly: readOnly, log: log}

	tipHeight, ok, err := s.getTipHeight()
	if err != nil {
		db.Close()
		return nil, err
	}
	if ok {
		log.Info("Opened sample storage", "path", dbPath, "tip_height", tipHeight, "read_only", readOnly)
	} else {
		log.Info("Opened empty sample storage", "path", dbPath, "read_only", readOnly)
	}
	return s, nil
}

// Store is called to store a sample. The tip advances if the sample is above it.
func (s *SampleStorageDisk) Store(sample BlockSample) error {
	if s.readOnly {
		return fmt.Errorf("Sample storage is in read-only mode")
	}
	if sample.Height < 0 {
		return fmt.Errorf("Negative sample height %d", sample.Height)
	}

	encodedSample, err := encodeBlockSample(sample)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(computeSampleHeightKey(sample.Height), encodedSample)

	tipHeight, ok, err := s.getTipHeight()
	if err != nil {
		return err
	}
	if !ok || sample.Height > tipHeight {
		batch.Put(computeSampleTipKey(), encodeHeight(sample.Height))
	}

	wo := opt.WriteOptions{Sync: true}
	return s.db.Write(batch, &wo)
}

// StoreAll stores samples in one batch.
func (s *SampleStorageDisk) StoreAll(samples []BlockSample) error {
	if s.readOnly {
		return fmt.Errorf("Sample storage is in read-only mode")
	}
	if len(samples) == 0 {
		return nil
	}

	tipHeight, hasTip, err := s.getTipHeight()
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	for _, sample := range samples {
		if sample.Height < 0 {
			return fmt.Errorf("Negative sample height %d", sample.Height)
		}
		encodedSample, err := encodeBlockSample(sample)
		if err != nil {
			return err
		}
		batch.Put(computeSampleHeightKey(sample.Height), encodedSample)
		if !hasTip || sample.Height > tipHeight {
			tipHeight, hasTip = sample.Height, true
		}
	}
	batch.Put(computeSampleTipKey(), encodeHeight(tipHeight))

	wo := opt.WriteOptions{Sync: true}
	if err := s.db.Write(batch, &wo); err != nil {
		return err
	}
	s.log.Info("Stored samples", "count", len(samples), "tip_height", tipHeight)
	return nil
}

// GetSample returns the sample at the height.
func (s *SampleStorageDisk) GetSample(height int64) (*BlockSample, error) {
	encodedSample, err := s.db.Get(computeSampleHeightKey(height), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeBlockSample(encodedSample)
}

// GetRange returns the stored samples with start <= height < end in height order.
func (s *SampleStorageDisk) GetRange(start, end int64) ([]BlockSample, error) {
	if start < 0 {
		start = 0
	}
	if end <= start {
		return nil, nil
	}

	var samples []BlockSample
	iter := s.db.NewIterator(&util.Range{
		Start: computeSampleHeightKey(start),
		Limit: computeSampleHeightKey(end),
	}, nil)
	for iter.Next() {
		sample, err := decodeBlockSample(iter.Value())
		if err != nil {
			iter.Release()
			return nil, err
		}
		samples = append(samples, *sample)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return samples, nil
}

// GetTip returns the highest stored sample.
func (s *SampleStorageDisk) GetTip() (*BlockSample, error) {
	tipHeight, ok, err := s.getTipHeight()
	if err != nil || !ok {
		return nil, err
	}
	return s.GetSample(tipHeight)
}

// Close is called to close any underlying storage.
func (s *SampleStorageDisk) Close() error {
	return s.db.Close()
}

func (s *SampleStorageDisk) getTipHeight() (int64, bool, error) {
	tipBytes, err := s.db.Get(computeSampleTipKey(), nil)
	if err == leveldb.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	height, err := decodeHeight(tipBytes)
	if err != nil {
		return 0, false, err
	}
	return height, true, nil
}

// leveldb schema

// T                  -> {height}
// h{height}          -> {encoded sample}

const sampleTipPrefix = 'T'

const sampleHeightPrefix = 'h'

// heights are non-negative so big-endian keys iterate in height order
func computeSampleHeightKey(height int64) []byte {
	key := make([]byte, 9)
	key[0] = sampleHeightPrefix
	binary.BigEndian.PutUint64(key[1:], uint64(height))
	return key
}

func computeSampleTipKey() []byte {
	return []byte{sampleTipPrefix}
}

func encodeHeight(height int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(height))
	return buf
}

func decodeHeight(heightBytes []byte) (int64, error) {
	if len(heightBytes) != 8 {
		return 0, fmt.Errorf("Invalid height encoding of length %d", len(heightBytes))
	}
	return int64(binary.BigEndian.Uint64(heightBytes)), nil
}

// fixed-size on-disk form of a BlockSample
type sampleRecord struct {
	Height               int64
	Hash                 BlockHash
	Timestamp            int64
	CumulativeDifficulty [32]byte
	MajorVersion         uint8
	MinorVersion         uint8
	SizeVote             uint64
	Size                 uint64
}

func encodeBlockSample(sample BlockSample) ([]byte, error) {
	record := sampleRecord{
		Height:               sample.Height,
		Hash:                 sample.Hash,
		Timestamp:            sample.Timestamp,
		CumulativeDifficulty: sample.CumulativeDifficulty.Bytes32(),
		MajorVersion:         sample.MajorVersion,
		MinorVersion:         sample.MinorVersion,
		SizeVote:             sample.SizeVote,
		Size:                 sample.Size,
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.BigEndian, &record); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBlockSample(encodedSample []byte) (*BlockSample, error) {
	var record sampleRecord
	if err := binary.Read(bytes.NewReader(encodedSample), binary.BigEndian, &record); err != nil {
		return nil, err
	}
	sample := &BlockSample{
		Height:       record.Height,
		Hash:         record.Hash,
		Timestamp:    record.Timestamp,
		MajorVersion: record.MajorVersion,
		MinorVersion: record.MinorVersion,
		SizeVote:     record.SizeVote,
		Size:         record.Size,
	}
	sample.CumulativeDifficulty.SetBytes(record.CumulativeDifficulty[:])
	return sample, nil
}
