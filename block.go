// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/holiman/uint256"
)

// Difficulty is the expected number of hashes needed to find a block.
type Difficulty uint64

// Amount is a quantity of atomic coin units.
type Amount uint64

// BlockHash is a block's unique identifier.
type BlockHash [32]byte

// BlockSample is the read-only projection of one historical block the rule evaluation
// consumes. Samples are owned by the storage layer; evaluation code never mutates them.
type BlockSample struct {
	Height               int64
	Hash                 BlockHash
	Timestamp            int64
	CumulativeDifficulty uint256.Int // total difficulty from genesis up to and including this block
	MajorVersion         uint8
	MinorVersion         uint8  // the version this block's miner votes for
	SizeVote             uint64 // block capacity proposed by this block's miner
	Size                 uint64 // cumulative transactions size, legacy size rule only
}

// String implements the Stringer interface
func (h BlockHash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText marshals BlockHash as a hex string.
func (h BlockHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText unmarshals a hex string to BlockHash.
func (h *BlockHash) UnmarshalText(b []byte) error {
	if len(b) != 64 {
		return fmt.Errorf("Invalid block hash")
	}
	hashBytes, err := hex.DecodeString(string(b))
	if err != nil {
		return err
	}
	copy(h[:], hashBytes)
	return nil
}

// AddDifficulty returns the cumulative difficulty after appending a block of difficulty d.
func AddDifficulty(cumulative *uint256.Int, d Difficulty) uint256.Int {
	var next uint256.Int
	next.Add(cumulative, uint256.NewInt(uint64(d)))
	return next
}

// sortSamplesByHeight returns a copy of samples in ascending height order.
func sortSamplesByHeight(samples []BlockSample) []BlockSample {
	sorted := make([]BlockSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Height < sorted[j].Height
	})
	return sorted
}

// lastSamples returns the trailing n samples of an ascending slice.
func lastSamples(samples []BlockSample, n int) []BlockSample {
	if n < 0 {
		n = 0
	}
	if len(samples) > n {
		return samples[len(samples)-n:]
	}
	return samples
}
