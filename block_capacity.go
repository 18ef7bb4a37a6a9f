// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"sort"
)

// SizeLimitResult is the maximum transactions size allowed in the next block.
type SizeLimitResult struct {
	EffectiveMaxSize uint64
	EffectiveMedian  uint64 // legacy eras only, input to the reward penalty
}

// ClampCapacityVote clamps a miner's block capacity vote into the allowed range.
// Votes are never rejected so one bad vote can't stall consensus.
func ClampCapacityVote(p *ParameterSet, vote uint64) uint64 {
	if vote < p.BlockCapacityVoteMin {
		return p.BlockCapacityVoteMin
	}
	if vote > p.BlockCapacityVoteMax {
		return p.BlockCapacityVoteMax
	}
	return vote
}

// NextBlockCapacity computes the size limit for the block at height following samples.
func NextBlockCapacity(p *ParameterSet, era Era, height int64, samples []BlockSample) SizeLimitResult {
	history := sortSamplesByHeight(samples)
	switch era {
	case EraAmethyst:
		return votedBlockCapacity(p, history)
	default:
		return legacyBlockCapacity(p, era, height, history)
	}
}

// median of the clamped votes of the trailing vote window
func votedBlockCapacity(p *ParameterSet, history []BlockSample) SizeLimitResult {
	history = lastSamples(history, p.BlockCapacityVoteWindow)
	if len(history) == 0 {
		return SizeLimitResult{EffectiveMaxSize: p.BlockCapacityVoteMin}
	}
	votes := make([]uint64, len(history))
	for i, sample := range history {
		votes[i] = ClampCapacityVote(p, sample.SizeVote)
	}
	// a median of clamped values is already in range
	return SizeLimitResult{EffectiveMaxSize: lowerMedian(votes)}
}

// the historical non-voting rule. blocks may reach twice the median of recent sizes
// (the median floored per era) but never more than the linearly growing cap
func legacyBlockCapacity(p *ParameterSet, era Era, height int64, history []BlockSample) SizeLimitResult {
	floor := legacyMinimumSizeMedian(p, era)

	history = lastSamples(history, p.MedianBlockSizeWindow)
	sizes := make([]uint64, len(history))
	for i, sample := range history {
		sizes[i] = sample.Size
	}
	median := averageMedian(sizes)
	if median < floor {
		median = floor
	}

	limit := 2 * median
	if maxSize := legacyMaxBlockSize(p, height); maxSize < limit {
		limit = maxSize
	}
	return SizeLimitResult{EffectiveMaxSize: limit, EffectiveMedian: median}
}

func legacyMinimumSizeMedian(p *ParameterSet, era Era) uint64 {
	switch era {
	case EraV1:
		return p.MinimumSizeMedianV1
	case EraV2:
		return p.MinimumSizeMedianV2
	default:
		return p.MinimumSizeMedianV3
	}
}

// Computes the legacy hard cap on block size, growing linearly from the initial size. Inspired by BIP 101
func legacyMaxBlockSize(p *ParameterSet, height int64) uint64 {
	if height < 0 {
		height = 0
	}
	growth := uint64(height) * p.MaxBlockSizeGrowthPerYear / uint64(p.ExpectedBlocksPerYear())
	return p.MaxBlockSizeInitial + growth
}

// CheckBlockSize returns a ConsensusRejection if size exceeds the effective limit.
func CheckBlockSize(height int64, size uint64, result SizeLimitResult) error {
	if size > result.EffectiveMaxSize {
		return reject(RejectBlockTooLarge, height,
			"size %d, limit %d", size, result.EffectiveMaxSize)
	}
	return nil
}

// median of an odd count is the middle value. for an even count the lower central
// value is taken so the result is always one of the inputs
func lowerMedian(values []uint64) uint64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]uint64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	return sorted[(len(sorted)-1)/2]
}

// median which averages the central pair of an even count, as the legacy rules did
func averageMedian(values []uint64) uint64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]uint64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	n := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[n]
	}
	return sorted[n-1]/2 + sorted[n]/2 + (sorted[n-1]%2+sorted[n]%2)/2
}
