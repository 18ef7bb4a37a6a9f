// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplesWithVotes(votes ...uint64) []BlockSample {
	samples := make([]BlockSample, len(votes))
	for i, vote := range votes {
		samples[i] = BlockSample{Height: int64(i), SizeVote: vote}
	}
	return samples
}

func TestCapacityIdenticalVotes(t *testing.T) {
	p := MainNetParameters()
	samples := buildChain(chainSpec{count: 50, difficulty: 1, spacing: 1, sizeVote: 500000})
	result := NextBlockCapacity(p, EraAmethyst, 50, samples)
	assert.Equal(t, uint64(500000), result.EffectiveMaxSize)
	assert.Zero(t, result.EffectiveMedian)
}

func TestCapacityClampsVotes(t *testing.T) {
	p := MainNetParameters()

	low := NextBlockCapacity(p, EraAmethyst, 11, samplesWithVotes(0, 1, 5, 7, 9, 0, 0, 0, 0, 0, 0))
	assert.Equal(t, p.BlockCapacityVoteMin, low.EffectiveMaxSize)

	high := NextBlockCapacity(p, EraAmethyst, 11, samplesWithVotes(
		1<<40, 1<<40, 1<<40, 1<<40, 1<<40, 1<<40, 1<<40, 1<<40, 1<<40, 1<<40, 1<<40))
	assert.Equal(t, p.BlockCapacityVoteMax, high.EffectiveMaxSize)

	assert.Equal(t, p.BlockCapacityVoteMin, ClampCapacityVote(p, 0))
	assert.Equal(t, p.BlockCapacityVoteMax, ClampCapacityVote(p, ^uint64(0)))
	assert.Equal(t, uint64(123456), ClampCapacityVote(p, 123456))
}

func TestCapacityVoteWindow(t *testing.T) {
	p := MainNetParameters()

	// only the trailing 11 votes count
	votes := make([]uint64, 20)
	for i := range votes {
		votes[i] = 2000000
		if i >= 9 {
			votes[i] = 300000
		}
	}
	result := NextBlockCapacity(p, EraAmethyst, 20, samplesWithVotes(votes...))
	assert.Equal(t, uint64(300000), result.EffectiveMaxSize)

	// even count takes the lower central vote
	result = NextBlockCapacity(p, EraAmethyst, 4, samplesWithVotes(400000, 100000, 300000, 200000))
	assert.Equal(t, uint64(200000), result.EffectiveMaxSize)

	// a minority of extreme votes doesn't move the median
	result = NextBlockCapacity(p, EraAmethyst, 11, samplesWithVotes(
		2000000, 2000000, 2000000, 2000000, 2000000, 150000, 150000, 150000, 150000, 150000, 150000))
	assert.Equal(t, uint64(150000), result.EffectiveMaxSize)
}

func TestCapacityEmptyHistory(t *testing.T) {
	p := MainNetParameters()
	result := NextBlockCapacity(p, EraAmethyst, 0, nil)
	assert.Equal(t, p.BlockCapacityVoteMin, result.EffectiveMaxSize)
}

func TestLegacyCapacity(t *testing.T) {
	p := MainNetParameters()
	empty := buildChain(chainSpec{count: 100, difficulty: 1, spacing: 1})

	// the median is floored per era and the limit is twice the median
	result := NextBlockCapacity(p, EraV3, 1000000, empty)
	assert.Equal(t, uint64(200000), result.EffectiveMaxSize)
	assert.Equal(t, uint64(100000), result.EffectiveMedian)

	result = NextBlockCapacity(p, EraV1, 0, empty)
	assert.Equal(t, uint64(20000), result.EffectiveMaxSize)
	assert.Equal(t, uint64(10000), result.EffectiveMedian)

	// capped by the linear growth limit near genesis
	result = NextBlockCapacity(p, EraV3, 0, empty)
	assert.Equal(t, uint64(MAX_BLOCK_SIZE_INITIAL), result.EffectiveMaxSize)

	full := buildChain(chainSpec{count: 150, difficulty: 1, spacing: 1, size: 150000})
	result = NextBlockCapacity(p, EraV3, 1000000, full)
	assert.Equal(t, uint64(300000), result.EffectiveMaxSize)
	assert.Equal(t, uint64(150000), result.EffectiveMedian)
}

func TestLegacyMaxBlockSize(t *testing.T) {
	p := MainNetParameters()
	assert.Equal(t, uint64(MAX_BLOCK_SIZE_INITIAL), legacyMaxBlockSize(p, 0))
	assert.Equal(t, uint64(MAX_BLOCK_SIZE_INITIAL+MAX_BLOCK_SIZE_GROWTH_PER_YEAR),
		legacyMaxBlockSize(p, p.ExpectedBlocksPerYear()))
	assert.Equal(t, uint64(410129), legacyMaxBlockSize(p, 1000000))
}

func TestCheckBlockSize(t *testing.T) {
	result := SizeLimitResult{EffectiveMaxSize: 1000}
	assert.NoError(t, CheckBlockSize(7, 1000, result))

	rej, ok := IsRejection(CheckBlockSize(7, 1001, result))
	require.True(t, ok)
	assert.Equal(t, RejectBlockTooLarge, rej.Reason)
}

func TestMedians(t *testing.T) {
	assert.Equal(t, uint64(0), lowerMedian(nil))
	assert.Equal(t, uint64(2), lowerMedian([]uint64{3, 1, 2}))
	assert.Equal(t, uint64(2), lowerMedian([]uint64{4, 1, 3, 2}))

	assert.Equal(t, uint64(0), averageMedian(nil))
	assert.Equal(t, uint64(2), averageMedian([]uint64{3, 1, 2}))
	assert.Equal(t, uint64(3), averageMedian([]uint64{4, 3}))
	assert.Equal(t, uint64(150), averageMedian([]uint64{100, 200}))
	assert.Equal(t, ^uint64(0), averageMedian([]uint64{^uint64(0), ^uint64(0)}))
}
