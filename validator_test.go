// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDifficulty = 200000

// versions 1 through 3 end at height 1 so version 4 runs from height 2
func validatorParameters(t *testing.T) *ParameterSet {
	p, err := MainNetParameters().With(func(p *ParameterSet) {
		p.UpgradeHeights = []int64{1, 1, 1}
	})
	require.NoError(t, err)
	return p
}

func validatorChain(count int) []BlockSample {
	return buildChain(chainSpec{
		count:      count,
		difficulty: testDifficulty,
		spacing:    DIFFICULTY_TARGET,
		sizeVote:   500000,
		size:       1000,
		major: func(height int64) uint8 {
			if height <= 1 {
				return 1
			}
			return 4
		},
	})
}

func nextCandidate(samples []BlockSample) Candidate {
	last := samples[len(samples)-1]
	return Candidate{
		Height:       last.Height + 1,
		Hash:         testHash(last.Height + 1),
		Timestamp:    last.Timestamp + DIFFICULTY_TARGET,
		Difficulty:   testDifficulty,
		MajorVersion: 4,
		SizeVote:     500000,
		Size:         400000,
	}
}

func TestEvaluateHeight(t *testing.T) {
	p := validatorParameters(t)
	validator := NewValidator(p, nil)
	samples := validatorChain(100)

	verdict, err := validator.EvaluateHeight(100, samples, nil)
	require.NoError(t, err)
	assert.Nil(t, verdict.Rejection)
	assert.NoError(t, verdict.Err())
	assert.Equal(t, int64(100), verdict.Height)
	assert.Equal(t, EraAmethyst, verdict.Era)
	assert.Equal(t, Difficulty(testDifficulty), verdict.Difficulty.RequiredDifficulty)
	assert.Equal(t, uint64(500000), verdict.SizeLimit.EffectiveMaxSize)
	assert.Equal(t, UpgradeActive, verdict.Upgrade.State)

	// blocks at and above the height are ignored
	again, err := validator.EvaluateHeight(50, samples, nil)
	require.NoError(t, err)
	expected, err := validator.EvaluateHeight(50, samples[:50], nil)
	require.NoError(t, err)
	assert.Equal(t, expected, again)

	// legacy rules near genesis
	verdict, err = validator.EvaluateHeight(1, samples, nil)
	require.NoError(t, err)
	assert.Equal(t, EraV1, verdict.Era)
	assert.Equal(t, p.MinimumDifficultyV1, verdict.Difficulty.RequiredDifficulty)
	assert.Equal(t, uint64(2*MINIMUM_SIZE_MEDIAN_V1), verdict.SizeLimit.EffectiveMaxSize)
}

func TestEvaluateAccepts(t *testing.T) {
	p := validatorParameters(t)
	validator := NewValidator(p, NewLogrusNoOp())
	samples := validatorChain(100)
	candidate := nextCandidate(samples)
	now := candidate.Timestamp

	verdict, err := validator.Evaluate(candidate, samples, CheckpointsFor(p), now)
	require.NoError(t, err)
	assert.Nil(t, verdict.Rejection)

	// the accepted candidate extends the chain
	sample := candidate.Sample(&samples[99])
	assert.Equal(t, int64(100), sample.Height)
	rebuilt, err := CandidateFromSample(sample, &samples[99])
	require.NoError(t, err)
	assert.Equal(t, candidate, rebuilt)

	samples = append(samples, sample)
	verdict, err = validator.Evaluate(nextCandidate(samples), samples, nil, now+DIFFICULTY_TARGET)
	require.NoError(t, err)
	assert.Nil(t, verdict.Rejection)
}

func TestEvaluateRejects(t *testing.T) {
	p := validatorParameters(t)
	validator := NewValidator(p, nil)
	samples := validatorChain(100)
	base := nextCandidate(samples)
	now := base.Timestamp

	tests := []struct {
		name        string
		edit        func(c *Candidate)
		checkpoints *CheckpointSet
		reason      RejectReason
	}{
		{"low difficulty", func(c *Candidate) { c.Difficulty-- }, nil, RejectDifficultyTooLow},
		{"too large", func(c *Candidate) { c.Size = 500001 }, nil, RejectBlockTooLarge},
		{"old version", func(c *Candidate) { c.MajorVersion = 3 }, nil, RejectWrongVersion},
		{"stale timestamp", func(c *Candidate) { c.Timestamp = samples[0].Timestamp }, nil, RejectTimestampTooEarly},
		{"future timestamp", func(c *Candidate) { c.Timestamp = now + BLOCK_FUTURE_TIME_LIMIT + 1 }, nil, RejectTimestampInFuture},
		{
			"checkpoint mismatch",
			func(c *Candidate) {},
			NewCheckpointSet([]HardCheckpoint{{Height: 100, Hash: testHash(1)}}, nil),
			RejectCheckpointMismatch,
		},
		{
			"version pinned by checkpoint",
			func(c *Candidate) {},
			NewCheckpointSet(nil, []VersionCheckpoint{{Height: 100, MajorVersion: 3}}),
			RejectWrongVersion,
		},
	}

	for _, test := range tests {
		candidate := base
		test.edit(&candidate)
		verdict, err := validator.Evaluate(candidate, samples, test.checkpoints, now)
		require.NoError(t, err, test.name)
		require.NotNil(t, verdict.Rejection, test.name)
		assert.Equal(t, test.reason, verdict.Rejection.Reason, test.name)
		assert.Equal(t, int64(100), verdict.Rejection.Height, test.name)

		_, ok := IsRejection(verdict.Err())
		assert.True(t, ok, test.name)
	}
}

func TestEvaluateOverflow(t *testing.T) {
	p := validatorParameters(t)
	validator := NewValidator(p, nil)
	samples := validatorChain(3)
	samples[2].CumulativeDifficulty.SetAllOne()

	verdict, err := validator.Evaluate(nextCandidate(samples), samples, nil, samples[2].Timestamp)
	require.NoError(t, err)
	require.NotNil(t, verdict.Rejection)
	assert.Equal(t, RejectDifficultyOverflow, verdict.Rejection.Reason)
}

func TestEvaluateInconsistentHistory(t *testing.T) {
	p := validatorParameters(t)
	validator := NewValidator(p, nil)
	samples := validatorChain(10)
	samples[9].CumulativeDifficulty.Clear()

	_, err := validator.EvaluateHeight(10, samples, nil)
	assert.Error(t, err)

	_, err = CandidateFromSample(samples[9], &samples[8])
	assert.Error(t, err)
}
