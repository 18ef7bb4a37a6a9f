// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"
)

// DifficultyResult is the difficulty the next block must declare.
type DifficultyResult struct {
	RequiredDifficulty Difficulty
}

// NextDifficulty computes the required difficulty of the block following samples.
// samples may be in any order and may hold more history than needed; only the trailing
// DifficultyWindow+DifficultyLag blocks are read and of those the newest DifficultyLag
// are skipped.
func NextDifficulty(p *ParameterSet, era Era, samples []BlockSample) (DifficultyResult, error) {
	window := sortSamplesByHeight(samples)
	window = lastSamples(window, p.DifficultyBlocksCount())
	var nextHeight int64
	if len(window) > 0 {
		nextHeight = window[len(window)-1].Height + 1
	}
	if len(window) > p.DifficultyWindow {
		// defend against lowering difficulty with freshly picked timestamps
		window = window[:p.DifficultyWindow]
	}

	length := len(window)
	if length <= 1 {
		return DifficultyResult{RequiredDifficulty: p.MinimumDifficultyV1}, nil
	}

	timestamps := make([]int64, length)
	for i, sample := range window {
		timestamps[i] = sample.Timestamp
	}
	sort.Slice(timestamps, func(i, j int) bool {
		return timestamps[i] < timestamps[j]
	})

	// cut out-of-family timestamps from both ends
	cutBegin, cutEnd := difficultyCut(p, length)

	timeSpan := timestamps[cutEnd-1] - timestamps[cutBegin]
	if timeSpan <= 0 {
		timeSpan = 1
	}

	first, last := &window[cutBegin].CumulativeDifficulty, &window[cutEnd-1].CumulativeDifficulty
	if last.Lt(first) {
		return DifficultyResult{}, fmt.Errorf("Cumulative difficulty decreases between heights %d and %d",
			window[cutBegin].Height, window[cutEnd-1].Height)
	}
	var work uint256.Int
	work.Sub(last, first)

	required, ok := divideWork(&work, p.DifficultyTarget, timeSpan)
	if !ok {
		return DifficultyResult{}, reject(RejectDifficultyOverflow, nextHeight,
			"work %s over %d seconds", work.ToBig(), timeSpan)
	}

	if floor := p.MinimumDifficultyFor(era); required < floor {
		required = floor
	}
	return DifficultyResult{RequiredDifficulty: required}, nil
}

// Returns the sorted index range kept after cutting DifficultyCut timestamps from each end.
// Short histories are cut proportionally so at least Window-2*Cut entries stay.
func difficultyCut(p *ParameterSet, length int) (int, int) {
	kept := p.DifficultyWindow - 2*p.DifficultyCut
	if length <= kept {
		return 0, length
	}
	cutBegin := (length - kept + 1) / 2
	return cutBegin, cutBegin + kept
}

// Computes ceil(work*target/timeSpan). False if the result doesn't fit a Difficulty.
func divideWork(work *uint256.Int, target, timeSpan int64) (Difficulty, bool) {
	// target is below 2**63 so the product always fits in 256 bits
	if work.BitLen() > 256-64 {
		return 0, false
	}
	product := new(uint256.Int).Mul(work, uint256.NewInt(uint64(target)))
	product.Add(product, uint256.NewInt(uint64(timeSpan-1)))
	product.Div(product, uint256.NewInt(uint64(timeSpan)))
	if !product.IsUint64() {
		return 0, false
	}
	return Difficulty(product.Uint64()), true
}

// CheckDifficulty returns a ConsensusRejection if declared is below required.
func CheckDifficulty(height int64, declared Difficulty, result DifficultyResult) error {
	if declared < result.RequiredDifficulty {
		return reject(RejectDifficultyTooLow, height,
			"declared %d, required %d", declared, result.RequiredDifficulty)
	}
	return nil
}
