// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// BaseReward computes the block reward before any size penalty given the amount
// already emitted.
func BaseReward(p *ParameterSet, alreadyGenerated Amount) Amount {
	if alreadyGenerated >= p.MoneySupply {
		return 0
	}
	return (p.MoneySupply - alreadyGenerated) >> p.EmissionSpeedFactor
}

// PenalizedReward reduces reward for blocks larger than the effective median.
// Blocks over twice the median are invalid in the legacy eras.
func PenalizedReward(height int64, reward Amount, size, median uint64) (Amount, error) {
	if median == 0 {
		median = 1
	}
	if size > 2*median {
		return 0, reject(RejectBlockTooLarge, height,
			"size %d is over twice the median %d", size, median)
	}
	if reward == 0 || size <= median {
		return reward, nil
	}

	// reward * size * (2*median - size) / median / median
	product := uint256.NewInt(uint64(reward))
	product.Mul(product, uint256.NewInt(size))
	product.Mul(product, uint256.NewInt(2*median-size))
	product.Div(product, uint256.NewInt(median))
	product.Div(product, uint256.NewInt(median))
	return Amount(product.Uint64()), nil
}

// IsPrettyAmount is true for amounts of the form d*10^k with d in 1..9.
func IsPrettyAmount(amount Amount) bool {
	if amount == 0 {
		return false
	}
	for amount%10 == 0 {
		amount /= 10
	}
	return amount < 10
}

// IsDust returns true if an output of this amount is hard to spend:
// not a pretty amount, or outside the dust thresholds.
func IsDust(p *ParameterSet, amount Amount) bool {
	if amount < p.MinDustThreshold || amount > p.MaxDustThreshold {
		return true
	}
	return !IsPrettyAmount(amount)
}

// IsSelfDust is true for change outputs small enough to forfeit.
func IsSelfDust(p *ParameterSet, amount Amount) bool {
	return amount < p.SelfDustThreshold
}

// FormatAmount renders an amount with the network's display decimal point.
func FormatAmount(p *ParameterSet, amount Amount) string {
	s := strconv.FormatUint(uint64(amount), 10)
	if p.DisplayDecimalPoint <= 0 {
		return s
	}
	if len(s) <= p.DisplayDecimalPoint {
		s = strings.Repeat("0", p.DisplayDecimalPoint-len(s)+1) + s
	}
	point := len(s) - p.DisplayDecimalPoint
	return s[:point] + "." + s[point:]
}
