// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedianTimestamp(t *testing.T) {
	p := MainNetParameters()

	samples := buildChain(chainSpec{count: 59, difficulty: 1, spacing: 120})
	median, ok := MedianTimestamp(p, EraAmethyst, samples)
	require.True(t, ok)
	assert.Equal(t, int64(testGenesisTime+29*120), median)

	// out of order timestamps
	samples[58].Timestamp = testGenesisTime - 1000
	median, ok = MedianTimestamp(p, EraAmethyst, samples)
	require.True(t, ok)
	assert.Equal(t, int64(testGenesisTime+28*120), median)

	// the legacy window is even and averages the central pair
	samples = buildChain(chainSpec{count: 60, difficulty: 1, spacing: 10})
	median, ok = MedianTimestamp(p, EraV3, samples)
	require.True(t, ok)
	assert.Equal(t, int64(testGenesisTime+295), median)

	// short history has no median
	_, ok = MedianTimestamp(p, EraAmethyst, samples[:58])
	assert.False(t, ok)
}

func TestCheckTimestamp(t *testing.T) {
	p := MainNetParameters()
	samples := buildChain(chainSpec{count: 100, difficulty: 1, spacing: 120})
	median, ok := MedianTimestamp(p, EraAmethyst, samples)
	require.True(t, ok)
	now := samples[99].Timestamp + 60

	// equal to the median is accepted
	assert.NoError(t, CheckTimestamp(p, EraAmethyst, 100, median, samples, now))

	rej, ok := IsRejection(CheckTimestamp(p, EraAmethyst, 100, median-1, samples, now))
	require.True(t, ok)
	assert.Equal(t, RejectTimestampTooEarly, rej.Reason)

	assert.NoError(t, CheckTimestamp(p, EraAmethyst, 100, now+BLOCK_FUTURE_TIME_LIMIT, samples, now))
	rej, ok = IsRejection(CheckTimestamp(p, EraAmethyst, 100, now+BLOCK_FUTURE_TIME_LIMIT+1, samples, now))
	require.True(t, ok)
	assert.Equal(t, RejectTimestampInFuture, rej.Reason)
}

func TestCheckTimestampFutureWithoutHistory(t *testing.T) {
	p := MainNetParameters()
	now := int64(testGenesisTime)

	// any past timestamp passes while the chain is shorter than the window
	assert.NoError(t, CheckTimestamp(p, EraV1, 1, 0, nil, now))

	rej, ok := IsRejection(CheckTimestamp(p, EraV1, 1, now+BLOCK_FUTURE_TIME_LIMIT+1, nil, now))
	require.True(t, ok)
	assert.Equal(t, RejectTimestampInFuture, rej.Reason)
}
