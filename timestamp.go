// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"sort"
)

// MedianTimestamp computes the median timestamp of the trailing timestamp check window
// of samples. ok is false when there are fewer samples than the window holds.
func MedianTimestamp(p *ParameterSet, era Era, samples []BlockSample) (median int64, ok bool) {
	window := p.TimestampCheckWindowFor(era)
	history := lastSamples(sortSamplesByHeight(samples), window)
	if len(history) < window {
		return 0, false
	}

	timestamps := make([]int64, len(history))
	for i, sample := range history {
		timestamps[i] = sample.Timestamp
	}
	sort.Slice(timestamps, func(i, j int) bool {
		return timestamps[i] < timestamps[j]
	})

	n := len(timestamps) / 2
	if len(timestamps)%2 == 1 {
		return timestamps[n], true
	}
	// only the legacy window is even. it averaged the central pair
	a, b := timestamps[n-1], timestamps[n]
	return a + (b-a)/2, true
}

// CheckTimestamp returns a ConsensusRejection if the candidate timestamp is before the
// median of the trailing window or too far beyond now. The median check is skipped
// while the chain is shorter than the window.
func CheckTimestamp(p *ParameterSet, era Era, height, timestamp int64, samples []BlockSample, now int64) error {
	// check timestamp isn't too far in the future
	if timestamp > now+p.BlockFutureTimeLimit {
		return reject(RejectTimestampInFuture, height,
			"timestamp %d, now %d, limit %d", timestamp, now, p.BlockFutureTimeLimit)
	}

	// check that the timestamp isn't too far in the past
	median, ok := MedianTimestamp(p, era, samples)
	if ok && timestamp < median {
		return reject(RejectTimestampTooEarly, height,
			"timestamp %d is before the median %d", timestamp, median)
	}
	return nil
}
