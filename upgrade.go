// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import "fmt"

// UpgradeState is the phase of a protocol upgrade at some height.
// Values are: UpgradeVoting, UpgradeActivating or UpgradeActive.
type UpgradeState int

const (
	UpgradeVoting UpgradeState = iota
	UpgradeActivating
	UpgradeActive
)

// String implements the Stringer interface
func (s UpgradeState) String() string {
	switch s {
	case UpgradeVoting:
		return "voting"
	case UpgradeActivating:
		return "activating"
	case UpgradeActive:
		return "active"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// UpgradeDecision tells which major version a block at some height must carry.
type UpgradeDecision struct {
	State              UpgradeState
	ActiveMajorVersion uint8 // version required at the evaluated height
	NextVersion        uint8 // version being voted on or scheduled. 0 if none
	ActivationHeight   int64 // first height of NextVersion once a vote completed
	VoteCount          int   // votes for NextVersion in the trailing voting window
}

// Era returns the rule set of the decided version.
func (d UpgradeDecision) Era() (Era, error) {
	return EraForVersion(d.ActiveMajorVersion)
}

// FixedMajorVersion returns the major version for height according to the fixed upgrade
// heights. voted is true if height is past every fixed upgrade and the next upgrade is
// left to voting.
func FixedMajorVersion(p *ParameterSet, height int64) (version uint8, voted bool) {
	for i, upgradeHeight := range p.UpgradeHeights {
		if upgradeHeight == 0 {
			return uint8(i + 1), true
		}
		if height <= upgradeHeight {
			return uint8(i + 1), false
		}
	}
	return uint8(len(p.UpgradeHeights) + 1), false
}

// DecideUpgrade decides the major version of the block at height from the blocks before
// it. It's a fold over samples, so the result depends only on the slice passed in.
// A newer major version seen in history is only a vote; the chain moves to it once a
// vote completes and UpgradeWindow blocks pass, or when a version checkpoint pins it.
// Supply at least UpgradeVotingWindow+UpgradeWindow trailing samples to see a vote that
// completed but isn't active yet. A version checkpoint at height overrides the outcome.
func DecideUpgrade(p *ParameterSet, height int64, samples []BlockSample, checkpoints *CheckpointSet) UpgradeDecision {
	if pinned, ok := checkpoints.VersionAt(height); ok {
		return UpgradeDecision{State: UpgradeActive, ActiveMajorVersion: pinned}
	}

	current, voted := FixedMajorVersion(p, height)
	if floor, ok := checkpoints.VersionFloor(height); ok && floor > current {
		current = floor
	}
	if !voted || current >= p.CurrentBlockMajorVersion {
		return UpgradeDecision{State: UpgradeActive, ActiveMajorVersion: current}
	}

	history := sortSamplesByHeight(samples)
	for len(history) > 0 && history[len(history)-1].Height >= height {
		history = history[:len(history)-1]
	}

	tally := newVoteTally(p.UpgradeVotingWindow)
	next := current + 1
	scheduled := false
	var activation int64

	for i, sample := range history {
		if scheduled && sample.Height >= activation {
			current, next, scheduled = next, next+1, false
			tally.recount(history[:i], next)
		}
		if current >= p.CurrentBlockMajorVersion {
			// no version beyond the newest known one, stop counting
			return UpgradeDecision{State: UpgradeActive, ActiveMajorVersion: current}
		}
		tally.push(history[:i+1], next)
		if !scheduled && tally.complete(p) {
			scheduled = true
			activation = sample.Height + p.UpgradeWindow
		}
	}

	switch {
	case scheduled && height >= activation:
		return UpgradeDecision{
			State:              UpgradeActive,
			ActiveMajorVersion: next,
			ActivationHeight:   activation,
			VoteCount:          tally.count,
		}
	case scheduled:
		return UpgradeDecision{
			State:              UpgradeActivating,
			ActiveMajorVersion: current,
			NextVersion:        next,
			ActivationHeight:   activation,
			VoteCount:          tally.count,
		}
	}
	return UpgradeDecision{
		State:              UpgradeVoting,
		ActiveMajorVersion: current,
		NextVersion:        next,
		VoteCount:          tally.count,
	}
}

// CheckMajorVersion returns a ConsensusRejection if declared isn't the decided version.
func CheckMajorVersion(height int64, declared uint8, decision UpgradeDecision) error {
	if declared != decision.ActiveMajorVersion {
		return reject(RejectWrongVersion, height,
			"major version %d, expected %d", declared, decision.ActiveMajorVersion)
	}
	return nil
}

// blocks vote in their minor version, or in their major version once they run the new rules
func votesFor(sample BlockSample, next uint8) bool {
	return sample.MinorVersion == next || sample.MajorVersion == next
}

// voteTally counts the votes in a sliding window of trailing samples.
type voteTally struct {
	window int
	count  int
}

func newVoteTally(window int) *voteTally {
	return &voteTally{window: window}
}

// push slides the window forward to end at the last element of seen.
func (t *voteTally) push(seen []BlockSample, next uint8) {
	n := len(seen)
	if votesFor(seen[n-1], next) {
		t.count++
	}
	if n > t.window && votesFor(seen[n-1-t.window], next) {
		t.count--
	}
}

// recount rebuilds the count for a new version over the trailing window of seen.
func (t *voteTally) recount(seen []BlockSample, next uint8) {
	t.count = 0
	for _, sample := range lastSamples(seen, t.window) {
		if votesFor(sample, next) {
			t.count++
		}
	}
}

func (t *voteTally) complete(p *ParameterSet) bool {
	return t.count*100 >= p.UpgradeVotingWindow*p.UpgradeVotingPercent
}
