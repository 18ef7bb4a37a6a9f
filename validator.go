// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Candidate is the header data of a block being validated.
type Candidate struct {
	Height       int64
	Hash         BlockHash
	Timestamp    int64
	Difficulty   Difficulty // declared difficulty the proof-of-work was checked against
	MajorVersion uint8
	MinorVersion uint8
	SizeVote     uint64
	Size         uint64 // cumulative transactions size
}

// Sample returns the candidate as it will be stored once accepted on top of parent.
func (c Candidate) Sample(parent *BlockSample) BlockSample {
	var base uint256.Int
	if parent != nil {
		base = parent.CumulativeDifficulty
	}
	return BlockSample{
		Height:       c.Height,
		Hash:         c.Hash,
		Timestamp:    c.Timestamp,
		MajorVersion: c.MajorVersion,
		MinorVersion: c.MinorVersion,
		SizeVote:     c.SizeVote,
		Size:         c.Size,

		CumulativeDifficulty: AddDifficulty(&base, c.Difficulty),
	}
}

// CandidateFromSample rebuilds the candidate a stored sample was accepted as.
// The declared difficulty is recovered from the cumulative difficulty of parent.
func CandidateFromSample(sample BlockSample, parent *BlockSample) (Candidate, error) {
	var base uint256.Int
	if parent != nil {
		base = parent.CumulativeDifficulty
	}
	if sample.CumulativeDifficulty.Lt(&base) {
		return Candidate{}, fmt.Errorf("Cumulative difficulty decreases at height %d", sample.Height)
	}
	var d uint256.Int
	d.Sub(&sample.CumulativeDifficulty, &base)
	if !d.IsUint64() {
		return Candidate{}, fmt.Errorf("Difficulty of block at height %d overflows", sample.Height)
	}
	return Candidate{
		Height:       sample.Height,
		Hash:         sample.Hash,
		Timestamp:    sample.Timestamp,
		Difficulty:   Difficulty(d.Uint64()),
		MajorVersion: sample.MajorVersion,
		MinorVersion: sample.MinorVersion,
		SizeVote:     sample.SizeVote,
		Size:         sample.Size,
	}, nil
}

// Verdict combines the derived rules for one height. Rejection is nil when the
// candidate passed every check, or when no candidate was evaluated.
type Verdict struct {
	Height     int64
	Era        Era
	Difficulty DifficultyResult
	SizeLimit  SizeLimitResult
	Upgrade    UpgradeDecision
	Rejection  *ConsensusRejection
}

// Err returns the rejection as an error, or nil.
func (v Verdict) Err() error {
	if v.Rejection == nil {
		return nil
	}
	return v.Rejection
}

// Validator evaluates the derived consensus rules for candidate blocks.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	params *ParameterSet
	log    Logger
}

// NewValidator returns a new Validator for the given parameter set.
func NewValidator(params *ParameterSet, log Logger) *Validator {
	if log == nil {
		log = NewLogrusNoOp()
	}
	return &Validator{params: params, log: log}
}

// Params returns the validator's parameter set.
func (v *Validator) Params() *ParameterSet {
	return v.params
}

// EvaluateHeight computes what the block at height must satisfy given the history before it.
// history may hold blocks at or above height, they're ignored.
// An error is returned only if history is inconsistent or declares an unknown version.
func (v *Validator) EvaluateHeight(height int64, history []BlockSample, checkpoints *CheckpointSet) (Verdict, error) {
	prior := samplesBefore(history, height)
	verdict := Verdict{Height: height}

	verdict.Upgrade = DecideUpgrade(v.params, height, prior, checkpoints)
	era, err := verdict.Upgrade.Era()
	if err != nil {
		return verdict, err
	}
	verdict.Era = era

	verdict.Difficulty, err = NextDifficulty(v.params, era, prior)
	if err != nil {
		rej, ok := IsRejection(err)
		if !ok {
			return verdict, err
		}
		verdict.Rejection = rej
	}

	verdict.SizeLimit = NextBlockCapacity(v.params, era, height, prior)
	return verdict, nil
}

// Evaluate checks a candidate block against the rules derived from history.
// A failed rule is reported in the verdict's Rejection, not as an error.
func (v *Validator) Evaluate(c Candidate, history []BlockSample, checkpoints *CheckpointSet, now int64) (Verdict, error) {
	verdict, err := v.EvaluateHeight(c.Height, history, checkpoints)
	if err != nil {
		return verdict, err
	}
	return v.judge(verdict, c, history, checkpoints, now), nil
}

// applies the candidate checks to a verdict computed for its height
func (v *Validator) judge(verdict Verdict, c Candidate, history []BlockSample, checkpoints *CheckpointSet, now int64) Verdict {
	if verdict.Rejection == nil {
		if err := v.check(c, history, checkpoints, now, verdict); err != nil {
			verdict.Rejection, _ = IsRejection(err)
		}
	}

	if verdict.Rejection != nil {
		v.log.Debug("Rejected block",
			"height", c.Height,
			"hash", c.Hash.String(),
			"reason", verdict.Rejection.Reason.String(),
			"detail", verdict.Rejection.Detail)
	}
	return verdict
}

func (v *Validator) check(c Candidate, history []BlockSample, checkpoints *CheckpointSet, now int64, verdict Verdict) error {
	// block identity must match a checkpoint at this height
	if err := checkpoints.CheckBlockHash(c.Height, c.Hash); err != nil {
		return err
	}

	if err := CheckMajorVersion(c.Height, c.MajorVersion, verdict.Upgrade); err != nil {
		return err
	}

	if err := CheckTimestamp(v.params, verdict.Era, c.Height, c.Timestamp,
		samplesBefore(history, c.Height), now); err != nil {
		return err
	}

	if err := CheckDifficulty(c.Height, c.Difficulty, verdict.Difficulty); err != nil {
		return err
	}

	return CheckBlockSize(c.Height, c.Size, verdict.SizeLimit)
}

// returns the samples strictly below height
func samplesBefore(samples []BlockSample, height int64) []BlockSample {
	prior := make([]BlockSample, 0, len(samples))
	for _, sample := range samples {
		if sample.Height < height {
			prior = append(prior, sample)
		}
	}
	return prior
}
