// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"errors"
	"fmt"
)

// ConfigError is returned when a ParameterSet violates one of its static invariants.
// A node must refuse to start with such a parameter set.
type ConfigError struct {
	Invariant string // the violated invariant, e.g. "2*DifficultyCut <= DifficultyWindow-2"
	Detail    string
}

func (err *ConfigError) Error() string {
	if len(err.Detail) == 0 {
		return fmt.Sprintf("Invalid parameter set, violates %s", err.Invariant)
	}
	return fmt.Sprintf("Invalid parameter set, violates %s: %s", err.Invariant, err.Detail)
}

func newConfigError(invariant, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}

// RejectReason classifies why a candidate block fails a derived rule.
type RejectReason int

const (
	RejectDifficultyTooLow RejectReason = iota + 1
	RejectDifficultyOverflow
	RejectBlockTooLarge
	RejectWrongVersion
	RejectTimestampTooEarly
	RejectTimestampInFuture
	RejectCheckpointMismatch
	RejectBadCheckpointSignature
)

// String implements the Stringer interface
func (r RejectReason) String() string {
	switch r {
	case RejectDifficultyTooLow:
		return "difficulty too low"
	case RejectDifficultyOverflow:
		return "difficulty overflow"
	case RejectBlockTooLarge:
		return "block too large"
	case RejectWrongVersion:
		return "wrong major version"
	case RejectTimestampTooEarly:
		return "timestamp too early"
	case RejectTimestampInFuture:
		return "timestamp too far in the future"
	case RejectCheckpointMismatch:
		return "checkpoint mismatch"
	case RejectBadCheckpointSignature:
		return "bad checkpoint signature"
	}
	return fmt.Sprintf("reject(%d)", int(r))
}

// ConsensusRejection is returned when a candidate block fails a consensus rule.
// It is not fatal: the block is discarded and the network layer may penalize the sender.
type ConsensusRejection struct {
	Reason RejectReason
	Height int64
	Detail string
}

func (err *ConsensusRejection) Error() string {
	return fmt.Sprintf("Block at height %d rejected, %s: %s", err.Height, err.Reason, err.Detail)
}

func reject(reason RejectReason, height int64, format string, args ...interface{}) *ConsensusRejection {
	return &ConsensusRejection{Reason: reason, Height: height, Detail: fmt.Sprintf(format, args...)}
}

// IsRejection returns the ConsensusRejection wrapped by err, if any.
func IsRejection(err error) (*ConsensusRejection, bool) {
	var rej *ConsensusRejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// IsConfigError returns the ConfigError wrapped by err, if any.
func IsConfigError(err error) (*ConfigError, bool) {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr, true
	}
	return nil, false
}
