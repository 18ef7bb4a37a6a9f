// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	lru "github.com/hashicorp/golang-lru"
)

// EvaluationCache memoizes height verdicts of a Validator for a fixed checkpoint set.
// A verdict is keyed by its height and the hash of the block below it, so a reorg
// never returns a stale entry. It is safe for concurrent use.
type EvaluationCache struct {
	validator   *Validator
	checkpoints *CheckpointSet
	cache       *lru.Cache
}

type evaluationKey struct {
	height int64
	parent BlockHash
}

// NewEvaluationCache returns a cache holding up to size verdicts.
func NewEvaluationCache(validator *Validator, checkpoints *CheckpointSet, size int) (*EvaluationCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &EvaluationCache{
		validator:   validator,
		checkpoints: checkpoints,
		cache:       cache,
	}, nil
}

// EvaluateHeight returns the verdict for height, computing it on a miss.
// history must end with the parent of the block at height.
func (e *EvaluationCache) EvaluateHeight(height int64, history []BlockSample) (Verdict, error) {
	key := evaluationKey{height: height, parent: parentHash(history, height)}
	if v, ok := e.cache.Get(key); ok {
		return v.(Verdict), nil
	}
	verdict, err := e.validator.EvaluateHeight(height, history, e.checkpoints)
	if err != nil {
		return verdict, err
	}
	e.cache.Add(key, verdict)
	return verdict, nil
}

// Evaluate checks a candidate using the cached verdict for its height.
func (e *EvaluationCache) Evaluate(c Candidate, history []BlockSample, now int64) (Verdict, error) {
	verdict, err := e.EvaluateHeight(c.Height, history)
	if err != nil {
		return verdict, err
	}
	return e.validator.judge(verdict, c, history, e.checkpoints, now), nil
}

// Len returns the number of cached verdicts.
func (e *EvaluationCache) Len() int {
	return e.cache.Len()
}

// Purge drops every cached verdict.
func (e *EvaluationCache) Purge() {
	e.cache.Purge()
}

// hash of the sample at height-1, zero if history doesn't hold it
func parentHash(history []BlockSample, height int64) BlockHash {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Height == height-1 {
			return history[i].Hash
		}
	}
	return BlockHash{}
}
