// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/sha3"
)

// HardCheckpoint pins the identity of the main chain block at a height.
type HardCheckpoint struct {
	Height int64
	Hash   BlockHash
}

// VersionCheckpoint pins the major version in effect at a height, overriding voting.
type VersionCheckpoint struct {
	Height       int64
	MajorVersion uint8
}

// SignedCheckpoint is a hard checkpoint signed by one of the network's checkpoint keys.
// A higher counter supersedes an earlier checkpoint for the same height.
type SignedCheckpoint struct {
	HardCheckpoint
	KeyID     int
	Counter   uint64
	Signature []byte
}

// CheckpointSet is the externally verified list of checkpoints injected into an evaluation.
// Build it before evaluating and don't modify it while evaluations are running.
// A nil *CheckpointSet has no checkpoints.
type CheckpointSet struct {
	hashes   map[int64]BlockHash
	versions map[int64]uint8
	counters map[int64]uint64
}

// NewCheckpointSet returns a set holding the given checkpoints.
func NewCheckpointSet(hard []HardCheckpoint, versions []VersionCheckpoint) *CheckpointSet {
	c := &CheckpointSet{
		hashes:   make(map[int64]BlockHash),
		versions: make(map[int64]uint8),
		counters: make(map[int64]uint64),
	}
	for _, cp := range hard {
		c.hashes[cp.Height] = cp.Hash
	}
	for _, cp := range versions {
		c.versions[cp.Height] = cp.MajorVersion
	}
	return c
}

// CheckpointsFor returns a set with the hard checkpoints compiled into the parameter set.
func CheckpointsFor(p *ParameterSet) *CheckpointSet {
	return NewCheckpointSet(p.Checkpoints, nil)
}

// AddSigned verifies sc against the parameter set's checkpoint keys and adds it.
// A checkpoint with a counter not above the one already held for its height is ignored.
func (c *CheckpointSet) AddSigned(p *ParameterSet, sc SignedCheckpoint) error {
	if c == nil {
		return fmt.Errorf("Cannot add checkpoint at height %d to a nil checkpoint set", sc.Height)
	}
	if sc.KeyID < 0 || sc.KeyID >= len(p.CheckpointPublicKeys) {
		return reject(RejectBadCheckpointSignature, sc.Height, "unknown checkpoint key %d", sc.KeyID)
	}
	pubKey := p.CheckpointPublicKeys[sc.KeyID]
	if !ed25519.Verify(pubKey[:], checkpointMessage(sc.HardCheckpoint, sc.Counter), sc.Signature) {
		return reject(RejectBadCheckpointSignature, sc.Height,
			"checkpoint %s not signed by key %d", sc.Hash, sc.KeyID)
	}
	if counter, ok := c.counters[sc.Height]; ok && counter >= sc.Counter {
		return nil
	}
	if c.hashes == nil {
		c.hashes = make(map[int64]BlockHash)
	}
	if c.counters == nil {
		c.counters = make(map[int64]uint64)
	}
	c.hashes[sc.Height] = sc.Hash
	c.counters[sc.Height] = sc.Counter
	return nil
}

// SignCheckpoint signs a hard checkpoint with a checkpoint private key.
func SignCheckpoint(privKey ed25519.PrivateKey, keyID int, cp HardCheckpoint, counter uint64) SignedCheckpoint {
	return SignedCheckpoint{
		HardCheckpoint: cp,
		KeyID:          keyID,
		Counter:        counter,
		Signature:      ed25519.Sign(privKey, checkpointMessage(cp, counter)),
	}
}

// SHA3-256 of height, hash and counter
func checkpointMessage(cp HardCheckpoint, counter uint64) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, cp.Height)
	buf.Write(cp.Hash[:])
	binary.Write(buf, binary.BigEndian, counter)
	sum := sha3.Sum256(buf.Bytes())
	return sum[:]
}

// CheckBlockHash returns an error if the passed height is a checkpoint and the
// passed block hash does not match the given checkpoint block hash.
func (c *CheckpointSet) CheckBlockHash(height int64, hash BlockHash) error {
	if c == nil {
		return nil
	}
	checkpointHash, ok := c.hashes[height]
	if !ok {
		return nil
	}
	if hash != checkpointHash {
		return reject(RejectCheckpointMismatch, height,
			"block %s does not match checkpoint %s", hash, checkpointHash)
	}
	return nil
}

// VersionAt returns the major version pinned at exactly height.
func (c *CheckpointSet) VersionAt(height int64) (uint8, bool) {
	if c == nil {
		return 0, false
	}
	version, ok := c.versions[height]
	return version, ok
}

// VersionFloor returns the highest major version pinned at or below height.
func (c *CheckpointSet) VersionFloor(height int64) (uint8, bool) {
	if c == nil {
		return 0, false
	}
	var floor uint8
	found := false
	for h, version := range c.versions {
		if h <= height && version > floor {
			floor, found = version, true
		}
	}
	return floor, found
}

// LatestHeight is used to determine if the node is past the last checkpoint.
func (c *CheckpointSet) LatestHeight() int64 {
	if c == nil {
		return 0
	}
	var latest int64
	for h := range c.hashes {
		if h > latest {
			latest = h
		}
	}
	for h := range c.versions {
		if h > latest {
			latest = h
		}
	}
	return latest
}

// Len returns the number of pinned heights.
func (c *CheckpointSet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.hashes) + len(c.versions)
}

// String implements the Stringer interface
func (c *CheckpointSet) String() string {
	return fmt.Sprintf("%d checkpoint(s), latest at height %d", c.Len(), c.LatestHeight())
}
