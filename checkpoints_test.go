// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"
)

func checkpointParameters(t *testing.T) (*ParameterSet, ed25519.PrivateKey) {
	pubKey, privKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	var key PublicKey
	copy(key[:], pubKey)

	p, err := TestNetParameters().With(func(p *ParameterSet) {
		p.CheckpointPublicKeys = []PublicKey{key}
	})
	require.NoError(t, err)
	return p, privKey
}

func TestCheckBlockHash(t *testing.T) {
	checkpoints := NewCheckpointSet([]HardCheckpoint{{Height: 10, Hash: testHash(10)}}, nil)
	assert.NoError(t, checkpoints.CheckBlockHash(10, testHash(10)))
	assert.NoError(t, checkpoints.CheckBlockHash(11, testHash(99)))

	rej, ok := IsRejection(checkpoints.CheckBlockHash(10, testHash(11)))
	require.True(t, ok)
	assert.Equal(t, RejectCheckpointMismatch, rej.Reason)
	assert.Equal(t, int64(10), rej.Height)

	var none *CheckpointSet
	assert.NoError(t, none.CheckBlockHash(10, testHash(11)))
	assert.Equal(t, 0, none.Len())
	_, ok = none.VersionAt(10)
	assert.False(t, ok)
}

func TestSignedCheckpoints(t *testing.T) {
	p, privKey := checkpointParameters(t)
	checkpoints := CheckpointsFor(p)

	signed := SignCheckpoint(privKey, 0, HardCheckpoint{Height: 50, Hash: testHash(50)}, 1)
	require.NoError(t, checkpoints.AddSigned(p, signed))
	assert.Error(t, checkpoints.CheckBlockHash(50, testHash(51)))
	assert.NoError(t, checkpoints.CheckBlockHash(50, testHash(50)))

	// a higher counter supersedes
	replacement := SignCheckpoint(privKey, 0, HardCheckpoint{Height: 50, Hash: testHash(51)}, 2)
	require.NoError(t, checkpoints.AddSigned(p, replacement))
	assert.NoError(t, checkpoints.CheckBlockHash(50, testHash(51)))

	// a stale counter is ignored
	stale := SignCheckpoint(privKey, 0, HardCheckpoint{Height: 50, Hash: testHash(52)}, 2)
	require.NoError(t, checkpoints.AddSigned(p, stale))
	assert.NoError(t, checkpoints.CheckBlockHash(50, testHash(51)))

	assert.Equal(t, int64(50), checkpoints.LatestHeight())
	assert.Equal(t, 1, checkpoints.Len())
}

func TestBadCheckpointSignatures(t *testing.T) {
	p, privKey := checkpointParameters(t)
	checkpoints := CheckpointsFor(p)

	signed := SignCheckpoint(privKey, 0, HardCheckpoint{Height: 50, Hash: testHash(50)}, 1)

	tampered := signed
	tampered.Hash = testHash(49)
	rej, ok := IsRejection(checkpoints.AddSigned(p, tampered))
	require.True(t, ok)
	assert.Equal(t, RejectBadCheckpointSignature, rej.Reason)

	tampered = signed
	tampered.Counter = 7
	_, ok = IsRejection(checkpoints.AddSigned(p, tampered))
	assert.True(t, ok)

	tampered = signed
	tampered.KeyID = 1
	_, ok = IsRejection(checkpoints.AddSigned(p, tampered))
	assert.True(t, ok)

	_, otherKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	forged := SignCheckpoint(otherKey, 0, HardCheckpoint{Height: 50, Hash: testHash(50)}, 1)
	_, ok = IsRejection(checkpoints.AddSigned(p, forged))
	assert.True(t, ok)

	assert.Equal(t, 0, checkpoints.Len())
}

func TestZeroCheckpointSet(t *testing.T) {
	p, privKey := checkpointParameters(t)
	var checkpoints CheckpointSet
	signed := SignCheckpoint(privKey, 0, HardCheckpoint{Height: 5, Hash: testHash(5)}, 1)
	require.NoError(t, checkpoints.AddSigned(p, signed))
	assert.Equal(t, 1, checkpoints.Len())

	var none *CheckpointSet
	err := none.AddSigned(p, signed)
	require.Error(t, err)
	_, ok := IsRejection(err)
	assert.False(t, ok)
	assert.Equal(t, 0, none.Len())
}

func TestVersionCheckpoints(t *testing.T) {
	checkpoints := NewCheckpointSet(
		[]HardCheckpoint{{Height: 7, Hash: testHash(7)}},
		[]VersionCheckpoint{{Height: 100, MajorVersion: 2}, {Height: 200, MajorVersion: 3}})

	version, ok := checkpoints.VersionAt(100)
	require.True(t, ok)
	assert.Equal(t, uint8(2), version)
	_, ok = checkpoints.VersionAt(101)
	assert.False(t, ok)

	_, ok = checkpoints.VersionFloor(99)
	assert.False(t, ok)
	version, ok = checkpoints.VersionFloor(150)
	require.True(t, ok)
	assert.Equal(t, uint8(2), version)
	version, ok = checkpoints.VersionFloor(1000)
	require.True(t, ok)
	assert.Equal(t, uint8(3), version)

	assert.Equal(t, int64(200), checkpoints.LatestHeight())
	assert.Equal(t, 3, checkpoints.Len())
	assert.Contains(t, checkpoints.String(), "3 checkpoint(s)")
}
