// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEraForVersion(t *testing.T) {
	for version := uint8(1); version <= BLOCK_VERSION_AMETHYST; version++ {
		era, err := EraForVersion(version)
		require.NoError(t, err)
		assert.Equal(t, version, era.MajorVersion())
		assert.Equal(t, version < BLOCK_VERSION_AMETHYST, era.IsLegacy())
	}

	for _, version := range []uint8{0, 5, 255} {
		_, err := EraForVersion(version)
		assert.Error(t, err, "version %d", version)
	}

	assert.Equal(t, "amethyst", EraAmethyst.String())
	assert.Equal(t, "v2", EraV2.String())
}
