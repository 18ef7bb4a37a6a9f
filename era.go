// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import "fmt"

// Era identifies which rule set applies to a block. Algorithms switch on it once
// and keep the legacy rules in their own functions.
type Era int

const (
	EraV1 Era = iota
	EraV2
	EraV3
	EraAmethyst
)

// EraForVersion maps a block major version to its Era.
// Versions beyond Amethyst are not defined by this parameter set.
func EraForVersion(majorVersion uint8) (Era, error) {
	switch majorVersion {
	case 1:
		return EraV1, nil
	case 2:
		return EraV2, nil
	case 3:
		return EraV3, nil
	case BLOCK_VERSION_AMETHYST:
		return EraAmethyst, nil
	}
	return EraV1, fmt.Errorf("Unknown block major version %d", majorVersion)
}

// MajorVersion returns the block major version of the era.
func (e Era) MajorVersion() uint8 {
	return uint8(e) + 1
}

// IsLegacy is true for the eras before block capacity voting.
func (e Era) IsLegacy() bool {
	return e < EraAmethyst
}

// String implements the Stringer interface
func (e Era) String() string {
	switch e {
	case EraV1:
		return "v1"
	case EraV2:
		return "v2"
	case EraV3:
		return "v3"
	case EraAmethyst:
		return "amethyst"
	}
	return fmt.Sprintf("era(%d)", int(e))
}
