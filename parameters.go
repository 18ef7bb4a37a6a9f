// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/ed25519"
)

// ParameterSet holds every network-wide consensus constant. It is built once at startup
// by one of the preset constructors or LoadParameters, validated, and then only read.
// Never modify a ParameterSet in place; use With to derive a new validated instance.
type ParameterSet struct {
	Name                 string
	NetworkID            uuid.UUID
	GenesisCoinbaseTxHex string

	// UpgradeHeights[i] is the last height of major version i+1.
	// Zero means the upgrade to version i+2 is decided by voting.
	UpgradeHeights                 []int64
	KeyImageSubgroupCheckingHeight int64
	CurrentBlockMajorVersion       uint8
	TransactionVersionAmethyst     uint8
	MinimumAnonymityAmethyst       int

	MoneySupply         Amount
	EmissionSpeedFactor uint
	DisplayDecimalPoint int
	MinDustThreshold    Amount
	MaxDustThreshold    Amount
	SelfDustThreshold   Amount

	AddressPrefix         uint64
	AddressPrefixAmethyst uint64
	SendProofPrefix       uint64
	ViewOnlyWalletPrefix  uint64

	DifficultyTarget    int64 // seconds
	MinimumDifficultyV1 Difficulty
	MinimumDifficulty   Difficulty
	DifficultyWindow    int
	DifficultyCut       int
	DifficultyLag       int

	BlockFutureTimeLimit      int64 // seconds
	TimestampCheckWindowV1To3 int
	TimestampCheckWindow      int

	MaxHeaderSize             uint64
	BlockCapacityVoteMin      uint64
	BlockCapacityVoteMax      uint64
	BlockCapacityVoteWindow   int
	MinimumSizeMedianV1       uint64
	MinimumSizeMedianV2       uint64
	MinimumSizeMedianV3       uint64
	MedianBlockSizeWindow     int
	MaxBlockSizeInitial       uint64
	MaxBlockSizeGrowthPerYear uint64

	UpgradeVotingPercent int
	UpgradeVotingWindow  int
	UpgradeWindow        int64

	MaxBlockNumber             int64
	LockedTxAllowedDeltaBlocks int64
	MinedMoneyUnlockWindow     int64

	// not consensus, carried so every collaborator reads one table
	P2PDefaultPort          uint16
	RPCDefaultPort          uint16
	WalletRPCDefaultPort    uint16
	P2PStatTrustedPublicKey PublicKey
	SeedNodes               []string
	CheckpointPublicKeys    []PublicKey
	Checkpoints             []HardCheckpoint
}

// PublicKey is an ed25519 public key which marshals as hex text.
type PublicKey [ed25519.PublicKeySize]byte

// String implements the Stringer interface
func (k PublicKey) String() string {
	return hex.EncodeToString(k[:])
}

// MarshalText marshals PublicKey as a hex string.
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText unmarshals a hex string to PublicKey.
func (k *PublicKey) UnmarshalText(b []byte) error {
	keyBytes, err := hex.DecodeString(string(b))
	if err != nil {
		return err
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return fmt.Errorf("Invalid public key length %d", len(keyBytes))
	}
	copy(k[:], keyBytes)
	return nil
}

func mustPublicKey(s string) PublicKey {
	var k PublicKey
	if err := k.UnmarshalText([]byte(s)); err != nil {
		panic(err)
	}
	return k
}

// MainNetParameters returns the main network's parameter set.
func MainNetParameters() *ParameterSet {
	return &ParameterSet{
		Name:                 "main",
		NetworkID:            uuid.Must(uuid.Parse(NETWORK_ID)),
		GenesisCoinbaseTxHex: GENESIS_COINBASE_TX_HEX,

		UpgradeHeights:                 []int64{UPGRADE_HEIGHT_V2, UPGRADE_HEIGHT_V3, UPGRADE_HEIGHT_V4},
		KeyImageSubgroupCheckingHeight: KEY_IMAGE_SUBGROUP_CHECKING_HEIGHT,
		CurrentBlockMajorVersion:       BLOCK_VERSION_AMETHYST,
		TransactionVersionAmethyst:     TRANSACTION_VERSION_AMETHYST,
		MinimumAnonymityAmethyst:       MINIMUM_ANONYMITY_AMETHYST,

		MoneySupply:         MONEY_SUPPLY,
		EmissionSpeedFactor: EMISSION_SPEED_FACTOR,
		DisplayDecimalPoint: DISPLAY_DECIMAL_POINT,
		MinDustThreshold:    MIN_DUST_THRESHOLD,
		MaxDustThreshold:    MAX_DUST_THRESHOLD,
		SelfDustThreshold:   SELF_DUST_THRESHOLD,

		AddressPrefix:         ADDRESS_BASE58_PREFIX,
		AddressPrefixAmethyst: ADDRESS_BASE58_PREFIX_AMETHYST,
		SendProofPrefix:       SENDPROOF_BASE58_PREFIX,
		ViewOnlyWalletPrefix:  VIEWONLYWALLET_BASE58_PREFIX,

		DifficultyTarget:    DIFFICULTY_TARGET,
		MinimumDifficultyV1: MINIMUM_DIFFICULTY_V1,
		MinimumDifficulty:   MINIMUM_DIFFICULTY,
		DifficultyWindow:    DIFFICULTY_WINDOW,
		DifficultyCut:       DIFFICULTY_CUT,
		DifficultyLag:       DIFFICULTY_LAG,

		BlockFutureTimeLimit:      BLOCK_FUTURE_TIME_LIMIT,
		TimestampCheckWindowV1To3: BLOCKCHAIN_TIMESTAMP_CHECK_WINDOW_V1_3,
		TimestampCheckWindow:      BLOCKCHAIN_TIMESTAMP_CHECK_WINDOW,

		MaxHeaderSize:             MAX_HEADER_SIZE,
		BlockCapacityVoteMin:      BLOCK_CAPACITY_VOTE_MIN,
		BlockCapacityVoteMax:      BLOCK_CAPACITY_VOTE_MAX,
		BlockCapacityVoteWindow:   BLOCK_CAPACITY_VOTE_WINDOW,
		MinimumSizeMedianV1:       MINIMUM_SIZE_MEDIAN_V1,
		MinimumSizeMedianV2:       MINIMUM_SIZE_MEDIAN_V2,
		MinimumSizeMedianV3:       MINIMUM_SIZE_MEDIAN_V3,
		MedianBlockSizeWindow:     MEDIAN_BLOCK_SIZE_WINDOW,
		MaxBlockSizeInitial:       MAX_BLOCK_SIZE_INITIAL,
		MaxBlockSizeGrowthPerYear: MAX_BLOCK_SIZE_GROWTH_PER_YEAR,

		UpgradeVotingPercent: UPGRADE_VOTING_PERCENT,
		UpgradeVotingWindow:  UPGRADE_VOTING_WINDOW,
		UpgradeWindow:        UPGRADE_WINDOW,

		MaxBlockNumber:             MAX_BLOCK_NUMBER,
		LockedTxAllowedDeltaBlocks: LOCKED_TX_ALLOWED_DELTA_BLOCKS,
		MinedMoneyUnlockWindow:     MINED_MONEY_UNLOCK_WINDOW,

		P2PDefaultPort:          P2P_DEFAULT_PORT,
		RPCDefaultPort:          RPC_DEFAULT_PORT,
		WalletRPCDefaultPort:    WALLET_RPC_DEFAULT_PORT,
		P2PStatTrustedPublicKey: mustPublicKey(P2P_STAT_TRUSTED_PUBLIC_KEY),
		SeedNodes:               append([]string(nil), SEED_NODES...),
	}
}

// StageNetParameters returns the staging network's parameter set. Versions 2 and 3 are
// active from the first block and Amethyst is reached by voting.
func StageNetParameters() *ParameterSet {
	p := MainNetParameters()
	p.Name = "stage"
	p.NetworkID[0] += 2
	p.UpgradeHeights = []int64{1, 1, 0}
	p.SeedNodes = append([]string(nil), SEED_NODES_STAGENET...)
	return p
}

// TestNetParameters returns the parameter set for private test networks.
// It has no seed nodes and a minimum difficulty of 1 so CPUs can mine it.
func TestNetParameters() *ParameterSet {
	p := MainNetParameters()
	p.Name = "test"
	p.NetworkID[0] += 1
	p.UpgradeHeights = []int64{1, 1, 0}
	p.MinimumDifficulty = MINIMUM_DIFFICULTY_V1
	p.SeedNodes = nil
	return p
}

// ParametersByName returns the preset with the given network name.
func ParametersByName(name string) (*ParameterSet, error) {
	switch name {
	case "main", "mainnet", "":
		return MainNetParameters(), nil
	case "stage", "stagenet":
		return StageNetParameters(), nil
	case "test", "testnet":
		return TestNetParameters(), nil
	}
	return nil, fmt.Errorf("Unknown network %q", name)
}

// With returns a validated copy of the parameter set with edit applied to it.
// The receiver is never modified.
func (p *ParameterSet) With(edit func(*ParameterSet)) (*ParameterSet, error) {
	c := p.clone()
	edit(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *ParameterSet) clone() *ParameterSet {
	c := *p
	c.UpgradeHeights = append([]int64(nil), p.UpgradeHeights...)
	c.SeedNodes = append([]string(nil), p.SeedNodes...)
	c.CheckpointPublicKeys = append([]PublicKey(nil), p.CheckpointPublicKeys...)
	c.Checkpoints = append([]HardCheckpoint(nil), p.Checkpoints...)
	return &c
}

// Validate checks every static invariant and returns a *ConfigError naming
// the first one violated.
func (p *ParameterSet) Validate() error {
	if p.NetworkID == uuid.Nil {
		return newConfigError("NetworkID != nil", "network %q has no identifier", p.Name)
	}

	// emission
	if p.EmissionSpeedFactor == 0 || p.EmissionSpeedFactor > 64 {
		return newConfigError("0 < EmissionSpeedFactor <= 64", "got %d", p.EmissionSpeedFactor)
	}
	if p.MoneySupply == 0 {
		return newConfigError("MoneySupply > 0", "")
	}
	if p.SelfDustThreshold > p.MinDustThreshold || p.MinDustThreshold > p.MaxDustThreshold {
		return newConfigError("SelfDustThreshold <= MinDustThreshold <= MaxDustThreshold",
			"got %d, %d, %d", p.SelfDustThreshold, p.MinDustThreshold, p.MaxDustThreshold)
	}

	// difficulty
	if p.DifficultyTarget <= 0 {
		return newConfigError("DifficultyTarget > 0", "got %d", p.DifficultyTarget)
	}
	if p.MinimumDifficultyV1 == 0 || p.MinimumDifficulty < p.MinimumDifficultyV1 {
		return newConfigError("MinimumDifficulty >= MinimumDifficultyV1 > 0",
			"got %d, %d", p.MinimumDifficulty, p.MinimumDifficultyV1)
	}
	if p.DifficultyWindow < 2 {
		return newConfigError("DifficultyWindow >= 2", "got %d", p.DifficultyWindow)
	}
	if p.DifficultyCut < 0 || p.DifficultyLag < 0 {
		return newConfigError("DifficultyCut >= 0 and DifficultyLag >= 0",
			"got %d, %d", p.DifficultyCut, p.DifficultyLag)
	}
	if 2*p.DifficultyCut > p.DifficultyWindow-2 {
		return newConfigError("2*DifficultyCut <= DifficultyWindow-2",
			"cut %d, window %d", p.DifficultyCut, p.DifficultyWindow)
	}

	// timestamps
	if p.BlockFutureTimeLimit <= 0 {
		return newConfigError("BlockFutureTimeLimit > 0", "got %d", p.BlockFutureTimeLimit)
	}
	if p.TimestampCheckWindowV1To3 <= 0 {
		return newConfigError("TimestampCheckWindowV1To3 > 0", "got %d", p.TimestampCheckWindowV1To3)
	}
	if p.TimestampCheckWindow <= 0 {
		return newConfigError("TimestampCheckWindow > 0", "got %d", p.TimestampCheckWindow)
	}
	if p.TimestampCheckWindow%2 != 1 {
		return newConfigError("TimestampCheckWindow is odd", "got %d", p.TimestampCheckWindow)
	}

	// sizes
	if p.BlockCapacityVoteMin == 0 || p.BlockCapacityVoteMax < p.BlockCapacityVoteMin {
		return newConfigError("BlockCapacityVoteMax >= BlockCapacityVoteMin > 0",
			"got %d, %d", p.BlockCapacityVoteMax, p.BlockCapacityVoteMin)
	}
	if p.BlockCapacityVoteWindow <= 0 {
		return newConfigError("BlockCapacityVoteWindow > 0", "got %d", p.BlockCapacityVoteWindow)
	}
	if p.MedianBlockSizeWindow <= 0 {
		return newConfigError("MedianBlockSizeWindow > 0", "got %d", p.MedianBlockSizeWindow)
	}

	// upgrades
	if p.UpgradeVotingPercent < 60 || p.UpgradeVotingPercent > 100 {
		return newConfigError("60 <= UpgradeVotingPercent <= 100", "got %d", p.UpgradeVotingPercent)
	}
	if p.UpgradeVotingWindow <= 1 {
		return newConfigError("UpgradeVotingWindow > 1", "got %d", p.UpgradeVotingWindow)
	}
	if p.UpgradeWindow <= 0 {
		return newConfigError("UpgradeWindow > 0", "got %d", p.UpgradeWindow)
	}
	if p.CurrentBlockMajorVersion < 1 || p.CurrentBlockMajorVersion > BLOCK_VERSION_AMETHYST {
		return newConfigError("1 <= CurrentBlockMajorVersion <= BLOCK_VERSION_AMETHYST",
			"got %d", p.CurrentBlockMajorVersion)
	}
	if len(p.UpgradeHeights) != int(p.CurrentBlockMajorVersion)-1 {
		return newConfigError("len(UpgradeHeights) == CurrentBlockMajorVersion-1",
			"got %d heights for version %d", len(p.UpgradeHeights), p.CurrentBlockMajorVersion)
	}
	return p.checkUpgradeOrder()
}

// upgrade heights must be ascending and once an upgrade is left to voting
// no later upgrade may have a fixed height
func (p *ParameterSet) checkUpgradeOrder() error {
	var last int64
	voted := false
	for i, height := range p.UpgradeHeights {
		if height < 0 {
			return newConfigError("UpgradeHeights >= 0", "version %d at %d", i+2, height)
		}
		if height == 0 {
			voted = true
			continue
		}
		if voted {
			return newConfigError("fixed UpgradeHeights precede voted ones",
				"version %d fixed at %d after a voted upgrade", i+2, height)
		}
		if height < last {
			return newConfigError("UpgradeHeights ascending",
				"version %d at %d, previous at %d", i+2, height, last)
		}
		last = height
	}
	return nil
}

// ExpectedBlocksPerDay returns the number of blocks per day at the target rate.
func (p *ParameterSet) ExpectedBlocksPerDay() int64 {
	return 24 * 60 * 60 / p.DifficultyTarget
}

// ExpectedBlocksPerYear returns the number of blocks per year at the target rate.
func (p *ParameterSet) ExpectedBlocksPerYear() int64 {
	return 365 * 24 * 60 * 60 / p.DifficultyTarget
}

// DifficultyBlocksCount is the number of trailing blocks the difficulty estimator reads.
func (p *ParameterSet) DifficultyBlocksCount() int {
	return p.DifficultyWindow + p.DifficultyLag
}

// UpgradeVotesRequired is the smallest vote count in one voting window that completes a vote.
func (p *ParameterSet) UpgradeVotesRequired() int {
	return (p.UpgradeVotingWindow*p.UpgradeVotingPercent + 99) / 100
}

// LockedTxAllowedDeltaSeconds is the time-lock slack for legacy transactions.
func (p *ParameterSet) LockedTxAllowedDeltaSeconds() int64 {
	return p.DifficultyTarget * p.LockedTxAllowedDeltaBlocks
}

// TimestampCheckWindowFor returns the timestamp median window used in the era.
func (p *ParameterSet) TimestampCheckWindowFor(era Era) int {
	if era.IsLegacy() {
		return p.TimestampCheckWindowV1To3
	}
	return p.TimestampCheckWindow
}

// MinimumDifficultyFor returns the difficulty floor of the era.
func (p *ParameterSet) MinimumDifficultyFor(era Era) Difficulty {
	if era == EraV1 {
		return p.MinimumDifficultyV1
	}
	return p.MinimumDifficulty
}

// HistoryDepth is the number of trailing samples a caller must supply so every
// evaluation sees its full window. The upgrade window is included so a vote completed
// but not yet activated is still visible.
func (p *ParameterSet) HistoryDepth() int {
	depth := p.DifficultyBlocksCount()
	for _, n := range []int{
		p.BlockCapacityVoteWindow,
		p.MedianBlockSizeWindow,
		p.TimestampCheckWindow,
		p.TimestampCheckWindowV1To3,
		p.UpgradeVotingWindow + int(p.UpgradeWindow),
	} {
		if n > depth {
			depth = n
		}
	}
	return depth
}

// String implements the Stringer interface
func (p *ParameterSet) String() string {
	return fmt.Sprintf("%s network %s (major version %d)", p.Name, p.NetworkID, p.CurrentBlockMajorVersion)
}
