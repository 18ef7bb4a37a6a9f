// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

// the below values affect consensus. they are the main network's values and are only
// read by the ParameterSet constructors, never by the rule evaluation code directly

const NETWORK_ID = "00368f56cbba6988783ed50754293f78"

const GENESIS_COINBASE_TX_HEX = "010a01ff000180c0a8ca9a3a029b2e4c0281c0b02e7c53291a94d1d0cbff8883f8024f5142ee494ffbbd0880712101827b04a29be01f599850ee3fa1140a05bc4292504f0b820f27ca814b0656c7ec"

// last heights of versions 1, 2 and 3
const UPGRADE_HEIGHT_V2 = 546603

const UPGRADE_HEIGHT_V3 = 985549

const UPGRADE_HEIGHT_V4 = 1792117

const KEY_IMAGE_SUBGROUP_CHECKING_HEIGHT = 1267000

// amethyst blocks can contain v1 transactions
const BLOCK_VERSION_AMETHYST = 4

const TRANSACTION_VERSION_AMETHYST = 4

const MINIMUM_ANONYMITY_AMETHYST = 3

// emission and formats

const MONEY_SUPPLY = 100000000000

const EMISSION_SPEED_FACTOR = 18

const DISPLAY_DECIMAL_POINT = 2

const MIN_DUST_THRESHOLD = 1000000 // everything smaller will be split in groups of 3 digits

const MAX_DUST_THRESHOLD = 30000000000000000 // everything larger is dust because very few coins

const SELF_DUST_THRESHOLD = 1000 // forfeit outputs smaller than this in a change

// base58 prefixes. changing any of these breaks interoperability with the existing network

const ADDRESS_BASE58_PREFIX = 86 // legacy addresses start with "F"

const ADDRESS_BASE58_PREFIX_AMETHYST = 572238 // "bcnZ"

const SENDPROOF_BASE58_PREFIX = 86762904402638 // "bcn1PRoof"

const VIEWONLYWALLET_BASE58_PREFIX = 3904523549390 // "bcnAUDit"

// difficulty

const DIFFICULTY_TARGET = 120 // seconds

const MINIMUM_DIFFICULTY_V1 = 1 // genesis and some first blocks in main net

const MINIMUM_DIFFICULTY = 100000

const DIFFICULTY_WINDOW = 720

const DIFFICULTY_CUT = 60 // out-of-family timestamps to cut after sorting

const DIFFICULTY_LAG = 15 // skip last blocks for difficulty calcs (against lowering difficulty attack)

// upgrade voting

const UPGRADE_VOTING_PERCENT = 90

const UPGRADE_VOTING_WINDOW = 24 * 60 * 60 / DIFFICULTY_TARGET // 1 day in blocks

const UPGRADE_WINDOW = UPGRADE_VOTING_WINDOW * 7 // delay after voting

// timestamps

const BLOCK_FUTURE_TIME_LIMIT = 2 * 60 * 60

const BLOCKCHAIN_TIMESTAMP_CHECK_WINDOW_V1_3 = 60

const BLOCKCHAIN_TIMESTAMP_CHECK_WINDOW = 59 // must be odd for the median to grow monotonically

// locking by timestamp and by block

const MAX_BLOCK_NUMBER = 500000000

const LOCKED_TX_ALLOWED_DELTA_BLOCKS = 1

const MINED_MONEY_UNLOCK_WINDOW = 10

// size limits

const MAX_HEADER_SIZE = 2048

const BLOCK_CAPACITY_VOTE_MIN = 100 * 1000

const BLOCK_CAPACITY_VOTE_MAX = 2000 * 1000

const BLOCK_CAPACITY_VOTE_WINDOW = 11

// legacy pre amethyst size limits

const MINIMUM_SIZE_MEDIAN_V3 = 100000

const MINIMUM_SIZE_MEDIAN_V2 = 20000

const MINIMUM_SIZE_MEDIAN_V1 = 10000

const MEDIAN_BLOCK_SIZE_WINDOW = 100

const MAX_BLOCK_SIZE_INITIAL = 20 * 1024

const MAX_BLOCK_SIZE_GROWTH_PER_YEAR = 100 * 1024

// the below values only affect peering behavior and do not affect consensus

const P2P_DEFAULT_PORT = 18320

const RPC_DEFAULT_PORT = 18322

const WALLET_RPC_DEFAULT_PORT = 18321

const P2P_STAT_TRUSTED_PUBLIC_KEY = "e29507ca55455f37a3b783ee2c5123b8b6a34a0c5caae050922c6254161480c1"

var SEED_NODES = []string{"64.225.77.94:18320"}

var SEED_NODES_STAGENET = []string{
	"207.246.127.160:10080", "108.61.174.232:10080", "45.32.156.183:10080", "45.76.29.96:10080",
}

// given our JSON tooling we should respect Javascript's Number.MAX_SAFE_INTEGER value
const MAX_NUMBER int64 = 1<<53 - 1
