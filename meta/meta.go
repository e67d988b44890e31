// meta/meta.go
package meta

// GO_ROUTINES defines the default number of search workers.
const GO_ROUTINES = 1

// HASH_SIZE_MB defines the default transposition table size.
const HASH_SIZE_MB = 128

// BOARD_SIZE defines the default board size.
const BOARD_SIZE = 15

// RULE defines the default rule name.
const RULE = "freestyle"

// REPORT_INTERVAL_MS defines the time between two progress reports.
const REPORT_INTERVAL_MS = 10000

// Opening generation defaults

const MIN_MOVES = 4
const MAX_MOVES = 13
const LOCAL_SIZE_MIN = 3
const LOCAL_SIZE_MAX = 8

const BALANCE1_NODES = 200000
const BALANCE1_FAST_CHECK_NODES = 16000
const BALANCE1_FAST_CHECK_WINDOW = 500
const BALANCE2_NODES = 0
const BALANCE_WINDOW = 60

// MAX_SAMPLE_RETRIES bounds the draws of one Generate call.
const MAX_SAMPLE_RETRIES = 10000
