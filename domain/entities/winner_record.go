package entities

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// WinnerRecord is the immutable outcome of a finalized round. It carries every
// public draw input so anyone can recompute the selected index.
type WinnerRecord struct {
	RoundNumber int64          `db:"round_number"`
	EntryIndex  int            `db:"entry_index"`
	Participant common.Address `db:"participant"`
	Commitment  common.Hash    `db:"commitment"`
	Choices     Choices        `db:"choices"`
	PrizePool   int64          `db:"prize_pool"`
	Payout      int64          `db:"payout"`
	HouseShare  int64          `db:"house_share"`
	EntryCount  int            `db:"entry_count"`
	BlockTime   uint64         `db:"block_time"`
	Difficulty  uint64         `db:"difficulty"`
	RoundSecret common.Hash    `db:"round_secret"`
	DrawnAt     time.Time      `db:"drawn_at"`
}

// SplitPrize divides a pool into the winner's payout and the house share.
// The payout rounds down, so the house share absorbs the remainder.
func SplitPrize(pool, winnerNumerator, denominator int64) (payout, houseShare int64) {
	if pool <= 0 || denominator <= 0 {
		return 0, 0
	}
	// pool*num can exceed int64; the quotient fits since num <= den
	product := new(big.Int).Mul(big.NewInt(pool), big.NewInt(winnerNumerator))
	payout = product.Quo(product, big.NewInt(denominator)).Int64()
	return payout, pool - payout
}
