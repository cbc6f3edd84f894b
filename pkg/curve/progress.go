// Package curve models bonding-curve launch progress: how far a token's
// collected liquidity is from the fixed migration target that moves it to an
// external pool.
package curve

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/curvelaunch/launchpad-go/pkg/amount"
)

// DefaultTargetUnits is the liquidity migration target in whole-coin units.
const DefaultTargetUnits = 2500

// Progress describes a token's position on its bonding curve.
type Progress struct {
	CurrentLiquidity *big.Int `json:"current_liquidity"`
	TargetLiquidity  *big.Int `json:"target_liquidity"`
	Percent          float64  `json:"percent"`
	IsComplete       bool     `json:"is_complete"`
}

// Model computes curve progress against a fixed target.
type Model struct {
	target *big.Int // base units
}

// NewModel creates a progress model with the target given in whole-coin units.
func NewModel(targetUnits int64) *Model {
	if targetUnits <= 0 {
		targetUnits = DefaultTargetUnits
	}
	return &Model{
		target: new(big.Int).Mul(big.NewInt(targetUnits), amount.OneUnit()),
	}
}

// Compute maps current liquidity to a 0-100 progress value. A recorded
// liquidity event means the token has migrated: progress is definitionally
// complete regardless of the (now stale) on-chain liquidity value.
func (m *Model) Compute(currentLiquidity *big.Int, liquidityEventExists bool) Progress {
	p := Progress{
		CurrentLiquidity: currentLiquidity,
		TargetLiquidity:  new(big.Int).Set(m.target),
	}

	if liquidityEventExists {
		p.Percent = 100
		p.IsComplete = true
		return p
	}

	if currentLiquidity == nil || currentLiquidity.Sign() <= 0 {
		p.CurrentLiquidity = big.NewInt(0)
		return p
	}

	cur := decimal.NewFromBigInt(currentLiquidity, -amount.Decimals)
	target := decimal.NewFromBigInt(m.target, -amount.Decimals)
	pct, _ := cur.Div(target).Mul(decimal.NewFromInt(100)).Float64()
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	p.Percent = pct
	return p
}
