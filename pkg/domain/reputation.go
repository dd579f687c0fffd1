package domain

import "math/big"

// LamportsPerSol converts native units to the whole-unit denomination the
// reputation base term is computed over.
const LamportsPerSol = 1_000_000_000

// Score computes an agent's reputation from its staked balance, feedback
// count, and completed-service count. Pure and deterministic: the same
// inputs yield the same score on every platform and every replay.
//
// base is floor(log2(staked_sol)*10) + 50 when at least one whole SOL is
// staked, else 0. The logarithmic term gives diminishing returns to capital;
// the feedback and completion bonuses are capped so neither can be farmed
// without bound.
func Score(totalStaked, feedbacksReceived, servicesCompleted uint64) uint64 {
	var base uint64
	if units := totalStaked / LamportsPerSol; units > 0 {
		base = log2Tenths(units) + 50
	}
	feedbackBonus := min(feedbacksReceived, 100) * 2
	completionBonus := min(servicesCompleted, 500)
	return base + feedbackBonus + completionBonus
}

// log2Tenths returns floor(10*log2(u)) for u >= 1 using exact integer
// arithmetic: floor(10*log2(u)) == floor(log2(u^10)) == bitlen(u^10) - 1.
// u^10 needs at most ~340 bits for a u64 input, well within math/big.
func log2Tenths(u uint64) uint64 {
	x := new(big.Int).SetUint64(u)
	x.Exp(x, big.NewInt(10), nil)
	return uint64(x.BitLen() - 1)
}
