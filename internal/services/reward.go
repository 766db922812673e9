package services

const (
	// NFTScoreThreshold is the evaluation score that always earns a badge.
	NFTScoreThreshold = 9
	// NFTMilestone awards a badge each time the total score crosses a multiple of it.
	NFTMilestone = 100
)

type Reward struct {
	TokensAwarded int64    `json:"tokensAwarded"`
	NFTAwarded    bool     `json:"nftAwarded"`
	OldScore      int64    `json:"oldScore"`
	NewScore      int64    `json:"newScore"`
	TxHashes      []string `json:"txHashes,omitempty"`
	Minted        bool     `json:"minted"`
}

// TokensFor converts an evaluation score into a token amount.
func TokensFor(score float64) int64 {
	return int64(ClampScore(score))
}

// NFTEarned applies the badge rule to a score change.
func NFTEarned(score float64, oldScore, newScore int64) bool {
	if score >= NFTScoreThreshold {
		return true
	}
	return floorDiv(newScore, NFTMilestone) > floorDiv(oldScore, NFTMilestone)
}

// ComputeReward is the reward for score given the player's total before it.
func ComputeReward(score float64, oldScore int64) Reward {
	tokens := TokensFor(score)
	newScore := oldScore + tokens
	return Reward{
		TokensAwarded: tokens,
		NFTAwarded:    NFTEarned(score, oldScore, newScore),
		OldScore:      oldScore,
		NewScore:      newScore,
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
