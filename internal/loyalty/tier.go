package loyalty

import "strings"

// Tier is a loyalty membership level.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Unbounded is the next-threshold value reported for the top tier.
const Unbounded = -1

// band is the half-open points range [min, next) of one tier.
type band struct {
	tier Tier
	min  int
	next int
}

var bands = []band{
	{tier: TierBronze, min: 0, next: 1000},
	{tier: TierSilver, min: 1000, next: 2500},
	{tier: TierGold, min: 2500, next: 5000},
	{tier: TierPlatinum, min: 5000, next: Unbounded},
}

// ParseTier maps a stored tier label to a Tier. Unknown labels are bronze.
func ParseTier(label string) Tier {
	t := Tier(strings.ToLower(strings.TrimSpace(label)))
	for _, b := range bands {
		if b.tier == t {
			return t
		}
	}
	return TierBronze
}

// Threshold returns the minimum balance of a tier.
func (t Tier) Threshold() int {
	return bandOf(t).min
}

// TierForPoints returns the tier whose band contains points.
func TierForPoints(points int) Tier {
	tier := TierBronze
	for _, b := range bands {
		if points >= b.min {
			tier = b.tier
		}
	}
	return tier
}

func bandOf(t Tier) band {
	for _, b := range bands {
		if b.tier == t {
			return b
		}
	}
	return bands[0]
}

// Progress describes how far a balance is through its tier band.
type Progress struct {
	Tier    Tier    `json:"tier"`
	Current int     `json:"current"`
	Next    int     `json:"next"`
	Percent float64 `json:"percent"`
}

// TopTier reports whether there is no further tier to reach.
func (p Progress) TopTier() bool {
	return p.Next == Unbounded
}

// CalculateProgress places points inside the band of tier. Percent is clamped
// to [0, 100]; the top tier always reports 100 and an Unbounded next value.
func CalculateProgress(points int, tier Tier) Progress {
	b := bandOf(tier)
	p := Progress{Tier: b.tier, Current: points, Next: b.next}
	if b.next == Unbounded {
		p.Percent = 100
		return p
	}

	pct := float64(points-b.min) / float64(b.next-b.min) * 100
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	p.Percent = pct
	return p
}
