package domain

// Tier is a named standing earned by holding at least MinBalance Rebels.
type Tier struct {
	Name       string `json:"name"`
	MinBalance int64  `json:"min_balance"`
}

// Tiers lists every tier, lowest first.
var Tiers = []Tier{
	{Name: "Wretch", MinBalance: 0},
	{Name: "Ember", MinBalance: 50},
	{Name: "Seeker", MinBalance: 150},
	{Name: "Adept", MinBalance: 400},
	{Name: "Harbinger", MinBalance: 1000},
	{Name: "Sentinel", MinBalance: 2000},
	{Name: "Dominion", MinBalance: 4000},
	{Name: "Sovereign", MinBalance: 8000},
	{Name: "Ace", MinBalance: 500000},
}

// TierFor returns the highest tier whose threshold balance reaches.
// Balances below zero stay in the lowest tier.
func TierFor(balance int64) Tier {
	for i := len(Tiers) - 1; i > 0; i-- {
		if balance >= Tiers[i].MinBalance {
			return Tiers[i]
		}
	}
	return Tiers[0]
}
