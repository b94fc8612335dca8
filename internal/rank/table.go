package rank

import "league-referee/internal/domain"

// Tiers is ordered by descending threshold. The last tier catches every
// rating >= 0.
var Tiers = []domain.RankTier{
	{Name: "[CHAMPION]", Threshold: 2900, Color: 0x0000FF},
	{Name: "[ELITE 2]", Threshold: 2300, Color: 0xFFA500},
	{Name: "[ELITE 1]", Threshold: 1900, Color: 0xFFA500},
	{Name: "[PLAT 3]", Threshold: 1600, Color: 0x800080},
	{Name: "[PLAT 2]", Threshold: 1350, Color: 0x800080},
	{Name: "[PLAT 1]", Threshold: 1150, Color: 0x800080},
	{Name: "[GOLD]", Threshold: 1000, Color: 0xFFD700},
	{Name: "[SILVER]", Threshold: 925, Color: 0xC0C0C0},
	{Name: "[BRONZE]", Threshold: 850, Color: 0x8B4513},
	{Name: "[UNRANKED]", Threshold: 0, Color: 0x808080},
}

// Lookup returns the first tier whose threshold the rating meets.
func Lookup(rating int) domain.RankTier {
	for _, t := range Tiers {
		if rating >= t.Threshold {
			return t
		}
	}
	return Tiers[len(Tiers)-1]
}
