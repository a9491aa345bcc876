package retrieval

import "sort"

// Rank orders scored offers by score descending and applies a per-brand
// diversity cap so a single brand cannot fill the whole result list.
// The first pass admits at most max(1, topK/3) offers per brand; if that
// leaves open slots, the best remaining offers backfill them regardless
// of brand.
func Rank(scored []Scored, topK int) []Scored {
	if topK <= 0 || len(scored) == 0 {
		return nil
	}

	ordered := make([]Scored, len(scored))
	copy(ordered, scored)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].Offer.ID.String() < ordered[j].Offer.ID.String()
	})

	perBrand := topK / 3
	if perBrand < 1 {
		perBrand = 1
	}

	selected := make([]Scored, 0, topK)
	brandCounts := make(map[string]int)
	taken := make(map[int]bool)

	for i, sc := range ordered {
		if len(selected) == topK {
			break
		}
		if brandCounts[sc.Offer.Brand] >= perBrand {
			continue
		}
		selected = append(selected, sc)
		brandCounts[sc.Offer.Brand]++
		taken[i] = true
	}

	// Backfill by score when the cap left slots empty.
	for i, sc := range ordered {
		if len(selected) == topK {
			break
		}
		if taken[i] {
			continue
		}
		selected = append(selected, sc)
	}

	// Backfill breaks score order, so restore it.
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Score > selected[j].Score
	})

	return selected
}
