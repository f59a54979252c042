package enrichment

import (
	"reelsync/internal/media"
	"reelsync/internal/tmdb"
)

// BestMatch picks the search hit most likely to be the requested movie. The
// ladder is deterministic and order-sensitive: within each tier the first
// qualifying hit wins, and each tier scans the full list before falling to
// the next.
//
//  1. title matches (hit title or original title, case-insensitive) and the
//     hit's release year equals the requested year
//  2. title matches, year ignored
//  3. the hit's release year equals the requested year, title ignored
//  4. the first hit
//
// Year tiers only apply when a year was requested, and a hit whose release
// date cannot be parsed is a non-match for them. BestMatch returns nil only
// for an empty hit list.
func BestMatch(hits []tmdb.SearchHit, title string, year int) *tmdb.SearchHit {
	if len(hits) == 0 {
		return nil
	}

	folded := media.FoldTitle(title)

	if year > 0 {
		for i, hit := range hits {
			if titleMatches(hit, folded) && yearFromDate(hit.ReleaseDate) == year {
				return &hits[i]
			}
		}
	}

	for i, hit := range hits {
		if titleMatches(hit, folded) {
			return &hits[i]
		}
	}

	if year > 0 {
		for i, hit := range hits {
			if parsed := yearFromDate(hit.ReleaseDate); parsed != 0 && parsed == year {
				return &hits[i]
			}
		}
	}

	return &hits[0]
}

func titleMatches(hit tmdb.SearchHit, folded string) bool {
	return media.FoldTitle(hit.Title) == folded || media.FoldTitle(hit.OriginalTitle) == folded
}
