package catalog

import "strings"

const (
	FeaturedTrending    = "trending"
	FeaturedBestSellers = "bestsellers"
)

// ProductFilter narrows the shop listing. Empty fields match everything.
type ProductFilter struct {
	Query    string
	Category string
	Featured string
}

func (s *Store) FilterProducts(f ProductFilter) []Product {
	q := strings.ToLower(strings.TrimSpace(f.Query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		switch f.Featured {
		case FeaturedTrending:
			if !containsID(s.trending, p.ID) {
				continue
			}
		case FeaturedBestSellers:
			if !containsID(s.bestSellers, p.ID) {
				continue
			}
		}
		out = append(out, p.clone())
	}
	return out
}
