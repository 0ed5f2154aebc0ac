package sources

// EffectiveBookSet resolves a notebook's source selection into the concrete
// book ids the assistant may retrieve from: the individually selected books
// plus every book whose genre is selected. An id reachable both ways appears
// once (set semantics); within that rule, order is first-seen order so the
// result is stable for a given input.
func EffectiveBookSet(selectedBooks []string, selectedGenres []string, booksByGenre map[string][]string) []string {
	seen := make(map[string]struct{}, len(selectedBooks))
	result := make([]string, 0, len(selectedBooks))

	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}

	for _, id := range selectedBooks {
		add(id)
	}
	for _, genre := range selectedGenres {
		for _, id := range booksByGenre[genre] {
			add(id)
		}
	}

	return result
}

// Count is the number of distinct effective sources. The same union policy
// backs both the notebook list display and chat source resolution.
func Count(selectedBooks []string, selectedGenres []string, booksByGenre map[string][]string) int {
	return len(EffectiveBookSet(selectedBooks, selectedGenres, booksByGenre))
}
