package sources

import (
	"reflect"
	"testing"
)

func TestEffectiveBookSet(t *testing.T) {
	booksByGenre := map[string][]string{
		"science": {"b1", "b2"},
		"history": {"b3"},
	}

	tests := []struct {
		name   string
		books  []string
		genres []string
		want   []string
	}{
		{
			name: "empty selection",
			want: []string{},
		},
		{
			name:  "books only",
			books: []string{"b5", "b6"},
			want:  []string{"b5", "b6"},
		},
		{
			name:   "genres only",
			genres: []string{"science", "history"},
			want:   []string{"b1", "b2", "b3"},
		},
		{
			name:   "overlap collapses to one",
			books:  []string{"b1"},
			genres: []string{"science"},
			want:   []string{"b1", "b2"},
		},
		{
			name:   "unknown genre contributes nothing",
			books:  []string{"b1"},
			genres: []string{"poetry"},
			want:   []string{"b1"},
		},
		{
			name:   "duplicate selected book kept once",
			books:  []string{"b1", "b1"},
			want:   []string{"b1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveBookSet(tt.books, tt.genres, booksByGenre)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EffectiveBookSet() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Locks in the counting policy: a book both selected individually and
// reachable through a selected genre counts once.
func TestCountDeduplicatesOverlap(t *testing.T) {
	booksByGenre := map[string][]string{"science": {"b1", "b2"}}

	got := Count([]string{"b1"}, []string{"science"}, booksByGenre)
	if got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}
