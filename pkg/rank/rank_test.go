package rank

import (
	"errors"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical vectors", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0.0},
		{"scaled vectors", []float32{1, 2, 3}, []float32{2, 4, 6}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5, 0.01}
	b := []float32{-2.2, 0.8, 1.1, 3.3}

	ab := CosineSimilarity(a, b)
	ba := CosineSimilarity(b, a)
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("similarity not symmetric: %v vs %v", ab, ba)
	}

	self := CosineSimilarity(a, a)
	if math.Abs(self-1.0) > 1e-6 {
		t.Errorf("self similarity = %v, want 1.0", self)
	}
}

func TestSearchRanking(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{Tag: "opposite", Vector: []float32{-1, 0}},
		{Tag: "exact", Vector: []float32{2, 0}},
		{Tag: "diagonal", Vector: []float32{1, 1}},
	}

	results, err := Search(query, candidates, Options{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	wantOrder := []string{"exact", "diagonal", "opposite"}
	if len(results) != len(wantOrder) {
		t.Fatalf("Search() returned %d results, want %d", len(results), len(wantOrder))
	}
	for i, tag := range wantOrder {
		if results[i].Tag != tag {
			t.Errorf("result %d = %q, want %q", i, results[i].Tag, tag)
		}
	}
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("exact match score = %v, want 1.0", results[0].Score)
	}
}

func TestSearchTopK(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{Tag: "a", Vector: []float32{1, 0}},
		{Tag: "b", Vector: []float32{1, 1}},
		{Tag: "c", Vector: []float32{0, 1}},
	}

	tests := []struct {
		name string
		topK int
		want int
	}{
		{"limits results", 2, 2},
		{"top one", 1, 1},
		{"zero returns all", 0, 3},
		{"exceeds candidate count", 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Search(query, candidates, Options{TopK: tt.topK})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(results) != tt.want {
				t.Errorf("Search() returned %d results, want %d", len(results), tt.want)
			}
		})
	}
}

func TestSearchThreshold(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{Tag: "aligned", Vector: []float32{1, 0}},
		{Tag: "orthogonal", Vector: []float32{0, 1}},
		{Tag: "opposite", Vector: []float32{-1, 0}},
	}

	threshold := 0.0
	results, err := Search(query, candidates, Options{Threshold: &threshold})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	// Zero threshold keeps the orthogonal candidate but drops the opposite
	// one; nil threshold would have kept all three.
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Score < threshold {
			t.Errorf("result %q score %v is below threshold", r.Tag, r.Score)
		}
	}

	all, err := Search(query, candidates, Options{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Search() without threshold returned %d results, want 3", len(all))
	}
}

func TestSearchTieBreak(t *testing.T) {
	query := []float32{1, 0}
	// All candidates score identically; the order must be ascending by tag.
	candidates := []Candidate{
		{Tag: "zulu", Vector: []float32{1, 0}},
		{Tag: "alpha", Vector: []float32{2, 0}},
		{Tag: "mike", Vector: []float32{3, 0}},
	}

	results, err := Search(query, candidates, Options{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	wantOrder := []string{"alpha", "mike", "zulu"}
	for i, tag := range wantOrder {
		if results[i].Tag != tag {
			t.Errorf("result %d = %q, want %q", i, results[i].Tag, tag)
		}
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []Candidate{
		{Tag: "ok", Vector: []float32{1, 0, 0}},
		{Tag: "short", Vector: []float32{1, 0}},
	}

	if _, err := Search(query, candidates, Options{}); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("Search() error = %v, want ErrInvalidDimension", err)
	}
}

func TestSearchEmptyCandidates(t *testing.T) {
	results, err := Search([]float32{1, 0}, nil, Options{TopK: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() returned %d results, want 0", len(results))
	}
}
