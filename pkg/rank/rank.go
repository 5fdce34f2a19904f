// Package rank scores candidate vectors against a query vector by cosine
// similarity and returns a deterministic top-k ranking.
package rank

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidDimension is returned when a candidate vector's dimension differs
// from the query vector's. It indicates an artifact or version mismatch
// between the model and the stored vectors.
var ErrInvalidDimension = errors.New("invalid vector dimension")

// Candidate is one (tag, vector) pair to score.
type Candidate struct {
	Tag    string
	Vector []float32
}

// Result is one scored candidate.
type Result struct {
	Tag   string
	Score float64
}

// Options configures a search.
type Options struct {
	// TopK bounds the number of results. Zero or negative returns all
	// matches.
	TopK int
	// Threshold, when non-nil, filters out candidates scoring below it.
	// Cosine scores lie in [-1, 1], so a plain zero threshold is meaningful
	// and must be distinguishable from "no threshold".
	Threshold *float64
}

// Search computes cosine similarity between query and every candidate and
// returns at most TopK results sorted by descending score. Ties are broken by
// ascending tag so that rankings are deterministic.
func Search(query []float32, candidates []Candidate, opts Options) ([]Result, error) {
	for _, c := range candidates {
		if len(c.Vector) != len(query) {
			return nil, fmt.Errorf("%w: query has %d dimensions, candidate %q has %d",
				ErrInvalidDimension, len(query), c.Tag, len(c.Vector))
		}
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		score := CosineSimilarity(query, c.Vector)
		if opts.Threshold != nil && score < *opts.Threshold {
			continue
		}
		results = append(results, Result{Tag: c.Tag, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Tag < results[j].Tag
	})

	if opts.TopK > 0 && len(results) > opts.TopK {
		results = results[:opts.TopK]
	}

	return results, nil
}

// CosineSimilarity calculates cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
// Defined as 0 when either vector has zero norm.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64

	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	// Handle zero vectors
	if normA == 0.0 || normB == 0.0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
