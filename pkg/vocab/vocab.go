// Package vocab builds the closed training vocabulary: per-token frequency,
// subsampling retention probability, and the cumulative distribution used to
// draw negative samples.
package vocab

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyVocabulary is returned when no token survives min-count filtering.
// Callers must lower MinCount or supply more training data.
var ErrEmptyVocabulary = errors.New("empty vocabulary: no token survives filtering")

// negExponent flattens the unigram distribution for negative sampling. The
// value is the conventional word2vec constant and is not configurable.
const negExponent = 0.75

// Word is one retained vocabulary entry.
type Word struct {
	Surface  string  // normalized token form
	Count    int     // corpus frequency
	Index    int     // position in the vocabulary, also the vector row
	KeepProb float64 // per-occurrence retention probability under subsampling
}

// Options configures vocabulary construction.
type Options struct {
	// MinCount discards tokens seen fewer than this many times. Must be >= 1.
	MinCount int
	// Sample is the subsampling threshold. Tokens whose relative frequency
	// exceeds it are probabilistically skipped during training. Must be in
	// (0, 1].
	Sample float64
}

// DefaultOptions returns the conventional vocabulary settings.
func DefaultOptions() Options {
	return Options{
		MinCount: 2,
		Sample:   1e-3,
	}
}

// Validate checks option bounds.
func (o Options) Validate() error {
	if o.MinCount < 1 {
		return fmt.Errorf("min count must be >= 1, got %d", o.MinCount)
	}
	if o.Sample <= 0 || o.Sample > 1 {
		return fmt.Errorf("sample threshold must be in (0, 1], got %g", o.Sample)
	}
	return nil
}

// Vocabulary is the closed token set produced by Build. It is immutable after
// construction and safe for concurrent readers.
type Vocabulary struct {
	words   []*Word
	byForm  map[string]*Word
	total   int       // total retained token occurrences across the corpus
	sample  float64   // subsampling threshold used at build time
	negCDF  []float64 // cumulative freq^negExponent, one entry per word
	negSum  float64
}

// Build scans tokenized documents once and produces the closed vocabulary.
func Build(docs [][]string, opts Options) (*Vocabulary, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, doc := range docs {
		for _, tok := range doc {
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	v := &Vocabulary{
		byForm: make(map[string]*Word),
		sample: opts.Sample,
	}

	// First-seen order keeps vocabulary indices deterministic for a fixed
	// corpus traversal.
	for _, form := range order {
		count := counts[form]
		if count < opts.MinCount {
			continue
		}
		w := &Word{
			Surface: form,
			Count:   count,
			Index:   len(v.words),
		}
		v.words = append(v.words, w)
		v.byForm[form] = w
		v.total += count
	}

	if len(v.words) == 0 {
		return nil, ErrEmptyVocabulary
	}

	v.computeKeepProbs()
	v.buildNegTable()

	return v, nil
}

// FromCounts reconstructs a vocabulary from persisted surface forms and
// frequencies, in index order. The subsampling probabilities and the
// negative-sampling table are derived from the counts, so a reconstructed
// vocabulary is identical to the one built at training time.
func FromCounts(forms []string, counts []int, sample float64) (*Vocabulary, error) {
	if len(forms) != len(counts) {
		return nil, fmt.Errorf("form/count length mismatch: %d vs %d", len(forms), len(counts))
	}
	if len(forms) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if sample <= 0 || sample > 1 {
		return nil, fmt.Errorf("sample threshold must be in (0, 1], got %g", sample)
	}

	v := &Vocabulary{
		byForm: make(map[string]*Word, len(forms)),
		sample: sample,
	}
	for i, form := range forms {
		if counts[i] < 1 {
			return nil, fmt.Errorf("invalid count %d for %q", counts[i], form)
		}
		w := &Word{
			Surface: form,
			Count:   counts[i],
			Index:   i,
		}
		v.words = append(v.words, w)
		v.byForm[form] = w
		v.total += counts[i]
	}

	v.computeKeepProbs()
	v.buildNegTable()

	return v, nil
}

// computeKeepProbs derives the subsampling retention probability for each
// word from its relative frequency and the sample threshold.
func (v *Vocabulary) computeKeepProbs() {
	threshold := v.sample * float64(v.total)
	for _, w := range v.words {
		ratio := threshold / float64(w.Count)
		p := math.Sqrt(ratio) + ratio
		if p > 1 {
			p = 1
		}
		w.KeepProb = p
	}
}

// buildNegTable precomputes the cumulative distribution of freq^negExponent
// used to draw negative samples.
func (v *Vocabulary) buildNegTable() {
	v.negCDF = make([]float64, len(v.words))
	sum := 0.0
	for i, w := range v.words {
		sum += math.Pow(float64(w.Count), negExponent)
		v.negCDF[i] = sum
	}
	v.negSum = sum
}

// Lookup returns the vocabulary entry for a token form.
func (v *Vocabulary) Lookup(form string) (*Word, bool) {
	w, ok := v.byForm[form]
	return w, ok
}

// Word returns the entry at the given vocabulary index.
func (v *Vocabulary) Word(index int) *Word {
	return v.words[index]
}

// Words returns all entries in index order. The returned slice must not be
// modified.
func (v *Vocabulary) Words() []*Word {
	return v.words
}

// Size returns the number of retained words.
func (v *Vocabulary) Size() int {
	return len(v.words)
}

// TotalCount returns the total retained token occurrences in the corpus.
func (v *Vocabulary) TotalCount() int {
	return v.total
}

// Sample returns the subsampling threshold the vocabulary was built with.
func (v *Vocabulary) Sample() float64 {
	return v.sample
}

// Negative maps a uniform draw u in [0, 1) to a vocabulary index under the
// negative-sampling distribution.
func (v *Vocabulary) Negative(u float64) int {
	target := u * v.negSum
	lo, hi := 0, len(v.negCDF)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if v.negCDF[mid] <= target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
