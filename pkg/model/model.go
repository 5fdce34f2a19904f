// Package model implements the paragraph-vector training and inference
// engine. A Model holds one trained vector per vocabulary token and one per
// training document tag; once training completes the model is immutable and
// safe for concurrent inference.
package model

import (
	"github.com/liliang-cn/parvec/pkg/vocab"
)

// Model is the trained artifact. It is built once by a Trainer (or reloaded
// from a saved file) and read-only afterwards.
type Model struct {
	dim      int
	window   int
	epochs   int
	negative int

	vocab *vocab.Vocabulary

	// syn0 holds the input token vectors and syn1 the output weights, both
	// laid out row-major as vocabSize x dim. Inference needs both, so both
	// are persisted.
	syn0 []float32
	syn1 []float32

	docTags  []string
	docVecs  []float32 // len(docTags) x dim, same row layout as syn0
	docIndex map[string]int
}

// DocVector is one (tag, vector) pair exported from a trained model.
type DocVector struct {
	Tag    string
	Vector []float32
}

// Dim returns the vector dimensionality.
func (m *Model) Dim() int {
	return m.dim
}

// VocabSize returns the number of vocabulary tokens.
func (m *Model) VocabSize() int {
	if m.vocab == nil {
		return 0
	}
	return m.vocab.Size()
}

// DocCount returns the number of trained document vectors.
func (m *Model) DocCount() int {
	return len(m.docTags)
}

// Tags returns the tags of all trained documents in training order.
func (m *Model) Tags() []string {
	tags := make([]string, len(m.docTags))
	copy(tags, m.docTags)
	return tags
}

// Vector returns a copy of the trained vector for the given document tag.
func (m *Model) Vector(tag string) ([]float32, error) {
	if !m.trained() {
		return nil, ErrUntrainedModel
	}
	idx, ok := m.docIndex[tag]
	if !ok {
		return nil, ErrTagNotFound
	}
	vec := make([]float32, m.dim)
	copy(vec, m.docVecs[idx*m.dim:(idx+1)*m.dim])
	return vec, nil
}

// DocVectors returns copies of all trained document vectors in training
// order, for export into a vector store.
func (m *Model) DocVectors() []DocVector {
	out := make([]DocVector, len(m.docTags))
	for i, tag := range m.docTags {
		vec := make([]float32, m.dim)
		copy(vec, m.docVecs[i*m.dim:(i+1)*m.dim])
		out[i] = DocVector{Tag: tag, Vector: vec}
	}
	return out
}

// trained reports whether the model carries a vocabulary and token vectors.
func (m *Model) trained() bool {
	return m != nil && m.vocab != nil && m.vocab.Size() > 0 && len(m.syn0) > 0
}

// tokenVector returns the stored input vector row for a vocabulary index.
func (m *Model) tokenVector(index int) []float32 {
	return m.syn0[index*m.dim : (index+1)*m.dim]
}

// outputVector returns the stored output weight row for a vocabulary index.
func (m *Model) outputVector(index int) []float32 {
	return m.syn1[index*m.dim : (index+1)*m.dim]
}
