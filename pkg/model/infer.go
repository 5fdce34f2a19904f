package model

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/liliang-cn/parvec/internal/encoding"
	"github.com/liliang-cn/parvec/pkg/textproc"
)

// InferOptions configures on-demand vector inference for unseen text.
type InferOptions struct {
	// Alpha is the initial learning rate for the inference updates.
	Alpha float64
	// MinAlpha is the learning rate at the last step.
	MinAlpha float64
	// Steps is the number of passes over the text.
	Steps int
	// Seed fixes the random source for the fresh vector's initialization.
	// Zero draws a seed from the clock, so repeated calls on the same input
	// produce different (but similarly ranked) vectors. This stochastic
	// behavior is intentional; callers requiring exact reproducibility must
	// set a seed.
	Seed int64
}

// DefaultInferOptions returns conventional inference settings.
func DefaultInferOptions() InferOptions {
	return InferOptions{
		Alpha:    0.025,
		MinAlpha: 0.0001,
		Steps:    50,
	}
}

// Validate checks option bounds.
func (o InferOptions) Validate() error {
	if o.Alpha <= 0 {
		return fmt.Errorf("inference learning rate must be positive, got %g", o.Alpha)
	}
	if o.MinAlpha < 0 || o.MinAlpha > o.Alpha {
		return fmt.Errorf("final learning rate must be in [0, %g], got %g", o.Alpha, o.MinAlpha)
	}
	if o.Steps < 1 {
		return fmt.Errorf("steps must be >= 1, got %d", o.Steps)
	}
	return nil
}

// Infer tokenizes text and computes a vector for it with the training update
// rule, holding all token and output vectors fixed. Only the fresh vector is
// adjusted.
//
// Text whose tokens are all outside the vocabulary (including empty input)
// yields the zero vector of the model's dimension. That is a documented
// boundary case, not an error: the caller receives a valid vector whose
// cosine similarity against any candidate is defined as zero.
func (m *Model) Infer(text string, opts InferOptions) ([]float32, error) {
	return m.InferTokens(textproc.Tokenize(text), opts)
}

// InferTokens is Infer for already-tokenized input.
func (m *Model) InferTokens(tokens []string, opts InferOptions) ([]float32, error) {
	if !m.trained() {
		return nil, ErrUntrainedModel
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		if w, ok := m.vocab.Lookup(tok); ok {
			ids = append(ids, w.Index)
		}
	}
	if len(ids) == 0 {
		return make([]float32, m.dim), nil
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	vec := make([]float32, m.dim)
	initVectors(vec, m.dim, rng)

	neu1 := make([]float32, m.dim)
	neu1e := make([]float32, m.dim)

	for step := 0; step < opts.Steps; step++ {
		alpha := opts.Alpha - (opts.Alpha-opts.MinAlpha)*float64(step)/float64(opts.Steps)

		for i, target := range ids {
			lo := i - m.window
			if lo < 0 {
				lo = 0
			}
			hi := i + m.window
			if hi > len(ids)-1 {
				hi = len(ids) - 1
			}

			copy(neu1, vec)
			count := 1
			for j := lo; j <= hi; j++ {
				if j == i {
					continue
				}
				ctxVec := m.tokenVector(ids[j])
				for k := range neu1 {
					neu1[k] += ctxVec[k]
				}
				count++
			}
			if count > 1 {
				inv := float32(1.0 / float64(count))
				for k := range neu1 {
					neu1[k] *= inv
				}
			}

			for k := range neu1e {
				neu1e[k] = 0
			}

			for n := 0; n <= m.negative; n++ {
				var label float64
				var out int
				if n == 0 {
					out = target
					label = 1
				} else {
					out = m.vocab.Negative(rng.Float64())
					if out == target {
						continue
					}
				}
				outVec := m.outputVector(out)
				g := (label - sigmoid(dot32(neu1, outVec))) * alpha
				axpy32(g, outVec, neu1e)
				// Output weights stay frozen at inference time.
			}

			for k := range vec {
				vec[k] += neu1e[k]
			}
		}
	}

	if !encoding.Finite(vec) {
		return nil, ErrNumericOverflow
	}

	return vec, nil
}
