package model

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/liliang-cn/parvec/internal/encoding"
	"github.com/liliang-cn/parvec/pkg/vocab"
)

// Document is one training corpus entry: a unique tag and its tokenized text.
type Document struct {
	Tag    string
	Tokens []string
}

// Trainer runs the distributed-memory paragraph-vector training algorithm.
// A Trainer is a single-owner batch job: one Train call owns all vector
// arrays until it returns, and the resulting Model must not be read before
// then. Independent Trainers may run in parallel since they share no state.
type Trainer struct {
	cfg    Config
	logger Logger
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithLogger sets the training progress logger. The default discards all
// messages.
func WithLogger(l Logger) TrainerOption {
	return func(t *Trainer) {
		t.logger = l
	}
}

// NewTrainer creates a trainer with the given hyperparameters.
func NewTrainer(cfg Config, opts ...TrainerOption) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	t := &Trainer{
		cfg:    cfg,
		logger: NopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Train builds a Model from tokenized documents and a prebuilt vocabulary.
// Each document tag and each vocabulary token receives a freshly initialized
// vector; both sides are adjusted by stochastic gradient updates on a
// negative-sampling objective. The learning rate decays linearly from
// cfg.Alpha to cfg.MinAlpha over all updates.
//
// For a fixed Seed the run is bit-reproducible. Cancellation is checked at
// document granularity; a cancelled run returns the context error and no
// model.
func (t *Trainer) Train(ctx context.Context, docs []Document, v *vocab.Vocabulary) (*Model, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	seed := t.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	// Map token sequences to vocabulary indices once; out-of-vocabulary
	// tokens drop out of training entirely.
	indexed := make([][]int, len(docs))
	totalWords := 0
	docIndex := make(map[string]int, len(docs))
	tags := make([]string, len(docs))
	for i, doc := range docs {
		if _, dup := docIndex[doc.Tag]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTag, doc.Tag)
		}
		docIndex[doc.Tag] = i
		tags[i] = doc.Tag

		ids := make([]int, 0, len(doc.Tokens))
		for _, tok := range doc.Tokens {
			if w, ok := v.Lookup(tok); ok {
				ids = append(ids, w.Index)
			}
		}
		indexed[i] = ids
		totalWords += len(ids)
	}

	m := &Model{
		dim:      t.cfg.Dim,
		window:   t.cfg.Window,
		epochs:   t.cfg.Epochs,
		negative: t.cfg.Negative,
		vocab:    v,
		syn0:     make([]float32, v.Size()*t.cfg.Dim),
		syn1:     make([]float32, v.Size()*t.cfg.Dim),
		docTags:  tags,
		docVecs:  make([]float32, len(docs)*t.cfg.Dim),
		docIndex: docIndex,
	}
	initVectors(m.syn0, t.cfg.Dim, rng)
	initVectors(m.docVecs, t.cfg.Dim, rng)

	t.logger.Info("training started",
		"documents", len(docs),
		"vocabulary", v.Size(),
		"words", totalWords,
		"dim", t.cfg.Dim,
		"epochs", t.cfg.Epochs,
		"seed", seed,
	)

	totalUpdates := t.cfg.Epochs * totalWords
	if totalUpdates == 0 {
		totalUpdates = 1
	}
	processed := 0
	alpha := t.cfg.Alpha

	neu1 := make([]float32, t.cfg.Dim)
	neu1e := make([]float32, t.cfg.Dim)

	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		for d := range indexed {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			// Linear learning rate decay, floored at MinAlpha.
			alpha = t.cfg.Alpha - (t.cfg.Alpha-t.cfg.MinAlpha)*float64(processed)/float64(totalUpdates)
			if alpha < t.cfg.MinAlpha {
				alpha = t.cfg.MinAlpha
			}

			processed += t.trainDocument(m, v, d, indexed[d], alpha, rng, neu1, neu1e)
		}

		if !encoding.Finite(m.docVecs) || !encoding.Finite(m.syn0) {
			return nil, fmt.Errorf("%w: epoch %d", ErrNumericOverflow, epoch)
		}

		t.logger.Debug("epoch complete", "epoch", epoch, "alpha", alpha, "processed", processed)
	}

	t.logger.Info("training complete", "updates", processed, "alpha", alpha)

	return m, nil
}

// trainDocument runs one pass over a single document and returns the number
// of target positions that contributed updates.
func (t *Trainer) trainDocument(m *Model, v *vocab.Vocabulary, docIdx int, ids []int, alpha float64, rng *rand.Rand, neu1, neu1e []float32) int {
	if len(ids) == 0 {
		return 0
	}

	docVec := m.docVecs[docIdx*m.dim : (docIdx+1)*m.dim]

	// Per-occurrence subsampling: very frequent tokens are skipped with the
	// probability computed at vocabulary build time, independently each time
	// they appear.
	kept := make([]int, 0, len(ids))
	for _, id := range ids {
		if rng.Float64() < v.Word(id).KeepProb {
			kept = append(kept, id)
		}
	}

	for i, target := range kept {
		lo := i - t.cfg.Window
		if lo < 0 {
			lo = 0
		}
		hi := i + t.cfg.Window
		if hi > len(kept)-1 {
			hi = len(kept) - 1
		}

		// Context representation: the document vector averaged with the
		// vectors of tokens inside the window.
		copy(neu1, docVec)
		count := 1
		for j := lo; j <= hi; j++ {
			if j == i {
				continue
			}
			ctxVec := m.tokenVector(kept[j])
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

		// One positive target plus Negative contrastive draws.
		for n := 0; n <= t.cfg.Negative; n++ {
			var label float64
			var out int
			if n == 0 {
				out = target
				label = 1
			} else {
				out = v.Negative(rng.Float64())
				if out == target {
					continue
				}
			}
			outVec := m.outputVector(out)
			g := (label - sigmoid(dot32(neu1, outVec))) * alpha
			axpy32(g, outVec, neu1e)
			axpy32(g, neu1, outVec)
		}

		// Distribute the accumulated error to every context contributor.
		for k := range docVec {
			docVec[k] += neu1e[k]
		}
		for j := lo; j <= hi; j++ {
			if j == i {
				continue
			}
			ctxVec := m.tokenVector(kept[j])
			for k := range ctxVec {
				ctxVec[k] += neu1e[k]
			}
		}
	}

	return len(kept)
}

// initVectors fills vector rows with small uniform values in
// (-0.5/dim, 0.5/dim), the conventional starting point for this family of
// models.
func initVectors(data []float32, dim int, rng *rand.Rand) {
	for i := range data {
		data[i] = float32((rng.Float64() - 0.5) / float64(dim))
	}
}
