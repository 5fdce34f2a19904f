// Package parvec is the high-level entry point for semantic retrieval: it
// wires the tokenizer, the paragraph-vector model, the SQLite vector store,
// and the similarity ranker behind a small facade.
//
// The usual lifecycle is Train -> Export -> Query:
//
//	m, err := parvec.Train(ctx, docs, model.DefaultConfig(), vocab.DefaultOptions())
//	// persist m, export vectors
//	err = parvec.Export(ctx, m, st)
//	eng, err := parvec.NewEngine(m, st)
//	hits, err := eng.Query(ctx, "castle king", 10, nil)
package parvec

import (
	"context"
	"fmt"

	"github.com/liliang-cn/parvec/pkg/model"
	"github.com/liliang-cn/parvec/pkg/rank"
	"github.com/liliang-cn/parvec/pkg/store"
	"github.com/liliang-cn/parvec/pkg/vocab"
)

// Hit is one ranked search result.
type Hit struct {
	Tag      string  `json:"tag"`
	SourceID string  `json:"sourceId"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
}

// Engine answers free-text queries against an immutable trained model and a
// populated vector store. It holds no mutable state of its own, so any number
// of Query calls may run concurrently.
type Engine struct {
	model     *model.Model
	store     *store.Store
	inferOpts model.InferOptions
	logger    model.Logger
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithInferOptions overrides the inference settings used for query vectors.
func WithInferOptions(opts model.InferOptions) Option {
	return func(e *Engine) {
		e.inferOpts = opts
	}
}

// WithLogger sets the engine's logger. The default discards all messages.
func WithLogger(l model.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates a query engine over a trained model and a vector store.
func NewEngine(m *model.Model, s *store.Store, opts ...Option) (*Engine, error) {
	if m == nil || m.VocabSize() == 0 {
		return nil, model.ErrUntrainedModel
	}

	e := &Engine{
		model:     m,
		store:     s,
		inferOpts: model.DefaultInferOptions(),
		logger:    model.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Query infers a vector for the query text and ranks every stored document
// vector against it by cosine similarity. At most topK hits are returned (all
// matches when topK <= 0); threshold, when non-nil, drops hits scoring below
// it.
//
// Query vectors are ephemeral and stochastic: two calls with the same text
// produce different vectors unless the engine's inference seed is fixed. The
// ranking of a clearly dominant match is stable across calls.
func (e *Engine) Query(ctx context.Context, text string, topK int, threshold *float64) ([]Hit, error) {
	queryVec, err := e.model.Infer(text, e.inferOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to infer query vector: %w", err)
	}

	recs, err := e.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	candidates := make([]rank.Candidate, len(recs))
	meta := make(map[string]store.Record, len(recs))
	for i, rec := range recs {
		candidates[i] = rank.Candidate{Tag: rec.Tag, Vector: rec.Vector}
		meta[rec.Tag] = rec
	}

	results, err := rank.Search(queryVec, candidates, rank.Options{TopK: topK, Threshold: threshold})
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		rec := meta[r.Tag]
		hits[i] = Hit{
			Tag:      r.Tag,
			SourceID: rec.SourceID,
			Title:    rec.Title,
			Score:    r.Score,
		}
	}

	e.logger.Debug("query complete", "text", text, "candidates", len(candidates), "hits", len(hits))

	return hits, nil
}

// Train tokenizes a raw corpus, builds its vocabulary, and trains a
// paragraph-vector model over it.
func Train(ctx context.Context, docs []RawDocument, cfg model.Config, vopts vocab.Options, topts ...model.TrainerOption) (*model.Model, error) {
	tokenized, err := TokenizeCorpus(ctx, docs)
	if err != nil {
		return nil, err
	}

	sequences := make([][]string, len(tokenized))
	for i, d := range tokenized {
		sequences[i] = d.Tokens
	}

	v, err := vocab.Build(sequences, vopts)
	if err != nil {
		return nil, err
	}

	trainer, err := model.NewTrainer(cfg, topts...)
	if err != nil {
		return nil, err
	}

	return trainer.Train(ctx, tokenized, v)
}

// Export publishes every trained document vector into the store in a single
// transaction. The stored vectors are byte-identical copies of the model's
// document vectors at export time.
func Export(ctx context.Context, m *model.Model, s *store.Store) error {
	docVecs := m.DocVectors()
	recs := make([]store.Record, len(docVecs))
	for i, dv := range docVecs {
		sourceID, title := SplitTag(dv.Tag)
		recs[i] = store.Record{
			Tag:      dv.Tag,
			Vector:   dv.Vector,
			SourceID: sourceID,
			Title:    title,
		}
	}
	return s.PutBatch(ctx, recs)
}
