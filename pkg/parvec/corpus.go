package parvec

import (
	"context"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/liliang-cn/parvec/pkg/model"
	"github.com/liliang-cn/parvec/pkg/textproc"
)

// tagSeparator joins the source id and title into a composite tag. The tag is
// the sole external identifier of a trained document vector.
const tagSeparator = "::"

// RawDocument is one corpus entry as supplied by the text loader.
type RawDocument struct {
	SourceID string
	Title    string
	Text     string
}

// MakeTag builds the composite tag for a document. Documents without a source
// id receive a generated one so that tags stay unique across the corpus.
func MakeTag(sourceID, title string) string {
	if sourceID == "" {
		sourceID = uuid.New().String()
	}
	return sourceID + tagSeparator + title
}

// SplitTag recovers the source id and title from a composite tag.
func SplitTag(tag string) (sourceID, title string) {
	parts := strings.SplitN(tag, tagSeparator, 2)
	if len(parts) != 2 {
		return "", tag
	}
	return parts[0], parts[1]
}

// TokenizeCorpus normalizes every raw document in parallel. Tokenization is
// pure, so documents are processed independently with one worker per CPU;
// output order matches input order.
func TokenizeCorpus(ctx context.Context, docs []RawDocument) ([]model.Document, error) {
	out := make([]model.Document, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = model.Document{
				Tag:    MakeTag(doc.SourceID, doc.Title),
				Tokens: textproc.Tokenize(doc.Text),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
