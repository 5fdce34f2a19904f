package vocab

import (
	"errors"
	"math"
	"testing"
)

func TestBuildMinCount(t *testing.T) {
	docs := [][]string{
		{"king", "castle", "king"},
		{"witch", "forest", "king"},
	}

	v, err := Build(docs, Options{MinCount: 2, Sample: 1e-3})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if v.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", v.Size())
	}

	w, ok := v.Lookup("king")
	if !ok {
		t.Fatal("Lookup(king) not found")
	}
	if w.Count != 3 {
		t.Errorf("king count = %d, want 3", w.Count)
	}
	if _, ok := v.Lookup("witch"); ok {
		t.Error("witch should have been discarded by min count")
	}
}

func TestBuildEmptyVocabulary(t *testing.T) {
	tests := []struct {
		name string
		docs [][]string
		opts Options
	}{
		{
			name: "no documents",
			docs: nil,
			opts: Options{MinCount: 1, Sample: 1e-3},
		},
		{
			name: "min count above all frequencies",
			docs: [][]string{{"king", "castle"}},
			opts: Options{MinCount: 5, Sample: 1e-3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.docs, tt.opts); !errors.Is(err, ErrEmptyVocabulary) {
				t.Errorf("Build() error = %v, want ErrEmptyVocabulary", err)
			}
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"zero min count", Options{MinCount: 0, Sample: 1e-3}, true},
		{"zero sample", Options{MinCount: 1, Sample: 0}, true},
		{"sample above one", Options{MinCount: 1, Sample: 1.5}, true},
		{"sample exactly one", Options{MinCount: 1, Sample: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKeepProbs(t *testing.T) {
	// One very frequent token and one rare token. The frequent one must get
	// a retention probability below 1, the rare one must stay at 1.
	docs := make([][]string, 0)
	for i := 0; i < 1000; i++ {
		docs = append(docs, []string{"common"})
	}
	docs = append(docs, []string{"rare"})

	v, err := Build(docs, Options{MinCount: 1, Sample: 1e-3})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	common, _ := v.Lookup("common")
	rare, _ := v.Lookup("rare")

	if common.KeepProb >= 1 {
		t.Errorf("frequent token keep prob = %v, want < 1", common.KeepProb)
	}
	if rare.KeepProb != 1 {
		t.Errorf("rare token keep prob = %v, want 1", rare.KeepProb)
	}

	// The keep probability follows sqrt(t/f) + t/f for relative frequency f.
	threshold := 1e-3 * float64(v.TotalCount())
	ratio := threshold / float64(common.Count)
	expected := math.Sqrt(ratio) + ratio
	if math.Abs(common.KeepProb-expected) > 1e-12 {
		t.Errorf("frequent token keep prob = %v, want %v", common.KeepProb, expected)
	}
}

func TestNegativeSampling(t *testing.T) {
	docs := [][]string{
		{"alpha", "alpha", "alpha", "alpha", "beta", "beta", "gamma"},
	}
	v, err := Build(docs, Options{MinCount: 1, Sample: 1e-3})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Boundary draws map to the first and last entries.
	if got := v.Negative(0); got != 0 {
		t.Errorf("Negative(0) = %d, want 0", got)
	}
	if got := v.Negative(0.999999); got != v.Size()-1 {
		t.Errorf("Negative(~1) = %d, want %d", got, v.Size()-1)
	}

	// A uniform sweep must produce draws roughly proportional to count^0.75:
	// alpha is most frequent and must dominate.
	counts := make([]int, v.Size())
	for i := 0; i < 10000; i++ {
		counts[v.Negative(float64(i)/10000)]++
	}
	if !(counts[0] > counts[1] && counts[1] > counts[2]) {
		t.Errorf("draw counts not ordered by frequency: %v", counts)
	}
}

func TestFromCountsMatchesBuild(t *testing.T) {
	docs := [][]string{
		{"king", "castle", "king", "moat"},
		{"witch", "forest", "king", "castle"},
	}
	built, err := Build(docs, Options{MinCount: 1, Sample: 1e-3})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	forms := make([]string, built.Size())
	counts := make([]int, built.Size())
	for i, w := range built.Words() {
		forms[i] = w.Surface
		counts[i] = w.Count
	}

	restored, err := FromCounts(forms, counts, built.Sample())
	if err != nil {
		t.Fatalf("FromCounts() error = %v", err)
	}

	if restored.Size() != built.Size() || restored.TotalCount() != built.TotalCount() {
		t.Fatalf("restored vocabulary differs in size or total")
	}
	for i, w := range built.Words() {
		r := restored.Word(i)
		if r.Surface != w.Surface || r.Count != w.Count || r.Index != w.Index {
			t.Errorf("word %d differs: %+v vs %+v", i, r, w)
		}
		if math.Abs(r.KeepProb-w.KeepProb) > 1e-12 {
			t.Errorf("word %d keep prob differs: %v vs %v", i, r.KeepProb, w.KeepProb)
		}
	}
	for _, u := range []float64{0, 0.1, 0.37, 0.52, 0.9, 0.999} {
		if restored.Negative(u) != built.Negative(u) {
			t.Errorf("Negative(%v) differs after reconstruction", u)
		}
	}
}

func TestFromCountsErrors(t *testing.T) {
	if _, err := FromCounts(nil, nil, 1e-3); !errors.Is(err, ErrEmptyVocabulary) {
		t.Errorf("FromCounts(empty) error = %v, want ErrEmptyVocabulary", err)
	}
	if _, err := FromCounts([]string{"a"}, []int{1, 2}, 1e-3); err == nil {
		t.Error("FromCounts with mismatched lengths should fail")
	}
	if _, err := FromCounts([]string{"a"}, []int{0}, 1e-3); err == nil {
		t.Error("FromCounts with zero count should fail")
	}
}
