package model

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/liliang-cn/parvec/pkg/vocab"
)

// The model file is a little-endian binary artifact: a magic/version header,
// the hyperparameters needed to reproduce inference behavior, the vocabulary
// with counts, both weight matrices, and the trained document vectors. A
// reloaded model is bit-identical to the saved one.
var modelMagic = [4]byte{'P', 'V', 'D', 'M'}

const modelVersion uint32 = 1

const maxStringLen = 1 << 20 // sanity bound for length-prefixed strings

// Save writes the model to w in its binary file format.
func (m *Model) Save(w io.Writer) error {
	if !m.trained() {
		return ErrUntrainedModel
	}

	bw := bufio.NewWriter(w)

	if _, err := bw.Write(modelMagic[:]); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	header := []any{
		modelVersion,
		int32(m.dim),
		int32(m.window),
		int32(m.epochs),
		int32(m.negative),
		m.vocab.Sample(),
		int32(m.vocab.Size()),
	}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for _, wd := range m.vocab.Words() {
		if err := writeString(bw, wd.Surface); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, int64(wd.Count)); err != nil {
			return fmt.Errorf("failed to write vocabulary: %w", err)
		}
	}

	if err := binary.Write(bw, binary.LittleEndian, m.syn0); err != nil {
		return fmt.Errorf("failed to write token vectors: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, m.syn1); err != nil {
		return fmt.Errorf("failed to write output weights: %w", err)
	}

	if err := binary.Write(bw, binary.LittleEndian, int32(len(m.docTags))); err != nil {
		return fmt.Errorf("failed to write document count: %w", err)
	}
	for i, tag := range m.docTags {
		if err := writeString(bw, tag); err != nil {
			return err
		}
		row := m.docVecs[i*m.dim : (i+1)*m.dim]
		if err := binary.Write(bw, binary.LittleEndian, row); err != nil {
			return fmt.Errorf("failed to write document vector: %w", err)
		}
	}

	return bw.Flush()
}

// Load reads a model previously written by Save.
func Load(r io.Reader) (*Model, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelFile, err)
	}
	if magic != modelMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidModelFile)
	}

	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelFile, err)
	}
	if version != modelVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidModelFile, version)
	}

	var dim, window, epochs, negative, vocabSize int32
	var sample float64
	for _, dst := range []any{&dim, &window, &epochs, &negative, &sample, &vocabSize} {
		if err := binary.Read(br, binary.LittleEndian, dst); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModelFile, err)
		}
	}
	if dim <= 0 || vocabSize <= 0 {
		return nil, fmt.Errorf("%w: dim=%d vocab=%d", ErrInvalidModelFile, dim, vocabSize)
	}

	forms := make([]string, vocabSize)
	counts := make([]int, vocabSize)
	for i := range forms {
		form, err := readString(br)
		if err != nil {
			return nil, err
		}
		var count int64
		if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModelFile, err)
		}
		forms[i] = form
		counts[i] = int(count)
	}

	v, err := vocab.FromCounts(forms, counts, sample)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelFile, err)
	}

	syn0 := make([]float32, int(vocabSize)*int(dim))
	if err := binary.Read(br, binary.LittleEndian, syn0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelFile, err)
	}
	syn1 := make([]float32, int(vocabSize)*int(dim))
	if err := binary.Read(br, binary.LittleEndian, syn1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelFile, err)
	}

	var docCount int32
	if err := binary.Read(br, binary.LittleEndian, &docCount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelFile, err)
	}
	if docCount < 0 {
		return nil, fmt.Errorf("%w: document count %d", ErrInvalidModelFile, docCount)
	}

	tags := make([]string, docCount)
	docVecs := make([]float32, int(docCount)*int(dim))
	docIndex := make(map[string]int, docCount)
	for i := range tags {
		tag, err := readString(br)
		if err != nil {
			return nil, err
		}
		tags[i] = tag
		docIndex[tag] = i
		row := docVecs[i*int(dim) : (i+1)*int(dim)]
		if err := binary.Read(br, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModelFile, err)
		}
	}

	return &Model{
		dim:      int(dim),
		window:   int(window),
		epochs:   int(epochs),
		negative: int(negative),
		vocab:    v,
		syn0:     syn0,
		syn1:     syn1,
		docTags:  tags,
		docVecs:  docVecs,
		docIndex: docIndex,
	}, nil
}

// SaveFile writes the model to the given path.
func (m *Model) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	if err := m.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a model from the given path.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// writeString writes a uint32 length-prefixed UTF-8 string.
func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return fmt.Errorf("failed to write string length: %w", err)
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("failed to write string: %w", err)
	}
	return nil
}

// readString reads a uint32 length-prefixed UTF-8 string.
func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidModelFile, err)
	}
	if n > maxStringLen {
		return "", fmt.Errorf("%w: string length %d", ErrInvalidModelFile, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidModelFile, err)
	}
	return string(buf), nil
}
