package model

import "errors"

// Common errors
var (
	// ErrUntrainedModel is returned when inference is attempted on a model
	// that has not been trained or loaded.
	ErrUntrainedModel = errors.New("model is not trained")

	// ErrNumericOverflow is returned when training produces non-finite vector
	// values, typically from an unstable learning rate. The run is aborted
	// rather than producing a corrupted model.
	ErrNumericOverflow = errors.New("training produced non-finite values")

	// ErrNoDocuments is returned when training is started with an empty
	// corpus.
	ErrNoDocuments = errors.New("no training documents")

	// ErrDuplicateTag is returned when two training documents carry the same
	// tag. Tags are the sole external identifier and must be unique.
	ErrDuplicateTag = errors.New("duplicate document tag")

	// ErrTagNotFound is returned when a document tag is not present in the
	// trained model.
	ErrTagNotFound = errors.New("tag not found in model")

	// ErrInvalidModelFile is returned when a model artifact cannot be
	// decoded, typically from a truncated file or a version mismatch.
	ErrInvalidModelFile = errors.New("invalid model file")
)
