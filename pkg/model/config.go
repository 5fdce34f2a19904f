package model

import "fmt"

// Config holds the training hyperparameters. The trained Model records them so
// that inference reproduces the training-time update rule.
type Config struct {
	// Dim is the dimensionality of every token and document vector.
	Dim int
	// Window is the number of context positions considered on each side of
	// the target token.
	Window int
	// Epochs is the number of full passes over the training corpus.
	Epochs int
	// Negative is the number of negative samples drawn per target token.
	Negative int
	// Alpha is the initial learning rate.
	Alpha float64
	// MinAlpha is the learning rate at the end of the last epoch. The rate
	// decays linearly from Alpha to MinAlpha over all training updates.
	MinAlpha float64
	// Seed fixes the random source. Training is bit-reproducible for a fixed
	// seed, corpus, and configuration. Zero draws a seed from the clock.
	Seed int64
}

// DefaultConfig returns conventional paragraph-vector settings for a corpus of
// a few thousand short documents.
func DefaultConfig() Config {
	return Config{
		Dim:      100,
		Window:   5,
		Epochs:   20,
		Negative: 5,
		Alpha:    0.025,
		MinAlpha: 0.0001,
	}
}

// Validate checks hyperparameter bounds.
func (c Config) Validate() error {
	if c.Dim <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dim)
	}
	if c.Window < 1 {
		return fmt.Errorf("window must be >= 1, got %d", c.Window)
	}
	if c.Epochs < 1 {
		return fmt.Errorf("epochs must be >= 1, got %d", c.Epochs)
	}
	if c.Negative < 1 {
		return fmt.Errorf("negative sample count must be >= 1, got %d", c.Negative)
	}
	if c.Alpha <= 0 {
		return fmt.Errorf("initial learning rate must be positive, got %g", c.Alpha)
	}
	if c.MinAlpha < 0 || c.MinAlpha > c.Alpha {
		return fmt.Errorf("final learning rate must be in [0, %g], got %g", c.Alpha, c.MinAlpha)
	}
	return nil
}
