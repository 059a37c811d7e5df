// Package split partitions training examples into train, validation and
// test sets and persists them as JSON Lines.
package split

import (
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"

	"github.com/MaineK00n/exploitgpt/pkg/types"
	"github.com/MaineK00n/exploitgpt/pkg/util/file"
)

const (
	DefaultTrainRatio = 0.8
	DefaultValRatio   = 0.1

	TrainFile      = "train.jsonl"
	ValidationFile = "validation.jsonl"
	TestFile       = "test.jsonl"
)

type Partitions struct {
	Train      []types.TrainingExample
	Validation []types.TrainingExample
	Test       []types.TrainingExample
}

// NewRand returns the deterministic source used for a given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Split shuffles a copy of examples with r and cuts it at
// floor(n*train) and floor(n*(train+val)).
func Split(examples []types.TrainingExample, train, val float64, r *rand.Rand) (Partitions, error) {
	if train < 0 || train > 1 {
		return Partitions{}, errors.Errorf("unexpected train ratio. expected: [0, 1], actual: %v", train)
	}
	if val < 0 || val > 1 {
		return Partitions{}, errors.Errorf("unexpected validation ratio. expected: [0, 1], actual: %v", val)
	}
	if train+val > 1 {
		return Partitions{}, errors.Errorf("unexpected ratio sum. expected: <= 1, actual: %v", train+val)
	}
	if r == nil {
		return Partitions{}, errors.New("random source is required")
	}

	shuffled := slices.Clone(examples)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	trainEnd := int(float64(n) * train)
	valEnd := min(int(float64(n)*(train+val)), n)

	return Partitions{
		Train:      shuffled[:trainEnd:trainEnd],
		Validation: shuffled[trainEnd:valEnd:valEnd],
		Test:       shuffled[valEnd:],
	}, nil
}

// Save writes the partitions to dir. Every file is written to a temporary
// sibling first, so a failed save leaves earlier files intact.
func Save(dir string, p Partitions) error {
	for _, f := range []struct {
		name     string
		examples []types.TrainingExample
	}{
		{name: TrainFile, examples: p.Train},
		{name: ValidationFile, examples: p.Validation},
		{name: TestFile, examples: p.Test},
	} {
		path := filepath.Join(dir, f.name)
		if err := file.WriteJSONL(path, f.examples); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
		slog.Info("Save partition", "path", path, "examples", len(f.examples))
	}
	return nil
}
