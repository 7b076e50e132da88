package check

import (
	"context"
	"errors"
	"os"
)

type fileGrowth struct {
	path string
}

// NewFileGrowth constructs an evaluator that kills the supervised process
// when the file at path has stopped growing between consecutive evaluations.
// A missing file counts as zero bytes, so a process that never creates its
// output file is killed on the second evaluation.
func NewFileGrowth(path string) (Evaluator, error) {
	if path == "" {
		return nil, errors.New("check: file growth requires a path")
	}
	return &fileGrowth{path: path}, nil
}

func (f *fileGrowth) Evaluate(ctx context.Context, obs Observation) Verdict {
	size := int64(0)
	info, err := os.Stat(f.path)
	switch {
	case err == nil:
		size = info.Size()
	case !os.IsNotExist(err):
		return Errorf("stat %s: %v", f.path, err)
	}

	prior, ok := obs.Prior.(int64)
	if !ok {
		// First evaluation establishes the baseline.
		return Continue(size)
	}
	if size <= prior {
		return Kill("no growth on " + f.path)
	}
	return Continue(size)
}
