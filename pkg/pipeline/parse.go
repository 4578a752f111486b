package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/SammySnake-d/markmap-sub002/pkg/errors"
	"github.com/SammySnake-d/markmap-sub002/pkg/observability"
	"github.com/SammySnake-d/markmap-sub002/pkg/parser"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

// Parse builds the input tree for the given options, either from the raw
// source bytes or from the input file.
func Parse(ctx context.Context, opts Options) (*tree.Input, error) {
	source := opts.Input
	if len(opts.Source) > 0 {
		source = "<memory>"
	}
	observability.Pipeline().OnParseStart(ctx, source)
	start := time.Now()

	var in *tree.Input
	var err error
	if len(opts.Source) > 0 {
		in, err = parser.Parse(opts.Source, opts.Title)
	} else {
		in, err = parser.ParseFile(opts.Input)
	}

	count := 0
	if in != nil {
		count = countInputs(in)
	}
	observability.Pipeline().OnParseComplete(ctx, source, count, time.Since(start), err)
	return in, err
}

// readFile loads the raw document bytes for cache key hashing.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "%s", path)
	}
	return data, nil
}

func countInputs(in *tree.Input) int {
	total := 1
	for _, c := range in.Children {
		total += countInputs(c)
	}
	return total
}
