package payload

import (
	"context"
	"fmt"

	"github.com/itchyny/gojq"
	"github.com/mcncl/editrack/internal/errors"
	"github.com/mcncl/editrack/internal/models"
)

// Select runs a jq expression against the parsed payload and returns what it
// produced: nil for no output, the single value for one output, an array for
// several. Objects coming back from jq have their keys sorted.
func (r *Resolver) Select(ctx context.Context, raw models.Value, expression string) (models.Value, error) {
	if expression == "" {
		return nil, errors.NewQueryError("empty jq expression", nil)
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, errors.NewQueryError(fmt.Sprintf("jq parse error in %q", expression), err)
	}
	code, err := gojq.Compile(query,
		// No access to the process environment from user queries.
		gojq.WithEnvironLoader(func() []string { return nil }),
	)
	if err != nil {
		return nil, errors.NewQueryError(fmt.Sprintf("jq compile error in %q", expression), err)
	}

	iter := code.RunWithContext(ctx, models.ToAny(r.Parse(raw)))
	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			return nil, errors.NewQueryError(fmt.Sprintf("jq evaluation failed for %q", expression), err)
		}
		results = append(results, val)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return models.FromAny(results[0]), nil
	default:
		return models.FromAny(results), nil
	}
}
