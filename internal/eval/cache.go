package eval

import (
	"sync"

	"github.com/sunholo/apexpr/internal/ast"
	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/elaborate"
	"github.com/sunholo/apexpr/internal/errors"
)

// ParseLambda decodes JSON program text and lowers it to a core lambda.
// Programs handed to the pipeline are always single lambdas taking their
// context as the first parameter.
func ParseLambda(text string) (*core.Lambda, error) {
	expr, err := ast.DecodeString(text)
	if err != nil {
		return nil, err
	}
	lowered, err := elaborate.Lower(expr)
	if err != nil {
		return nil, err
	}
	lambda, ok := lowered.(*core.Lambda)
	if !ok {
		return nil, errors.Typef("program must be a lambda expression, got %T", lowered)
	}
	return lambda, nil
}

type lambdaEntry struct {
	lambda *core.Lambda
	err    error
}

// LambdaCache memoizes ParseLambda by program text. Failures are cached so
// repeated lookups of a broken program stay cheap. Safe for concurrent use;
// entries are inserted once and never replaced.
type LambdaCache struct {
	mu      sync.Mutex
	entries map[string]lambdaEntry
}

func NewLambdaCache() *LambdaCache {
	return &LambdaCache{entries: map[string]lambdaEntry{}}
}

// Get parses text, reusing a prior result when one exists.
func (c *LambdaCache) Get(text string) (*core.Lambda, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[text]; ok {
		return entry.lambda, entry.err
	}
	lambda, err := ParseLambda(text)
	c.entries[text] = lambdaEntry{lambda: lambda, err: err}
	return lambda, err
}

// DefaultLambdaCache is the process-wide cache.
var DefaultLambdaCache = NewLambdaCache()
