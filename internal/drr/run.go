package drr

import (
	"github.com/sunholo/apexpr/internal/errors"
	"github.com/sunholo/apexpr/internal/eval"
)

// Run interprets a DRR program (a lambda over the context) and returns the
// populated context. The program text is memoized through the process-wide
// lambda cache; environment frames are released when the run completes.
func Run(programText string) (*Ctx, error) {
	lambda, err := eval.DefaultLambdaCache.Get(programText)
	if err != nil {
		return nil, err
	}
	in := eval.New()
	defer in.EnvMgr().ClearAllFrames()
	ctx := NewCtx()
	if _, err := in.Interpret(lambda, []eval.Value{ctx}); err != nil {
		return nil, err
	}
	if ctx.Source == nil {
		return nil, errors.Valuef("DRR program defined no source pattern")
	}
	return ctx, nil
}
