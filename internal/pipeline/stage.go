package pipeline

import (
	"context"
	"fmt"
)

// Stage is one step of the transformation chain. Apply inspects the current
// request and may rewrite Path, Type or Body in place. Returning an error
// stops the chain for this request.
type Stage interface {
	Name() string
	Apply(ctx context.Context, req *Request) error
}

// StageFunc adapts a function into a Stage.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, req *Request) error
}

func (f StageFunc) Name() string { return f.StageName }

func (f StageFunc) Apply(ctx context.Context, req *Request) error {
	return f.Fn(ctx, req)
}

// Chain is an ordered list of stages.
type Chain []Stage

// Run applies each stage in order and stops at the first error, which is
// returned wrapped with the failing stage's name.
func (c Chain) Run(ctx context.Context, req *Request) error {
	for _, s := range c {
		if err := s.Apply(ctx, req); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return nil
}
