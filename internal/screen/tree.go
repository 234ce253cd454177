package screen

import (
	"context"

	"github.com/mj1618/iphone-cli/internal/wda"
)

// Elements reads the element tree and returns the interactive nodes
// normalized into g's pixel frame, in document order.
func (p *Pipeline) Elements(ctx context.Context, g ScreenGeometry) ([]Element, error) {
	root, err := p.dev.Source(ctx)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	return FlattenInteractive(root, g), nil
}

// RawTree returns the decoded tree untouched, for callers that want to see
// what the endpoint actually said.
func (p *Pipeline) RawTree(ctx context.Context) (*wda.RawElement, error) {
	root, err := p.dev.Source(ctx)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	return root, nil
}

// Find searches the screen for text and returns the hits in the pixel
// frame. The geometry comes from the cache when warm, otherwise one device
// query.
func (p *Pipeline) Find(ctx context.Context, text string, limit int) ([]Element, error) {
	g, err := p.Geometry(ctx)
	if err != nil {
		return nil, err
	}
	found, err := p.dev.FindByText(ctx, text, limit)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	els := make([]Element, 0, len(found))
	for _, f := range found {
		els = append(els, FromFound(f, g))
	}
	return els, nil
}
