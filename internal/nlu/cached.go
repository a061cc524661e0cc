package nlu

import (
	"context"
	"strings"

	"finanzas/internal/cache"
)

// CachedClassifier memoises successful classifications keyed by the text
// with whitespace collapsed. Case is kept since entity bodies echo it.
type CachedClassifier struct {
	next  Classifier
	cache cache.Cache[*Response]
}

var _ Classifier = (*CachedClassifier)(nil)

func NewCachedClassifier(next Classifier, c cache.Cache[*Response]) *CachedClassifier {
	return &CachedClassifier{next: next, cache: c}
}

func (c *CachedClassifier) Classify(ctx context.Context, text string) (*Response, error) {
	key := strings.Join(strings.Fields(text), " ")
	if resp, ok := c.cache.Get(key); ok {
		return resp, nil
	}

	resp, err := c.next.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, resp)
	return resp, nil
}
