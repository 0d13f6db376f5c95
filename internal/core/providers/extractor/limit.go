package extractor

import (
	"context"

	"golang.org/x/sync/semaphore"

	platformerrors "trulogo-server-go/internal/platform/errors"
)

// limited bounds concurrent embedding calls so one slow inference cannot
// starve the process of workers. Requests queue on the semaphore; there is
// no cancellation propagation beyond the caller's context.
type limited struct {
	inner Provider
	sem   *semaphore.Weighted
}

// Limited wraps a provider so at most n embedding calls run concurrently.
func Limited(inner Provider, n int64) Provider {
	if n <= 0 {
		n = 4
	}
	return &limited{inner: inner, sem: semaphore.NewWeighted(n)}
}

func (l *limited) acquire(ctx context.Context, op string) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return platformerrors.Wrap(platformerrors.KindExtraction, op,
			"waiting for extraction slot", err)
	}
	return nil
}

func (l *limited) EmbedImage(ctx context.Context, data []byte) (Vector, error) {
	if err := l.acquire(ctx, "extractor.embed_image"); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)
	return l.inner.EmbedImage(ctx, data)
}

func (l *limited) EmbedText(ctx context.Context, text string) (Vector, error) {
	if err := l.acquire(ctx, "extractor.embed_text"); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)
	return l.inner.EmbedText(ctx, text)
}

func (l *limited) EmbedTextAsVisualConcept(ctx context.Context, text string) (Vector, error) {
	if err := l.acquire(ctx, "extractor.embed_visual_concept"); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)
	return l.inner.EmbedTextAsVisualConcept(ctx, text)
}

func (l *limited) PerceptualHash(data []byte) (string, error) {
	return l.inner.PerceptualHash(data)
}

func (l *limited) Initialize() error { return l.inner.Initialize() }
func (l *limited) Cleanup() error    { return l.inner.Cleanup() }
