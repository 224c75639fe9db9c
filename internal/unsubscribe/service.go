package unsubscribe

import (
	"context"

	"mail-unsubscriber/internal/models"

	"golang.org/x/sync/errgroup"
)

type Service struct {
	dispatcher  Dispatcher
	concurrency int
}

// NewService creates a Service that keeps at most concurrency requests in flight
func NewService(dispatcher Dispatcher, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		dispatcher:  dispatcher,
		concurrency: concurrency,
	}
}

// DispatchAll attempts every URL once. Results are returned in the order of urls;
// a failing URL never prevents the others from being attempted.
// Once ctx is cancelled no new request starts. URLs that did not complete are left
// out of the results and the context error is returned.
func (s *Service) DispatchAll(ctx context.Context, urls []string) ([]models.DispatchResult, error) {
	results := make([]models.DispatchResult, len(urls))
	completed := make([]bool, len(urls))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, url := range urls {
		if ctx.Err() != nil {
			break
		}
		i, url := i, url
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			result := s.dispatcher.Attempt(ctx, url)
			if result.Outcome == models.OutcomeNetworkError && ctx.Err() != nil {
				return nil
			}
			results[i] = result
			completed[i] = true
			return nil
		})
	}
	_ = g.Wait()

	attempted := make([]models.DispatchResult, 0, len(urls))
	for i := range urls {
		if completed[i] {
			attempted = append(attempted, results[i])
		}
	}
	if len(attempted) < len(urls) {
		return attempted, ctx.Err()
	}
	return attempted, nil
}
