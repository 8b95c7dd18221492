package handler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kscst/training-portal/internal/api/metrics"
)

// Section is one independently loaded part of a dashboard. A failed section
// carries its error message and leaves the rest of the page intact.
type Section[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
}

// sectionLoader fetches dashboard sections concurrently. Sections never fail
// the group, so one slow or broken backend call does not cancel the others.
type sectionLoader struct {
	ctx       context.Context
	dashboard string
	g         errgroup.Group
}

func newSectionLoader(ctx context.Context, dashboard string) *sectionLoader {
	return &sectionLoader{ctx: ctx, dashboard: dashboard}
}

func loadSection[T any](l *sectionLoader, name string, dst *Section[T], fetch func(context.Context) (T, error)) {
	l.g.Go(func() error {
		data, err := fetch(l.ctx)
		if err != nil {
			dst.Error = err.Error()
			metrics.DashboardSectionErrorsTotal.WithLabelValues(l.dashboard, name).Inc()
			return nil
		}
		dst.Data = data
		return nil
	})
}

// wait blocks until every section has finished.
func (l *sectionLoader) wait() {
	_ = l.g.Wait()
}
