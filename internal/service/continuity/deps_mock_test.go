package continuity

import (
	"context"
	"sync"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

var _ seriesChecker = &seriesCheckerMock{}

type seriesCheckerMock struct {
	ExistsFunc func(ctx context.Context, id string) (bool, error)

	calls struct {
		Exists []struct {
			Ctx context.Context
			ID  string
		}
	}
	lockExists sync.RWMutex
}

func (mock *seriesCheckerMock) Exists(ctx context.Context, id string) (bool, error) {
	if mock.ExistsFunc == nil {
		panic("seriesCheckerMock.ExistsFunc: method is nil but seriesChecker.Exists was just called")
	}
	callInfo := struct {
		Ctx context.Context
		ID  string
	}{Ctx: ctx, ID: id}
	mock.lockExists.Lock()
	mock.calls.Exists = append(mock.calls.Exists, callInfo)
	mock.lockExists.Unlock()
	return mock.ExistsFunc(ctx, id)
}

func (mock *seriesCheckerMock) ExistsCalls() []struct {
	Ctx context.Context
	ID  string
} {
	mock.lockExists.RLock()
	calls := mock.calls.Exists
	mock.lockExists.RUnlock()
	return calls
}

var _ lister[*domain.Prop] = &listerMock[*domain.Prop]{}

type listerMock[T any] struct {
	AllFunc func(ctx context.Context, seriesID string) ([]T, error)

	calls struct {
		All []struct {
			Ctx      context.Context
			SeriesID string
		}
	}
	lockAll sync.RWMutex
}

func (mock *listerMock[T]) All(ctx context.Context, seriesID string) ([]T, error) {
	if mock.AllFunc == nil {
		panic("listerMock.AllFunc: method is nil but lister.All was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		SeriesID string
	}{Ctx: ctx, SeriesID: seriesID}
	mock.lockAll.Lock()
	mock.calls.All = append(mock.calls.All, callInfo)
	mock.lockAll.Unlock()
	return mock.AllFunc(ctx, seriesID)
}

func (mock *listerMock[T]) AllCalls() []struct {
	Ctx      context.Context
	SeriesID string
} {
	mock.lockAll.RLock()
	calls := mock.calls.All
	mock.lockAll.RUnlock()
	return calls
}

var _ scriptLister = &scriptListerMock{}

type scriptListerMock struct {
	AllSummariesFunc func(ctx context.Context, seriesID string) ([]domain.ScriptSummary, error)

	calls struct {
		AllSummaries []struct {
			Ctx      context.Context
			SeriesID string
		}
	}
	lockAllSummaries sync.RWMutex
}

func (mock *scriptListerMock) AllSummaries(ctx context.Context, seriesID string) ([]domain.ScriptSummary, error) {
	if mock.AllSummariesFunc == nil {
		panic("scriptListerMock.AllSummariesFunc: method is nil but scriptLister.AllSummaries was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		SeriesID string
	}{Ctx: ctx, SeriesID: seriesID}
	mock.lockAllSummaries.Lock()
	mock.calls.AllSummaries = append(mock.calls.AllSummaries, callInfo)
	mock.lockAllSummaries.Unlock()
	return mock.AllSummariesFunc(ctx, seriesID)
}

func (mock *scriptListerMock) AllSummariesCalls() []struct {
	Ctx      context.Context
	SeriesID string
} {
	mock.lockAllSummaries.RLock()
	calls := mock.calls.AllSummaries
	mock.lockAllSummaries.RUnlock()
	return calls
}
