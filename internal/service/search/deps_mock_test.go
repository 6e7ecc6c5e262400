package search

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

var _ searcher[*domain.WildCard] = &searcherMock[*domain.WildCard]{}

type searcherMock[T any] struct {
	SearchFunc func(ctx context.Context, seriesID string, query string) ([]T, error)

	calls struct {
		Search []struct {
			Ctx      context.Context
			SeriesID string
			Query    string
		}
	}
	lockSearch sync.RWMutex
}

func (mock *searcherMock[T]) Search(ctx context.Context, seriesID string, query string) ([]T, error) {
	if mock.SearchFunc == nil {
		panic("searcherMock.SearchFunc: method is nil but searcher.Search was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		SeriesID string
		Query    string
	}{Ctx: ctx, SeriesID: seriesID, Query: query}
	mock.lockSearch.Lock()
	mock.calls.Search = append(mock.calls.Search, callInfo)
	mock.lockSearch.Unlock()
	return mock.SearchFunc(ctx, seriesID, query)
}

func (mock *searcherMock[T]) SearchCalls() []struct {
	Ctx      context.Context
	SeriesID string
	Query    string
} {
	mock.lockSearch.RLock()
	calls := mock.calls.Search
	mock.lockSearch.RUnlock()
	return calls
}
