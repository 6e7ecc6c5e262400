package knowledge

import (
	"context"
	"sync"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

var _ collection[*domain.Character] = &collectionMock[*domain.Character]{}

type collectionMock[T domain.Entity] struct {
	InsertFunc   func(ctx context.Context, v T) (T, error)
	GetFunc      func(ctx context.Context, seriesID string, id string) (T, error)
	UpdateFunc   func(ctx context.Context, v T) (T, error)
	DeleteFunc   func(ctx context.Context, seriesID string, id string) error
	ListFunc     func(ctx context.Context, seriesID string, limit int, offset int) ([]T, int, error)
	ExistingFunc func(ctx context.Context, seriesID string, ids []string) (map[string]bool, error)

	calls struct {
		Insert []struct {
			Ctx context.Context
			V   T
		}
		Get []struct {
			Ctx      context.Context
			SeriesID string
			ID       string
		}
		Update []struct {
			Ctx context.Context
			V   T
		}
		Delete []struct {
			Ctx      context.Context
			SeriesID string
			ID       string
		}
		List []struct {
			Ctx      context.Context
			SeriesID string
			Limit    int
			Offset   int
		}
		Existing []struct {
			Ctx      context.Context
			SeriesID string
			Ids      []string
		}
	}
	lockInsert   sync.RWMutex
	lockGet      sync.RWMutex
	lockUpdate   sync.RWMutex
	lockDelete   sync.RWMutex
	lockList     sync.RWMutex
	lockExisting sync.RWMutex
}

func (mock *collectionMock[T]) Insert(ctx context.Context, v T) (T, error) {
	if mock.InsertFunc == nil {
		panic("collectionMock.InsertFunc: method is nil but collection.Insert was just called")
	}
	callInfo := struct {
		Ctx context.Context
		V   T
	}{Ctx: ctx, V: v}
	mock.lockInsert.Lock()
	mock.calls.Insert = append(mock.calls.Insert, callInfo)
	mock.lockInsert.Unlock()
	return mock.InsertFunc(ctx, v)
}

func (mock *collectionMock[T]) InsertCalls() []struct {
	Ctx context.Context
	V   T
} {
	mock.lockInsert.RLock()
	calls := mock.calls.Insert
	mock.lockInsert.RUnlock()
	return calls
}

func (mock *collectionMock[T]) Get(ctx context.Context, seriesID string, id string) (T, error) {
	if mock.GetFunc == nil {
		panic("collectionMock.GetFunc: method is nil but collection.Get was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		SeriesID string
		ID       string
	}{Ctx: ctx, SeriesID: seriesID, ID: id}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, callInfo)
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, seriesID, id)
}

func (mock *collectionMock[T]) GetCalls() []struct {
	Ctx      context.Context
	SeriesID string
	ID       string
} {
	mock.lockGet.RLock()
	calls := mock.calls.Get
	mock.lockGet.RUnlock()
	return calls
}

func (mock *collectionMock[T]) Update(ctx context.Context, v T) (T, error) {
	if mock.UpdateFunc == nil {
		panic("collectionMock.UpdateFunc: method is nil but collection.Update was just called")
	}
	callInfo := struct {
		Ctx context.Context
		V   T
	}{Ctx: ctx, V: v}
	mock.lockUpdate.Lock()
	mock.calls.Update = append(mock.calls.Update, callInfo)
	mock.lockUpdate.Unlock()
	return mock.UpdateFunc(ctx, v)
}

func (mock *collectionMock[T]) UpdateCalls() []struct {
	Ctx context.Context
	V   T
} {
	mock.lockUpdate.RLock()
	calls := mock.calls.Update
	mock.lockUpdate.RUnlock()
	return calls
}

func (mock *collectionMock[T]) Delete(ctx context.Context, seriesID string, id string) error {
	if mock.DeleteFunc == nil {
		panic("collectionMock.DeleteFunc: method is nil but collection.Delete was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		SeriesID string
		ID       string
	}{Ctx: ctx, SeriesID: seriesID, ID: id}
	mock.lockDelete.Lock()
	mock.calls.Delete = append(mock.calls.Delete, callInfo)
	mock.lockDelete.Unlock()
	return mock.DeleteFunc(ctx, seriesID, id)
}

func (mock *collectionMock[T]) DeleteCalls() []struct {
	Ctx      context.Context
	SeriesID string
	ID       string
} {
	mock.lockDelete.RLock()
	calls := mock.calls.Delete
	mock.lockDelete.RUnlock()
	return calls
}

func (mock *collectionMock[T]) List(ctx context.Context, seriesID string, limit int, offset int) ([]T, int, error) {
	if mock.ListFunc == nil {
		panic("collectionMock.ListFunc: method is nil but collection.List was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		SeriesID string
		Limit    int
		Offset   int
	}{Ctx: ctx, SeriesID: seriesID, Limit: limit, Offset: offset}
	mock.lockList.Lock()
	mock.calls.List = append(mock.calls.List, callInfo)
	mock.lockList.Unlock()
	return mock.ListFunc(ctx, seriesID, limit, offset)
}

func (mock *collectionMock[T]) ListCalls() []struct {
	Ctx      context.Context
	SeriesID string
	Limit    int
	Offset   int
} {
	mock.lockList.RLock()
	calls := mock.calls.List
	mock.lockList.RUnlock()
	return calls
}

func (mock *collectionMock[T]) Existing(ctx context.Context, seriesID string, ids []string) (map[string]bool, error) {
	if mock.ExistingFunc == nil {
		panic("collectionMock.ExistingFunc: method is nil but collection.Existing was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		SeriesID string
		Ids      []string
	}{Ctx: ctx, SeriesID: seriesID, Ids: ids}
	mock.lockExisting.Lock()
	mock.calls.Existing = append(mock.calls.Existing, callInfo)
	mock.lockExisting.Unlock()
	return mock.ExistingFunc(ctx, seriesID, ids)
}

func (mock *collectionMock[T]) ExistingCalls() []struct {
	Ctx      context.Context
	SeriesID string
	Ids      []string
} {
	mock.lockExisting.RLock()
	calls := mock.calls.Existing
	mock.lockExisting.RUnlock()
	return calls
}
