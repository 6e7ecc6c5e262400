package audit

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

var _ auditRepo = &auditRepoMock{}

type auditRepoMock struct {
	ListFunc func(ctx context.Context, f domain.AuditFilter, limit int, offset int) ([]domain.AuditEntry, int, error)

	calls struct {
		List []struct {
			Ctx    context.Context
			F      domain.AuditFilter
			Limit  int
			Offset int
		}
	}
	lockList sync.RWMutex
}

func (mock *auditRepoMock) List(ctx context.Context, f domain.AuditFilter, limit int, offset int) ([]domain.AuditEntry, int, error) {
	if mock.ListFunc == nil {
		panic("auditRepoMock.ListFunc: method is nil but auditRepo.List was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		F      domain.AuditFilter
		Limit  int
		Offset int
	}{Ctx: ctx, F: f, Limit: limit, Offset: offset}
	mock.lockList.Lock()
	mock.calls.List = append(mock.calls.List, callInfo)
	mock.lockList.Unlock()
	return mock.ListFunc(ctx, f, limit, offset)
}

func (mock *auditRepoMock) ListCalls() []struct {
	Ctx    context.Context
	F      domain.AuditFilter
	Limit  int
	Offset int
} {
	mock.lockList.RLock()
	calls := mock.calls.List
	mock.lockList.RUnlock()
	return calls
}
