package knowledge

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

var _ auditLog = &auditLogMock{}

type auditLogMock struct {
	AppendFunc func(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error)

	calls struct {
		Append []struct {
			Ctx context.Context
			E   domain.AuditEntry
		}
	}
	lockAppend sync.RWMutex
}

func (mock *auditLogMock) Append(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	if mock.AppendFunc == nil {
		panic("auditLogMock.AppendFunc: method is nil but auditLog.Append was just called")
	}
	callInfo := struct {
		Ctx context.Context
		E   domain.AuditEntry
	}{Ctx: ctx, E: e}
	mock.lockAppend.Lock()
	mock.calls.Append = append(mock.calls.Append, callInfo)
	mock.lockAppend.Unlock()
	return mock.AppendFunc(ctx, e)
}

func (mock *auditLogMock) AppendCalls() []struct {
	Ctx context.Context
	E   domain.AuditEntry
} {
	mock.lockAppend.RLock()
	calls := mock.calls.Append
	mock.lockAppend.RUnlock()
	return calls
}

var _ txManager = &txManagerMock{}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

	calls struct {
		RunInTx []struct {
			Ctx context.Context
			Fn  func(ctx context.Context) error
		}
	}
	lockRunInTx sync.RWMutex
}

func (mock *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mock.RunInTxFunc == nil {
		panic("txManagerMock.RunInTxFunc: method is nil but txManager.RunInTx was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Fn  func(ctx context.Context) error
	}{Ctx: ctx, Fn: fn}
	mock.lockRunInTx.Lock()
	mock.calls.RunInTx = append(mock.calls.RunInTx, callInfo)
	mock.lockRunInTx.Unlock()
	return mock.RunInTxFunc(ctx, fn)
}

func (mock *txManagerMock) RunInTxCalls() []struct {
	Ctx context.Context
	Fn  func(ctx context.Context) error
} {
	mock.lockRunInTx.RLock()
	calls := mock.calls.RunInTx
	mock.lockRunInTx.RUnlock()
	return calls
}
