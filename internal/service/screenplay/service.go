// Package screenplay manages the scripts of a series and the numbered scenes
// of each script.
package screenplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/storybible-backend/internal/domain"
	"github.com/heartmarshall/storybible-backend/pkg/ctxutil"
)

type seriesRepo interface {
	Exists(ctx context.Context, id string) (bool, error)
	Touch(ctx context.Context, id string, at time.Time) error
}

type scriptRepo interface {
	Create(ctx context.Context, s *domain.Script) (*domain.Script, error)
	GetByID(ctx context.Context, seriesID, id string) (*domain.Script, error)
	Update(ctx context.Context, s *domain.Script) (*domain.Script, error)
	NextSceneNumber(ctx context.Context, seriesID, id string) (int, error)
	Touch(ctx context.Context, seriesID, id string, at time.Time) error
	Delete(ctx context.Context, seriesID, id string) error
	ListSummaries(ctx context.Context, seriesID string, limit, offset int) ([]domain.ScriptSummary, int, error)
}

type sceneRepo interface {
	Create(ctx context.Context, s *domain.Scene) (*domain.Scene, error)
	GetByID(ctx context.Context, seriesID, id string) (*domain.Scene, error)
	Update(ctx context.Context, s *domain.Scene) (*domain.Scene, error)
	Delete(ctx context.Context, seriesID, id string) error
	ListByScript(ctx context.Context, seriesID, scriptID string, limit, offset int) ([]domain.Scene, int, error)
}

type existenceChecker interface {
	Existing(ctx context.Context, seriesID string, ids []string) (map[string]bool, error)
}

type auditLog interface {
	Append(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// References resolves the documents a scene may point at.
type References struct {
	Characters existenceChecker
	Props      existenceChecker
	Locations  existenceChecker
}

const defaultMaxRetries = 3

// Service provides script and scene operations.
type Service struct {
	series     seriesRepo
	scripts    scriptRepo
	scenes     sceneRepo
	refs       References
	audit      auditLog
	tx         txManager
	log        *slog.Logger
	maxRetries int
	now        func() time.Time
}

// NewService creates a new Screenplay service. A non-positive maxRetries
// falls back to three attempts.
func NewService(
	log *slog.Logger,
	series seriesRepo,
	scripts scriptRepo,
	scenes sceneRepo,
	refs References,
	audit auditLog,
	tx txManager,
	maxRetries int,
) *Service {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Service{
		series:     series,
		scripts:    scripts,
		scenes:     scenes,
		refs:       refs,
		audit:      audit,
		tx:         tx,
		log:        log.With("service", "screenplay"),
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ensureSeries(ctx context.Context, seriesID string) error {
	ok, err := s.series.Exists(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("check series: %w", err)
	}
	if !ok {
		return domain.NotFoundError("series", seriesID)
	}
	return nil
}

// retry reruns fn while it fails with a revision conflict.
func (s *Service) retry(ctx context.Context, id string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrConflict) || attempt >= s.maxRetries {
			return err
		}
		s.log.DebugContext(ctx, "revision conflict, retrying",
			slog.String("id", id),
			slog.Int("attempt", attempt),
		)
	}
}

// touch stamps LastEditedAt on the script (when scriptID is set) and then on
// the series. The writes are sequential and follow an already committed
// primary write, so a failure is logged and leaves the timestamps stale.
func (s *Service) touch(ctx context.Context, seriesID, scriptID string) {
	at := s.now()
	if scriptID != "" {
		if err := s.scripts.Touch(ctx, seriesID, scriptID, at); err != nil {
			s.log.WarnContext(ctx, "touch script failed",
				slog.String("script_id", scriptID),
				slog.String("error", err.Error()),
			)
			return
		}
	}
	if err := s.series.Touch(ctx, seriesID, at); err != nil {
		s.log.WarnContext(ctx, "touch series failed",
			slog.String("series_id", seriesID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) record(ctx context.Context, et domain.EntityType, m domain.Meta, action domain.AuditAction, before, after any) error {
	entry, err := domain.NewAuditEntry(m.SeriesID, et, m.ID, action, ctxutil.ActorIDFromCtx(ctx), before, after)
	if err != nil {
		return err
	}
	if _, err := s.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}
