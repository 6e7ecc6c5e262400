package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/storybible-backend/internal/adapter/memory"
	"github.com/heartmarshall/storybible-backend/internal/adapter/postgres"
	auditrepo "github.com/heartmarshall/storybible-backend/internal/adapter/postgres/audit"
	"github.com/heartmarshall/storybible-backend/internal/adapter/postgres/document"
	scenerepo "github.com/heartmarshall/storybible-backend/internal/adapter/postgres/scene"
	scriptrepo "github.com/heartmarshall/storybible-backend/internal/adapter/postgres/script"
	seriesrepo "github.com/heartmarshall/storybible-backend/internal/adapter/postgres/series"
	"github.com/heartmarshall/storybible-backend/internal/adapter/sqlite"
	"github.com/heartmarshall/storybible-backend/internal/config"
	"github.com/heartmarshall/storybible-backend/internal/domain"
)

type docStore[T domain.Entity] interface {
	Insert(ctx context.Context, v T) (T, error)
	Get(ctx context.Context, seriesID, id string) (T, error)
	Update(ctx context.Context, v T) (T, error)
	Delete(ctx context.Context, seriesID, id string) error
	List(ctx context.Context, seriesID string, limit, offset int) ([]T, int, error)
	All(ctx context.Context, seriesID string) ([]T, error)
	Search(ctx context.Context, seriesID, query string) ([]T, error)
	Existing(ctx context.Context, seriesID string, ids []string) (map[string]bool, error)
}

type seriesStore interface {
	Create(ctx context.Context, s *domain.Series) (*domain.Series, error)
	GetByID(ctx context.Context, id string) (*domain.Series, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, s *domain.Series) (*domain.Series, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]domain.Series, int, error)
}

type scriptStore interface {
	Create(ctx context.Context, s *domain.Script) (*domain.Script, error)
	GetByID(ctx context.Context, seriesID, id string) (*domain.Script, error)
	Update(ctx context.Context, s *domain.Script) (*domain.Script, error)
	NextSceneNumber(ctx context.Context, seriesID, id string) (int, error)
	Touch(ctx context.Context, seriesID, id string, at time.Time) error
	Delete(ctx context.Context, seriesID, id string) error
	ListSummaries(ctx context.Context, seriesID string, limit, offset int) ([]domain.ScriptSummary, int, error)
	AllSummaries(ctx context.Context, seriesID string) ([]domain.ScriptSummary, error)
}

type sceneStore interface {
	Create(ctx context.Context, s *domain.Scene) (*domain.Scene, error)
	GetByID(ctx context.Context, seriesID, id string) (*domain.Scene, error)
	Update(ctx context.Context, s *domain.Scene) (*domain.Scene, error)
	Delete(ctx context.Context, seriesID, id string) error
	ListByScript(ctx context.Context, seriesID, scriptID string, limit, offset int) ([]domain.Scene, int, error)
}

type auditStore interface {
	Append(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error)
	List(ctx context.Context, f domain.AuditFilter, limit, offset int) ([]domain.AuditEntry, int, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// backend is one storage driver's set of repositories.
type backend struct {
	tx      txRunner
	series  seriesStore
	scripts scriptStore
	scenes  sceneStore
	audit   auditStore

	characters  docStore[*domain.Character]
	locations   docStore[*domain.Location]
	props       docStore[*domain.Prop]
	timeline    docStore[*domain.TimelineEntry]
	wildcards   docStore[*domain.WildCard]
	themes      docStore[*domain.Theme]
	storyArcs   docStore[*domain.StoryArc]
	canvasNodes docStore[*domain.CanvasNode]
	canvasEdges docStore[*domain.CanvasEdge]

	close func()
}

func openBackend(ctx context.Context, cfg config.Config, log *slog.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		return postgresBackend(ctx, cfg.Database, log)
	case config.StorageMemory:
		return memoryBackend(memory.New()), nil
	case config.StorageSQLite:
		st, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		b := memoryBackend(st.Store)
		b.close = func() {
			if err := st.Close(); err != nil {
				log.Error("close sqlite store", slog.String("error", err.Error()))
			}
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func postgresBackend(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*backend, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &backend{
		tx:      postgres.NewTxManager(pool),
		series:  seriesrepo.New(pool),
		scripts: scriptrepo.New(pool),
		scenes:  scenerepo.New(pool),
		audit:   auditrepo.New(pool),

		characters:  document.New(pool, domain.CharacterKind),
		locations:   document.New(pool, domain.LocationKind),
		props:       document.New(pool, domain.PropKind),
		timeline:    document.New(pool, domain.TimelineKind),
		wildcards:   document.New(pool, domain.WildCardKind),
		themes:      document.New(pool, domain.ThemeKind),
		storyArcs:   document.New(pool, domain.StoryArcKind),
		canvasNodes: document.New(pool, domain.CanvasNodeKind),
		canvasEdges: document.New(pool, domain.CanvasEdgeKind),

		close: pool.Close,
	}, nil
}

func memoryBackend(st *memory.Store) *backend {
	return &backend{
		tx:      st,
		series:  st.Series(),
		scripts: st.Scripts(),
		scenes:  st.Scenes(),
		audit:   st.Audit(),

		characters:  memory.NewCollection(st, domain.CharacterKind),
		locations:   memory.NewCollection(st, domain.LocationKind),
		props:       memory.NewCollection(st, domain.PropKind),
		timeline:    memory.NewCollection(st, domain.TimelineKind),
		wildcards:   memory.NewCollection(st, domain.WildCardKind),
		themes:      memory.NewCollection(st, domain.ThemeKind),
		storyArcs:   memory.NewCollection(st, domain.StoryArcKind),
		canvasNodes: memory.NewCollection(st, domain.CanvasNodeKind),
		canvasEdges: memory.NewCollection(st, domain.CanvasEdgeKind),

		close: func() {},
	}
}
