package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/storybible-backend/internal/adapter/blob"
	blobmemory "github.com/heartmarshall/storybible-backend/internal/adapter/blob/memory"
	blobs3 "github.com/heartmarshall/storybible-backend/internal/adapter/blob/s3"
	"github.com/heartmarshall/storybible-backend/internal/config"
	"github.com/heartmarshall/storybible-backend/internal/domain"
	"github.com/heartmarshall/storybible-backend/internal/service/asset"
	auditsvc "github.com/heartmarshall/storybible-backend/internal/service/audit"
	"github.com/heartmarshall/storybible-backend/internal/service/continuity"
	"github.com/heartmarshall/storybible-backend/internal/service/knowledge"
	"github.com/heartmarshall/storybible-backend/internal/service/screenplay"
	"github.com/heartmarshall/storybible-backend/internal/service/search"
	seriessvc "github.com/heartmarshall/storybible-backend/internal/service/series"
)

// Services is the full operation surface of the engine, built over one
// storage driver and one blob driver.
type Services struct {
	Series     *seriessvc.Service
	Screenplay *screenplay.Service

	Characters  *knowledge.CRUD[*domain.Character, domain.CharacterPatch]
	Locations   *knowledge.CRUD[*domain.Location, domain.LocationPatch]
	Props       *knowledge.CRUD[*domain.Prop, domain.PropPatch]
	Timeline    *knowledge.CRUD[*domain.TimelineEntry, domain.TimelineEntryPatch]
	WildCards   *knowledge.CRUD[*domain.WildCard, domain.WildCardPatch]
	Themes      *knowledge.CRUD[*domain.Theme, domain.ThemePatch]
	StoryArcs   *knowledge.CRUD[*domain.StoryArc, domain.StoryArcPatch]
	CanvasNodes *knowledge.CRUD[*domain.CanvasNode, domain.CanvasNodePatch]
	CanvasEdges *knowledge.CRUD[*domain.CanvasEdge, domain.CanvasEdgePatch]
	Editor      *knowledge.CharacterEditor

	Continuity *continuity.Builder
	Search     *search.Service
	Audit      *auditsvc.Reader
	Assets     *asset.Service
}

// Open connects the configured drivers and builds every service. The returned
// cleanup releases the storage driver and must be called once.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*Services, func(), error) {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	blobs, err := openBlob(ctx, cfg.Blob)
	if err != nil {
		b.close()
		return nil, nil, err
	}

	log.InfoContext(ctx, "storage ready",
		slog.String("storage", cfg.Storage.Driver),
		slog.String("blob", string(blobs.Driver())),
	)
	return build(b, blobs, cfg, log), b.close, nil
}

func build(b *backend, blobs blob.Store, cfg config.Config, log *slog.Logger) *Services {
	deps := knowledge.Deps{
		Log:        log,
		Series:     b.series,
		Audit:      b.audit,
		Tx:         b.tx,
		MaxRetries: cfg.Knowledge.MaxRetries,
	}

	svc := &Services{
		Series: seriessvc.NewService(log, b.series, b.audit, b.tx),
		Screenplay: screenplay.NewService(log, b.series, b.scripts, b.scenes,
			screenplay.References{Characters: b.characters, Props: b.props, Locations: b.locations},
			b.audit, b.tx, cfg.Knowledge.MaxRetries),

		Characters:  knowledge.NewCRUD[*domain.Character, domain.CharacterPatch](domain.CharacterKind, b.characters, deps),
		Locations:   knowledge.NewCRUD[*domain.Location, domain.LocationPatch](domain.LocationKind, b.locations, deps),
		Props:       knowledge.NewCRUD[*domain.Prop, domain.PropPatch](domain.PropKind, b.props, deps),
		Timeline:    knowledge.NewCRUD[*domain.TimelineEntry, domain.TimelineEntryPatch](domain.TimelineKind, b.timeline, deps),
		WildCards:   knowledge.NewCRUD[*domain.WildCard, domain.WildCardPatch](domain.WildCardKind, b.wildcards, deps),
		Themes:      knowledge.NewCRUD[*domain.Theme, domain.ThemePatch](domain.ThemeKind, b.themes, deps),
		StoryArcs:   knowledge.NewCRUD[*domain.StoryArc, domain.StoryArcPatch](domain.StoryArcKind, b.storyArcs, deps),
		CanvasNodes: knowledge.NewCRUD[*domain.CanvasNode, domain.CanvasNodePatch](domain.CanvasNodeKind, b.canvasNodes, deps),
		CanvasEdges: knowledge.NewCRUD[*domain.CanvasEdge, domain.CanvasEdgePatch](domain.CanvasEdgeKind, b.canvasEdges, deps,
			knowledge.CanvasEdgeEndpoints(b.canvasNodes)),

		Continuity: continuity.NewBuilder(log, b.series, b.characters, b.locations, b.props, b.scripts, b.timeline),
		Search:     search.NewService(log, b.series, b.characters, b.locations, b.props, b.timeline, b.wildcards),
		Audit:      auditsvc.NewReader(log, b.series, b.audit),
	}
	svc.Editor = knowledge.NewCharacterEditor(log, svc.Characters, b.scripts, b.locations)
	svc.Assets = asset.NewService(log, blobs, svc.Locations, svc.Series, cfg.Blob.PresignTTL)
	return svc
}

func openBlob(ctx context.Context, cfg config.BlobConfig) (blob.Store, error) {
	switch cfg.Driver {
	case config.BlobMemory:
		return blobmemory.New(), nil
	case config.BlobS3:
		st, err := blobs3.New(ctx, blobs3.Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			UsePathStyle:    cfg.UsePathStyle,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 blob store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
