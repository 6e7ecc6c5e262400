package knowledge

import (
	"context"
	"fmt"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

// CanvasEdgeEndpoints rejects edges whose source or target is not a canvas
// node of the edge's series.
func CanvasEdgeEndpoints(nodes existenceChecker) Option[*domain.CanvasEdge] {
	return WithReferenceCheck(func(ctx context.Context, e *domain.CanvasEdge) error {
		found, err := nodes.Existing(ctx, e.SeriesID, []string{e.SourceID, e.TargetID})
		if err != nil {
			return fmt.Errorf("check canvas nodes: %w", err)
		}
		for _, id := range []string{e.SourceID, e.TargetID} {
			if !found[id] {
				return domain.NotFoundError("canvas node", id)
			}
		}
		return nil
	})
}
