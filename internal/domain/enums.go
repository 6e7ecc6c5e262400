package domain

// EntityType identifies the kind of persisted entity. It is used in audit entries,
// timeline links and canvas nodes.
type EntityType string

const (
	EntityTypeSeries     EntityType = "series"
	EntityTypeScript     EntityType = "script"
	EntityTypeScene      EntityType = "scene"
	EntityTypeCharacter  EntityType = "character"
	EntityTypeLocation   EntityType = "location"
	EntityTypeProp       EntityType = "prop"
	EntityTypeTimeline   EntityType = "timeline"
	EntityTypeWildCard   EntityType = "wildcard"
	EntityTypeTheme      EntityType = "theme"
	EntityTypeStoryArc   EntityType = "storyarc"
	EntityTypeCanvasNode EntityType = "canvas_node"
	EntityTypeCanvasEdge EntityType = "canvas_edge"
)

func (e EntityType) String() string { return string(e) }

func (e EntityType) IsValid() bool {
	switch e {
	case EntityTypeSeries, EntityTypeScript, EntityTypeScene, EntityTypeCharacter,
		EntityTypeLocation, EntityTypeProp, EntityTypeTimeline, EntityTypeWildCard,
		EntityTypeTheme, EntityTypeStoryArc, EntityTypeCanvasNode, EntityTypeCanvasEdge:
		return true
	}
	return false
}

// AuditAction represents the kind of mutation recorded in the audit trail.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete:
		return true
	}
	return false
}

// ArcStatus is the lifecycle state of a story arc.
type ArcStatus string

const (
	ArcStatusPlanned    ArcStatus = "planned"
	ArcStatusInProgress ArcStatus = "in_progress"
	ArcStatusCompleted  ArcStatus = "completed"
	ArcStatusAbandoned  ArcStatus = "abandoned"
)

func (s ArcStatus) String() string { return string(s) }

func (s ArcStatus) IsValid() bool {
	switch s {
	case ArcStatusPlanned, ArcStatusInProgress, ArcStatusCompleted, ArcStatusAbandoned:
		return true
	}
	return false
}

// NodeKind discriminates continuity graph nodes.
type NodeKind string

const (
	NodeKindCharacter NodeKind = "character"
	NodeKindLocation  NodeKind = "location"
	NodeKindProp      NodeKind = "prop"
	NodeKindScript    NodeKind = "script"
	NodeKindTimeline  NodeKind = "timeline"
)

// EdgeType discriminates derived continuity graph edges.
type EdgeType string

const (
	EdgeTypeRelationship EdgeType = "relationship"
	EdgeTypeAppearance   EdgeType = "appearance"
	EdgeTypeLocationOf   EdgeType = "location-of"
	EdgeTypePropInScene  EdgeType = "prop-in-scene"
)

// SearchResultType discriminates knowledge-base search hits.
type SearchResultType string

const (
	SearchResultCharacter SearchResultType = "character"
	SearchResultLocation  SearchResultType = "location"
	SearchResultProp      SearchResultType = "prop"
	SearchResultTimeline  SearchResultType = "timeline"
	SearchResultWildCard  SearchResultType = "wildcard"
)
