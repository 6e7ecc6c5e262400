package domain

// GraphNode is one document of the continuity graph. Exactly one of the
// payload fields is set, matching Kind.
type GraphNode struct {
	Kind      NodeKind       `json:"kind"`
	ID        string         `json:"id"`
	Character *Character     `json:"character,omitempty"`
	Location  *Location      `json:"location,omitempty"`
	Prop      *Prop          `json:"prop,omitempty"`
	Script    *ScriptSummary `json:"script,omitempty"`
	Timeline  *TimelineEntry `json:"timeline,omitempty"`
}

// GraphEdge is derived from embedded records; it is never stored.
type GraphEdge struct {
	Type     EdgeType          `json:"type"`
	From     string            `json:"from"`
	To       string            `json:"to"`
	Metadata map[string]string `json:"metadata"`
}

// Graph is a point-in-time snapshot of one series. Edges are not deduplicated.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// SearchResult is one type-tagged hit of the knowledge-base search.
type SearchResult struct {
	Type      SearchResultType `json:"type"`
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Character *Character       `json:"character,omitempty"`
	Location  *Location        `json:"location,omitempty"`
	Prop      *Prop            `json:"prop,omitempty"`
	Timeline  *TimelineEntry   `json:"timeline,omitempty"`
	WildCard  *WildCard        `json:"wildcard,omitempty"`
}
