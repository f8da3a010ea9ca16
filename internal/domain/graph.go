package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeType discriminates the entity carried by a graph node.
type NodeType string

const (
	NodeTypeUser        NodeType = "user"
	NodeTypeTransaction NodeType = "transaction"
)

// GraphNode is a vertex for either a user or a transaction. Exactly one of
// User and Transaction is set, matching Type.
type GraphNode struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Type        NodeType     `json:"type"`
	User        *User        `json:"user,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Color       string       `json:"color"`
	Size        float64      `json:"size"`
}

// GraphEdge is a directed link tagged with the relationship that produced it.
type GraphEdge struct {
	ID     string           `json:"id"`
	Source string           `json:"source"`
	Target string           `json:"target"`
	Type   RelationshipKind `json:"type"`
	Label  string           `json:"label"`
	Color  string           `json:"color"`
	Weight int              `json:"weight"`
}

// GraphData is the node/edge structure handed to renderers and exporters.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// EdgeID derives the stable identifier of an edge from its endpoints and kind.
func EdgeID(source, target string, kind RelationshipKind) string {
	return source + "-" + target + "-" + string(kind)
}

// EntityRef points at a single user or transaction.
type EntityRef struct {
	Type NodeType
	ID   int64
}

// NodeID returns the namespaced node identifier of the referenced entity.
func (r EntityRef) NodeID() string {
	return string(r.Type) + "-" + strconv.FormatInt(r.ID, 10)
}

// ParseNodeID splits a namespaced node identifier such as "user-42".
func ParseNodeID(nodeID string) (EntityRef, error) {
	idx := strings.LastIndex(nodeID, "-")
	if idx <= 0 || idx == len(nodeID)-1 {
		return EntityRef{}, fmt.Errorf("malformed node id %q", nodeID)
	}
	nodeType := NodeType(nodeID[:idx])
	if nodeType != NodeTypeUser && nodeType != NodeTypeTransaction {
		return EntityRef{}, fmt.Errorf("unknown node type in %q", nodeID)
	}
	id, err := strconv.ParseInt(nodeID[idx+1:], 10, 64)
	if err != nil {
		return EntityRef{}, fmt.Errorf("invalid numeric id in %q: %w", nodeID, err)
	}
	return EntityRef{Type: nodeType, ID: id}, nil
}
