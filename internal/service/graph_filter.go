package service

import "github.com/vanshika/fintrace/linkgraph/internal/domain"

// DefaultFilter shows every node and every relationship kind.
func DefaultFilter() domain.GraphFilter {
	return domain.GraphFilter{
		ShowUsers:         true,
		ShowTransactions:  true,
		RelationshipKinds: Kinds(),
	}
}

// ApplyFilter returns a new graph holding the nodes that pass the filter and
// the edges whose kind is allowed and whose endpoints both survived. The input
// graph is left untouched and applying the same filter twice is a no-op.
func ApplyFilter(graph domain.GraphData, filter domain.GraphFilter) domain.GraphData {
	out := domain.GraphData{
		Nodes: make([]domain.GraphNode, 0, len(graph.Nodes)),
		Edges: make([]domain.GraphEdge, 0, len(graph.Edges)),
	}

	kept := make(map[string]struct{}, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if !nodeVisible(node, filter) {
			continue
		}
		kept[node.ID] = struct{}{}
		out.Nodes = append(out.Nodes, node)
	}

	allowed := make(map[domain.RelationshipKind]struct{}, len(filter.RelationshipKinds))
	for _, kind := range filter.RelationshipKinds {
		allowed[kind] = struct{}{}
	}

	for _, edge := range graph.Edges {
		if _, ok := allowed[edge.Type]; !ok {
			continue
		}
		if !hasNode(kept, edge.Source) || !hasNode(kept, edge.Target) {
			continue
		}
		out.Edges = append(out.Edges, edge)
	}
	return out
}

func nodeVisible(node domain.GraphNode, filter domain.GraphFilter) bool {
	switch node.Type {
	case domain.NodeTypeUser:
		return filter.ShowUsers
	case domain.NodeTypeTransaction:
		if !filter.ShowTransactions {
			return false
		}
		return transactionVisible(node.Transaction, filter)
	default:
		return false
	}
}

func transactionVisible(tx *domain.Transaction, filter domain.GraphFilter) bool {
	bounded := filter.MinAmount != nil || filter.MaxAmount != nil || filter.DateRange != nil
	if tx == nil {
		return !bounded
	}
	if filter.MinAmount != nil && tx.Amount < *filter.MinAmount {
		return false
	}
	if filter.MaxAmount != nil && tx.Amount > *filter.MaxAmount {
		return false
	}
	if filter.DateRange != nil && !filter.DateRange.Contains(tx.CreatedAt) {
		return false
	}
	return true
}
