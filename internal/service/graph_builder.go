package service

import "github.com/vanshika/fintrace/linkgraph/internal/domain"

// BuildGraph turns users and transactions into a graph of typed nodes, transfer
// edges and shared-attribute edges. Output order follows input order, so the
// same input always yields the same graph.
//
// Shared-attribute edges come from comparing every unordered pair of users and
// every unordered pair of transactions, which is O(U² + T²). That is a
// deliberate limit for in-memory datasets in the thousands. A faster variant
// that indexes by attribute value must keep the exact same edge set and order.
//
// A later entity reusing an id already seen is skipped. Transfer edges are only
// emitted when the counterpart user has a node in this graph.
func BuildGraph(users []domain.User, txs []domain.Transaction) domain.GraphData {
	users = uniqueUsers(users)
	txs = uniqueTransactions(txs)

	graph := domain.GraphData{
		Nodes: make([]domain.GraphNode, 0, len(users)+len(txs)),
		Edges: make([]domain.GraphEdge, 0, 2*len(txs)),
	}

	userNodes := make(map[string]struct{}, len(users))
	for i := range users {
		node := userNode(&users[i])
		userNodes[node.ID] = struct{}{}
		graph.Nodes = append(graph.Nodes, node)
	}

	for i := range txs {
		tx := &txs[i]
		node := transactionNode(tx)
		graph.Nodes = append(graph.Nodes, node)

		if tx.Sender != nil {
			if senderID := tx.Sender.NodeID(); hasNode(userNodes, senderID) {
				graph.Edges = append(graph.Edges, newEdge(senderID, node.ID, domain.RelSent))
			}
		}
		if tx.Recipient != nil {
			if recipientID := tx.Recipient.NodeID(); hasNode(userNodes, recipientID) {
				graph.Edges = append(graph.Edges, newEdge(node.ID, recipientID, domain.RelReceived))
			}
		}
	}

	graph.Edges = appendUserAttributeEdges(graph.Edges, users)
	graph.Edges = appendTransactionAttributeEdges(graph.Edges, txs)
	return graph
}

func appendUserAttributeEdges(edges []domain.GraphEdge, users []domain.User) []domain.GraphEdge {
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			for _, rule := range userAttributeRules {
				if _, ok := sharedValue(rule.extract(users[i]), rule.extract(users[j])); ok {
					edges = append(edges, newEdge(users[i].NodeID(), users[j].NodeID(), rule.kind))
				}
			}
		}
	}
	return edges
}

func appendTransactionAttributeEdges(edges []domain.GraphEdge, txs []domain.Transaction) []domain.GraphEdge {
	for i := 0; i < len(txs); i++ {
		for j := i + 1; j < len(txs); j++ {
			for _, rule := range transactionAttributeRules {
				if _, ok := sharedValue(rule.extract(txs[i]), rule.extract(txs[j])); ok {
					edges = append(edges, newEdge(txs[i].NodeID(), txs[j].NodeID(), rule.kind))
				}
			}
		}
	}
	return edges
}

func newEdge(source, target string, kind domain.RelationshipKind) domain.GraphEdge {
	rule := Rule(kind)
	return domain.GraphEdge{
		ID:     domain.EdgeID(source, target, kind),
		Source: source,
		Target: target,
		Type:   kind,
		Label:  rule.Label,
		Color:  rule.Color,
		Weight: rule.Weight,
	}
}

func userNode(u *domain.User) domain.GraphNode {
	return domain.GraphNode{
		ID:    u.NodeID(),
		Label: u.FirstName + " " + u.LastName,
		Type:  domain.NodeTypeUser,
		User:  u,
		Color: userNodeColor,
		Size:  userNodeSize,
	}
}

func transactionNode(tx *domain.Transaction) domain.GraphNode {
	return domain.GraphNode{
		ID:          tx.NodeID(),
		Label:       transactionLabel(*tx),
		Type:        domain.NodeTypeTransaction,
		Transaction: tx,
		Color:       transactionNodeColor(tx.Amount),
		Size:        transactionNodeSize(tx.Amount),
	}
}

func hasNode(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}

func uniqueUsers(users []domain.User) []domain.User {
	seen := make(map[int64]struct{}, len(users))
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}

func uniqueTransactions(txs []domain.Transaction) []domain.Transaction {
	seen := make(map[int64]struct{}, len(txs))
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if _, dup := seen[tx.ID]; dup {
			continue
		}
		seen[tx.ID] = struct{}{}
		out = append(out, tx)
	}
	return out
}
