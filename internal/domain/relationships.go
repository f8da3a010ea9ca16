package domain

// RelationshipKind names why two nodes are linked.
type RelationshipKind string

const (
	RelSent              RelationshipKind = "SENT"
	RelReceived          RelationshipKind = "RECEIVED"
	RelSharesEmail       RelationshipKind = "SHARES_EMAIL"
	RelSharesPhone       RelationshipKind = "SHARES_PHONE"
	RelSharesAddress     RelationshipKind = "SHARES_ADDRESS"
	RelSameDevice        RelationshipKind = "SAME_DEVICE"
	RelSameIP            RelationshipKind = "SAME_IP"
	RelSamePaymentMethod RelationshipKind = "SAME_PAYMENT_METHOD"
)

// Connection summarizes every relationship between a looked-up entity and one
// related entity. Kinds keeps discovery order; SharedValues holds the value
// that justifies each kind.
type Connection struct {
	Type         NodeType                    `json:"type"`
	User         *User                       `json:"user,omitempty"`
	Transaction  *Transaction                `json:"transaction,omitempty"`
	Kinds        []RelationshipKind          `json:"relationshipTypes"`
	SharedValues map[RelationshipKind]string `json:"sharedValues"`
}

// HasKind reports whether the connection includes the given relationship.
func (c Connection) HasKind(kind RelationshipKind) bool {
	for _, k := range c.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
