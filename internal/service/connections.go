package service

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
)

// FindConnections lists every entity directly related to target, one record
// per related entity with all connecting kinds merged. Peers sharing an
// attribute come first in input order, then transfer counterparts. A target
// that is unknown or unconnected yields an empty slice.
func FindConnections(target domain.EntityRef, users []domain.User, txs []domain.Transaction) []domain.Connection {
	records := orderedmap.New[string, *domain.Connection]()

	switch target.Type {
	case domain.NodeTypeUser:
		collectUserConnections(records, target.ID, users, txs)
	case domain.NodeTypeTransaction:
		collectTransactionConnections(records, target.ID, users, txs)
	}

	out := make([]domain.Connection, 0, records.Len())
	for pair := records.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, *pair.Value)
	}
	return out
}

func collectUserConnections(records *orderedmap.OrderedMap[string, *domain.Connection], userID int64, users []domain.User, txs []domain.Transaction) {
	self, ok := findUser(users, userID)
	if !ok {
		return
	}

	for i := range users {
		peer := users[i]
		if peer.ID == self.ID {
			continue
		}
		for _, rule := range userAttributeRules {
			if value, ok := sharedValue(rule.extract(self), rule.extract(peer)); ok {
				userRecord(records, peer).add(rule.kind, value)
			}
		}
	}

	for i := range txs {
		tx := txs[i]
		ref := strconv.FormatInt(tx.ID, 10)
		if tx.Sender != nil && tx.Sender.ID == self.ID {
			transactionRecord(records, tx).add(domain.RelSent, ref)
		}
		if tx.Recipient != nil && tx.Recipient.ID == self.ID {
			transactionRecord(records, tx).add(domain.RelReceived, ref)
		}
	}
}

func collectTransactionConnections(records *orderedmap.OrderedMap[string, *domain.Connection], txID int64, users []domain.User, txs []domain.Transaction) {
	self, ok := findTransaction(txs, txID)
	if !ok {
		return
	}

	for i := range txs {
		peer := txs[i]
		if peer.ID == self.ID {
			continue
		}
		for _, rule := range transactionAttributeRules {
			if value, ok := sharedValue(rule.extract(self), rule.extract(peer)); ok {
				transactionRecord(records, peer).add(rule.kind, value)
			}
		}
	}

	if self.Sender != nil {
		if sender, ok := findUser(users, self.Sender.ID); ok {
			userRecord(records, sender).add(domain.RelSent, strconv.FormatInt(sender.ID, 10))
		}
	}
	if self.Recipient != nil {
		if recipient, ok := findUser(users, self.Recipient.ID); ok {
			userRecord(records, recipient).add(domain.RelReceived, strconv.FormatInt(recipient.ID, 10))
		}
	}
}

type connectionRecord struct {
	*domain.Connection
}

func (c connectionRecord) add(kind domain.RelationshipKind, value string) {
	if c.HasKind(kind) {
		return
	}
	c.Kinds = append(c.Kinds, kind)
	c.SharedValues[kind] = value
}

func userRecord(records *orderedmap.OrderedMap[string, *domain.Connection], u domain.User) connectionRecord {
	key := u.NodeID()
	if rec, ok := records.Get(key); ok {
		return connectionRecord{rec}
	}
	rec := &domain.Connection{
		Type:         domain.NodeTypeUser,
		User:         &u,
		SharedValues: make(map[domain.RelationshipKind]string),
	}
	records.Set(key, rec)
	return connectionRecord{rec}
}

func transactionRecord(records *orderedmap.OrderedMap[string, *domain.Connection], tx domain.Transaction) connectionRecord {
	key := tx.NodeID()
	if rec, ok := records.Get(key); ok {
		return connectionRecord{rec}
	}
	rec := &domain.Connection{
		Type:         domain.NodeTypeTransaction,
		Transaction:  &tx,
		SharedValues: make(map[domain.RelationshipKind]string),
	}
	records.Set(key, rec)
	return connectionRecord{rec}
}

func findUser(users []domain.User, id int64) (domain.User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

func findTransaction(txs []domain.Transaction, id int64) (domain.Transaction, bool) {
	for _, tx := range txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return domain.Transaction{}, false
}
