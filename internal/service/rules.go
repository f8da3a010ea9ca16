package service

import (
	"fmt"
	"strings"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
)

// RuleSubject identifies which entities a relationship kind links.
type RuleSubject string

const (
	SubjectTransfer    RuleSubject = "transfer"
	SubjectUser        RuleSubject = "user"
	SubjectTransaction RuleSubject = "transaction"
)

// RelationshipRule is the presentation metadata of one relationship kind.
type RelationshipRule struct {
	Kind      domain.RelationshipKind
	Label     string
	Color     string
	Weight    int
	Symmetric bool
	Subject   RuleSubject
}

const (
	fallbackEdgeColor  = "#6B7280"
	fallbackEdgeWeight = 1
)

// relationshipRules is the single source of truth for edge presentation.
// Order matters: it drives Kinds() and the attribute comparison order.
var relationshipRules = []RelationshipRule{
	{Kind: domain.RelSent, Label: "Sent", Color: "#10B981", Weight: 3, Subject: SubjectTransfer},
	{Kind: domain.RelReceived, Label: "Received", Color: "#10B981", Weight: 3, Subject: SubjectTransfer},
	{Kind: domain.RelSharesEmail, Label: "Shared Email", Color: "#EF4444", Weight: 2, Symmetric: true, Subject: SubjectUser},
	{Kind: domain.RelSharesPhone, Label: "Shared Phone", Color: "#F59E0B", Weight: 2, Symmetric: true, Subject: SubjectUser},
	{Kind: domain.RelSharesAddress, Label: "Shared Address", Color: "#8B5CF6", Weight: 2, Symmetric: true, Subject: SubjectUser},
	{Kind: domain.RelSameDevice, Label: "Same Device", Color: "#EC4899", Weight: 3, Symmetric: true, Subject: SubjectTransaction},
	{Kind: domain.RelSameIP, Label: "Same IP", Color: "#6366F1", Weight: 3, Symmetric: true, Subject: SubjectTransaction},
	{Kind: domain.RelSamePaymentMethod, Label: "Same Payment Method", Color: "#14B8A6", Weight: 2, Symmetric: true, Subject: SubjectTransaction},
}

var rulesByKind = func() map[domain.RelationshipKind]RelationshipRule {
	m := make(map[domain.RelationshipKind]RelationshipRule, len(relationshipRules))
	for _, rule := range relationshipRules {
		m[rule.Kind] = rule
	}
	return m
}()

// Rule returns the metadata for kind. Unknown kinds, such as those found in
// stale serialized graphs, get a neutral fallback instead of an error.
func Rule(kind domain.RelationshipKind) RelationshipRule {
	if rule, ok := rulesByKind[kind]; ok {
		return rule
	}
	return RelationshipRule{
		Kind:    kind,
		Label:   string(kind),
		Color:   fallbackEdgeColor,
		Weight:  fallbackEdgeWeight,
		Subject: RuleSubject(""),
	}
}

// IsKnownKind reports whether kind belongs to the closed enumeration.
func IsKnownKind(kind domain.RelationshipKind) bool {
	_, ok := rulesByKind[kind]
	return ok
}

// Kinds lists every relationship kind in table order.
func Kinds() []domain.RelationshipKind {
	kinds := make([]domain.RelationshipKind, 0, len(relationshipRules))
	for _, rule := range relationshipRules {
		kinds = append(kinds, rule.Kind)
	}
	return kinds
}

// ParseRelationshipKind validates a kind name, accepting any letter case.
func ParseRelationshipKind(value string) (domain.RelationshipKind, error) {
	kind := domain.RelationshipKind(strings.ToUpper(strings.TrimSpace(value)))
	if !IsKnownKind(kind) {
		return "", fmt.Errorf("unknown relationship type %q", value)
	}
	return kind, nil
}

type userAttributeRule struct {
	kind    domain.RelationshipKind
	extract func(domain.User) string
}

type transactionAttributeRule struct {
	kind    domain.RelationshipKind
	extract func(domain.Transaction) string
}

var userAttributeRules = []userAttributeRule{
	{kind: domain.RelSharesEmail, extract: func(u domain.User) string { return u.Email }},
	{kind: domain.RelSharesPhone, extract: func(u domain.User) string { return u.Phone }},
	{kind: domain.RelSharesAddress, extract: func(u domain.User) string { return u.Address }},
}

var transactionAttributeRules = []transactionAttributeRule{
	{kind: domain.RelSameDevice, extract: func(t domain.Transaction) string { return t.DeviceID }},
	{kind: domain.RelSameIP, extract: func(t domain.Transaction) string { return t.IPAddress }},
	{kind: domain.RelSamePaymentMethod, extract: func(t domain.Transaction) string { return t.PaymentMethod }},
}

// sharedValue returns the common attribute value and true when both sides
// carry the same non-blank value.
func sharedValue(a, b string) (string, bool) {
	if isBlank(a) || isBlank(b) || a != b {
		return "", false
	}
	return a, true
}
