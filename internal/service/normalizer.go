package service

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

const (
	userNodeColor  = "#3B82F6"
	userNodeSize   = 30.0
	minTxNodeSize  = 20.0
	maxTxNodeSize  = 50.0
	txSizeDivisor  = 1000.0
	normalTxColor  = "#10B981"
	mediumTxColor  = "#F59E0B"
	highTxColor    = "#DC2626"
	mediumTxAmount = 5000.0
	highTxAmount   = 10000.0
)

// isBlank treats whitespace-only attribute values as missing.
func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

func transactionLabel(tx domain.Transaction) string {
	return "$" + strconv.FormatFloat(tx.Amount, 'f', -1, 64) + " " + tx.Currency
}

// transactionNodeSize grows with amount and is clamped to [20, 50].
func transactionNodeSize(amount float64) float64 {
	return math.Min(maxTxNodeSize, math.Max(minTxNodeSize, amount/txSizeDivisor+minTxNodeSize))
}

func transactionNodeColor(amount float64) string {
	switch {
	case amount > highTxAmount:
		return highTxColor
	case amount > mediumTxAmount:
		return mediumTxColor
	default:
		return normalTxColor
	}
}

// fingerprint hashes every field that shapes a node or an edge, so two
// snapshots compare equal exactly when they derive the same graph. Strings are
// length-prefixed and a missing party hashes as -1.
func fingerprint(users []domain.User, txs []domain.Transaction) string {
	h := sha256.New()
	var buf [8]byte
	writeInt := func(v int64) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeString := func(v string) {
		writeInt(int64(len(v)))
		h.Write([]byte(v))
	}
	partyID := func(u *domain.User) int64 {
		if u == nil {
			return -1
		}
		return u.ID
	}

	writeInt(int64(len(users)))
	for _, u := range users {
		writeInt(u.ID)
		writeString(u.FirstName)
		writeString(u.LastName)
		writeString(u.Email)
		writeString(u.Phone)
		writeString(u.Address)
		writeInt(u.CreatedAt.UnixNano())
		writeInt(u.UpdatedAt.UnixNano())
	}
	writeInt(int64(len(txs)))
	for _, tx := range txs {
		writeInt(tx.ID)
		writeInt(int64(math.Float64bits(tx.Amount)))
		writeString(tx.Currency)
		writeString(string(tx.Status))
		writeString(tx.DeviceID)
		writeString(tx.IPAddress)
		writeString(tx.PaymentMethod)
		writeInt(tx.CreatedAt.UnixNano())
		writeInt(partyID(tx.Sender))
		writeInt(partyID(tx.Recipient))
	}
	return hex.EncodeToString(h.Sum(nil))
}
