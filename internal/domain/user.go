package domain

import (
	"strconv"
	"strings"
	"time"
)

// User is a customer record as delivered by the data source.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Address     string    `json:"address"`
	DateOfBirth string    `json:"dateOfBirth"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FullName joins first and last name the way node labels present it.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NodeID returns the namespaced graph identifier of the user.
func (u User) NodeID() string {
	return UserNodeID(u.ID)
}

// UserNodeID builds the namespaced node identifier for a user id.
func UserNodeID(id int64) string {
	return string(NodeTypeUser) + "-" + strconv.FormatInt(id, 10)
}
