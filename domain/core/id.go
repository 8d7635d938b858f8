package core

import (
	"strings"

	"github.com/google/uuid"

	"cellfade/internal/errors"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Domain-specific ID types
type (
	TestID ID
	CellID ID
	RunID  ID
)

func (id TestID) String() string { return ID(id).String() }
func (id CellID) String() string { return ID(id).String() }
func (id RunID) String() string  { return ID(id).String() }

// NewTestID mints an ID for a test row that arrived without one
func NewTestID() TestID { return TestID(NewID()) }

// NewRunID mints an ID for one analysis pass
func NewRunID() RunID { return RunID(NewID()) }

// ParseTestID parses a string into TestID
func ParseTestID(s string) (TestID, error) {
	if strings.TrimSpace(s) == "" {
		return "", errors.InvalidArgument("test ID cannot be empty")
	}
	return TestID(strings.TrimSpace(s)), nil
}
