package model

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewID generates a new UUIDv4 string for vaults, assets and log entries.
func NewID() string {
	return uuid.NewString()
}

// NewExportID generates a ULID for export handles. Export ids sort by
// creation time, which vault, asset and log ids do not need.
func NewExportID() string {
	return ulid.Make().String()
}
