// Package store persists the verification log.
package store

import "credo/internal/credential/models"

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

func effectiveLimit(filter models.LogFilter) int {
	switch {
	case filter.Limit <= 0:
		return DefaultListLimit
	case filter.Limit > MaxListLimit:
		return MaxListLimit
	}
	return filter.Limit
}
