package v1

import (
	"github.com/Andrew-Atwater/TeamF/internal/storage/memory"
	"github.com/Andrew-Atwater/TeamF/internal/storage/postgres"
)

// Compile-time interface assertions for the storage backends against the HTTP API surface.
var (
	_ Store        = (*memory.Store)(nil)
	_ Store        = (*postgres.Store)(nil)
	_ ReadyChecker = (*postgres.Store)(nil)
)
