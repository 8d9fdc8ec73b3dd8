package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookbuddy/internal/exporters"
	"github.com/mrlokans/bookbuddy/internal/importers"
	"github.com/mrlokans/bookbuddy/internal/scheduler"
	"github.com/mrlokans/bookbuddy/internal/services"
	"github.com/mrlokans/bookbuddy/internal/tasks"
)

// =============================================================================
// Import / Export
// =============================================================================

// BookImporter implementations
var _ importers.BookImporter = (*services.LibraryService)(nil)

// BookLister implementations
var _ exporters.BookLister = (*services.LibraryService)(nil)

// =============================================================================
// Background Jobs
// =============================================================================

// QueueReranker implementations
var _ tasks.QueueReranker = (*services.LibraryService)(nil)

// DirExporter implementations
var _ tasks.DirExporter = (*exporters.CSVExporter)(nil)
var _ scheduler.DirExporter = (*exporters.CSVExporter)(nil)
