// Package database opens the SQLite store and wires the repositories.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup, migrations, category color backfill
//	├── books/           # Reading list CRUD, queue filters, aggregates, live queries
//	└── categories/      # Category CRUD
//
// Both repositories share the Database's live.Hub, so a write through either
// one wakes the watchers of its table.
//
// # Usage
//
//	db, err := database.NewDatabase("./bookbuddy.db")
//	defer db.Close()
//
//	queue, err := db.Books().GetBooksToRead(ctx)
//	cats, err := db.Categories().GetAllCategories(ctx)
//
// # Storage Format
//
// Dates are INTEGER epoch milliseconds and may be NULL. Statuses are stored
// by name. Column names are camelCase (hasBook, startDate, ...) so databases
// written by earlier releases open unchanged.
package database
