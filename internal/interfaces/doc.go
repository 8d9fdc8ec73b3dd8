// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Import / Export
//
//   - BookImporter: Persist a parsed batch of books (internal/importers/pipeline.go)
//   - BookLister: Read every book for export (internal/exporters/csv.go)
//
// ## Background Jobs
//
//   - QueueReranker: Renumber the reading queue (internal/tasks/rerank.go)
//   - DirExporter: Write timestamped CSV backups (internal/tasks/backup.go,
//     internal/scheduler/backup.go)
//
// # Compile-time Checks
//
// checks.go asserts that the concrete types wired in internal/entrypoint
// satisfy these interfaces:
//
//	var _ tasks.QueueReranker = (*services.LibraryService)(nil)
//
// # Adding a Task
//
//  1. Define a task struct with a Config() method returning backlite.QueueConfig
//  2. Write a processor taking the narrow interface it needs
//  3. Register the queue in entrypoint.NewApp
//  4. Add a compile-time check here
package interfaces
