// Package domain defines the core business types for the site contact pipeline.
//
// Types in this package are pure value objects with no storage, transport,
// or HTTP concerns. They are the shared language between handlers,
// services, and row stores.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON tags are allowed (they're metadata, not behavior)
//   - Validation and merge methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
