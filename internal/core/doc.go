// Package core provides the business logic of the feed status dashboard.
//
// It holds the two in-memory datasets, CSV ingestion and the audit log, and
// has no knowledge of HTTP or terminals. The web handlers, the feedctl CLI
// and the inbox watcher all go through [Service].
//
// # Datasets
//
// Two datasets are registered at init time with [Register]:
//
//   - [ProductCatalog]: retailers and their approval status. Rows without a
//     RETAILER are dropped on ingestion.
//   - [ECommerce]: open columns taken from the uploaded header. Rows with no
//     non-blank value are dropped on ingestion.
//
// Each dataset lives in a [RecordStore]. Records keep their field order and
// carry an identifier assigned by the store; updates never change it.
//
// # Ingestion
//
// [Service.Ingest] parses the whole CSV body before touching the store:
//
//  1. The body is wrapped to drop a UTF-8 BOM, replace invalid UTF-8 and
//     enforce the size limit ([WrapForStreaming]).
//  2. [ParseCSV] maps each row to the header by position.
//  3. Any malformed row fails the upload with a [*ParseError].
//  4. A body whose rows all fail the validity check fails with [ErrEmptyBatch].
//  5. Otherwise the dataset is replaced and one upload entry is logged.
//
// [Service.AnalyzeUpload] runs the same steps without changing anything.
//
// # Audit Log
//
// Every add, update, delete and upload prepends a [LogEntry] to the
// [AuditLog], which then writes the whole sequence to its [kv.Store] slot.
// A failed write is logged and otherwise ignored; a missing or corrupt slot
// at startup gives an empty log.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CSV001-CSV002: malformed CSV, no valid rows
//   - REC001-REC003: missing record, form validation, unknown dataset
//   - LOG001: audit log persistence
//   - FILE001-FILE004, UPL002-UPL005: upload size, missing file, busy, cancelled
package core
