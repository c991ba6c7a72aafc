// Package formula defines the format-agnostic domain model shared by every
// other package: scalar values, records, formulas with their declared inputs,
// the batch that pairs them, the ordered result set, and the error taxonomy
// that the engine and its boundary layers report.
//
// Nothing in this package evaluates anything. Loaders (HCL files, JSON
// payloads, CSV files) produce a Batch, the engine consumes it and returns a
// ResultSet or an *Error.
package formula
