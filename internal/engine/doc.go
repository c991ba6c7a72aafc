// Package engine evaluates a batch of formulas against a list of records.
//
// A batch runs in three steps. BuildGraph links every formula to the
// formulas whose outputs it consumes. Schedule orders that graph once per
// batch and compiles every expression. The Executor then walks each record
// through the schedule, binding inputs from an Environment that starts as
// the record's fields and grows with every formula output.
//
// The first failure aborts the whole batch; no partial results are
// returned.
package engine
