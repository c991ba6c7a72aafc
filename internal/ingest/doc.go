// Package ingest turns external data into formula records: JSON arrays,
// CSV files, SQL query results and cty values coming from batch files.
package ingest
