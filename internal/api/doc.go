// Package api defines the JSON request and response shapes of the
// execute-formula endpoint and converts them to and from formula batches.
package api
