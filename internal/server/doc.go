// Package server exposes the formula engine over HTTP and socket.io.
//
// Routes:
//
//	GET  /                      greeting
//	GET  /health                liveness check
//	POST /api/execute-formula   run one batch, JSON in and out
//	     /socket.io/            socket.io endpoint, event "execute_formula"
//
// Over socket.io the request and the answer travel as JSON text, so the
// result key order survives the trip. A batch is answered with
// "formula_result" on success or "formula_error" on rejection.
package server
