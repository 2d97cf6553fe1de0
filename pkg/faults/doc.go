/*
Package faults implements the Error Recovery Manager: the closed-sum
error taxonomy every component classifies its failures into, plus a
Manager that aggregates ErrorRecords and tracks which components are
currently degraded.

Each taxonomy member is its own struct implementing error directly,
carrying the fields a caller needs to build a remediation hint, rather
than a sentinel value wrapped in fmt.Errorf — the same shape the
teacher's own pkg/health and pkg/worker use to report check and spawn
failures.
*/
package faults
