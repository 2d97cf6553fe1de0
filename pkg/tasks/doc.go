/*
Package tasks implements Task Binding: a thin collaborator over an
external issue tracker, in the spirit of the teacher's pkg/client — a
small wrapper exposing domain operations (get, assign, unassign,
set_status, ready, filter) over an external transport. Here the
transport is a CLI binary (`br`) invoked via os/exec instead of gRPC.

FileBinding is a fallback implementation for environments without `br`
installed — tests, demos — backed by a JSONL store on disk, grounded on
the teacher's storage package's marshal-per-record convention.

Both implementations are idempotent: assigning an already-assigned task
to the same worker, or unassigning an already-unassigned one, is a
no-op.
*/
package tasks
