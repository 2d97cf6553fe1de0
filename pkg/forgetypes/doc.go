/*
Package forgetypes defines the core data structures shared across FORGE's
orchestration components.

This package contains the domain model used by the status ledger, health
monitor, crash recovery, cost ledger, chat pipeline, event bus, error
recovery manager, and task binding. Types here are designed to be:

  - Serializable (JSON for status files and the audit log)
  - Immutable where possible (components hand out copies, not references,
    from snapshot accessors)
  - Self-documenting (enums are named string types with exported constants)

# Dual-shape decoding

CurrentTask accepts either a bare task id string or a structured object on
the wire (see WorkerStatus.CurrentTask) and normalizes both into the same
in-memory shape via a custom UnmarshalJSON.
*/
package forgetypes
