/*
Package cost implements the Cost Ledger: a durable, append-oriented
store for CostEntry records backed by a single-file sqlite database via
database/sql and mattn/go-sqlite3.

append retries on transient lock contention with an exponential
backoff ladder; an entry that still fails after the ladder is exhausted
goes into a bounded in-memory overflow buffer and is retried on every
subsequent successful append, so a write is never silently lost outside
of a buffer overflow (which itself reports a warning). query aggregates
with SQL GROUP BY rather than maintaining materialized rollups, and
forecast projects a trailing daily average.
*/
package cost
