/*
Package ledger implements the Status Ledger: the canonical, read-mostly
map of worker ID to WorkerStatus that every other component reads a
snapshot of.

Workers report their own status by writing one JSON file per worker to a
shared directory using temp-file-then-rename, the same wire convention
crush's agentstatus reporter uses. The Ledger watches that directory with
fsnotify, falling back to a polling tick when the watch channel goes
quiet, and keeps a bounded bbolt-backed history of recently evicted
workers so a query about a worker that just disappeared still gets an
answer.
*/
package ledger
