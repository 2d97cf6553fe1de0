/*
Package chat implements the Chat Pipeline: a single-writer,
bounded-concurrency conversion of natural-language input into provider
calls with tool-call proposals, rate limiting, dashboard context
injection, and audit logging.

Three Provider implementations exist behind one interface: an HTTP
provider over github.com/anthropics/anthropic-sdk-go, a subprocess
provider that shells out to a configured CLI, and a mock used by this
package's own tests. Pipeline owns at most one in-flight ChatTurn at a
time, a bounded turn history, and a crash-safe append-only audit
journal, the same durability shape the status ledger and cost ledger
use elsewhere in FORGE.
*/
package chat
