/*
Package launcher implements the Launcher Adapter: invoking an external
launcher program with a fixed flag schema, parsing its single-line JSON
stdout into a SpawnOutcome, and validating the spawn actually took before
handing a worker id back to the caller.

Launchers are black boxes — direct fork, a session multiplexer, a
container runtime are all acceptable as long as stdout carries exactly
one JSON object and the reported pid resolves to a live process. Command
execution is grounded on the teacher's own pkg/health.ExecChecker:
exec.CommandContext with a bounded timeout and buffered stdout/stderr,
generalized from a health probe to a spawn call. Post-spawn validation
polls an injected StatusAccessor rather than the filesystem directly, so
this package never depends on the status ledger's internals.
*/
package launcher
