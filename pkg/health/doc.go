/*
Package health implements the Health Monitor: a periodic evaluator that
runs a configurable set of checks against every known worker and folds
the results into one WorkerHealth per worker per cycle.

Each check kind (pid_exists, activity_fresh, task_progress, memory,
response) is a small Checker implementation, mirroring the teacher's
Checker interface for container probes, generalized from "does this
container answer on a socket" to "does this worker's status file and
process still look alive". Results are combined with CheckWeights into a
single score, and at most one primary failure — the highest-priority one
— is surfaced per cycle, per the monitor's priority table.
*/
package health
