/*
Package crash implements Crash Recovery: turns a crash-class health
failure into a recorded CrashRecord, an optional task-assignee clear,
and a rate-limited decision on whether to restart the worker.

Only pid_exists and response failures count as crashes; every other
health failure class is ignored here (the Health Monitor and Error
Recovery Manager handle those). Records live in a bbolt-backed ring per
worker, mirroring the status ledger's history store, so the rate-limit
window survives a process restart.
*/
package crash
