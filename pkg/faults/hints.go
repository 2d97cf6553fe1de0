package faults

import "errors"

// Remediation returns a short, human-readable suggested next step for
// err, or "" if none is known. Callers attach this to the status
// banner and alerts view alongside the error's own message.
func Remediation(err error) string {
	var (
		rateLimit   *RateLimitExceededError
		netTimeout  *NetworkTimeoutError
		connFailed  *ConnectionFailedError
		dnsFailed   *DNSFailedError
		toolMissing *ToolNotFoundError
		dbLocked    *DatabaseLockedError
		spawnErr    *SpawnError
		spawnTO     *SpawnTimeoutError
	)

	switch {
	case errors.As(err, &rateLimit):
		return "wait for the rate limit window to reset and resubmit"
	case errors.As(err, &netTimeout):
		return "check network connectivity and retry"
	case errors.As(err, &connFailed):
		return "verify the provider endpoint is reachable"
	case errors.As(err, &dnsFailed):
		return "check DNS resolution for the configured host"
	case errors.As(err, &toolMissing):
		return "the tool registry does not know this tool; check the pipeline configuration"
	case errors.As(err, &dbLocked):
		return "another process is holding the cost database; retrying automatically"
	case errors.As(err, &spawnErr):
		return "check the launcher binary's stderr output"
	case errors.As(err, &spawnTO):
		return "confirm the launcher actually starts a worker process that writes a status file"
	default:
		return ""
	}
}
