package orchestrator

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Timeout and retry settings. Each can be overridden through its
// RELEASETAG_-prefixed environment variable.
var (
	// BumpWorkflowTimeout bounds a patch, minor or major run
	BumpWorkflowTimeout = getTimeoutOrDefault("RELEASETAG_WORKFLOW_TIMEOUT", 10*time.Minute, 5*time.Second)
	// ReleaseWorkflowTimeout bounds GitHub release creation including retries
	ReleaseWorkflowTimeout = getTimeoutOrDefault("RELEASETAG_RELEASE_TIMEOUT", 5*time.Minute, 5*time.Second)
	// RollbackTimeout is the timeout for rollback operations
	RollbackTimeout = getTimeoutOrDefault("RELEASETAG_ROLLBACK_TIMEOUT", 2*time.Minute, 100*time.Millisecond)
	// DefaultRetryCount is the standard number of retries for retryable operations
	DefaultRetryCount = uint64(getRetryCountOrDefault("RELEASETAG_RETRY_COUNT", 3, 1))
	// DefaultRetryDelay is the initial delay for exponential backoff
	DefaultRetryDelay = getTimeoutOrDefault("RELEASETAG_RETRY_DELAY", 1*time.Second, 10*time.Millisecond)
)

// ReleaseListLimit is the number of releases shown by release --list.
const ReleaseListLimit = 20

// isTestEnvironment detects if we're running in a test environment
func isTestEnvironment() bool {
	for _, arg := range os.Args {
		if strings.HasSuffix(arg, ".test") || strings.HasPrefix(arg, "-test.") {
			return true
		}
	}
	return os.Getenv("RELEASETAG_TEST_MODE") == "true"
}

// getTimeoutOrDefault returns production timeout or test timeout based on environment
func getTimeoutOrDefault(envVar string, prodDefault, testDefault time.Duration) time.Duration {
	if env := os.Getenv(envVar); env != "" {
		if duration, err := time.ParseDuration(env); err == nil {
			return duration
		}
	}
	if isTestEnvironment() {
		return testDefault
	}
	return prodDefault
}

// getRetryCountOrDefault returns production retry count or test retry count based on environment
func getRetryCountOrDefault(envVar string, prodDefault, testDefault int) int {
	if env := os.Getenv(envVar); env != "" {
		if count, err := strconv.Atoi(env); err == nil && count >= 0 {
			return count
		}
	}
	if isTestEnvironment() {
		return testDefault
	}
	return prodDefault
}
