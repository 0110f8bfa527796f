package constants_test

import (
	"fmt"
	"time"

	"github.com/agentstation/stocksync/pkg/constants"
)

// Example_retrySchedule shows the delays between the default fetch attempts.
func Example_retrySchedule() {
	delay := constants.RetryBackoff
	for attempt := 1; attempt < constants.MaxRetries; attempt++ {
		fmt.Printf("after attempt %d wait %s\n", attempt, delay)
		delay = time.Duration(float64(delay) * constants.RetryMultiplier)
		if delay > constants.MaxRetryBackoff {
			delay = constants.MaxRetryBackoff
		}
	}
	// Output:
	// after attempt 1 wait 1s
	// after attempt 2 wait 2s
}

// Example_permissions prints the file permission constants.
func Example_permissions() {
	fmt.Printf("dir %o file %o\n", constants.DirPermissions, constants.FilePermissions)
	// Output:
	// dir 755 file 644
}
