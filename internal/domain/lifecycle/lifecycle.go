// Package lifecycle holds shared start/stop settings for fx hooks.
package lifecycle

import "time"

// DefaultTimeout bounds graceful shutdown of servers and schedulers.
const DefaultTimeout = 30 * time.Second
