package shared

import "time"

// clock and identity helpers shared across the gateway
// timestamps are unix milliseconds, the unit session liveness is measured in

// CurrentTimestamp returns the wall clock time in unix milliseconds
func CurrentTimestamp() int64 {
	return time.Now().UnixMilli()
}
