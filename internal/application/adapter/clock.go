package adapter

import "time"

// Clock supplies the as-of instant for date computations. Use cases never read
// ambient system time directly; threading the clock keeps credit and
// expiration arithmetic deterministic under test.
type Clock interface {
	Now() time.Time
}
