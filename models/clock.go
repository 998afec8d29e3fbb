package models

import "time"

// Now is the clock used to stamp CreatedAt and UpdatedAt. Tests replace it to
// get deterministic timestamps.
var Now = func() time.Time {
	return time.Now().Truncate(time.Microsecond)
}
