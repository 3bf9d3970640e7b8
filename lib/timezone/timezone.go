package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Australia/Sydney")
	if err != nil {
		panic(err)
	}
}

// force timezone to be in Sydney because our servers sometimes end up
// in us-west which will cause disturbances when deciding which specials
// are still valid based on <time.Time>.Year()/Month()/Day()/...
func Now() time.Time {
	return time.Now().In(Location)
}

// Today returns the current Sydney date formatted as YYYY-MM-DD,
// the format the valid_from/valid_to columns are stored in.
func Today() string {
	return Now().Format(time.DateOnly)
}

// Date formats an arbitrary time as a Sydney YYYY-MM-DD date.
func Date(t time.Time) string {
	return t.In(Location).Format(time.DateOnly)
}
