// Package localtime renders provider epoch timestamps as city-local clock strings.
package localtime

import "time"

// Layout is the 12-hour clock format used for sunrise and sunset.
const Layout = "03:04 PM"

// Format shifts the UTC instant epoch by offsetSeconds and returns it as "03:04 PM".
func Format(epoch int64, offsetSeconds int) string {
	return At(epoch, offsetSeconds).Format(Layout)
}

// At returns the wall-clock time for epoch at the given UTC offset.
// The result is expressed in UTC so its fields read as local time.
func At(epoch int64, offsetSeconds int) time.Time {
	return time.Unix(epoch, 0).UTC().Add(time.Duration(offsetSeconds) * time.Second)
}
