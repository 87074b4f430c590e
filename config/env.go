package config

import "os"

// GetTimezone returns the operational till timezone. The business date of an
// order is derived in this zone, not in UTC.
func GetTimezone() string {
	timezone := os.Getenv("POS_TIMEZONE")
	if timezone == "" {
		timezone = "Asia/Yangon"
	}
	return timezone
}
