package enums

import (
	"fmt"
	"strings"
)

// StoreDriver selects the backend of the session key/value store.
type StoreDriver string

const (
	StoreDriverMemory   StoreDriver = "memory"
	StoreDriverRedis    StoreDriver = "redis"
	StoreDriverSQLite   StoreDriver = "sqlite"
	StoreDriverPostgres StoreDriver = "postgres"
)

var validStoreDrivers = []StoreDriver{
	StoreDriverMemory,
	StoreDriverRedis,
	StoreDriverSQLite,
	StoreDriverPostgres,
}

// String implements fmt.Stringer.
func (s StoreDriver) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StoreDriver.
func (s StoreDriver) IsValid() bool {
	for _, candidate := range validStoreDrivers {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsSQL reports whether the driver is backed by a GORM connection.
func (s StoreDriver) IsSQL() bool {
	return s == StoreDriverSQLite || s == StoreDriverPostgres
}

// ParseStoreDriver converts raw input into a StoreDriver.
func ParseStoreDriver(value string) (StoreDriver, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validStoreDrivers {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid store driver %q", value)
}
