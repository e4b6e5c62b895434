package instance

import (
	"os"
	"strings"
)

const EnvInstanceID = "STOREFRONT_INSTANCE_ID"

// GetID returns the identifier this process logs under: STOREFRONT_INSTANCE_ID,
// then the platform's DYNO, then the hostname.
func GetID() string {
	for _, key := range []string{EnvInstanceID, "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "storefront-0"
}
