package instance

import "os"

// ID identifies this process in logs: STOREFRONT_INSTANCE_ID when set, then
// the hostname.
func ID() string {
	if id := os.Getenv("STOREFRONT_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
