// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is the shared client for calls to the auth and CRM services.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
