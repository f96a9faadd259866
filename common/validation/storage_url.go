package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// allowedStorageSchemes lists the protocols the blob store hands out.
// Everything else (file://, jdbc://, redis://, ...) is rejected before the
// URL ever reaches a record.
var allowedStorageSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"s3":    true,
	"gs":    true,
}

// ValidateStorageURL checks an attachment's storage URL before its metadata
// is written onto a record
func ValidateStorageURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("storage URL is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid storage URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !allowedStorageSchemes[scheme] {
		return fmt.Errorf("storage scheme '%s' is not allowed", parsed.Scheme)
	}

	if parsed.User != nil {
		return fmt.Errorf("storage URL must not embed credentials")
	}

	if parsed.Host == "" {
		return fmt.Errorf("storage URL must have a host or bucket")
	}

	if strings.Contains(parsed.Path, "..") {
		return fmt.Errorf("storage URL path must not contain traversal segments")
	}

	return nil
}
