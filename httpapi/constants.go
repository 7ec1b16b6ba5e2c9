package httpapi

import "time"

const (
	// resultCleanupDelay is the delay before a stamped PDF is removed from
	// TempDir after it has been downloaded once.
	resultCleanupDelay = 2 * time.Second

	// defaultFilePermissions for temp directory creation.
	defaultFilePermissions = 0o755

	// defaultMaxUploadSize bounds multipart uploads when Config.MaxFileSize
	// is unset.
	defaultMaxUploadSize = 64 << 20
)
