package common

// File permission constants used when writing configuration and exports
const (
	// FilePermissionSecure is used for files that may hold credentials
	FilePermissionSecure = 0600

	// FilePermissionNormal is used for exported reports and normalized datasets
	FilePermissionNormal = 0644

	// DirPermissionSecure is used for the configuration directory
	DirPermissionSecure = 0700

	// DirPermissionNormal is used for export directories
	DirPermissionNormal = 0755
)
