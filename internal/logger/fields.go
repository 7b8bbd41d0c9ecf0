package logger

// Standard field keys. Using the same keys everywhere keeps the output
// greppable and aggregation-friendly.
const (
	KeyPath  = "path"   // file or directory path
	KeyDest  = "dest"   // destination path of copy/move/link
	KeySize  = "size"   // size in bytes
	KeyMode  = "mode"   // permission bits, ls-style or octal
	KeyJobID = "job_id" // download job identifier
	KeyURL   = "url"    // remote source
	KeyBytes = "bytes"  // bytes transferred
	KeySHA   = "sha256" // payload checksum
	KeyError = "error"  // error detail
	KeyMs    = "ms"     // duration in milliseconds
)
