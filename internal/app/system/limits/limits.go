// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON API.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the default cap, sized for course documents with a
	// full syllabus and resource list.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxSmallJSONBody caps small updates: profile edits, status toggles
	// and device reports.
	MaxSmallJSONBody = 64 << 10 // 64 KB
)
