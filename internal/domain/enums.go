package domain

// TokenStatus represents the lifecycle state of a processing token.
type TokenStatus string

const (
	TokenStatusPending   TokenStatus = "pending"
	TokenStatusRunning   TokenStatus = "running"
	TokenStatusCompleted TokenStatus = "completed"
	TokenStatusFailed    TokenStatus = "failed"
	TokenStatusExpired   TokenStatus = "expired"
)

// Terminal reports whether no further transition can occur from s.
func (s TokenStatus) Terminal() bool {
	switch s {
	case TokenStatusCompleted, TokenStatusFailed, TokenStatusExpired:
		return true
	}
	return false
}

// MediaMode selects the analyzer input mode.
type MediaMode string

const (
	MediaModeImage MediaMode = "image"
	MediaModeVideo MediaMode = "video"
)

// ValidMediaModes enumerates the accepted modes.
var ValidMediaModes = map[MediaMode]bool{
	MediaModeImage: true,
	MediaModeVideo: true,
}

// AllowedImageTypes maps accepted image MIME types to their file extension.
var AllowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// AllowedVideoTypes maps accepted video MIME types to their file extension.
var AllowedVideoTypes = map[string]string{
	"video/mp4":       "mp4",
	"video/quicktime": "mov",
}

// MediaExtension returns the storage extension for a content type under the
// given mode, or false if the content type is not accepted for that mode.
func MediaExtension(mode MediaMode, contentType string) (string, bool) {
	switch mode {
	case MediaModeImage:
		ext, ok := AllowedImageTypes[contentType]
		return ext, ok
	case MediaModeVideo:
		ext, ok := AllowedVideoTypes[contentType]
		return ext, ok
	}
	return "", false
}

// ErrorKind classifies a terminal processing failure.
type ErrorKind string

const (
	ErrorKindAnalyzer        ErrorKind = "analyzer_error"
	ErrorKindPermanent       ErrorKind = "permanent_analyzer_error"
	ErrorKindMalformedOutput ErrorKind = "malformed_output_error"
	ErrorKindValidation      ErrorKind = "validation_error"
	ErrorKindExpired         ErrorKind = "expired"
)

// Progress stages reported through the token snapshot. Advisory only.
const (
	StageQueued     = "queued"
	StageAnalyzing  = "analyzing"
	StageValidating = "validating"
	StageDone       = "done"
)
