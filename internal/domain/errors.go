package domain

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTokenNotFound        = errors.New("processing token not found")
	ErrTokenTerminal        = errors.New("processing token is already terminal")
	ErrEmptyMedia           = errors.New("media payload is empty")
	ErrMediaTooLarge        = errors.New("media exceeds maximum allowed size")
	ErrUnsupportedMediaType = errors.New("unsupported media content type")
	ErrInvalidMediaMode     = errors.New("invalid media mode")
	ErrResultNotReady       = errors.New("analysis result is not ready")
	ErrUploadFailed         = errors.New("media upload to storage failed")
)
