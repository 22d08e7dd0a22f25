package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrRatioFormat     = errors.New("invalid aspect ratio")
	ErrImageDecode     = errors.New("undecodable image")
	ErrSheetCapacity   = errors.New("cell does not fit page")
	ErrProviderFailure = errors.New("provider failure")
)
