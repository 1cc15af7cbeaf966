package convert

import "errors"

// Sentinel errors for the failure classes a single conversion can report.
// Everything else is wrapped cause text from the failing step.
var (
	// ErrUnsupportedConversion is returned when the requested target format
	// does not match the detected source format of the input file.
	ErrUnsupportedConversion = errors.New("unsupported conversion type or file extension")

	// ErrRarToolMissing is returned when CBR creation is requested but the
	// external rar tool is not on PATH. There is no library fallback.
	ErrRarToolMissing = errors.New("rar command-line tool not found: install the rar package to create CBR files")

	// ErrNoImages is returned when a conversion step finds zero images where
	// at least one is required. An empty archive or PDF is never produced.
	ErrNoImages = errors.New("no images found")
)
