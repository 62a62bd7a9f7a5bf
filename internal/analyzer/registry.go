package analyzer

import (
	"fmt"

	"github.com/ivlev/fluxreel/internal/errs"
)

// NewDetector creates a detector for variant.
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	case "ocr", "ai":
		return nil, fmt.Errorf("%s detector not yet implemented", variant)
	default:
		return nil, errs.InvalidEnum("detector variant", variant)
	}
}
