package analyze

import "trulogo-server-go/internal/domain/variants"

// MaxFileSize caps uploaded logos at 5MB.
const MaxFileSize = 5 * 1024 * 1024

// VariantsResponse wraps the generated redesign candidates.
type VariantsResponse struct {
	Variants []variants.Variant `json:"variants"`
}
