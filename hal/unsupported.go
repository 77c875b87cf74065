//go:build !cgo

package hal

import "fmt"

// New reports that no HAL backend is available: both the Core Audio binding
// and the miniaudio fallback need cgo.
func New() (PropertyService, error) {
	return nil, fmt.Errorf("%w: building without cgo leaves no HAL backend", ErrUnsupported)
}
