package window

import (
	"errors"
	"fmt"
)

var errMismatchedLength = errors.New("window: samples and coefficients differ in length")

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("window: size must be positive, got %d", size)
	}
	return nil
}
