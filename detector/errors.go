package detector

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrDatasetNotFound    = fmt.Errorf("dataset not found: %w", os.ErrNotExist)
	ErrCalibratorNotFound = fmt.Errorf("calibrator not found: %w", os.ErrNotExist)
	ErrMissingColumn      = errors.New("required column missing")
	ErrUnsupportedFormat  = errors.New("unsupported dataset format")
	ErrDatasetTooSmall    = errors.New("dataset has too few usable rows")
	ErrSingleClass        = errors.New("training partition contains a single class")
	ErrSingularMatrix     = errors.New("hessian is singular")
)
