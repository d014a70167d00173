package workout

import "errors"

var (
	// ErrInsufficientCalibrationData is returned when a calibration phase is
	// completed without a single sample. Calibration state is left unchanged.
	ErrInsufficientCalibrationData = errors.New("no calibration samples collected")

	// ErrInvalidCalibrationOrdering is returned when the max average is not
	// strictly greater than the stored min average, or no min exists yet.
	ErrInvalidCalibrationOrdering = errors.New("max angle must be greater than min angle")
)
