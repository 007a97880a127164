package indicator

import "github.com/IvanHuYY/Stockbot/pkg/errors"

// positiveIntParam reads params[index] as a positive int.
func positiveIntParam(params []any, index int, name string) (int, error) {
	if len(params) <= index {
		return 0, errors.Newf(errors.ErrCodeMissingParameter, "missing %s parameter", name)
	}

	value, ok := params[index].(int)
	if !ok {
		return 0, errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected int", name)
	}

	if value <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, value)
	}

	return value, nil
}

// positiveFloatParam reads params[index] as a positive float64.
func positiveFloatParam(params []any, index int, name string) (float64, error) {
	if len(params) <= index {
		return 0, errors.Newf(errors.ErrCodeMissingParameter, "missing %s parameter", name)
	}

	value, ok := params[index].(float64)
	if !ok {
		return 0, errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected float64", name)
	}

	if value <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "%s must be positive, got %f", name, value)
	}

	return value, nil
}
