package value

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Coerce converts operator input into a scalar of the same type and primitive as
// template. Strings are parsed; JSON numbers (float64) are accepted for integer
// scalars when they hold a whole number.
func Coerce(template Value, input any) (Value, error) {
	if template.kind != KindScalar {
		return Value{}, fmt.Errorf("%w: %s", ErrNotScalar, template.typeName)
	}
	converted, err := coerce(template.scalar, normalize(input))
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", template.typeName, err)
	}
	return Scalar(template.typeName, converted), nil
}

func coerce(template, input any) (any, error) {
	switch template.(type) {
	case int64:
		switch v := input.(type) {
		case int64:
			return v, nil
		case uint64:
			if v > math.MaxInt64 {
				return nil, fmt.Errorf("%w: %d overflows int64", ErrOutOfRange, v)
			}
			return int64(v), nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("expected integer, got %v", v)
			}
			n, err := floatToInt(v)
			if err != nil {
				return nil, err
			}
			return n, nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if errors.Is(err, strconv.ErrRange) {
				return nil, fmt.Errorf("%w: %s overflows int64", ErrOutOfRange, v)
			}
			return n, err
		}
	case uint64:
		switch v := input.(type) {
		case uint64:
			return v, nil
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("expected unsigned integer, got %d", v)
			}
			return uint64(v), nil
		case float64:
			if v < 0 || v != math.Trunc(v) {
				return nil, fmt.Errorf("expected unsigned integer, got %v", v)
			}
			if v >= math.MaxUint64 {
				return nil, fmt.Errorf("%w: %v overflows uint64", ErrOutOfRange, v)
			}
			return uint64(v), nil
		case string:
			n, err := strconv.ParseUint(v, 10, 64)
			if errors.Is(err, strconv.ErrRange) {
				return nil, fmt.Errorf("%w: %s overflows uint64", ErrOutOfRange, v)
			}
			return n, err
		}
	case float64:
		switch v := input.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case uint64:
			return float64(v), nil
		case string:
			return strconv.ParseFloat(v, 64)
		}
	case bool:
		switch v := input.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(v)
		}
	case string:
		switch v := input.(type) {
		case string:
			return v, nil
		default:
			return FormatScalar(v), nil
		}
	case []byte:
		switch v := input.(type) {
		case []byte:
			return append([]byte(nil), v...), nil
		case string:
			return hex.DecodeString(v)
		}
	case time.Time:
		switch v := input.(type) {
		case time.Time:
			return v, nil
		case string:
			return time.Parse(time.RFC3339Nano, v)
		case int64:
			return time.UnixMicro(v), nil
		case float64:
			us, err := floatToInt(math.Trunc(v))
			if err != nil {
				return nil, err
			}
			return time.UnixMicro(us), nil
		}
	}
	return nil, fmt.Errorf("cannot convert %T to %T", input, template)
}

// floatToInt converts a whole float64 to int64. float64(math.MaxInt64) rounds
// up to 2^63, which is already out of range.
func floatToInt(v float64) (int64, error) {
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v overflows int64", ErrOutOfRange, v)
	}
	return int64(v), nil
}
