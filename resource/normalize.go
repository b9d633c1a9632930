package resource

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/fiesolecouk/declansx/faults"
)

// Normalize produces the canonical comparison form of a decoded payload:
// integers fold to int64, json.Number resolves, typed maps and slices flatten
// to map[string]any / []any. Comparison and diff always run on normalized
// values so a remote json.Number never mismatches a local int.
func Normalize(value Value) (Value, error) {
	return canonicalValue(value)
}

func canonicalValue(value any) (any, error) {
	switch typed := value.(type) {
	case nil, bool, string:
		return typed, nil
	case int, int8, int16, int32, int64:
		return reflect.ValueOf(typed).Int(), nil
	case uint, uint8, uint16, uint32, uint64:
		return foldUint(reflect.ValueOf(typed).Uint())
	case float32:
		return foldFloat(float64(typed))
	case float64:
		return foldFloat(typed)
	case json.Number:
		return foldNumber(typed)
	case []any:
		return canonicalSlice(typed)
	case map[string]any:
		return canonicalMap(typed)
	}
	return canonicalViaReflect(value)
}

func foldFloat(value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, validationError("payload contains non-finite float")
	}
	return value, nil
}

func foldUint(value uint64) (int64, error) {
	if value > math.MaxInt64 {
		return 0, validationError("payload contains integer out of range")
	}
	return int64(value), nil
}

// foldNumber resolves a json.Number to int64 when integral, float64
// otherwise. Integral values wider than int64 are rejected instead of being
// rounded through float64.
func foldNumber(number json.Number) (any, error) {
	if integer, err := number.Int64(); err == nil {
		return integer, nil
	}
	if wide, ok := new(big.Int).SetString(number.String(), 10); ok {
		if wide.IsInt64() {
			return wide.Int64(), nil
		}
		return nil, validationError("payload contains integer out of range")
	}

	floating, err := number.Float64()
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "payload contains an unparseable number", err)
	}
	return foldFloat(floating)
}

func canonicalSlice(values []any) ([]any, error) {
	folded := make([]any, len(values))
	for i, element := range values {
		result, err := canonicalValue(element)
		if err != nil {
			return nil, err
		}
		folded[i] = result
	}
	return folded, nil
}

func canonicalMap(values map[string]any) (map[string]any, error) {
	folded := make(map[string]any, len(values))
	for key, element := range values {
		result, err := canonicalValue(element)
		if err != nil {
			return nil, err
		}
		folded[key] = result
	}
	return folded, nil
}

// canonicalViaReflect covers typed containers the decoder never produces but
// callers may hand in directly, e.g. []string route advertisement lists or
// map[string]string tag payloads.
func canonicalViaReflect(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Map:
		if reflected.Type().Key().Kind() != reflect.String {
			return nil, validationError("payload map keys must be strings")
		}

		folded := make(map[string]any, reflected.Len())
		iter := reflected.MapRange()
		for iter.Next() {
			result, err := canonicalValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			folded[iter.Key().String()] = result
		}
		return folded, nil
	case reflect.Slice, reflect.Array:
		folded := make([]any, reflected.Len())
		for idx := range folded {
			result, err := canonicalValue(reflected.Index(idx).Interface())
			if err != nil {
				return nil, err
			}
			folded[idx] = result
		}
		return folded, nil
	default:
		return nil, validationError(fmt.Sprintf("unsupported payload type %T", value))
	}
}
