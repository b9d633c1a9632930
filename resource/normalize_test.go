package resource

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("folds_decoded_policy_payload", func(t *testing.T) {
		t.Parallel()

		input := map[string]any{
			"display_name": "web-tier",
			"_revision":    json.Number("4"),
			"expression": []any{
				map[string]any{
					"resource_type": "Condition",
					"member_type":   "VirtualMachine",
					"value":         json.Number("8080"),
				},
			},
			"tags": map[string]any{
				"count":  uint16(3),
				"weight": json.Number("1.5"),
			},
		}

		got, err := Normalize(input)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}

		want := map[string]any{
			"display_name": "web-tier",
			"_revision":    int64(4),
			"expression": []any{
				map[string]any{
					"resource_type": "Condition",
					"member_type":   "VirtualMachine",
					"value":         int64(8080),
				},
			},
			"tags": map[string]any{
				"count":  int64(3),
				"weight": float64(1.5),
			},
		}

		if !jsonEqual(got, want) {
			t.Fatalf("want %#v, got %#v", want, got)
		}
	})

	t.Run("flattens_typed_containers", func(t *testing.T) {
		t.Parallel()

		got, err := Normalize(map[string]any{
			"route_advertisement_types": []string{"TIER1_CONNECTED", "TIER1_NAT"},
			"labels":                    map[string]string{"env": "prod"},
		})
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}

		want := map[string]any{
			"route_advertisement_types": []any{"TIER1_CONNECTED", "TIER1_NAT"},
			"labels":                    map[string]any{"env": "prod"},
		}
		if !jsonEqual(got, want) {
			t.Fatalf("want %#v, got %#v", want, got)
		}
	})

	t.Run("is_idempotent", func(t *testing.T) {
		t.Parallel()

		input := map[string]any{
			"_revision": json.Number("7"),
			"subnets":   []any{int32(24), "10.0.0.0/16"},
		}

		once, err := Normalize(input)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("second Normalize: %v", err)
		}
		if !jsonEqual(once, twice) {
			t.Fatalf("want stable form, got %#v then %#v", once, twice)
		}
	})

	t.Run("folds_integral_number_at_int64_boundary", func(t *testing.T) {
		t.Parallel()

		got, err := Normalize(json.Number("9223372036854775807"))
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if got != int64(math.MaxInt64) {
			t.Fatalf("want max int64, got %#v", got)
		}

		_, err = Normalize(json.Number("9223372036854775808"))
		assertValidationError(t, err)
	})

	t.Run("non_string_map_key", func(t *testing.T) {
		t.Parallel()

		_, err := Normalize(map[int]string{1: "x"})
		assertValidationError(t, err)
	})

	t.Run("infinite_float", func(t *testing.T) {
		t.Parallel()

		_, err := Normalize(math.Inf(1))
		assertValidationError(t, err)
	})

	t.Run("uint64_overflow", func(t *testing.T) {
		t.Parallel()

		_, err := Normalize(uint64(math.MaxInt64) + 1)
		assertValidationError(t, err)
	})

	t.Run("opaque_struct", func(t *testing.T) {
		t.Parallel()

		type opaque struct {
			ID string
		}
		_, err := Normalize(opaque{ID: "x"})
		assertValidationError(t, err)
	})
}

func jsonEqual(a any, b any) bool {
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}
