package value_test

import (
	"math"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/fogfactory/concurrent/value"
)

func TestKind(t *testing.T) {
	t.Run("success_classify_variants", func(t *testing.T) {
		td.Cmp(t, value.KindOf(nil), value.KindNull)
		td.Cmp(t, value.KindOf(true), value.KindBool)
		td.Cmp(t, value.KindOf(1.5), value.KindNumber)
		td.Cmp(t, value.KindOf(3), value.KindNumber)
		td.Cmp(t, value.KindOf("a"), value.KindString)
		td.Cmp(t, value.KindOf([]any{1.0}), value.KindArray)
		td.Cmp(t, value.KindOf(value.Object{}), value.KindObject)
		td.Cmp(t, value.KindOf(map[string]any{}), value.KindObject)
		td.Cmp(t, value.KindOf(struct{}{}), value.KindInvalid)
		td.Cmp(t, value.KindArray.String(), "array")
	})

	t.Run("success_as_number_only_numbers", func(t *testing.T) {
		n, ok := value.AsNumber(int64(4))
		td.CmpTrue(t, ok)
		td.Cmp(t, n, 4.0)

		_, ok = value.AsNumber("4")
		td.CmpFalse(t, ok, "numeric strings are not numbers")

		_, ok = value.AsNumber(nil)
		td.CmpFalse(t, ok)
	})
}

func TestObject(t *testing.T) {
	t.Run("success_set_keeps_order_and_unique_keys", func(t *testing.T) {
		// Arrange
		var obj value.Object

		// Act
		obj.Set("b", 1.0)
		obj.Set("a", 2.0)
		obj.Set("b", 3.0)

		// Assert
		td.Cmp(t, obj.Keys(), []string{"b", "a"})
		td.Cmp(t, obj.Len(), 2)
		got, ok := obj.Get("b")
		td.CmpTrue(t, ok)
		td.Cmp(t, got, 3.0)
		_, ok = obj.Get("missing")
		td.CmpFalse(t, ok)
	})
}

func TestClone(t *testing.T) {
	t.Run("success_deep_copy", func(t *testing.T) {
		// Arrange
		inner := []any{1.0, "x"}
		src := value.Object{{Key: "list", Value: inner}}

		// Act
		cloned, err := value.Clone(src)

		// Assert
		td.Require(t).CmpNoError(err)
		td.Cmp(t, cloned, src)
		inner[0] = 99.0
		td.Cmp(t, cloned, value.Object{{Key: "list", Value: []any{1.0, "x"}}}, "clone must not alias source")
	})

	t.Run("success_nil", func(t *testing.T) {
		cloned, err := value.Clone(nil)
		td.CmpNoError(t, err)
		td.CmpNil(t, cloned)
	})
}

func TestJSON(t *testing.T) {
	t.Run("success_round_trip_preserves_key_order", func(t *testing.T) {
		// Arrange
		src := `{"z":1,"a":[true,null,"s",{"k":2.5}],"m":{}}`

		// Act
		v, err := value.Parse([]byte(src))
		td.Require(t).CmpNoError(err)
		out, err := value.Encode(v)

		// Assert
		td.Require(t).CmpNoError(err)
		td.Cmp(t, string(out), src)
		td.Cmp(t, v.(value.Object).Keys(), []string{"z", "a", "m"})
	})

	t.Run("success_non_finite_numbers_encode_as_null", func(t *testing.T) {
		out, err := value.Encode([]any{math.NaN(), math.Inf(1), 2.0})
		td.CmpNoError(t, err)
		td.Cmp(t, string(out), "[null,null,2]")
	})

	t.Run("success_maps_encode_with_sorted_keys", func(t *testing.T) {
		out, err := value.Encode(map[string]any{"b": 1, "a": "x"})
		td.CmpNoError(t, err)
		td.Cmp(t, string(out), `{"a":"x","b":1}`)
	})

	t.Run("success_size", func(t *testing.T) {
		n, err := value.Size(value.Object{{Key: "a", Value: true}})
		td.CmpNoError(t, err)
		td.Cmp(t, n, len(`{"a":true}`))
	})

	t.Run("error_trailing_data", func(t *testing.T) {
		_, err := value.Parse([]byte(`1 2`))
		td.CmpErrorIs(t, err, value.ErrTrailingData)
	})

	t.Run("error_malformed", func(t *testing.T) {
		_, err := value.Parse([]byte(`{"a":`))
		td.CmpError(t, err)
	})

	t.Run("error_unmarshal_non_object", func(t *testing.T) {
		var obj value.Object
		td.CmpError(t, obj.UnmarshalJSON([]byte(`[1]`)))
		td.CmpNoError(t, obj.UnmarshalJSON([]byte(`{"k":"v"}`)))
		td.Cmp(t, obj, value.Object{{Key: "k", Value: "v"}})
	})
}
