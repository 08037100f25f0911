package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got, err := MarshalCanonical(Object{
		"qty":  Int(2),
		"item": String("seed"),
		"ok":   Bool(true),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"item":"seed","ok":true,"qty":2}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical(String("<a&b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(got))
}

func TestMarshalCanonical_LineSeparatorsLiteral(t *testing.T) {
	got, err := MarshalCanonical(String("a\u2028b"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(got))
}

func TestMarshalCanonical_EscapedBackslashKept(t *testing.T) {
	got, err := MarshalCanonical(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	a, err := MarshalCanonical(String("cafe\u0301"))
	require.NoError(t, err)
	b, err := MarshalCanonical(String("caf\u00e9"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshalCanonical_RejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"p": 0.5})
	assert.Error(t, err)
}

func TestMarshalCanonical_GoMapsAndSlices(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"b": []any{int64(1), "x"},
		"a": true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":true,"b":[1,"x"]}`, string(got))
}

func TestObject_UnmarshalJSON(t *testing.T) {
	var obj Object
	require.NoError(t, obj.UnmarshalJSON([]byte(`{"qty":3,"items":[{"item":"seed","qty":1}]}`)))
	assert.Equal(t, Int(3), obj["qty"])
	assert.Equal(t, Array{Object{"item": String("seed"), "qty": Int(1)}}, obj["items"])

	assert.Error(t, obj.UnmarshalJSON([]byte(`{"p":0.5}`)))
	assert.Error(t, obj.UnmarshalJSON([]byte(`[1]`)))
}

func TestItemsValue(t *testing.T) {
	v := ItemsValue([]ItemQty{{Item: "seed", Qty: 2}})
	got, err := MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, `[{"item":"seed","qty":2}]`, string(got))
}

func TestSortedKeys_UTF16Order(t *testing.T) {
	// U+FB01 sorts after U+1F600's high surrogate (0xD83D) in UTF-16,
	// but before it in UTF-8 byte order.
	obj := Object{"\uFB01": Int(1), "\U0001F600": Int(2)}
	assert.Equal(t, []string{"\U0001F600", "\uFB01"}, obj.SortedKeys())
}
