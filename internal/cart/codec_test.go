package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeUsesIDArrayForSingleUnits(t *testing.T) {
	data, err := Encode(FromIDs("a", "b"))
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(data))

	data, err = Encode(Cart{})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestEncodeUsesEntriesWhenQuantitiesDiffer(t *testing.T) {
	data, err := Encode(New(Entry{ID: "a", Quantity: 2}, Entry{ID: "b", Quantity: 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","quantity":2},{"id":"b","quantity":1}]`, string(data))
}

func TestDecodeForms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Entry
	}{
		{name: "empty", in: ``, want: []Entry{}},
		{name: "null", in: `null`, want: []Entry{}},
		{name: "empty array", in: `[]`, want: []Entry{}},
		{name: "legacy ids", in: `["a","b"]`, want: []Entry{{"a", 1}, {"b", 1}}},
		{name: "entries", in: `[{"id":"a","quantity":3}]`, want: []Entry{{"a", 3}}},
		{name: "mixed and duplicates", in: `["a",{"id":"b","quantity":2},"a"]`, want: []Entry{{"a", 2}, {"b", 2}}},
		{name: "entry without quantity is one unit", in: `[{"id":"a"},"b"]`, want: []Entry{{"a", 1}, {"b", 1}}},
		{name: "blank and invalid dropped", in: `["", {"id":"x","quantity":0}, 42, "c"]`, want: []Entry{{"c", 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Entries())
		})
	}
}

func TestDecodeRejectsNonArrays(t *testing.T) {
	for _, in := range []string{`{"a":1}`, `"a"`, `[`, `[{"id":5}]`} {
		_, err := Decode([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestEncodeDecodeKeepsCart(t *testing.T) {
	for _, c := range []Cart{
		{},
		FromIDs("a", "b", "c"),
		New(Entry{ID: "a", Quantity: 4}, Entry{ID: "b", Quantity: 1}),
	} {
		data, err := Encode(c)
		require.NoError(t, err)
		decoded, err := Decode(data)
		require.NoError(t, err)
		assert.True(t, decoded.Equal(c), "%s", data)
	}
}

func TestCartJSONAlwaysCarriesQuantities(t *testing.T) {
	data, err := json.Marshal(Snapshot{Cart: FromIDs("a"), Version: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":[{"id":"a","quantity":1}],"version":3}`, string(data))

	data, err = json.Marshal(Snapshot{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":[],"version":0}`, string(data))
}
