package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ID
	}{
		{name: "number", in: `42`, want: "42"},
		{name: "string", in: `"a1b2"`, want: "a1b2"},
		{name: "null", in: `null`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.in), &id))
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestID_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}{A: "7", B: "abc", C: ""})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":7,"b":"abc","c":null}`, string(out))
}

func TestID_RejectsObjects(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

func TestList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []int
	}{
		{name: "array", in: `[1,2]`, want: []int{1, 2}},
		{name: "data envelope", in: `{"data":[3],"total":1}`, want: []int{3}},
		{name: "items envelope", in: `{"items":[4,5]}`, want: []int{4, 5}},
		{name: "null", in: `null`, want: []int{}},
		{name: "unknown envelope", in: `{"rows":[1]}`, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l List[int]
			require.NoError(t, json.Unmarshal([]byte(tt.in), &l))
			assert.Equal(t, tt.want, []int(l))
		})
	}
}
