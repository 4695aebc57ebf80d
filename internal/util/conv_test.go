package util

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLenientFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`7.5`, 7.5},
		{`"8"`, 8},
		{`" 2.25 "`, 2.25},
		{`-1`, -1},
	}
	for _, tc := range cases {
		var f LenientFloat
		require.NoError(t, json.Unmarshal([]byte(tc.in), &f), tc.in)
		assert.Equal(t, tc.want, float64(f), tc.in)
	}

	for _, in := range []string{`"lots"`, `true`, `{}`, `[1]`} {
		var f LenientFloat
		require.NoError(t, json.Unmarshal([]byte(in), &f), in)
		assert.True(t, math.IsNaN(float64(f)), in)
	}
}
