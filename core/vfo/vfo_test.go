package vfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/rtlradio/core"
)

func TestFToHamlib(t *testing.T) {
	assert.Equal(t, "7050000", fToHamlib(7050000.4))
	assert.Equal(t, "145500000", fToHamlib(145500000))
}

func TestHamlibToF(t *testing.T) {
	tt := []struct {
		value    string
		expected core.Frequency
		invalid  bool
	}{
		{"7050000", 7050000, false},
		{"145500000.000000", 145500000, false},
		{" 3650000\n", 3650000, false},
		{"RPRT -1", 0, true},
		{"", 0, true},
	}
	for _, tc := range tt {
		t.Run(tc.value, func(t *testing.T) {
			actual, err := hamlibToF(tc.value)
			if tc.invalid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestHandleFrequency_NotifiesOnChange(t *testing.T) {
	v := newVFO()
	var notified []core.Frequency
	v.OnFrequencyChange(func(f core.Frequency) {
		notified = append(notified, f)
	})

	require.NoError(t, v.handleFrequency("7050000"))
	require.NoError(t, v.handleFrequency("7050000"))
	require.NoError(t, v.handleFrequency("7060000"))
	assert.Error(t, v.handleFrequency("invalid"))

	assert.Equal(t, []core.Frequency{7050000, 7060000}, notified)
	assert.Equal(t, core.Frequency(7060000), v.CurrentFrequency())
}

func TestSetFrequency_DoesNotBlock(t *testing.T) {
	v := newVFO()

	for i := 0; i < cap(v.setFrequency)+5; i++ {
		v.SetFrequency(core.Frequency(i))
	}

	assert.Len(t, v.setFrequency, cap(v.setFrequency))
}
