package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type light string

const (
	red    light = "red"
	green  light = "green"
	yellow light = "yellow"
	off    light = "off"
)

func newLightRules() *Rules[light] {
	return NewRules[light]().
		Allow(red, green, off).
		Allow(green, yellow).
		Allow(yellow, red)
}

func TestRules_CanTransition(t *testing.T) {
	r := newLightRules()

	tests := []struct {
		from, to light
		want     bool
	}{
		{red, green, true},
		{green, yellow, true},
		{green, red, false},
		{off, red, false},
		{yellow, yellow, true}, // 原地不动总是允许
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, r.CanTransition(tt.from, tt.to))
		})
	}
}

func TestRules_TransitionHooks(t *testing.T) {
	var seen [][2]light
	r := newLightRules().OnTransition(func(from, to light) {
		seen = append(seen, [2]light{from, to})
	})

	require.NoError(t, r.Transition(red, green))
	require.NoError(t, r.Transition(green, green))

	err := r.Transition(off, red)
	require.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, [][2]light{{red, green}}, seen, "only real transitions fire hooks")
}

func TestRules_NextStatesAndTerminal(t *testing.T) {
	r := newLightRules().Allow(red, green) // 重复注册不产生重复项

	assert.Equal(t, []light{green, off}, r.NextStates(red))
	assert.True(t, r.IsTerminal(off))
	assert.False(t, r.IsTerminal(yellow))
}
