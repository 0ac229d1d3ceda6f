package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Position
		wantErr bool
	}{
		{"two components", "100,200", NewPosition(100, 200, 0), false},
		{"three components", "100,200,15.5", NewPosition(100, 200, 15.5), false},
		{"with spaces", " 1.5, 2.5, 3 ", NewPosition(1.5, 2.5, 3), false},
		{"negative", "-10,-20,-1", NewPosition(-10, -20, -1), false},
		{"single component", "100", Position{}, true},
		{"garbage", "a,b", Position{}, true},
		{"empty", "", Position{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PositionFromString(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCoordinates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDistance(t *testing.T) {
	a := NewPosition(0, 0, 0)
	b := NewPosition(3, 4, 100)

	// Elevation is ignored.
	assert.InDelta(t, 5.0, Distance(a, b), 1e-9)
	assert.InDelta(t, 5.0, Distance(b, a), 1e-9)
	assert.InDelta(t, 0.0, Distance(a, a), 1e-9)
}

func TestAway(t *testing.T) {
	agent := NewPosition(10, 10, 0)
	threat := NewPosition(10, 0, 0)

	got := Away(agent, threat, 50)
	assert.InDelta(t, 10.0, got.XY.X, 1e-9)
	assert.InDelta(t, 60.0, got.XY.Y, 1e-9)

	// Threat on top of the agent still produces a retreat point.
	got = Away(agent, agent, 50)
	assert.InDelta(t, 50.0, Distance(agent, got), 1e-9)
}

func TestPosition_Point(t *testing.T) {
	p := NewPosition(1, 2, 3)
	pt := p.Point()
	xy, ok := pt.XY()
	require.True(t, ok)
	assert.Equal(t, 1.0, xy.X)
	assert.Equal(t, 2.0, xy.Y)
}

func TestPosition_String(t *testing.T) {
	assert.Equal(t, "1.5,2,3", NewPosition(1.5, 2, 3).String())
}
