package lsb

import (
	"testing"

	"github.com/bodgit/ghosttag/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGrid(t *testing.T) *pixel.Grid {
	g, err := pixel.NewGrid(8, 4, 3)
	require.NoError(t, err)
	for i := range g.Pix {
		g.Pix[i] = byte(i * 7)
	}
	return g
}

func TestRaster(t *testing.T) {
	assert.Equal(t, []int{5, 6, 7}, Raster(5, 3))
	assert.Empty(t, Raster(0, 0))
}

func TestBitOrder(t *testing.T) {
	g := newGrid(t)
	before := g.Clone()

	require.NoError(t, Write(g, Raster(0, 8), []byte{0x81}))

	for i := 0; i < 8; i++ {
		want := uint8(0)
		if i == 0 || i == 7 {
			want = 1
		}
		assert.Equal(t, want, g.Pix[i]&1, "slot %d", i)
		assert.Equal(t, before.Pix[i]&0xfe, g.Pix[i]&0xfe, "upper bits of slot %d", i)
	}
	assert.Equal(t, before.Pix[8:], g.Pix[8:])
}

func TestRoundTripScattered(t *testing.T) {
	g := newGrid(t)
	data := []byte("hi!")

	slots := []int{95, 3, 50, 12, 0, 77, 31, 64, 1, 2, 88, 90, 42, 43, 10, 11, 20, 21, 22, 23, 60, 61, 62, 63}
	require.NoError(t, Write(g, slots, data))

	got, err := Read(g, slots, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestNotEnoughSlots(t *testing.T) {
	g := newGrid(t)

	err := Write(g, Raster(0, 7), []byte{1})
	assert.ErrorIs(t, err, ErrNotEnoughSlots)

	_, err = Read(g, Raster(0, 15), 2)
	assert.ErrorIs(t, err, ErrNotEnoughSlots)

	err = Write(g, Raster(90, 8), []byte{1})
	assert.Error(t, err)
}
