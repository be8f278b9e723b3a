package phash

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
)

func blocks(seed int64, size, cell int) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for by := 0; by < size; by += cell {
		for bx := 0; bx < size; bx += cell {
			c := color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255}
			for y := by; y < by+cell && y < size; y++ {
				for x := bx; x < bx+cell && x < size; x++ {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
	return img
}

func TestComputeIsDeterministic(t *testing.T) {
	img := blocks(1, 224, 28)
	assert.Equal(t, Compute(img), Compute(img))
}

func TestHashStableOnLosslessReencode(t *testing.T) {
	img := blocks(7, 224, 28)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)

	assert.LessOrEqual(t, Distance(Compute(img), Compute(decoded)), 1)
}

func TestHashCloseAfterMildRecompression(t *testing.T) {
	img := blocks(11, 256, 32)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	decoded, err := jpeg.Decode(&buf)
	require.NoError(t, err)

	assert.LessOrEqual(t, Distance(Compute(img), Compute(decoded)), 5)
}

func TestHashCloseAfterResize(t *testing.T) {
	img := blocks(13, 256, 32)

	small := image.NewRGBA(image.Rect(0, 0, 180, 180))
	draw.CatmullRom.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	assert.LessOrEqual(t, Distance(Compute(img), Compute(small)), 5)
}

func TestDifferentContentIsFar(t *testing.T) {
	a := Compute(blocks(1, 224, 28))
	b := Compute(blocks(2, 224, 28))
	assert.Greater(t, Distance(a, b), 12)
}

func TestStringParse(t *testing.T) {
	h := Compute(blocks(3, 128, 16))
	s := h.String()
	require.Len(t, s, Bits/4)

	parsed, err := Parse(s)
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
	assert.Equal(t, 0, Distance(h, parsed))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("abc")
	require.ErrorIs(t, err, e.ErrInvalidHash)

	bad := make([]byte, Bits/4)
	for i := range bad {
		bad[i] = 'z'
	}
	_, err = Parse(string(bad))
	require.ErrorIs(t, err, e.ErrInvalidHash)
}

func TestDistanceCountsBits(t *testing.T) {
	var a, b Hash
	b[0] = 0b1011 | 1<<63
	assert.Equal(t, 4, Distance(a, b))
	assert.Equal(t, Distance(a, b), Distance(b, a))
}
