package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/phash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeProducesOpaqueCanonicalImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			src.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 100, 128})
		}
	}

	c, err := NewNormalizer(224).Normalize(encodePNG(t, src))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 224, 224), c.Image.Bounds())
	for i := 3; i < len(c.Image.Pix); i += 4 {
		require.Equal(t, uint8(0xff), c.Image.Pix[i])
	}
	format, err := DetectFormat(c.PNG)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := NewNormalizer(0).Normalize([]byte("definitely not an image"))
	require.ErrorIs(t, err, e.ErrUnsupportedMediaType)

	truncated := encodePNG(t, image.NewRGBA(image.Rect(0, 0, 32, 32)))[:20]
	_, err = NewNormalizer(0).Normalize(truncated)
	require.ErrorIs(t, err, e.ErrUndecodableImage)
}

func TestCanonicalPNGHashesLikeCanonicalImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			src.SetRGBA(x, y, color.RGBA{uint8(x * y % 256), uint8(x), uint8(y), 255})
		}
	}

	n := NewNormalizer(224)
	first, err := n.Normalize(encodePNG(t, src))
	require.NoError(t, err)
	second, err := n.Normalize(first.PNG)
	require.NoError(t, err)

	assert.LessOrEqual(t, phash.Distance(phash.Compute(first.Image), phash.Compute(second.Image)), 1)
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		data []byte
		want string
	}{
		{data: []byte("\xff\xd8\xff\xe0...."), want: "jpeg"},
		{data: []byte("\x89PNG\r\n\x1a\n...."), want: "png"},
		{data: []byte("GIF89a...."), want: "gif"},
		{data: []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), want: "webp"},
	}
	for _, tc := range cases {
		got, err := DetectFormat(tc.data)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	for _, data := range [][]byte{nil, []byte("hello"), []byte("%PDF-1.7"), []byte("RIFF\x00\x00\x00\x00WAVE")} {
		_, err := DetectFormat(data)
		require.ErrorIs(t, err, e.ErrUnsupportedMediaType)
	}
}
