// Package imaging декодирует изображения и приводит их к каноническому виду,
// общему для перцептивного хеша и энкодера эмбеддингов.
package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/jimlawless/whereami"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultTargetSize: сторона канонического квадрата.
const DefaultTargetSize = 224

// Normalizer приводит сырые байты к usecase.CanonicalImage.
type Normalizer struct {
	size int
}

func NewNormalizer(size int) *Normalizer {
	if size <= 0 {
		size = DefaultTargetSize
	}
	return &Normalizer{size: size}
}

// Normalize проверяет сигнатуру, декодирует байты, масштабирует до size×size и отбрасывает альфа-канал.
func (n *Normalizer) Normalize(data []byte) (*usecase.CanonicalImage, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, e.Wrap(format+": "+err.Error(), e.ErrUndecodableImage)
	}
	if src.Bounds().Empty() {
		return nil, e.Wrap("empty bounds", e.ErrUndecodableImage)
	}

	img := n.Resize(src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return usecase.NewCanonicalImage(img, buf.Bytes()), nil
}

// Resize масштабирует изображение фильтром Catmull-Rom и переводит в непрозрачный RGB.
func (n *Normalizer) Resize(src image.Image) *image.RGBA {
	scaled := image.NewNRGBA(image.Rect(0, 0, n.size, n.size))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)

	// Альфа отбрасывается, цветовые каналы остаются как есть.
	out := image.NewRGBA(scaled.Bounds())
	for i := 0; i < len(scaled.Pix); i += 4 {
		out.Pix[i] = scaled.Pix[i]
		out.Pix[i+1] = scaled.Pix[i+1]
		out.Pix[i+2] = scaled.Pix[i+2]
		out.Pix[i+3] = 0xff
	}
	return out
}

// DetectFormat определяет формат изображения по сигнатуре. Всё, кроме JPEG, PNG, GIF и WEBP,
// отклоняется с ErrUnsupportedMediaType ещё до декодирования.
func DetectFormat(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return "jpeg", nil
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png", nil
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif", nil
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp", nil
	default:
		return "", e.ErrUnsupportedMediaType
	}
}
