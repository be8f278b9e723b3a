// Package phash вычисляет перцептивный хеш изображения (DCT pHash) и расстояние Хэмминга между хешами.
//
// Изображение переводится в оттенки серого и масштабируется до 32x32, после чего берётся
// блок 8x8 низкочастотных коэффициентов двумерного DCT-II. Каждый бит хеша равен 1,
// если коэффициент больше медианы блока. Итого 64 бита.
package phash

import (
	"encoding/hex"
	"fmt"
	"image"
	"math"
	"math/bits"
	"sort"
	"strconv"

	"github.com/DRSN-tech/visual-search/pkg/e"
	"golang.org/x/image/draw"
)

const (
	// Size: сторона низкочастотного блока.
	Size = 8
	// HighFreqFactor: во сколько раз сэмпл больше блока.
	HighFreqFactor = 4
	// Bits: длина хеша в битах.
	Bits = Size * Size

	sampleSize = Size * HighFreqFactor
	words      = Bits / 64
	hexLen     = Bits / 4
)

// Hash: 64-битный перцептивный хеш, биты упакованы старшими вперёд по строкам блока.
type Hash [words]uint64

// cosTable[k][n] = cos(pi*k*(2n+1)/2N) для первых Size частот.
var cosTable = func() [Size][sampleSize]float64 {
	var t [Size][sampleSize]float64
	for k := 0; k < Size; k++ {
		for n := 0; n < sampleSize; n++ {
			t[k][n] = math.Cos(math.Pi * float64(k) * float64(2*n+1) / float64(2*sampleSize))
		}
	}
	return t
}()

// Compute возвращает перцептивный хеш изображения. Функция детерминирована.
func Compute(img image.Image) Hash {
	gray := image.NewGray(image.Rect(0, 0, sampleSize, sampleSize))
	draw.CatmullRom.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	// DCT по строкам: только первые Size частот
	var rows [sampleSize][Size]float64
	for y := 0; y < sampleSize; y++ {
		line := gray.Pix[y*gray.Stride : y*gray.Stride+sampleSize]
		for k := 0; k < Size; k++ {
			var sum float64
			for n, p := range line {
				sum += float64(p) * cosTable[k][n]
			}
			rows[y][k] = sum
		}
	}

	// DCT по столбцам
	block := make([]float64, Bits)
	for ky := 0; ky < Size; ky++ {
		for kx := 0; kx < Size; kx++ {
			var sum float64
			for y := 0; y < sampleSize; y++ {
				sum += rows[y][kx] * cosTable[ky][y]
			}
			block[ky*Size+kx] = sum
		}
	}

	med := median(block)

	var h Hash
	for i, v := range block {
		if v > med {
			h[i/64] |= 1 << (63 - uint(i%64))
		}
	}
	return h
}

// Distance возвращает расстояние Хэмминга между хешами.
func Distance(a, b Hash) int {
	d := 0
	for i := range a {
		d += bits.OnesCount64(a[i] ^ b[i])
	}
	return d
}

// String кодирует хеш в hex (16 символов).
func (h Hash) String() string {
	buf := make([]byte, 0, hexLen)
	for _, w := range h {
		buf = fmt.Appendf(buf, "%016x", w)
	}
	return string(buf)
}

// Parse разбирает hex-представление, полученное из String.
func Parse(s string) (Hash, error) {
	var h Hash
	if len(s) != hexLen {
		return h, e.Wrap(fmt.Sprintf("length %d", len(s)), e.ErrInvalidHash)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return h, e.Wrap(err.Error(), e.ErrInvalidHash)
	}

	for i := range h {
		w, err := strconv.ParseUint(s[i*16:(i+1)*16], 16, 64)
		if err != nil {
			return h, e.Wrap(err.Error(), e.ErrInvalidHash)
		}
		h[i] = w
	}
	return h, nil
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
