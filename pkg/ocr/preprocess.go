package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// minOCRHeight is the height small photos are scaled up to before OCR.
const minOCRHeight = 1200

// variant is one preprocessed rendition of the input image.
type variant struct {
	name string
	img  image.Image
}

// prepare builds the renditions fed to Tesseract: an enhanced grayscale,
// a global threshold and a mean adaptive threshold. Thermal scale tickets
// are often faded so the adaptive one tends to win.
func prepare(src image.Image) []variant {
	gray := imaging.Grayscale(src)
	gray = imaging.AdjustContrast(gray, 20)
	gray = imaging.Sharpen(gray, 0.7)
	if gray.Bounds().Dy() < minOCRHeight {
		gray = imaging.Resize(gray, 0, minOCRHeight, imaging.Lanczos)
	}
	return []variant{
		{name: "gray", img: gray},
		{name: "binary", img: threshold(gray, 180)},
		{name: "adaptive", img: adaptiveThreshold(gray, 25, 10)},
	}
}

func luma(img *image.NRGBA, x, y int) int {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+3 : i+3]
	return (int(p[0]) + int(p[1]) + int(p[2])) / 3
}

func setBW(img *image.NRGBA, x, y int, black bool) {
	var v uint8 = 255
	if black {
		v = 0
	}
	i := img.PixOffset(x, y)
	img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
}

// threshold maps pixels at or below level to black and the rest to white.
func threshold(img *image.NRGBA, level int) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			setBW(out, x, y, luma(img, x, y) <= level)
		}
	}
	return out
}

// adaptiveThreshold blackens pixels darker than the mean of their window
// minus bias, using an integral image for the window sums.
func adaptiveThreshold(img *image.NRGBA, window, bias int) *image.NRGBA {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	sums := make([]int, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			row += luma(img, b.Min.X+x, b.Min.Y+y)
			sums[(y+1)*(w+1)+x+1] = sums[y*(w+1)+x+1] + row
		}
	}
	out := image.NewNRGBA(b)
	half := window / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half, h-1)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half, w-1)
			area := (x1 - x0 + 1) * (y1 - y0 + 1)
			sum := sums[(y1+1)*(w+1)+x1+1] - sums[y0*(w+1)+x1+1] - sums[(y1+1)*(w+1)+x0] + sums[y0*(w+1)+x0]
			setBW(out, b.Min.X+x, b.Min.Y+y, luma(img, b.Min.X+x, b.Min.Y+y) < sum/area-bias)
		}
	}
	return out
}
