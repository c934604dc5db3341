package pipeline

import (
	"image"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"
)

// toGray8 returns a dense grayscale buffer so the strategy transforms
// below can index pixels directly instead of through the image.Image
// interface on every read.
func toGray8(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// otsuThreshold binarizes img using Otsu's method: the threshold that
// minimizes intra-class pixel-intensity variance.
func otsuThreshold(img image.Image) image.Image {
	gray := toGray8(img)
	var hist [256]int
	for _, v := range gray.Pix {
		hist[v]++
	}
	total := len(gray.Pix)

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var maxVar float64
	threshold := 0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		betweenVar := wB * wF * (mB - mF) * (mB - mF)
		if betweenVar > maxVar {
			maxVar = betweenVar
			threshold = t
		}
	}

	return binarize(gray, uint8(threshold))
}

func binarize(gray *image.Gray, threshold uint8) *image.Gray {
	out := image.NewGray(gray.Bounds())
	for i, v := range gray.Pix {
		if v >= threshold {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}

// adaptiveThreshold approximates cv2.adaptiveThreshold's Gaussian mean
// variant with an 11x11 window and constant C=2.
func adaptiveThreshold(img image.Image) image.Image {
	gray := toGray8(img)
	const window = 11
	const c = 2
	half := window / 2
	bounds := gray.Bounds()
	out := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var sum, count int
			for wy := -half; wy <= half; wy++ {
				for wx := -half; wx <= half; wx++ {
					ny, nx := y+wy, x+wx
					if ny < bounds.Min.Y || ny >= bounds.Max.Y || nx < bounds.Min.X || nx >= bounds.Max.X {
						continue
					}
					sum += int(gray.GrayAt(nx, ny).Y)
					count++
				}
			}
			mean := sum / count
			if int(gray.GrayAt(x, y).Y) >= mean-c {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// medianBlur applies a kxk median filter, matching cv2.medianBlur.
func medianBlur(img image.Image, k int) image.Image {
	gray := toGray8(img)
	half := k / 2
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	window := make([]int, 0, k*k)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			window = window[:0]
			for wy := -half; wy <= half; wy++ {
				for wx := -half; wx <= half; wx++ {
					ny, nx := y+wy, x+wx
					if ny < bounds.Min.Y || ny >= bounds.Max.Y || nx < bounds.Min.X || nx >= bounds.Max.X {
						continue
					}
					window = append(window, int(gray.GrayAt(nx, ny).Y))
				}
			}
			sort.Ints(window)
			out.SetGray(x, y, color.Gray{Y: uint8(window[len(window)/2])})
		}
	}
	return out
}

// sharpen applies the 3x3 unsharp kernel [[-1,-1,-1],[-1,9,-1],[-1,-1,-1]].
func sharpen(img image.Image) image.Image {
	kernel := [3][3]int{{-1, -1, -1}, {-1, 9, -1}, {-1, -1, -1}}
	gray := toGray8(img)
	bounds := gray.Bounds()
	out := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					ny, nx := y+ky, x+kx
					if ny < bounds.Min.Y || ny >= bounds.Max.Y || nx < bounds.Min.X || nx >= bounds.Max.X {
						continue
					}
					sum += int(gray.GrayAt(nx, ny).Y) * kernel[ky+1][kx+1]
				}
			}
			out.SetGray(x, y, color.Gray{Y: clampUint8(sum)})
		}
	}
	return out
}

func clampUint8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// upscale resizes img by factor using bicubic interpolation, matching
// cv2.INTER_CUBIC.
func upscale(img image.Image, factor float64) image.Image {
	bounds := img.Bounds()
	w := int(float64(bounds.Dx()) * factor)
	h := int(float64(bounds.Dy()) * factor)
	return imaging.Resize(img, w, h, imaging.CatmullRom)
}

// gaussianBlur applies a 5x5 Gaussian blur approximated with a
// separable kernel (sigma ~= 1).
func gaussianBlur(img image.Image) image.Image {
	return imaging.Blur(img, 1.0)
}

// invert produces the bitwise-not of a binarized image.
func invert(img image.Image) image.Image {
	gray := toGray8(img)
	out := image.NewGray(gray.Bounds())
	for i, v := range gray.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}
