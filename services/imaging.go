package services

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Grayscale transforms tried before each decode attempt. Order is not
// semantically meaningful beyond "first hit wins"; decode short-circuits.

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	xdraw.Draw(g, b, img, b.Min, xdraw.Src)
	return g
}

// downscale caps the longest side at maxDim; barcode symbol decoding
// degrades on multi-megapixel phone frames and gains nothing from them.
func downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// rotateQuarters rotates the image by quarters*90 degrees clockwise.
func rotateQuarters(img image.Image, quarters int) image.Image {
	quarters = ((quarters % 4) + 4) % 4
	if quarters == 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var dst *image.RGBA
	if quarters == 2 {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			switch quarters {
			case 1:
				dst.Set(h-1-y, x, c)
			case 2:
				dst.Set(w-1-x, h-1-y, c)
			case 3:
				dst.Set(y, w-1-x, c)
			}
		}
	}
	return dst
}

func invert(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	for i, v := range src.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst
}

// equalizeHist spreads the global intensity histogram over the full
// 0..255 range.
func equalizeHist(src *image.Gray) *image.Gray {
	var hist [256]int
	for _, v := range src.Pix {
		hist[v]++
	}
	total := len(src.Pix)
	if total == 0 {
		return src
	}
	var lut [256]uint8
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		lut[i] = uint8(cum * 255 / total)
	}
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		dst.Pix[i] = lut[v]
	}
	return dst
}

// tiledEqualize is a contrast enhancement in the CLAHE family: the
// histogram is equalized per tile so a glare spot does not wash out
// the rest of the frame. No inter-tile interpolation; the decoder only
// needs bar/space contrast, not smooth gradients.
func tiledEqualize(src *image.Gray, tiles int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if tiles < 1 || w < tiles || h < tiles {
		return equalizeHist(src)
	}
	dst := image.NewGray(b)
	tw, th := (w+tiles-1)/tiles, (h+tiles-1)/tiles
	for ty := 0; ty < h; ty += th {
		for tx := 0; tx < w; tx += tw {
			x1, y1 := min(tx+tw, w), min(ty+th, h)
			var hist [256]int
			for y := ty; y < y1; y++ {
				for x := tx; x < x1; x++ {
					hist[src.GrayAt(b.Min.X+x, b.Min.Y+y).Y]++
				}
			}
			n := (x1 - tx) * (y1 - ty)
			var lut [256]uint8
			cum := 0
			for i := 0; i < 256; i++ {
				cum += hist[i]
				lut[i] = uint8(cum * 255 / n)
			}
			for y := ty; y < y1; y++ {
				for x := tx; x < x1; x++ {
					dst.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: lut[src.GrayAt(b.Min.X+x, b.Min.Y+y).Y]})
				}
			}
		}
	}
	return dst
}

// adaptiveThreshold binarizes against the local block mean minus c,
// using an integral image so the block size stays cheap.
func adaptiveThreshold(src *image.Gray, block, c int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if block%2 == 0 {
		block++
	}
	r := block / 2

	integral := make([]int, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			row += int(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + row
		}
	}
	sum := func(x0, y0, x1, y1 int) int {
		return integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] - integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
	}

	dst := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(x-r, 0), max(y-r, 0)
			x1, y1 := min(x+r+1, w), min(y+r+1, h)
			area := (x1 - x0) * (y1 - y0)
			mean := sum(x0, y0, x1, y1) / area
			v := uint8(0)
			if int(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y) > mean-c {
				v = 255
			}
			dst.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: v})
		}
	}
	return dst
}

func binaryThreshold(src *image.Gray, cutoff uint8) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		if v > cutoff {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// gaussianBlur applies a fixed 5x5 kernel (sigma ~1) to knock down
// sensor noise before a global threshold.
func gaussianBlur(src *image.Gray) *image.Gray {
	kernel := [5]int{1, 4, 6, 4, 1}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	tmp := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc, div := 0, 0
			for k := -2; k <= 2; k++ {
				xx := x + k
				if xx < 0 || xx >= w {
					continue
				}
				acc += kernel[k+2] * int(src.GrayAt(b.Min.X+xx, b.Min.Y+y).Y)
				div += kernel[k+2]
			}
			tmp.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: uint8(acc / div)})
		}
	}
	dst := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc, div := 0, 0
			for k := -2; k <= 2; k++ {
				yy := y + k
				if yy < 0 || yy >= h {
					continue
				}
				acc += kernel[k+2] * int(tmp.GrayAt(b.Min.X+x, b.Min.Y+yy).Y)
				div += kernel[k+2]
			}
			dst.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: uint8(acc / div)})
		}
	}
	return dst
}

// morphology with a 3x3 rectangular element on binarized images.

func erode(src *image.Gray) *image.Gray {
	return morph(src, func(minV, maxV uint8) uint8 { return minV })
}

func dilate(src *image.Gray) *image.Gray {
	return morph(src, func(minV, maxV uint8) uint8 { return maxV })
}

func morphClose(src *image.Gray) *image.Gray {
	return erode(dilate(src))
}

func morphOpen(src *image.Gray) *image.Gray {
	return dilate(erode(src))
}

func morph(src *image.Gray, pick func(minV, maxV uint8) uint8) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			minV, maxV := uint8(255), uint8(0)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx < 0 || xx >= w || yy < 0 || yy >= h {
						continue
					}
					v := src.GrayAt(b.Min.X+xx, b.Min.Y+yy).Y
					if v < minV {
						minV = v
					}
					if v > maxV {
						maxV = v
					}
				}
			}
			dst.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: pick(minV, maxV)})
		}
	}
	return dst
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
