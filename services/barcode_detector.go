package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"regexp"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"go.uber.org/zap"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// IsValidBarcode accepts 8 to 14 digit numeric codes, which covers
// EAN-8, UPC-A, EAN-13 and ITF-14.
func IsValidBarcode(code string) bool {
	if len(code) < 8 || len(code) > 14 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ExtractBarcode pulls the longest valid digit run out of arbitrary
// text, e.g. a decoder result carrying surrounding characters. Runs
// are maximal: a 15-digit sequence is rejected outright, not read as
// its first 14 digits.
func ExtractBarcode(s string) (string, bool) {
	best := ""
	for _, run := range digitRun.FindAllString(s, -1) {
		if len(run) >= 8 && len(run) <= 14 && len(run) > len(best) {
			best = run
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// BarcodeDetectorService locates product barcodes in photos. Phone
// shots of curved, glossy packaging routinely defeat a single decode
// pass, so the image is retried across rotations and contrast
// transforms until one attempt yields a valid code.
type BarcodeDetectorService struct {
	reader gozxing.Reader
	logger *zap.Logger
}

func NewBarcodeDetectorService(logger *zap.Logger) *BarcodeDetectorService {
	return &BarcodeDetectorService{
		reader: oned.NewMultiFormatUPCEANReader(nil),
		logger: logger,
	}
}

// maxDecodeDim caps image size before the transform sweep; see downscale.
const maxDecodeDim = 1600

type namedTransform struct {
	name  string
	apply func(*image.Gray) *image.Gray
}

var decodeTransforms = []namedTransform{
	{"identity", func(g *image.Gray) *image.Gray { return g }},
	{"tiled_equalize", func(g *image.Gray) *image.Gray { return tiledEqualize(g, 12) }},
	{"invert", invert},
	{"adaptive_threshold", func(g *image.Gray) *image.Gray {
		return morphOpen(morphClose(adaptiveThreshold(g, 11, 2)))
	}},
	{"equalize", equalizeHist},
	{"blur_threshold", func(g *image.Gray) *image.Gray {
		return binaryThreshold(gaussianBlur(g), 127)
	}},
}

// Detect decodes a barcode from raw image bytes. It returns the code
// and true on success, or ("", false) when no attempt yields a valid
// barcode. An undecodable image is an expected outcome, not an error;
// only a broken image payload is.
func (s *BarcodeDetectorService) Detect(imageBytes []byte) (string, bool, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return "", false, fmt.Errorf("failed to decode image: %w", err)
	}
	img = downscale(img, maxDecodeDim)

	for _, quarters := range []int{0, 1, 2, 3} {
		rotated := toGray(rotateQuarters(img, quarters))
		for _, tr := range decodeTransforms {
			text, ok := s.decodeOne(tr.apply(rotated))
			if !ok {
				continue
			}
			code, valid := ExtractBarcode(text)
			if !valid {
				s.logger.Debug("decoded text is not a barcode",
					zap.String("text", text),
					zap.String("transform", tr.name),
					zap.Int("rotation", quarters*90))
				continue
			}
			s.logger.Info("barcode detected",
				zap.String("barcode", code),
				zap.String("transform", tr.name),
				zap.Int("rotation", quarters*90))
			return code, true, nil
		}
	}
	return "", false, nil
}

// decodeOne runs a single decode attempt. The zxing port can panic on
// degenerate binarized input, so the attempt is fenced with a recover.
func (s *BarcodeDetectorService) decodeOne(img *image.Gray) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			text, ok = "", false
		}
	}()

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := s.reader.Decode(bmp, hints)
	if err != nil || result == nil {
		return "", false
	}
	return result.GetText(), true
}
