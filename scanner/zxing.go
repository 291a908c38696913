package scanner

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/pkg/errors"
)

var _ Decoder = (*ZXingDecoder)(nil)

// ZXingDecoder reads product barcodes (EAN/UPC family) from frames using
// the gozxing reader.
type ZXingDecoder struct {
	reader gozxing.Reader
}

// NewZXingDecoder builds a decoder with the multi-format UPC/EAN reader.
func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{reader: oned.NewMultiFormatUPCEANReader(nil)}
}

// NewZXingDecoderWithReader builds a decoder around a specific gozxing
// reader, e.g. a QR reader.
func NewZXingDecoderWithReader(reader gozxing.Reader) *ZXingDecoder {
	return &ZXingDecoder{reader: reader}
}

// Decode returns the barcode text in img, or ErrNoCode when the frame
// holds no readable code.
func (d *ZXingDecoder) Decode(img image.Image) (string, error) {
	bitmap, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", errors.Wrap(err, "build bitmap")
	}
	result, err := d.reader.Decode(bitmap, nil)
	if err != nil {
		if _, ok := err.(gozxing.NotFoundException); ok {
			return "", ErrNoCode
		}
		return "", errors.Wrap(err, "decode frame")
	}
	return result.GetText(), nil
}
