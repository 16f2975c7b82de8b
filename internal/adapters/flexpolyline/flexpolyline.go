// Package flexpolyline decodes and encodes HERE flexible polylines.
package flexpolyline

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	formatVersion = 1
	alphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

// ThirdDim is the meaning of the optional third coordinate.
type ThirdDim int

const (
	Absent    ThirdDim = 0
	Level     ThirdDim = 1
	Altitude  ThirdDim = 2
	Elevation ThirdDim = 3
	Custom1   ThirdDim = 6
	Custom2   ThirdDim = 7
)

var (
	ErrUnsupportedVersion = errors.New("unsupported polyline format version")
	ErrInvalidChar        = errors.New("invalid polyline character")
	ErrTruncated          = errors.New("truncated polyline")
)

var decodeTable = func() [128]int8 {
	var t [128]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = int8(i)
	}
	return t
}()

// Header describes the precision the polyline was encoded with.
type Header struct {
	Precision         int
	ThirdDim          ThirdDim
	ThirdDimPrecision int
}

type reader struct {
	s   string
	pos int
}

func (r *reader) done() bool { return r.pos >= len(r.s) }

func (r *reader) uvarint() (uint64, error) {
	var result uint64
	var shift uint
	for {
		if r.pos >= len(r.s) {
			return 0, ErrTruncated
		}
		c := r.s[r.pos]
		if c >= 128 || decodeTable[c] < 0 {
			return 0, fmt.Errorf("%w %q at %d", ErrInvalidChar, c, r.pos)
		}
		r.pos++

		v := uint64(decodeTable[c])
		result |= (v & 0x1F) << shift
		if v&0x20 == 0 {
			return result, nil
		}
		shift += 5
		if shift > 63 {
			return 0, fmt.Errorf("varint overflow at %d", r.pos)
		}
	}
}

func (r *reader) varint() (int64, error) {
	u, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	v := int64(u >> 1)
	if u&1 != 0 {
		v = ^v
	}
	return v, nil
}

func (r *reader) header() (Header, error) {
	version, err := r.uvarint()
	if err != nil {
		return Header{}, err
	}
	if version != formatVersion {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	h, err := r.uvarint()
	if err != nil {
		return Header{}, err
	}
	return Header{
		Precision:         int(h & 15),
		ThirdDim:          ThirdDim((h >> 4) & 7),
		ThirdDimPrecision: int((h >> 7) & 15),
	}, nil
}

// Decode returns the points of encoded as a flat lat, lng, z sequence. z is 0
// for two-dimensional polylines.
func Decode(encoded string) ([]float64, Header, error) {
	r := &reader{s: strings.TrimSpace(encoded)}

	h, err := r.header()
	if err != nil {
		return nil, Header{}, fmt.Errorf("decode header: %w", err)
	}

	scale := math.Pow10(h.Precision)
	zScale := math.Pow10(h.ThirdDimPrecision)

	var out []float64
	var lat, lng, z int64
	for !r.done() {
		dLat, err := r.varint()
		if err != nil {
			return nil, h, fmt.Errorf("decode latitude: %w", err)
		}
		dLng, err := r.varint()
		if err != nil {
			return nil, h, fmt.Errorf("decode longitude: %w", err)
		}
		lat += dLat
		lng += dLng

		if h.ThirdDim != Absent {
			dz, err := r.varint()
			if err != nil {
				return nil, h, fmt.Errorf("decode third dimension: %w", err)
			}
			z += dz
		}

		out = append(out, float64(lat)/scale, float64(lng)/scale, float64(z)/zScale)
	}

	return out, h, nil
}

// Encode writes points (flat lat, lng, z triples) as a flexible polyline.
// The third value of each triple is dropped when h.ThirdDim is Absent.
func Encode(points []float64, h Header) (string, error) {
	if len(points)%3 != 0 {
		return "", fmt.Errorf("encode: %d values is not a whole number of points", len(points))
	}
	if h.Precision < 0 || h.Precision > 15 || h.ThirdDimPrecision < 0 || h.ThirdDimPrecision > 15 {
		return "", errors.New("encode: precision out of range")
	}

	var b strings.Builder
	writeUvarint(&b, formatVersion)
	writeUvarint(&b, uint64(h.Precision)|uint64(h.ThirdDim)<<4|uint64(h.ThirdDimPrecision)<<7)

	scale := math.Pow10(h.Precision)
	zScale := math.Pow10(h.ThirdDimPrecision)

	var lastLat, lastLng, lastZ int64
	for i := 0; i < len(points); i += 3 {
		lat := int64(math.Round(points[i] * scale))
		lng := int64(math.Round(points[i+1] * scale))
		writeVarint(&b, lat-lastLat)
		writeVarint(&b, lng-lastLng)
		lastLat, lastLng = lat, lng

		if h.ThirdDim != Absent {
			z := int64(math.Round(points[i+2] * zScale))
			writeVarint(&b, z-lastZ)
			lastZ = z
		}
	}
	return b.String(), nil
}

func writeUvarint(b *strings.Builder, v uint64) {
	for v > 0x1F {
		b.WriteByte(alphabet[(v&0x1F)|0x20])
		v >>= 5
	}
	b.WriteByte(alphabet[v])
}

func writeVarint(b *strings.Builder, v int64) {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	writeUvarint(b, u)
}

// Decoder adapts Decode to ports.GeometryDecoder.
type Decoder struct{}

func (Decoder) Decode(encoded string) ([]float64, error) {
	points, _, err := Decode(encoded)
	return points, err
}
