// Package sniffer identifies profile image formats from their leading bytes.
// Only the formats accepted for profile photos are recognized.
package sniffer

import (
	"bytes"
	"errors"
	"io"
)

// HeadSize is how many leading bytes Detect inspects.
const HeadSize = 512

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

var ErrUnsupported = errors.New("unsupported image format")

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Detect reads up to HeadSize bytes from r and returns the image MIME type.
func Detect(r io.Reader) (string, error) {
	head := make([]byte, HeadSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return DetectHead(head[:n])
}

func DetectHead(head []byte) (string, error) {
	switch {
	case isJPEG(head):
		return MIMEJPEG, nil
	case isPNG(head):
		return MIMEPNG, nil
	}
	return "", ErrUnsupported
}

// Allowed reports whether mime is a profile photo type.
func Allowed(mime string) bool {
	return mime == MIMEJPEG || mime == MIMEPNG
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}
