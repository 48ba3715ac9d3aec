// Package ais encodes and decodes AIS position reports carried in NMEA 0183
// AIVDM/AIVDO sentences.
package ais

import (
	"errors"
	"fmt"
)

var (
	// ErrBadPayload means the payload contains characters outside the
	// 6-bit armoring alphabet or an invalid fill count.
	ErrBadPayload = errors.New("ais: bad payload")
	// ErrShortPayload means the payload has fewer bits than the message needs.
	ErrShortPayload = errors.New("ais: payload too short")
	// ErrUnsupportedType is returned for message types other than 1, 2 and 3.
	ErrUnsupportedType = errors.New("ais: unsupported message type")
	// ErrOutOfRange is returned when a field value does not fit its wire width.
	ErrOutOfRange = errors.New("ais: value out of range")
)

// Armor packs bits (one 0/1 per byte) into the 6-bit ASCII alphabet.
// The returned fill is the number of padding bits added to the last character.
func Armor(bits []byte) (payload string, fill int) {
	n := (len(bits) + 5) / 6
	fill = n*6 - len(bits)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var v byte
		for j := 0; j < 6; j++ {
			v <<= 1
			if k := i*6 + j; k < len(bits) {
				v |= bits[k] & 1
			}
		}
		if v < 40 {
			out[i] = v + 48
		} else {
			out[i] = v + 56
		}
	}
	return string(out), fill
}

// Dearmor unpacks a 6-bit ASCII payload into bits, dropping fill padding bits.
func Dearmor(payload string, fill int) ([]byte, error) {
	if fill < 0 || fill > 5 {
		return nil, fmt.Errorf("%w: fill bits %d", ErrBadPayload, fill)
	}
	bits := make([]byte, 0, len(payload)*6)
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if c < 48 || c > 119 || (c > 87 && c < 96) {
			return nil, fmt.Errorf("%w: invalid character %q at %d", ErrBadPayload, c, i)
		}
		v := c - 48
		if v > 40 {
			v -= 8
		}
		for j := 5; j >= 0; j-- {
			bits = append(bits, (v>>uint(j))&1)
		}
	}
	if fill > len(bits) {
		return nil, fmt.Errorf("%w: fill exceeds payload", ErrBadPayload)
	}
	return bits[:len(bits)-fill], nil
}
