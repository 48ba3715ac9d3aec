package ais

import "fmt"

type bitWriter struct {
	bits []byte
}

func (w *bitWriter) putUint(v uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		w.bits = append(w.bits, byte(v>>uint(i))&1)
	}
}

func (w *bitWriter) putInt(v int64, width int) {
	w.putUint(uint64(v)&(1<<uint(width)-1), width)
}

type bitReader struct {
	bits []byte
	pos  int
}

func (r *bitReader) readUint(width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		v = v<<1 | uint64(r.bits[r.pos])
		r.pos++
	}
	return v
}

func (r *bitReader) readInt(width int) int64 {
	v := r.readUint(width)
	if v&(1<<uint(width-1)) != 0 {
		return int64(v) - int64(1)<<uint(width)
	}
	return int64(v)
}

func checkUnsigned(name string, v int64, width int) error {
	if v < 0 || v >= int64(1)<<uint(width) {
		return fmt.Errorf("%w: %s=%d does not fit %d bits", ErrOutOfRange, name, v, width)
	}
	return nil
}

func checkSigned(name string, v int64, width int) error {
	lim := int64(1) << uint(width-1)
	if v < -lim || v >= lim {
		return fmt.Errorf("%w: %s=%d does not fit %d signed bits", ErrOutOfRange, name, v, width)
	}
	return nil
}
