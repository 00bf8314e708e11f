package utils

import (
	"encoding/binary"
	"errors"
	"math/big"
)

// ErrShortBuffer is reported by InputBuf when a read runs past the end of the
// data.
var ErrShortBuffer = errors.New("unexpected end of buffer")

type OutputBuf struct {
	buf []byte
}

// AppendBigInt writes x as n little-endian bytes. x must fit.
func (o *OutputBuf) AppendBigInt(n int, x *big.Int) {
	zbuf := make([]byte, n)
	b := x.Bytes()
	for i := 0; i < len(b); i++ {
		zbuf[i] = b[len(b)-i-1]
	}
	o.buf = append(o.buf, zbuf...)
}

func (o *OutputBuf) AppendUint8(x uint8) {
	o.buf = append(o.buf, x)
}

func (o *OutputBuf) AppendUint32(x uint32) {
	o.buf = binary.LittleEndian.AppendUint32(o.buf, x)
}

func (o *OutputBuf) AppendUint64(x uint64) {
	o.buf = binary.LittleEndian.AppendUint64(o.buf, x)
}

// AppendBytes writes a length prefix followed by b.
func (o *OutputBuf) AppendBytes(b []byte) {
	o.AppendUint64(uint64(len(b)))
	o.buf = append(o.buf, b...)
}

func (o *OutputBuf) Bytes() []byte {
	return o.buf
}

// InputBuf reads what OutputBuf wrote. The first failed read sticks: later
// reads return zero values and Err reports the failure.
type InputBuf struct {
	buf []byte
	err error
}

func NewInputBuf(buf []byte) *InputBuf {
	return &InputBuf{buf: buf}
}

func (i *InputBuf) need(n int) bool {
	if i.err != nil {
		return false
	}
	if n < 0 || len(i.buf) < n {
		i.err = ErrShortBuffer
		return false
	}
	return true
}

func (i *InputBuf) ReadUint8() uint8 {
	if !i.need(1) {
		return 0
	}
	x := i.buf[0]
	i.buf = i.buf[1:]
	return x
}

func (i *InputBuf) ReadUint32() uint32 {
	if !i.need(4) {
		return 0
	}
	x := binary.LittleEndian.Uint32(i.buf[:4])
	i.buf = i.buf[4:]
	return x
}

func (i *InputBuf) ReadUint64() uint64 {
	if !i.need(8) {
		return 0
	}
	x := binary.LittleEndian.Uint64(i.buf[:8])
	i.buf = i.buf[8:]
	return x
}

// ReadBigInt reads n little-endian bytes.
func (i *InputBuf) ReadBigInt(n int) *big.Int {
	if !i.need(n) {
		return new(big.Int)
	}
	zbuf := make([]byte, n)
	for j := 0; j < n; j++ {
		zbuf[j] = i.buf[n-1-j]
	}
	i.buf = i.buf[n:]
	return new(big.Int).SetBytes(zbuf)
}

// ReadBytes reads a length-prefixed byte string.
func (i *InputBuf) ReadBytes() []byte {
	n := i.ReadUint64()
	if n > uint64(len(i.buf)) {
		if i.err == nil {
			i.err = ErrShortBuffer
		}
		return nil
	}
	if !i.need(int(n)) {
		return nil
	}
	b := make([]byte, n)
	copy(b, i.buf[:n])
	i.buf = i.buf[n:]
	return b
}

// ReadLen reads a count and checks that at least count*unit bytes are left,
// so corrupted counts fail before anything gets allocated for them.
func (i *InputBuf) ReadLen(unit int) int {
	n := i.ReadUint64()
	if i.err != nil {
		return 0
	}
	if unit > 0 && n > uint64(len(i.buf)/unit) {
		i.err = ErrShortBuffer
		return 0
	}
	return int(n)
}

func (i *InputBuf) Remaining() int {
	return len(i.buf)
}

func (i *InputBuf) Err() error {
	return i.err
}
