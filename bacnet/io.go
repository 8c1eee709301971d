// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bacnet

import "encoding/binary"

// Reader is a cursor over a decode buffer. It never panics on
// under-read; every accessor reports ErrBufferUnderrun instead so
// callers can fold bounds checks into their own error plumbing.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

// Pos returns the current read offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Bytes returns the unread tail of the buffer without consuming it.
func (r *Reader) Bytes() []byte {
	return r.buf[r.pos:]
}

// Byte consumes and returns a single byte.
func (r *Reader) Byte() (byte, error) {
	if r.Len() < 1 {
		return 0, ErrBufferUnderrun
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (byte, error) {
	if r.Len() < 1 {
		return 0, ErrBufferUnderrun
	}
	return r.buf[r.pos], nil
}

// Take consumes and returns the next n bytes.
func (r *Reader) Take(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, ErrBufferUnderrun
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// Uint16 consumes a big-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Uint32 consumes a big-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Skip advances the cursor by n bytes without returning them.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.Len() < n {
		return ErrBufferUnderrun
	}
	r.pos += n
	return nil
}

// Writer accumulates an encode buffer. It starts with 512 bytes of
// capacity and grows through append as needed; it places no upper
// bound on the encoded size.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty writer pre-sized for a typical frame.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 512)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Byte appends a single byte.
func (w *Writer) Byte(b byte) {
	w.buf = append(w.buf, b)
}

// Write appends a raw byte slice.
func (w *Writer) Write(b []byte) {
	w.buf = append(w.buf, b...)
}

// Uint16 appends a big-endian uint16.
func (w *Writer) Uint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// Uint32 appends a big-endian uint32.
func (w *Writer) Uint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PatchUint16At overwrites a previously-reserved 2-byte slot at
// offset, for length prefixes written before their payload is known.
// The package's own encoders compute lengths up front and do not call it.
func (w *Writer) PatchUint16At(offset int, v uint16) {
	binary.BigEndian.PutUint16(w.buf[offset:offset+2], v)
}
