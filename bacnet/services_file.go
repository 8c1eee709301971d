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

// FileAccessKind discriminates the stream/record access method used
// by the atomic file services.
type FileAccessKind uint8

const (
	FileAccessStream FileAccessKind = iota
	FileAccessRecord
)

// AtomicReadFileRequest is the body of an AtomicReadFile request.
type AtomicReadFileRequest struct {
	FileObjectID ObjectIdentifier
	AccessKind   FileAccessKind
	StartPos     int32
	Count        uint32
}

// EncodeAtomicReadFileRequest encodes an AtomicReadFile request body.
func EncodeAtomicReadFileRequest(req AtomicReadFileRequest) []byte {
	w := NewWriter()
	w.Write(EncodeObjectIdentifierTag(req.FileObjectID))
	tagNum := uint8(0)
	if req.AccessKind == FileAccessRecord {
		tagNum = 1
	}
	w.Write(EncodeOpeningTag(tagNum))
	w.Write(EncodeSignedTag(req.StartPos))
	w.Write(EncodeUnsignedTag(req.Count))
	w.Write(EncodeClosingTag(tagNum))
	return w.Bytes()
}

// DecodeAtomicReadFileRequest decodes an AtomicReadFile request body.
func DecodeAtomicReadFileRequest(data []byte) (AtomicReadFileRequest, error) {
	oidVal, n, err := decodeApplicationUnsignedLike(data, TagObjectID)
	if err != nil {
		return AtomicReadFileRequest{}, err
	}
	pos := n

	open, err := decodeTag(data[pos:])
	if err != nil || !open.Opening || (open.Number != 0 && open.Number != 1) {
		return AtomicReadFileRequest{}, ErrInvalidAPDU
	}
	pos += open.HeaderLen

	startTag, err := decodeTag(data[pos:])
	if err != nil || startTag.Class != TagClassApplication || ApplicationTag(startTag.Number) != TagSignedInt {
		return AtomicReadFileRequest{}, ErrInvalidTag
	}
	off := pos + startTag.HeaderLen
	if len(data) < off+startTag.Length {
		return AtomicReadFileRequest{}, ErrBufferUnderrun
	}
	start := DecodeSigned(data[off : off+startTag.Length])
	pos = off + startTag.Length

	count, n, err := decodeApplicationUnsignedLike(data[pos:], TagUnsignedInt)
	if err != nil {
		return AtomicReadFileRequest{}, err
	}
	pos += n

	closeTag, err := decodeTag(data[pos:])
	if err != nil || !closeTag.Closing || closeTag.Number != open.Number {
		return AtomicReadFileRequest{}, ErrInvalidAPDU
	}

	kind := FileAccessStream
	if open.Number == 1 {
		kind = FileAccessRecord
	}

	return AtomicReadFileRequest{
		FileObjectID: DecodeObjectIdentifier(oidVal),
		AccessKind:   kind,
		StartPos:     start,
		Count:        count,
	}, nil
}

// AtomicReadFileAck is the decoded body of an AtomicReadFile ack.
type AtomicReadFileAck struct {
	EndOfFile  bool
	AccessKind FileAccessKind
	StartPos   int32
	StreamData []byte
	Records    [][]byte
}

// EncodeAtomicReadFileAck encodes an AtomicReadFile ack body.
func EncodeAtomicReadFileAck(ack AtomicReadFileAck) []byte {
	w := NewWriter()
	w.Write(EncodeBooleanTag(ack.EndOfFile))
	if ack.AccessKind == FileAccessStream {
		w.Write(EncodeOpeningTag(0))
		w.Write(EncodeSignedTag(ack.StartPos))
		w.Write(EncodeOctetStringTag(ack.StreamData))
		w.Write(EncodeClosingTag(0))
		return w.Bytes()
	}
	w.Write(EncodeOpeningTag(1))
	w.Write(EncodeSignedTag(ack.StartPos))
	w.Write(EncodeUnsignedTag(uint32(len(ack.Records))))
	for _, rec := range ack.Records {
		w.Write(EncodeOctetStringTag(rec))
	}
	w.Write(EncodeClosingTag(1))
	return w.Bytes()
}

// DecodeAtomicReadFileAck decodes an AtomicReadFile ack body.
func DecodeAtomicReadFileAck(data []byte) (AtomicReadFileAck, error) {
	eofTag, err := decodeTag(data)
	if err != nil || eofTag.Class != TagClassApplication || ApplicationTag(eofTag.Number) != TagBoolean {
		return AtomicReadFileAck{}, ErrInvalidTag
	}
	pos := eofTag.HeaderLen
	endOfFile := eofTag.Length != 0

	open, err := decodeTag(data[pos:])
	if err != nil || !open.Opening || (open.Number != 0 && open.Number != 1) {
		return AtomicReadFileAck{}, ErrInvalidAPDU
	}
	pos += open.HeaderLen

	startTag, err := decodeTag(data[pos:])
	if err != nil || startTag.Class != TagClassApplication || ApplicationTag(startTag.Number) != TagSignedInt {
		return AtomicReadFileAck{}, ErrInvalidTag
	}
	off := pos + startTag.HeaderLen
	if len(data) < off+startTag.Length {
		return AtomicReadFileAck{}, ErrBufferUnderrun
	}
	startPos := DecodeSigned(data[off : off+startTag.Length])
	pos = off + startTag.Length

	if open.Number == 0 {
		octetTag, err := decodeTag(data[pos:])
		if err != nil || octetTag.Class != TagClassApplication || ApplicationTag(octetTag.Number) != TagOctetString {
			return AtomicReadFileAck{}, ErrInvalidTag
		}
		dataOff := pos + octetTag.HeaderLen
		if len(data) < dataOff+octetTag.Length {
			return AtomicReadFileAck{}, ErrBufferUnderrun
		}
		streamData := append([]byte(nil), data[dataOff:dataOff+octetTag.Length]...)
		pos = dataOff + octetTag.Length

		closeTag, err := decodeTag(data[pos:])
		if err != nil || !closeTag.Closing || closeTag.Number != 0 {
			return AtomicReadFileAck{}, ErrInvalidAPDU
		}

		return AtomicReadFileAck{EndOfFile: endOfFile, AccessKind: FileAccessStream, StartPos: startPos, StreamData: streamData}, nil
	}

	_, n, err := decodeApplicationUnsignedLike(data[pos:], TagUnsignedInt)
	if err != nil {
		return AtomicReadFileAck{}, err
	}
	pos += n

	var records [][]byte
	for {
		t, err := decodeTag(data[pos:])
		if err != nil {
			return AtomicReadFileAck{}, err
		}
		if t.Closing && t.Number == 1 {
			break
		}
		if t.Class != TagClassApplication || ApplicationTag(t.Number) != TagOctetString {
			return AtomicReadFileAck{}, ErrInvalidTag
		}
		recOff := pos + t.HeaderLen
		if len(data) < recOff+t.Length {
			return AtomicReadFileAck{}, ErrBufferUnderrun
		}
		records = append(records, append([]byte(nil), data[recOff:recOff+t.Length]...))
		pos = recOff + t.Length
	}

	return AtomicReadFileAck{EndOfFile: endOfFile, AccessKind: FileAccessRecord, StartPos: startPos, Records: records}, nil
}

// AtomicWriteFileRequest is the body of an AtomicWriteFile request.
type AtomicWriteFileRequest struct {
	FileObjectID ObjectIdentifier
	AccessKind   FileAccessKind
	StartPos     int32
	StreamData   []byte
	Records      [][]byte
}

// EncodeAtomicWriteFileRequest encodes an AtomicWriteFile request body.
func EncodeAtomicWriteFileRequest(req AtomicWriteFileRequest) []byte {
	w := NewWriter()
	w.Write(EncodeObjectIdentifierTag(req.FileObjectID))
	if req.AccessKind == FileAccessStream {
		w.Write(EncodeOpeningTag(0))
		w.Write(EncodeSignedTag(req.StartPos))
		w.Write(EncodeOctetStringTag(req.StreamData))
		w.Write(EncodeClosingTag(0))
		return w.Bytes()
	}
	w.Write(EncodeOpeningTag(1))
	w.Write(EncodeSignedTag(req.StartPos))
	w.Write(EncodeUnsignedTag(uint32(len(req.Records))))
	for _, rec := range req.Records {
		w.Write(EncodeOctetStringTag(rec))
	}
	w.Write(EncodeClosingTag(1))
	return w.Bytes()
}

// DecodeAtomicWriteFileRequest decodes an AtomicWriteFile request body.
func DecodeAtomicWriteFileRequest(data []byte) (AtomicWriteFileRequest, error) {
	oidVal, n, err := decodeApplicationUnsignedLike(data, TagObjectID)
	if err != nil {
		return AtomicWriteFileRequest{}, err
	}
	pos := n
	fileOID := DecodeObjectIdentifier(oidVal)

	open, err := decodeTag(data[pos:])
	if err != nil || !open.Opening || (open.Number != 0 && open.Number != 1) {
		return AtomicWriteFileRequest{}, ErrInvalidAPDU
	}
	pos += open.HeaderLen

	startTag, err := decodeTag(data[pos:])
	if err != nil || startTag.Class != TagClassApplication || ApplicationTag(startTag.Number) != TagSignedInt {
		return AtomicWriteFileRequest{}, ErrInvalidTag
	}
	off := pos + startTag.HeaderLen
	if len(data) < off+startTag.Length {
		return AtomicWriteFileRequest{}, ErrBufferUnderrun
	}
	startPos := DecodeSigned(data[off : off+startTag.Length])
	pos = off + startTag.Length

	if open.Number == 0 {
		octetTag, err := decodeTag(data[pos:])
		if err != nil || octetTag.Class != TagClassApplication || ApplicationTag(octetTag.Number) != TagOctetString {
			return AtomicWriteFileRequest{}, ErrInvalidTag
		}
		dataOff := pos + octetTag.HeaderLen
		if len(data) < dataOff+octetTag.Length {
			return AtomicWriteFileRequest{}, ErrBufferUnderrun
		}
		streamData := append([]byte(nil), data[dataOff:dataOff+octetTag.Length]...)
		pos = dataOff + octetTag.Length

		closeTag, err := decodeTag(data[pos:])
		if err != nil || !closeTag.Closing || closeTag.Number != 0 {
			return AtomicWriteFileRequest{}, ErrInvalidAPDU
		}

		return AtomicWriteFileRequest{FileObjectID: fileOID, AccessKind: FileAccessStream, StartPos: startPos, StreamData: streamData}, nil
	}

	_, n, err = decodeApplicationUnsignedLike(data[pos:], TagUnsignedInt)
	if err != nil {
		return AtomicWriteFileRequest{}, err
	}
	pos += n

	var records [][]byte
	for {
		t, err := decodeTag(data[pos:])
		if err != nil {
			return AtomicWriteFileRequest{}, err
		}
		if t.Closing && t.Number == 1 {
			break
		}
		if t.Class != TagClassApplication || ApplicationTag(t.Number) != TagOctetString {
			return AtomicWriteFileRequest{}, ErrInvalidTag
		}
		recOff := pos + t.HeaderLen
		if len(data) < recOff+t.Length {
			return AtomicWriteFileRequest{}, ErrBufferUnderrun
		}
		records = append(records, append([]byte(nil), data[recOff:recOff+t.Length]...))
		pos = recOff + t.Length
	}

	return AtomicWriteFileRequest{FileObjectID: fileOID, AccessKind: FileAccessRecord, StartPos: startPos, Records: records}, nil
}

// AtomicWriteFileAck is the decoded/encoded body of an AtomicWriteFile
// ack: a single context-tagged (or opening/closing wrapped) signed
// start position, keyed by stream(0)/record(1).
type AtomicWriteFileAck struct {
	AccessKind FileAccessKind
	StartPos   int32
}

// EncodeAtomicWriteFileAck encodes an AtomicWriteFile ack body using
// the bare context-tagged form (no opening/closing wrapper).
func EncodeAtomicWriteFileAck(ack AtomicWriteFileAck) []byte {
	tagNum := uint8(0)
	if ack.AccessKind == FileAccessRecord {
		tagNum = 1
	}
	return EncodeContextSigned(tagNum, ack.StartPos)
}

// DecodeAtomicWriteFileAck decodes an AtomicWriteFile ack body,
// accepting both the bare context-tagged form and the
// opening/closing-wrapped form.
func DecodeAtomicWriteFileAck(data []byte) (AtomicWriteFileAck, error) {
	t, err := decodeTag(data)
	if err != nil || t.Class != TagClassContext || (t.Number != 0 && t.Number != 1) {
		return AtomicWriteFileAck{}, ErrInvalidTag
	}
	kind := FileAccessStream
	if t.Number == 1 {
		kind = FileAccessRecord
	}

	if !t.Opening {
		if len(data) < t.HeaderLen+t.Length {
			return AtomicWriteFileAck{}, ErrBufferUnderrun
		}
		return AtomicWriteFileAck{AccessKind: kind, StartPos: DecodeSigned(data[t.HeaderLen : t.HeaderLen+t.Length])}, nil
	}

	pos := t.HeaderLen
	inner, err := decodeTag(data[pos:])
	if err != nil || inner.Class != TagClassContext || inner.Number != 0 || inner.Opening || inner.Closing {
		return AtomicWriteFileAck{}, ErrInvalidTag
	}
	innerOff := pos + inner.HeaderLen
	if len(data) < innerOff+inner.Length {
		return AtomicWriteFileAck{}, ErrBufferUnderrun
	}
	startPos := DecodeSigned(data[innerOff : innerOff+inner.Length])
	pos = innerOff + inner.Length

	closeTag, err := decodeTag(data[pos:])
	if err != nil || !closeTag.Closing || closeTag.Number != t.Number {
		return AtomicWriteFileAck{}, ErrInvalidAPDU
	}

	return AtomicWriteFileAck{AccessKind: kind, StartPos: startPos}, nil
}
