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

// RangeSelectorKind discriminates the ReadRange selector forms. The
// context tag numbers bracketing each form (3, 6, 7) are fixed by the
// protocol and must be preserved exactly.
type RangeSelectorKind uint8

const (
	RangeSelectorAll RangeSelectorKind = iota
	RangeSelectorByPosition
	RangeSelectorBySequenceNumber
	RangeSelectorByTime
)

// RangeSelector is the decoded/encoded form of a ReadRange selector.
type RangeSelector struct {
	Kind             RangeSelectorKind
	ReferenceIndex   int32
	ReferenceSeqNum  uint32
	Date             Date
	Time             Time
	Count            int16
}

// ReadRangeRequest is the body of a ReadRange request.
type ReadRangeRequest struct {
	ObjectID   ObjectIdentifier
	PropertyID PropertyIdentifier
	ArrayIndex *uint32
	Selector   RangeSelector
}

// EncodeReadRangeRequest encodes a ReadRange request body.
func EncodeReadRangeRequest(req ReadRangeRequest) []byte {
	w := NewWriter()
	w.Write(EncodeContextObjectIdentifier(0, req.ObjectID))
	w.Write(EncodeContextEnumerated(1, uint32(req.PropertyID)))
	if req.ArrayIndex != nil {
		w.Write(EncodeContextUnsigned(2, *req.ArrayIndex))
	}

	switch req.Selector.Kind {
	case RangeSelectorByPosition:
		w.Write(EncodeOpeningTag(3))
		w.Write(EncodeUnsignedTag(uint32(req.Selector.ReferenceIndex)))
		w.Write(EncodeSignedTag(int32(req.Selector.Count)))
		w.Write(EncodeClosingTag(3))
	case RangeSelectorBySequenceNumber:
		w.Write(EncodeOpeningTag(6))
		w.Write(EncodeUnsignedTag(req.Selector.ReferenceSeqNum))
		w.Write(EncodeSignedTag(int32(req.Selector.Count)))
		w.Write(EncodeClosingTag(6))
	case RangeSelectorByTime:
		w.Write(EncodeOpeningTag(7))
		w.Write(EncodeTag(uint8(TagDate), TagClassApplication, 4))
		w.Write(EncodeDate(req.Selector.Date))
		w.Write(EncodeTag(uint8(TagTime), TagClassApplication, 4))
		w.Write(EncodeTime(req.Selector.Time))
		w.Write(EncodeSignedTag(int32(req.Selector.Count)))
		w.Write(EncodeClosingTag(7))
	case RangeSelectorAll:
	}

	return w.Bytes()
}

// DecodeReadRangeRequest decodes a ReadRange request body.
func DecodeReadRangeRequest(data []byte) (ReadRangeRequest, error) {
	var req ReadRangeRequest
	pos := 0

	oid, n, err := decodeContextObjectID(data[pos:], 0)
	if err != nil {
		return ReadRangeRequest{}, err
	}
	req.ObjectID = oid
	pos += n

	propID, n, err := decodeContextUnsigned(data[pos:], 1)
	if err != nil {
		return ReadRangeRequest{}, err
	}
	req.PropertyID = PropertyIdentifier(propID)
	pos += n

	if pos < len(data) {
		if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 2 && !t.Opening {
			idx, n, err := decodeContextUnsigned(data[pos:], 2)
			if err != nil {
				return ReadRangeRequest{}, err
			}
			req.ArrayIndex = &idx
			pos += n
		}
	}

	if pos >= len(data) {
		req.Selector = RangeSelector{Kind: RangeSelectorAll}
		return req, nil
	}

	open, err := decodeTag(data[pos:])
	if err != nil || !open.Opening {
		return ReadRangeRequest{}, ErrInvalidAPDU
	}
	pos += open.HeaderLen

	switch open.Number {
	case 3:
		refIdx, n, err := decodeApplicationUnsignedLike(data[pos:], TagUnsignedInt)
		if err != nil {
			return ReadRangeRequest{}, err
		}
		pos += n
		count, n, err := decodeApplicationSigned(data[pos:])
		if err != nil {
			return ReadRangeRequest{}, err
		}
		pos += n
		closeTag, err := decodeTag(data[pos:])
		if err != nil || !closeTag.Closing || closeTag.Number != 3 {
			return ReadRangeRequest{}, ErrInvalidAPDU
		}
		req.Selector = RangeSelector{Kind: RangeSelectorByPosition, ReferenceIndex: int32(refIdx), Count: int16(count)}

	case 6:
		refSeq, n, err := decodeApplicationUnsignedLike(data[pos:], TagUnsignedInt)
		if err != nil {
			return ReadRangeRequest{}, err
		}
		pos += n
		count, n, err := decodeApplicationSigned(data[pos:])
		if err != nil {
			return ReadRangeRequest{}, err
		}
		pos += n
		closeTag, err := decodeTag(data[pos:])
		if err != nil || !closeTag.Closing || closeTag.Number != 6 {
			return ReadRangeRequest{}, ErrInvalidAPDU
		}
		req.Selector = RangeSelector{Kind: RangeSelectorBySequenceNumber, ReferenceSeqNum: refSeq, Count: int16(count)}

	case 7:
		dateTag, err := decodeTag(data[pos:])
		if err != nil || dateTag.Class != TagClassApplication || ApplicationTag(dateTag.Number) != TagDate || dateTag.Length != 4 {
			return ReadRangeRequest{}, ErrInvalidTag
		}
		off := pos + dateTag.HeaderLen
		if len(data) < off+4 {
			return ReadRangeRequest{}, ErrBufferUnderrun
		}
		date, err := DecodeDate(data[off : off+4])
		if err != nil {
			return ReadRangeRequest{}, err
		}
		pos = off + 4

		timeTag, err := decodeTag(data[pos:])
		if err != nil || timeTag.Class != TagClassApplication || ApplicationTag(timeTag.Number) != TagTime || timeTag.Length != 4 {
			return ReadRangeRequest{}, ErrInvalidTag
		}
		off2 := pos + timeTag.HeaderLen
		if len(data) < off2+4 {
			return ReadRangeRequest{}, ErrBufferUnderrun
		}
		t, err := DecodeTime(data[off2 : off2+4])
		if err != nil {
			return ReadRangeRequest{}, err
		}
		pos = off2 + 4

		count, n, err := decodeApplicationSigned(data[pos:])
		if err != nil {
			return ReadRangeRequest{}, err
		}
		pos += n

		closeTag, err := decodeTag(data[pos:])
		if err != nil || !closeTag.Closing || closeTag.Number != 7 {
			return ReadRangeRequest{}, ErrInvalidAPDU
		}
		req.Selector = RangeSelector{Kind: RangeSelectorByTime, Date: date, Time: t, Count: int16(count)}

	default:
		return ReadRangeRequest{}, ErrInvalidTag
	}

	return req, nil
}

// decodeApplicationSigned decodes an application-tagged signed integer.
func decodeApplicationSigned(data []byte) (int32, int, error) {
	t, err := decodeTag(data)
	if err != nil || t.Class != TagClassApplication || ApplicationTag(t.Number) != TagSignedInt {
		return 0, 0, ErrInvalidTag
	}
	if len(data) < t.HeaderLen+t.Length {
		return 0, 0, ErrBufferUnderrun
	}
	return DecodeSigned(data[t.HeaderLen : t.HeaderLen+t.Length]), t.HeaderLen + t.Length, nil
}

// ReadRangeAck is the decoded body of a ReadRange ack.
type ReadRangeAck struct {
	ObjectID    ObjectIdentifier
	PropertyID  PropertyIdentifier
	ArrayIndex  *uint32
	ResultFlags BitString
	ItemCount   uint32
	Items       []Value
}

// EncodeReadRangeAck encodes a ReadRange ack body.
func EncodeReadRangeAck(ack ReadRangeAck) []byte {
	w := NewWriter()
	w.Write(EncodeContextObjectIdentifier(0, ack.ObjectID))
	w.Write(EncodeContextEnumerated(1, uint32(ack.PropertyID)))
	if ack.ArrayIndex != nil {
		w.Write(EncodeContextUnsigned(2, *ack.ArrayIndex))
	}
	flagsBody := EncodeBitString(ack.ResultFlags)
	w.Write(EncodeTag(3, TagClassContext, len(flagsBody)))
	w.Write(flagsBody)
	w.Write(EncodeContextUnsigned(4, ack.ItemCount))
	w.Write(EncodeOpeningTag(5))
	for _, item := range ack.Items {
		w.Write(EncodeValue(item))
	}
	w.Write(EncodeClosingTag(5))
	return w.Bytes()
}

// DecodeReadRangeAck decodes a ReadRange ack body.
func DecodeReadRangeAck(data []byte) (ReadRangeAck, error) {
	var ack ReadRangeAck
	pos := 0

	oid, n, err := decodeContextObjectID(data[pos:], 0)
	if err != nil {
		return ReadRangeAck{}, err
	}
	ack.ObjectID = oid
	pos += n

	propID, n, err := decodeContextUnsigned(data[pos:], 1)
	if err != nil {
		return ReadRangeAck{}, err
	}
	ack.PropertyID = PropertyIdentifier(propID)
	pos += n

	next, err := decodeTag(data[pos:])
	if err != nil {
		return ReadRangeAck{}, err
	}
	if next.Class == TagClassContext && next.Number == 2 && !next.Opening {
		idx, n, err := decodeContextUnsigned(data[pos:], 2)
		if err != nil {
			return ReadRangeAck{}, err
		}
		ack.ArrayIndex = &idx
		pos += n
		next, err = decodeTag(data[pos:])
		if err != nil {
			return ReadRangeAck{}, err
		}
	}

	if next.Class != TagClassContext || next.Number != 3 || next.Length == 0 {
		return ReadRangeAck{}, ErrInvalidTag
	}
	off := pos + next.HeaderLen
	if len(data) < off+next.Length {
		return ReadRangeAck{}, ErrBufferUnderrun
	}
	flags, err := DecodeBitString(data[off : off+next.Length])
	if err != nil {
		return ReadRangeAck{}, err
	}
	ack.ResultFlags = flags
	pos = off + next.Length

	itemCount, n, err := decodeContextUnsigned(data[pos:], 4)
	if err != nil {
		return ReadRangeAck{}, err
	}
	ack.ItemCount = itemCount
	pos += n

	open, err := decodeTag(data[pos:])
	if err != nil || !open.Opening || open.Number != 5 {
		return ReadRangeAck{}, ErrInvalidAPDU
	}
	pos += open.HeaderLen

	for {
		t, err := decodeTag(data[pos:])
		if err != nil {
			return ReadRangeAck{}, err
		}
		if t.Closing && t.Number == 5 {
			break
		}
		val, n, err := DecodeValue(data[pos:])
		if err != nil {
			return ReadRangeAck{}, err
		}
		pos += n
		ack.Items = append(ack.Items, val)
	}

	return ack, nil
}
