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

// EncodeWhoIs encodes a Who-Is request body, optionally bounded by a
// device-instance range.
func EncodeWhoIs(lowLimit, highLimit *uint32) []byte {
	if lowLimit == nil || highLimit == nil {
		return nil
	}
	w := NewWriter()
	w.Write(EncodeContextUnsigned(0, *lowLimit))
	w.Write(EncodeContextUnsigned(1, *highLimit))
	return w.Bytes()
}

// DecodeWhoIs decodes a Who-Is request body, returning nil limits when
// the request carries no range.
func DecodeWhoIs(data []byte) (lowLimit, highLimit *uint32, err error) {
	if len(data) == 0 {
		return nil, nil, nil
	}
	r := NewReader(data)
	low, n, err := decodeContextUnsigned(r.Bytes(), 0)
	if err != nil {
		return nil, nil, err
	}
	r.Skip(n)
	high, _, err := decodeContextUnsigned(r.Bytes(), 1)
	if err != nil {
		return nil, nil, err
	}
	return &low, &high, nil
}

// IAm is the decoded body of an I-Am unconfirmed request.
type IAm struct {
	ObjectID     ObjectIdentifier
	MaxAPDU      uint32
	Segmentation Segmentation
	VendorID     uint32
}

// EncodeIAm encodes an I-Am request body.
func EncodeIAm(ia IAm) []byte {
	w := NewWriter()
	w.Write(EncodeObjectIdentifierTag(ia.ObjectID))
	w.Write(EncodeUnsignedTag(ia.MaxAPDU))
	w.Write(EncodeEnumeratedTag(uint32(ia.Segmentation)))
	w.Write(EncodeUnsignedTag(ia.VendorID))
	return w.Bytes()
}

// DecodeIAm decodes an I-Am request body.
func DecodeIAm(data []byte) (IAm, error) {
	pos := 0

	oidVal, n, err := decodeApplicationUnsignedLike(data[pos:], TagObjectID)
	if err != nil {
		return IAm{}, err
	}
	oid := DecodeObjectIdentifier(oidVal)
	pos += n

	maxAPDU, n, err := decodeApplicationUnsignedLike(data[pos:], TagUnsignedInt)
	if err != nil {
		return IAm{}, err
	}
	pos += n

	seg, n, err := decodeApplicationUnsignedLike(data[pos:], TagEnumerated)
	if err != nil {
		return IAm{}, err
	}
	pos += n

	vendor, _, err := decodeApplicationUnsignedLike(data[pos:], TagUnsignedInt)
	if err != nil {
		return IAm{}, err
	}

	return IAm{ObjectID: oid, MaxAPDU: maxAPDU, Segmentation: Segmentation(seg), VendorID: vendor}, nil
}

// WhoHas identifies a device query target either by object identifier
// or by object name; exactly one of ObjectID/ObjectName is meaningful.
type WhoHas struct {
	LowLimit, HighLimit *uint32
	ObjectID            *ObjectIdentifier
	ObjectName          string
}

// EncodeWhoHas encodes a Who-Has request body.
func EncodeWhoHas(wh WhoHas) []byte {
	w := NewWriter()
	if wh.LowLimit != nil && wh.HighLimit != nil {
		w.Write(EncodeContextUnsigned(0, *wh.LowLimit))
		w.Write(EncodeContextUnsigned(1, *wh.HighLimit))
	}
	if wh.ObjectID != nil {
		w.Write(EncodeContextObjectIdentifier(2, *wh.ObjectID))
	} else {
		w.Write(EncodeContextCharacterString(3, wh.ObjectName))
	}
	return w.Bytes()
}

// DecodeWhoHas decodes a Who-Has request body.
func DecodeWhoHas(data []byte) (WhoHas, error) {
	pos := 0
	var wh WhoHas

	if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 0 {
		low, n, err := decodeContextUnsigned(data[pos:], 0)
		if err != nil {
			return WhoHas{}, err
		}
		wh.LowLimit = &low
		pos += n
		high, n, err := decodeContextUnsigned(data[pos:], 1)
		if err != nil {
			return WhoHas{}, err
		}
		wh.HighLimit = &high
		pos += n
	}

	t, err := decodeTag(data[pos:])
	if err != nil {
		return WhoHas{}, err
	}
	off := pos + t.HeaderLen
	if len(data) < off+t.Length {
		return WhoHas{}, ErrBufferUnderrun
	}
	switch t.Number {
	case 2:
		oid := DecodeObjectIdentifierFromBytes(data[off : off+t.Length])
		wh.ObjectID = &oid
	case 3:
		name, err := DecodeCharacterString(data[off : off+t.Length])
		if err != nil {
			return WhoHas{}, err
		}
		wh.ObjectName = name
	default:
		return WhoHas{}, ErrInvalidTag
	}

	return wh, nil
}

// IHave is the decoded body of an I-Have unconfirmed request.
type IHave struct {
	DeviceID   ObjectIdentifier
	ObjectID   ObjectIdentifier
	ObjectName string
}

// EncodeIHave encodes an I-Have request body.
func EncodeIHave(ih IHave) []byte {
	w := NewWriter()
	w.Write(EncodeObjectIdentifierTag(ih.DeviceID))
	w.Write(EncodeObjectIdentifierTag(ih.ObjectID))
	w.Write(EncodeCharacterStringTag(ih.ObjectName))
	return w.Bytes()
}

// DecodeIHave decodes an I-Have request body.
func DecodeIHave(data []byte) (IHave, error) {
	deviceVal, n, err := decodeApplicationUnsignedLike(data, TagObjectID)
	if err != nil {
		return IHave{}, err
	}
	pos := n

	objVal, n, err := decodeApplicationUnsignedLike(data[pos:], TagObjectID)
	if err != nil {
		return IHave{}, err
	}
	pos += n

	t, err := decodeTag(data[pos:])
	if err != nil || t.Class != TagClassApplication || ApplicationTag(t.Number) != TagCharacterString {
		return IHave{}, ErrInvalidTag
	}
	off := pos + t.HeaderLen
	if len(data) < off+t.Length {
		return IHave{}, ErrBufferUnderrun
	}

	name, err := DecodeCharacterString(data[off : off+t.Length])
	if err != nil {
		return IHave{}, err
	}

	return IHave{
		DeviceID:   DecodeObjectIdentifier(deviceVal),
		ObjectID:   DecodeObjectIdentifier(objVal),
		ObjectName: name,
	}, nil
}

// decodeContextUnsigned decodes a context-tagged unsigned value whose
// tag number must equal wantTag, returning the value and bytes consumed.
func decodeContextUnsigned(data []byte, wantTag uint8) (uint32, int, error) {
	t, err := decodeTag(data)
	if err != nil || t.Class != TagClassContext || t.Number != wantTag || t.Opening || t.Closing {
		return 0, 0, ErrInvalidTag
	}
	if len(data) < t.HeaderLen+t.Length {
		return 0, 0, ErrBufferUnderrun
	}
	return DecodeUnsigned(data[t.HeaderLen : t.HeaderLen+t.Length]), t.HeaderLen + t.Length, nil
}

// decodeApplicationUnsignedLike decodes an application-class tag whose
// body is read with DecodeUnsigned regardless of its semantic type
// (object-id, unsigned, enumerated all share this wire shape).
func decodeApplicationUnsignedLike(data []byte, want ApplicationTag) (uint32, int, error) {
	t, err := decodeTag(data)
	if err != nil || t.Class != TagClassApplication || ApplicationTag(t.Number) != want {
		return 0, 0, ErrInvalidTag
	}
	if len(data) < t.HeaderLen+t.Length {
		return 0, 0, ErrBufferUnderrun
	}
	return DecodeUnsigned(data[t.HeaderLen : t.HeaderLen+t.Length]), t.HeaderLen + t.Length, nil
}
