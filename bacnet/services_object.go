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

// CreateObjectRequest is the body of a CreateObject request. Exactly
// one of ObjectType/ObjectID selects how the new object is identified;
// InitialValues is optional and carries an initial property list.
type CreateObjectRequest struct {
	ObjectType    *ObjectType
	ObjectID      *ObjectIdentifier
	InitialValues []PropertyValue
}

// EncodeCreateObjectRequest encodes a CreateObject request body.
func EncodeCreateObjectRequest(req CreateObjectRequest) []byte {
	w := NewWriter()
	w.Write(EncodeOpeningTag(0))
	switch {
	case req.ObjectID != nil:
		w.Write(EncodeContextObjectIdentifier(1, *req.ObjectID))
	case req.ObjectType != nil:
		w.Write(EncodeContextEnumerated(0, uint32(*req.ObjectType)))
	}
	w.Write(EncodeClosingTag(0))

	if len(req.InitialValues) > 0 {
		w.Write(EncodeOpeningTag(1))
		for _, pv := range req.InitialValues {
			w.Write(EncodeContextEnumerated(0, uint32(pv.PropertyID)))
			if pv.ArrayIndex != nil {
				w.Write(EncodeContextUnsigned(1, *pv.ArrayIndex))
			}
			w.Write(EncodeOpeningTag(2))
			w.Write(EncodeValue(pv.Value))
			w.Write(EncodeClosingTag(2))
			if pv.Priority != nil {
				w.Write(EncodeContextUnsigned(3, uint32(*pv.Priority)))
			}
		}
		w.Write(EncodeClosingTag(1))
	}
	return w.Bytes()
}

// DecodeCreateObjectRequest decodes a CreateObject request body.
func DecodeCreateObjectRequest(data []byte) (CreateObjectRequest, error) {
	var req CreateObjectRequest

	open, err := decodeTag(data)
	if err != nil || !open.Opening || open.Number != 0 {
		return CreateObjectRequest{}, ErrInvalidAPDU
	}
	pos := open.HeaderLen

	selector, err := decodeTag(data[pos:])
	if err != nil {
		return CreateObjectRequest{}, err
	}
	switch {
	case selector.Class == TagClassContext && selector.Number == 1 && !selector.Opening:
		off := pos + selector.HeaderLen
		if len(data) < off+selector.Length {
			return CreateObjectRequest{}, ErrBufferUnderrun
		}
		oid := DecodeObjectIdentifierFromBytes(data[off : off+selector.Length])
		req.ObjectID = &oid
		pos = off + selector.Length
	case selector.Class == TagClassContext && selector.Number == 0 && !selector.Opening:
		if len(data) < pos+selector.HeaderLen+selector.Length {
			return CreateObjectRequest{}, ErrBufferUnderrun
		}
		ot := ObjectType(DecodeUnsigned(data[pos+selector.HeaderLen : pos+selector.HeaderLen+selector.Length]))
		req.ObjectType = &ot
		pos += selector.HeaderLen + selector.Length
	default:
		return CreateObjectRequest{}, ErrInvalidTag
	}

	closeTag, err := decodeTag(data[pos:])
	if err != nil || !closeTag.Closing || closeTag.Number != 0 {
		return CreateObjectRequest{}, ErrInvalidAPDU
	}
	pos += closeTag.HeaderLen

	if pos >= len(data) {
		return req, nil
	}

	listOpen, err := decodeTag(data[pos:])
	if err != nil || !listOpen.Opening || listOpen.Number != 1 {
		return CreateObjectRequest{}, ErrInvalidAPDU
	}
	pos += listOpen.HeaderLen

	for {
		next, err := decodeTag(data[pos:])
		if err != nil {
			return CreateObjectRequest{}, err
		}
		if next.Closing && next.Number == 1 {
			break
		}

		propID, n, err := decodeContextUnsigned(data[pos:], 0)
		if err != nil {
			return CreateObjectRequest{}, err
		}
		pos += n

		var arrayIndex *uint32
		if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 1 && !t.Opening {
			idx, n, err := decodeContextUnsigned(data[pos:], 1)
			if err != nil {
				return CreateObjectRequest{}, err
			}
			arrayIndex = &idx
			pos += n
		}

		valOpen, err := decodeTag(data[pos:])
		if err != nil || !valOpen.Opening || valOpen.Number != 2 {
			return CreateObjectRequest{}, ErrInvalidAPDU
		}
		pos += valOpen.HeaderLen
		val, n, err := DecodeValue(data[pos:])
		if err != nil {
			return CreateObjectRequest{}, err
		}
		pos += n
		valClose, err := decodeTag(data[pos:])
		if err != nil || !valClose.Closing || valClose.Number != 2 {
			return CreateObjectRequest{}, ErrInvalidAPDU
		}
		pos += valClose.HeaderLen

		var priority *uint8
		if pos < len(data) {
			if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 3 && !t.Opening {
				p, n, err := decodeContextUnsigned(data[pos:], 3)
				if err != nil {
					return CreateObjectRequest{}, err
				}
				pr := uint8(p)
				priority = &pr
				pos += n
			}
		}

		req.InitialValues = append(req.InitialValues, PropertyValue{
			PropertyID: PropertyIdentifier(propID),
			ArrayIndex: arrayIndex,
			Value:      val,
			Priority:   priority,
		})
	}

	return req, nil
}

// EncodeCreateObjectAck encodes a CreateObject complex-ack body, which
// carries only the newly created object identifier.
func EncodeCreateObjectAck(objectID ObjectIdentifier) []byte {
	return EncodeObjectIdentifierTag(objectID)
}

// DecodeCreateObjectAck decodes a CreateObject complex-ack body.
func DecodeCreateObjectAck(data []byte) (ObjectIdentifier, error) {
	val, _, err := decodeApplicationUnsignedLike(data, TagObjectID)
	if err != nil {
		return ObjectIdentifier{}, err
	}
	return DecodeObjectIdentifier(val), nil
}

// EncodeDeleteObjectRequest encodes a DeleteObject request body.
func EncodeDeleteObjectRequest(objectID ObjectIdentifier) []byte {
	return EncodeObjectIdentifierTag(objectID)
}

// DecodeDeleteObjectRequest decodes a DeleteObject request body.
func DecodeDeleteObjectRequest(data []byte) (ObjectIdentifier, error) {
	val, _, err := decodeApplicationUnsignedLike(data, TagObjectID)
	if err != nil {
		return ObjectIdentifier{}, err
	}
	return DecodeObjectIdentifier(val), nil
}

// ListElementRequest is the shared body shape of AddListElement and
// RemoveListElement requests.
type ListElementRequest struct {
	ObjectID   ObjectIdentifier
	PropertyID PropertyIdentifier
	ArrayIndex *uint32
	Elements   []Value
}

// EncodeListElementRequest encodes an Add/RemoveListElement request
// body; the two services share an identical wire shape and differ only
// by service-choice.
func EncodeListElementRequest(req ListElementRequest) []byte {
	w := NewWriter()
	w.Write(EncodeContextObjectIdentifier(0, req.ObjectID))
	w.Write(EncodeContextEnumerated(1, uint32(req.PropertyID)))
	if req.ArrayIndex != nil {
		w.Write(EncodeContextUnsigned(2, *req.ArrayIndex))
	}
	w.Write(EncodeOpeningTag(3))
	for _, v := range req.Elements {
		w.Write(EncodeValue(v))
	}
	w.Write(EncodeClosingTag(3))
	return w.Bytes()
}

// DecodeListElementRequest decodes an Add/RemoveListElement request
// body.
func DecodeListElementRequest(data []byte) (ListElementRequest, error) {
	var req ListElementRequest
	pos := 0

	oid, n, err := decodeContextObjectID(data[pos:], 0)
	if err != nil {
		return ListElementRequest{}, err
	}
	req.ObjectID = oid
	pos += n

	propID, n, err := decodeContextUnsigned(data[pos:], 1)
	if err != nil {
		return ListElementRequest{}, err
	}
	req.PropertyID = PropertyIdentifier(propID)
	pos += n

	if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 2 && !t.Opening {
		idx, n, err := decodeContextUnsigned(data[pos:], 2)
		if err != nil {
			return ListElementRequest{}, err
		}
		req.ArrayIndex = &idx
		pos += n
	}

	open, err := decodeTag(data[pos:])
	if err != nil || !open.Opening || open.Number != 3 {
		return ListElementRequest{}, ErrInvalidAPDU
	}
	pos += open.HeaderLen

	for {
		next, err := decodeTag(data[pos:])
		if err != nil {
			return ListElementRequest{}, err
		}
		if next.Closing && next.Number == 3 {
			break
		}
		val, n, err := DecodeValue(data[pos:])
		if err != nil {
			return ListElementRequest{}, err
		}
		pos += n
		req.Elements = append(req.Elements, val)
	}

	return req, nil
}
