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

// EncodeReadPropertyRequest encodes a ReadProperty request body.
func EncodeReadPropertyRequest(objectID ObjectIdentifier, propertyID PropertyIdentifier, arrayIndex *uint32) []byte {
	w := NewWriter()
	w.Write(EncodeContextObjectIdentifier(0, objectID))
	w.Write(EncodeContextEnumerated(1, uint32(propertyID)))
	if arrayIndex != nil {
		w.Write(EncodeContextUnsigned(2, *arrayIndex))
	}
	return w.Bytes()
}

// ReadPropertyAck is the decoded body of a ReadProperty complex-ack.
type ReadPropertyAck struct {
	ObjectID   ObjectIdentifier
	PropertyID PropertyIdentifier
	ArrayIndex *uint32
	Value      Value
}

// EncodeReadPropertyAck encodes a ReadProperty complex-ack body.
func EncodeReadPropertyAck(ack ReadPropertyAck) []byte {
	w := NewWriter()
	w.Write(EncodeContextObjectIdentifier(0, ack.ObjectID))
	w.Write(EncodeContextEnumerated(1, uint32(ack.PropertyID)))
	if ack.ArrayIndex != nil {
		w.Write(EncodeContextUnsigned(2, *ack.ArrayIndex))
	}
	w.Write(EncodeOpeningTag(3))
	w.Write(EncodeValue(ack.Value))
	w.Write(EncodeClosingTag(3))
	return w.Bytes()
}

// DecodeReadPropertyAck decodes a ReadProperty complex-ack body.
func DecodeReadPropertyAck(data []byte) (ReadPropertyAck, error) {
	pos := 0

	oidTag, err := decodeTag(data[pos:])
	if err != nil || oidTag.Class != TagClassContext || oidTag.Number != 0 {
		return ReadPropertyAck{}, ErrInvalidTag
	}
	off := pos + oidTag.HeaderLen
	if len(data) < off+oidTag.Length {
		return ReadPropertyAck{}, ErrBufferUnderrun
	}
	oid := DecodeObjectIdentifierFromBytes(data[off : off+oidTag.Length])
	pos = off + oidTag.Length

	propID, n, err := decodeContextUnsigned(data[pos:], 1)
	if err != nil {
		return ReadPropertyAck{}, err
	}
	pos += n

	var arrayIndex *uint32
	if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 2 {
		idx, n, err := decodeContextUnsigned(data[pos:], 2)
		if err != nil {
			return ReadPropertyAck{}, err
		}
		arrayIndex = &idx
		pos += n
	}

	opening, err := decodeTag(data[pos:])
	if err != nil || !opening.Opening || opening.Number != 3 {
		return ReadPropertyAck{}, ErrInvalidAPDU
	}
	pos += opening.HeaderLen

	value, n, err := DecodeValue(data[pos:])
	if err != nil {
		return ReadPropertyAck{}, err
	}
	pos += n

	closing, err := decodeTag(data[pos:])
	if err != nil || !closing.Closing || closing.Number != 3 {
		return ReadPropertyAck{}, ErrInvalidAPDU
	}

	return ReadPropertyAck{ObjectID: oid, PropertyID: PropertyIdentifier(propID), ArrayIndex: arrayIndex, Value: value}, nil
}

// EncodeWritePropertyRequest encodes a WriteProperty request body.
func EncodeWritePropertyRequest(objectID ObjectIdentifier, propertyID PropertyIdentifier, arrayIndex *uint32, value Value, priority *uint8) []byte {
	w := NewWriter()
	w.Write(EncodeContextObjectIdentifier(0, objectID))
	w.Write(EncodeContextEnumerated(1, uint32(propertyID)))
	if arrayIndex != nil {
		w.Write(EncodeContextUnsigned(2, *arrayIndex))
	}
	w.Write(EncodeOpeningTag(3))
	w.Write(EncodeValue(value))
	w.Write(EncodeClosingTag(3))
	if priority != nil {
		w.Write(EncodeContextUnsigned(4, uint32(*priority)))
	}
	return w.Bytes()
}

// EncodeReadPropertyMultipleRequest encodes a ReadPropertyMultiple
// request body for a single object and its requested properties;
// callers append the result per object to build a multi-object request.
func EncodeReadPropertyMultipleRequest(objectID ObjectIdentifier, props []ReadPropertyRequest) []byte {
	w := NewWriter()
	w.Write(EncodeContextObjectIdentifier(0, objectID))
	w.Write(EncodeOpeningTag(1))
	for _, p := range props {
		w.Write(EncodeContextEnumerated(0, uint32(p.PropertyID)))
		if p.ArrayIndex != nil {
			w.Write(EncodeContextUnsigned(1, *p.ArrayIndex))
		}
	}
	w.Write(EncodeClosingTag(1))
	return w.Bytes()
}

// RPMResult is one (object, property, value-or-error) entry decoded
// from a ReadPropertyMultiple ack.
type RPMResult struct {
	ObjectID   ObjectIdentifier
	PropertyID PropertyIdentifier
	ArrayIndex *uint32
	Value      Value
	AccessErr  *PropertyAccessError
}

// DecodeReadPropertyMultipleAck decodes the full nested list structure
// of a ReadPropertyMultiple ack: a sequence of (object-id, context-1
// opening/closing list of per-property results), where each result is
// (property-id, optional array-index, then either a context-4
// opening/closing value or a context-5 property-access-error block).
func DecodeReadPropertyMultipleAck(data []byte) ([]RPMResult, error) {
	var results []RPMResult
	pos := 0

	for pos < len(data) {
		oidTag, err := decodeTag(data[pos:])
		if err != nil {
			return nil, err
		}
		if oidTag.Class != TagClassContext || oidTag.Number != 0 {
			return nil, ErrInvalidAPDU
		}
		off := pos + oidTag.HeaderLen
		if len(data) < off+oidTag.Length {
			return nil, ErrBufferUnderrun
		}
		oid := DecodeObjectIdentifierFromBytes(data[off : off+oidTag.Length])
		pos = off + oidTag.Length

		listOpen, err := decodeTag(data[pos:])
		if err != nil || !listOpen.Opening || listOpen.Number != 1 {
			return nil, ErrInvalidAPDU
		}
		pos += listOpen.HeaderLen

		for {
			next, err := decodeTag(data[pos:])
			if err != nil {
				return nil, err
			}
			if next.Closing && next.Number == 1 {
				pos += next.HeaderLen
				break
			}

			propID, n, err := decodeContextUnsigned(data[pos:], 2)
			if err != nil {
				return nil, err
			}
			pos += n

			var arrayIndex *uint32
			if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 3 && !t.Opening && !t.Closing {
				idx, n, err := decodeContextUnsigned(data[pos:], 3)
				if err != nil {
					return nil, err
				}
				arrayIndex = &idx
				pos += n
			}

			valTag, err := decodeTag(data[pos:])
			if err != nil {
				return nil, err
			}

			result := RPMResult{ObjectID: oid, PropertyID: PropertyIdentifier(propID), ArrayIndex: arrayIndex}

			switch {
			case valTag.Opening && valTag.Number == 4:
				pos += valTag.HeaderLen
				v, n, err := DecodeValue(data[pos:])
				if err != nil {
					return nil, err
				}
				pos += n
				closeTag, err := decodeTag(data[pos:])
				if err != nil || !closeTag.Closing || closeTag.Number != 4 {
					return nil, ErrInvalidAPDU
				}
				pos += closeTag.HeaderLen
				result.Value = v

			case valTag.Opening && valTag.Number == 5:
				accessErr, n, err := decodePropertyAccessError(data[pos:])
				if err != nil {
					return nil, err
				}
				pos += n
				result.AccessErr = &accessErr

			default:
				return nil, ErrInvalidAPDU
			}

			results = append(results, result)
		}
	}

	return results, nil
}

// EncodeReadPropertyMultipleAck encodes one object's result block,
// mirroring DecodeReadPropertyMultipleAck's nested-list shape.
func EncodeReadPropertyMultipleAck(objectID ObjectIdentifier, results []RPMResult) []byte {
	w := NewWriter()
	w.Write(EncodeContextObjectIdentifier(0, objectID))
	w.Write(EncodeOpeningTag(1))
	for _, r := range results {
		w.Write(EncodeContextEnumerated(2, uint32(r.PropertyID)))
		if r.ArrayIndex != nil {
			w.Write(EncodeContextUnsigned(3, *r.ArrayIndex))
		}
		if r.AccessErr != nil {
			w.Write(encodePropertyAccessError(*r.AccessErr))
			continue
		}
		w.Write(EncodeOpeningTag(4))
		w.Write(EncodeValue(r.Value))
		w.Write(EncodeClosingTag(4))
	}
	w.Write(EncodeClosingTag(1))
	return w.Bytes()
}

// EncodeWritePropertyMultipleRequest encodes one object's worth of a
// WritePropertyMultiple request.
func EncodeWritePropertyMultipleRequest(objectID ObjectIdentifier, writes []WritePropertyRequest) []byte {
	w := NewWriter()
	w.Write(EncodeContextObjectIdentifier(0, objectID))
	w.Write(EncodeOpeningTag(1))
	for _, wr := range writes {
		w.Write(EncodeContextEnumerated(2, uint32(wr.PropertyID)))
		if wr.ArrayIndex != nil {
			w.Write(EncodeContextUnsigned(3, *wr.ArrayIndex))
		}
		w.Write(EncodeOpeningTag(4))
		w.Write(EncodeValue(wr.Value))
		w.Write(EncodeClosingTag(4))
		if wr.Priority != nil {
			w.Write(EncodeContextUnsigned(5, uint32(*wr.Priority)))
		}
	}
	w.Write(EncodeClosingTag(1))
	return w.Bytes()
}
