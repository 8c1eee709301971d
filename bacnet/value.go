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

import "fmt"

// ValueKind discriminates the Value union.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueBoolean
	ValueUnsigned
	ValueSigned
	ValueReal
	ValueDouble
	ValueOctetString
	ValueCharacterString
	ValueBitString
	ValueEnumerated
	ValueDate
	ValueTime
	ValueObjectIdentifier
	ValueConstructed
)

// Value is the 14-variant tagged union over BACnet application data:
// the 13 primitive application types plus recursive constructed
// values. Only the field(s) matching Kind are meaningful.
type Value struct {
	Kind ValueKind

	Boolean  bool
	Unsigned uint32
	Signed   int32
	Real     float32
	Double   float64
	Octets   []byte
	Text     string
	Bits     BitString
	Enum     uint32
	Date     Date
	Time     Time
	ObjectID ObjectIdentifier

	// Constructed holds the context tag number bracketing this value's
	// children plus the decoded children themselves, in order.
	ConstructedTag uint8
	Constructed    []Value
}

func (v Value) String() string {
	switch v.Kind {
	case ValueNull:
		return "null"
	case ValueBoolean:
		return fmt.Sprintf("%v", v.Boolean)
	case ValueUnsigned:
		return fmt.Sprintf("%d", v.Unsigned)
	case ValueSigned:
		return fmt.Sprintf("%d", v.Signed)
	case ValueReal:
		return fmt.Sprintf("%g", v.Real)
	case ValueDouble:
		return fmt.Sprintf("%g", v.Double)
	case ValueOctetString:
		return fmt.Sprintf("octets(%d)", len(v.Octets))
	case ValueCharacterString:
		return v.Text
	case ValueBitString:
		return fmt.Sprintf("bits(%d)", len(v.Bits.Bits))
	case ValueEnumerated:
		return fmt.Sprintf("enum(%d)", v.Enum)
	case ValueDate:
		return fmt.Sprintf("%04d-%02d-%02d", 1900+int(v.Date.Year), v.Date.Month, v.Date.Day)
	case ValueTime:
		return fmt.Sprintf("%02d:%02d:%02d.%02d", v.Time.Hour, v.Time.Minute, v.Time.Second, v.Time.Hundredths)
	case ValueObjectIdentifier:
		return v.ObjectID.String()
	case ValueConstructed:
		return fmt.Sprintf("constructed[%d](%d children)", v.ConstructedTag, len(v.Constructed))
	default:
		return "unknown"
	}
}

// NullValue, BooleanValue, ... are convenience constructors mirroring
// the shape of the teacher's old ad-hoc interface{} switches, now
// typed against the real union.
func NullValue() Value                      { return Value{Kind: ValueNull} }
func BooleanValue(b bool) Value             { return Value{Kind: ValueBoolean, Boolean: b} }
func UnsignedValue(u uint32) Value          { return Value{Kind: ValueUnsigned, Unsigned: u} }
func SignedValue(i int32) Value             { return Value{Kind: ValueSigned, Signed: i} }
func RealValue(f float32) Value             { return Value{Kind: ValueReal, Real: f} }
func DoubleValue(f float64) Value           { return Value{Kind: ValueDouble, Double: f} }
func OctetStringValue(b []byte) Value       { return Value{Kind: ValueOctetString, Octets: b} }
func CharacterStringValue(s string) Value   { return Value{Kind: ValueCharacterString, Text: s} }
func BitStringValue(bs BitString) Value     { return Value{Kind: ValueBitString, Bits: bs} }
func EnumeratedValue(e uint32) Value        { return Value{Kind: ValueEnumerated, Enum: e} }
func DateValue(d Date) Value                { return Value{Kind: ValueDate, Date: d} }
func TimeValue(t Time) Value                { return Value{Kind: ValueTime, Time: t} }
func ObjectIdentifierValue(o ObjectIdentifier) Value {
	return Value{Kind: ValueObjectIdentifier, ObjectID: o}
}
func ConstructedValue(tagNum uint8, children []Value) Value {
	return Value{Kind: ValueConstructed, ConstructedTag: tagNum, Constructed: children}
}

// EncodeValue emits the minimal application-tagged wire form for v.
// Constructed values are emitted as their bracketing context
// opening/closing pair around the encoded children.
func EncodeValue(v Value) []byte {
	switch v.Kind {
	case ValueNull:
		return []byte{0x00}
	case ValueBoolean:
		return EncodeBooleanTag(v.Boolean)
	case ValueUnsigned:
		return EncodeUnsignedTag(v.Unsigned)
	case ValueSigned:
		return EncodeSignedTag(v.Signed)
	case ValueReal:
		return EncodeRealTag(v.Real)
	case ValueDouble:
		return EncodeDoubleTag(v.Double)
	case ValueOctetString:
		return EncodeOctetStringTag(v.Octets)
	case ValueCharacterString:
		return EncodeCharacterStringTag(v.Text)
	case ValueBitString:
		return EncodeBitStringTag(v.Bits)
	case ValueEnumerated:
		return EncodeEnumeratedTag(v.Enum)
	case ValueDate:
		data := EncodeDate(v.Date)
		tag := EncodeTag(uint8(TagDate), TagClassApplication, len(data))
		return append(tag, data...)
	case ValueTime:
		data := EncodeTime(v.Time)
		tag := EncodeTag(uint8(TagTime), TagClassApplication, len(data))
		return append(tag, data...)
	case ValueObjectIdentifier:
		return EncodeObjectIdentifierTag(v.ObjectID)
	case ValueConstructed:
		w := NewWriter()
		w.Write(EncodeOpeningTag(v.ConstructedTag))
		for _, child := range v.Constructed {
			w.Write(EncodeValue(child))
		}
		w.Write(EncodeClosingTag(v.ConstructedTag))
		return w.Bytes()
	default:
		return nil
	}
}

// DecodeValue decodes one application-tagged value (or, if the next
// tag is a context-class opening tag, a constructed value bracketing
// its children), returning the number of bytes consumed.
func DecodeValue(data []byte) (Value, int, error) {
	t, err := decodeTag(data)
	if err != nil {
		return Value{}, 0, err
	}

	if t.Opening {
		return decodeConstructedValue(data, t)
	}
	if t.Closing {
		return Value{}, 0, ErrInvalidTag
	}
	if t.Class != TagClassApplication {
		return Value{}, 0, ErrInvalidTag
	}
	if ApplicationTag(t.Number) == TagBoolean {
		// The length code carries the value; there are no content octets.
		return BooleanValue(t.Length != 0), t.HeaderLen, nil
	}

	body := data[t.HeaderLen:]
	if len(body) < t.Length {
		return Value{}, 0, ErrBufferUnderrun
	}
	body = body[:t.Length]
	total := t.HeaderLen + t.Length

	v, err := decodeApplicationBody(ApplicationTag(t.Number), body)
	if err != nil {
		return Value{}, 0, err
	}
	return v, total, nil
}

func decodeApplicationBody(tagNum ApplicationTag, body []byte) (Value, error) {
	switch tagNum {
	case TagNull:
		return NullValue(), nil
	case TagBoolean:
		return BooleanValue(len(body) > 0), nil
	case TagUnsignedInt:
		if len(body) < 1 || len(body) > 4 {
			return Value{}, ErrInvalidTag
		}
		return UnsignedValue(DecodeUnsigned(body)), nil
	case TagSignedInt:
		if len(body) < 1 || len(body) > 4 {
			return Value{}, ErrInvalidTag
		}
		return SignedValue(DecodeSigned(body)), nil
	case TagReal:
		if len(body) != 4 {
			return Value{}, ErrInvalidTag
		}
		return RealValue(DecodeReal(body)), nil
	case TagDouble:
		if len(body) != 8 {
			return Value{}, ErrInvalidTag
		}
		return DoubleValue(DecodeDouble(body)), nil
	case TagOctetString:
		return OctetStringValue(append([]byte(nil), body...)), nil
	case TagCharacterString:
		s, err := DecodeCharacterString(body)
		if err != nil {
			return Value{}, err
		}
		return CharacterStringValue(s), nil
	case TagBitString:
		bs, err := DecodeBitString(body)
		if err != nil {
			return Value{}, err
		}
		return BitStringValue(bs), nil
	case TagEnumerated:
		if len(body) < 1 || len(body) > 4 {
			return Value{}, ErrInvalidTag
		}
		return EnumeratedValue(DecodeUnsigned(body)), nil
	case TagDate:
		d, err := DecodeDate(body)
		if err != nil {
			return Value{}, err
		}
		return DateValue(d), nil
	case TagTime:
		t, err := DecodeTime(body)
		if err != nil {
			return Value{}, err
		}
		return TimeValue(t), nil
	case TagObjectID:
		if len(body) != 4 {
			return Value{}, ErrInvalidTag
		}
		return ObjectIdentifierValue(DecodeObjectIdentifierFromBytes(body)), nil
	default:
		return Value{}, fmt.Errorf("%w: application tag %d", ErrUnsupportedApplicationTag, tagNum)
	}
}

// decodeConstructedValue scans children between data's leading opening
// tag t and its matching closing tag, recursing into nested
// constructed values and returning the total bytes consumed including
// both brackets.
func decodeConstructedValue(data []byte, opening decodedTag) (Value, int, error) {
	pos := opening.HeaderLen
	var children []Value

	for {
		if pos >= len(data) {
			return Value{}, 0, ErrBufferUnderrun
		}
		ct, err := decodeTag(data[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		if ct.Closing {
			if ct.Number != opening.Number {
				return Value{}, 0, ErrInvalidTag
			}
			pos += ct.HeaderLen
			return ConstructedValue(opening.Number, children), pos, nil
		}

		child, n, err := DecodeValue(data[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		children = append(children, child)
		pos += n
	}
}

// PropertyAccessError is the decoded form of the context-5
// opening/closing error block embedded in ReadPropertyMultiple acks
// in place of a successful value.
type PropertyAccessError struct {
	Class ErrorClass
	Code  ErrorCode
}

// decodePropertyAccessError recognises a context-5 opening tag
// bracketing a context-0 error-class and context-1 error-code pair,
// returning the error and bytes consumed including both brackets.
// It only succeeds if data begins with exactly this shape.
func decodePropertyAccessError(data []byte) (PropertyAccessError, int, error) {
	t, err := decodeTag(data)
	if err != nil || !t.Opening || t.Number != 5 {
		return PropertyAccessError{}, 0, ErrInvalidTag
	}
	pos := t.HeaderLen

	classTag, err := decodeTag(data[pos:])
	if err != nil || classTag.Class != TagClassContext || classTag.Number != 0 || classTag.Opening || classTag.Closing {
		return PropertyAccessError{}, 0, ErrInvalidTag
	}
	pos += classTag.HeaderLen
	if len(data) < pos+classTag.Length {
		return PropertyAccessError{}, 0, ErrBufferUnderrun
	}
	class := ErrorClass(DecodeUnsigned(data[pos : pos+classTag.Length]))
	pos += classTag.Length

	codeTag, err := decodeTag(data[pos:])
	if err != nil || codeTag.Class != TagClassContext || codeTag.Number != 1 || codeTag.Opening || codeTag.Closing {
		return PropertyAccessError{}, 0, ErrInvalidTag
	}
	pos += codeTag.HeaderLen
	if len(data) < pos+codeTag.Length {
		return PropertyAccessError{}, 0, ErrBufferUnderrun
	}
	code := ErrorCode(DecodeUnsigned(data[pos : pos+codeTag.Length]))
	pos += codeTag.Length

	closeTag, err := decodeTag(data[pos:])
	if err != nil || !closeTag.Closing || closeTag.Number != 5 {
		return PropertyAccessError{}, 0, ErrInvalidTag
	}
	pos += closeTag.HeaderLen

	return PropertyAccessError{Class: class, Code: code}, pos, nil
}

// encodePropertyAccessError is the inverse of decodePropertyAccessError,
// used when this side acts as a server emitting an RPM per-property error.
func encodePropertyAccessError(e PropertyAccessError) []byte {
	w := NewWriter()
	w.Write(EncodeOpeningTag(5))
	w.Write(EncodeContextEnumerated(0, uint32(e.Class)))
	w.Write(EncodeContextEnumerated(1, uint32(e.Code)))
	w.Write(EncodeClosingTag(5))
	return w.Bytes()
}
