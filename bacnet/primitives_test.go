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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeUnsignedMinimumByteCount(t *testing.T) {
	assert.Len(t, EncodeUnsigned(0xFF), 1)
	assert.Len(t, EncodeUnsigned(0x100), 2)
	assert.Len(t, EncodeUnsigned(0x10000), 3)
	assert.Len(t, EncodeUnsigned(0x1000000), 4)
	assert.EqualValues(t, 0x1000000, DecodeUnsigned(EncodeUnsigned(0x1000000)))
}

func TestEncodeSignedMinimumByteCountAndSignExtension(t *testing.T) {
	assert.Len(t, EncodeSigned(-1), 1)
	assert.Len(t, EncodeSigned(200), 2) // out of int8 range
	assert.EqualValues(t, -1, DecodeSigned(EncodeSigned(-1)))
	assert.EqualValues(t, -70000, DecodeSigned(EncodeSigned(-70000)))
}

func TestEncodeDecodeReal(t *testing.T) {
	data := EncodeReal(72.5)
	require.Len(t, data, 4)
	assert.InDelta(t, 72.5, DecodeReal(data), 0.0001)
}

func TestEncodeDecodeDouble(t *testing.T) {
	data := EncodeDouble(-12.25)
	require.Len(t, data, 8)
	assert.InDelta(t, -12.25, DecodeDouble(data), 0.0001)
}

func TestEncodeBooleanTagCarriesValueInLengthCode(t *testing.T) {
	assert.Equal(t, []byte{0x11}, EncodeBooleanTag(true))
	assert.Equal(t, []byte{0x10}, EncodeBooleanTag(false))
}

func TestCharacterStringRoundTrip(t *testing.T) {
	data := EncodeCharacterString("hello")
	s, err := DecodeCharacterString(data)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestCharacterStringRejectsUnsupportedCharset(t *testing.T) {
	data := append([]byte{4}, []byte("hello")...)
	_, err := DecodeCharacterString(data)
	assert.ErrorIs(t, err, ErrUnsupportedCharset)
}

func TestCharacterStringRejectsEmptyInput(t *testing.T) {
	_, err := DecodeCharacterString(nil)
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestBitStringRoundTrip(t *testing.T) {
	bs := BitString{Bits: []bool{true, false, true, true, false}}
	encoded := EncodeBitString(bs)

	decoded, err := DecodeBitString(encoded)
	require.NoError(t, err)
	assert.Equal(t, bs.Bits, decoded.Bits)
}

func TestBitStringRejectsEmptyInput(t *testing.T) {
	_, err := DecodeBitString(nil)
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestBitStringRejectsUnusedBitsAboveSeven(t *testing.T) {
	_, err := DecodeBitString([]byte{8, 0x00})
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestDateTimeRoundTrip(t *testing.T) {
	d := Date{Year: 124, Month: 3, Day: 14, Weekday: 4}
	decodedDate, err := DecodeDate(EncodeDate(d))
	require.NoError(t, err)
	assert.Equal(t, d, decodedDate)

	tm := Time{Hour: 13, Minute: 30, Second: 0, Hundredths: 0}
	decodedTime, err := DecodeTime(EncodeTime(tm))
	require.NoError(t, err)
	assert.Equal(t, tm, decodedTime)
}

func TestObjectIdentifierPrimitiveRoundTrip(t *testing.T) {
	oid := NewObjectIdentifier(ObjectTypeBinaryOutput, 17)
	data := EncodeObjectIdentifier(oid)
	require.Len(t, data, 4)
	assert.Equal(t, oid, DecodeObjectIdentifierFromBytes(data))
}
