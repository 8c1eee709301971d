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

func TestReadPropertyAckRoundTripWithArrayIndex(t *testing.T) {
	idx := uint32(2)
	ack := ReadPropertyAck{
		ObjectID:   NewObjectIdentifier(ObjectTypeAnalogInput, 1),
		PropertyID: PropertyPresentValue,
		ArrayIndex: &idx,
		Value:      UnsignedValue(7),
	}
	decoded, err := DecodeReadPropertyAck(EncodeReadPropertyAck(ack))
	require.NoError(t, err)
	require.NotNil(t, decoded.ArrayIndex)
	assert.EqualValues(t, 2, *decoded.ArrayIndex)
	assert.EqualValues(t, 7, decoded.Value.Unsigned)
}

func TestWritePropertyRequestEncodesObjectAndPriority(t *testing.T) {
	priority := uint8(8)
	oid := NewObjectIdentifier(ObjectTypeAnalogValue, 9)
	encoded := EncodeWritePropertyRequest(oid, PropertyPresentValue, nil, RealValue(72.5), &priority)

	oidTag, err := decodeTag(encoded)
	require.NoError(t, err)
	off := oidTag.HeaderLen
	assert.Equal(t, oid, DecodeObjectIdentifierFromBytes(encoded[off:off+oidTag.Length]))

	priorityTag, err := decodeTag(encoded[len(encoded)-2:])
	require.NoError(t, err)
	assert.EqualValues(t, 4, priorityTag.Number)
}

func TestReadPropertyMultipleAckRoundTripSingleObject(t *testing.T) {
	oid := NewObjectIdentifier(ObjectTypeAnalogInput, 1)
	results := []RPMResult{
		{PropertyID: PropertyPresentValue, Value: RealValue(21.5)},
		{PropertyID: PropertyDescription, Value: CharacterStringValue("Zone Temp")},
	}
	encoded := EncodeReadPropertyMultipleAck(oid, results)

	decoded, err := DecodeReadPropertyMultipleAck(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, oid, decoded[0].ObjectID)
	assert.Equal(t, PropertyPresentValue, decoded[0].PropertyID)
	assert.EqualValues(t, 21.5, decoded[0].Value.Real)
	assert.Equal(t, "Zone Temp", decoded[1].Value.Text)
}

func TestReadPropertyMultipleAckWithAccessError(t *testing.T) {
	oid := NewObjectIdentifier(ObjectTypeAnalogInput, 1)
	results := []RPMResult{
		{PropertyID: PropertyPresentValue, AccessErr: &PropertyAccessError{Class: 2, Code: 31}},
	}
	decoded, err := DecodeReadPropertyMultipleAck(EncodeReadPropertyMultipleAck(oid, results))
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.NotNil(t, decoded[0].AccessErr)
	assert.EqualValues(t, 2, decoded[0].AccessErr.Class)
	assert.EqualValues(t, 31, decoded[0].AccessErr.Code)
}

func TestReadPropertyMultipleAckMultipleObjects(t *testing.T) {
	block1 := EncodeReadPropertyMultipleAck(NewObjectIdentifier(ObjectTypeAnalogInput, 1), []RPMResult{
		{PropertyID: PropertyPresentValue, Value: RealValue(1)},
	})
	block2 := EncodeReadPropertyMultipleAck(NewObjectIdentifier(ObjectTypeAnalogInput, 2), []RPMResult{
		{PropertyID: PropertyPresentValue, Value: RealValue(2)},
	})

	decoded, err := DecodeReadPropertyMultipleAck(append(block1, block2...))
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.EqualValues(t, 1, decoded[0].ObjectID.Instance)
	assert.EqualValues(t, 2, decoded[1].ObjectID.Instance)
}
