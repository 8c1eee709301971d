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

func TestValueRoundTripPrimitives(t *testing.T) {
	cases := []Value{
		NullValue(),
		BooleanValue(true),
		BooleanValue(false),
		UnsignedValue(42),
		SignedValue(-17),
		RealValue(72.5),
		CharacterStringValue("hello"),
		ObjectIdentifierValue(NewObjectIdentifier(ObjectTypeAnalogInput, 1)),
	}

	for _, v := range cases {
		encoded := EncodeValue(v)
		decoded, used, err := DecodeValue(encoded)
		require.NoError(t, err)
		assert.Equal(t, len(encoded), used)
		assert.Equal(t, v.Kind, decoded.Kind)
	}
}

func TestReadPropertyAckRoundTrip(t *testing.T) {
	oid := NewObjectIdentifier(ObjectTypeAnalogInput, 5)
	ack := ReadPropertyAck{
		ObjectID:   oid,
		PropertyID: PropertyPresentValue,
		Value:      RealValue(21.5),
	}
	encoded := EncodeReadPropertyAck(ack)
	decoded, err := DecodeReadPropertyAck(encoded)
	require.NoError(t, err)
	assert.Equal(t, oid, decoded.ObjectID)
	assert.Equal(t, PropertyPresentValue, decoded.PropertyID)
	assert.EqualValues(t, 21.5, decoded.Value.Real)
}
