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

func TestCreateObjectRequestRoundTripByType(t *testing.T) {
	ot := ObjectTypeAnalogValue
	req := CreateObjectRequest{ObjectType: &ot}
	decoded, err := DecodeCreateObjectRequest(EncodeCreateObjectRequest(req))
	require.NoError(t, err)
	require.NotNil(t, decoded.ObjectType)
	assert.Equal(t, ot, *decoded.ObjectType)
	assert.Nil(t, decoded.ObjectID)
}

func TestCreateObjectRequestRoundTripByObjectID(t *testing.T) {
	oid := NewObjectIdentifier(ObjectTypeAnalogValue, 5)
	req := CreateObjectRequest{ObjectID: &oid}
	decoded, err := DecodeCreateObjectRequest(EncodeCreateObjectRequest(req))
	require.NoError(t, err)
	require.NotNil(t, decoded.ObjectID)
	assert.Equal(t, oid, *decoded.ObjectID)
}

func TestCreateObjectAckRoundTrip(t *testing.T) {
	oid := NewObjectIdentifier(ObjectTypeAnalogValue, 9)
	decoded, err := DecodeCreateObjectAck(EncodeCreateObjectAck(oid))
	require.NoError(t, err)
	assert.Equal(t, oid, decoded)
}

func TestDeleteObjectRequestRoundTrip(t *testing.T) {
	oid := NewObjectIdentifier(ObjectTypeAnalogValue, 3)
	decoded, err := DecodeDeleteObjectRequest(EncodeDeleteObjectRequest(oid))
	require.NoError(t, err)
	assert.Equal(t, oid, decoded)
}

func TestListElementRequestRoundTrip(t *testing.T) {
	req := ListElementRequest{
		ObjectID:   NewObjectIdentifier(ObjectTypeBinaryValue, 1),
		PropertyID: PropertyPresentValue,
		Elements:   []Value{UnsignedValue(1), UnsignedValue(2)},
	}
	decoded, err := DecodeListElementRequest(EncodeListElementRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req.ObjectID, decoded.ObjectID)
	assert.Equal(t, req.PropertyID, decoded.PropertyID)
	require.Len(t, decoded.Elements, 2)
	assert.EqualValues(t, 1, decoded.Elements[0].Unsigned)
	assert.EqualValues(t, 2, decoded.Elements[1].Unsigned)
}
