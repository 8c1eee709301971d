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

func TestWhoIsRoundTripWithRange(t *testing.T) {
	low, high := uint32(10), uint32(100)
	data := EncodeWhoIs(&low, &high)

	gotLow, gotHigh, err := DecodeWhoIs(data)
	require.NoError(t, err)
	require.NotNil(t, gotLow)
	require.NotNil(t, gotHigh)
	assert.EqualValues(t, 10, *gotLow)
	assert.EqualValues(t, 100, *gotHigh)
}

func TestWhoIsUnboundedHasEmptyBody(t *testing.T) {
	data := EncodeWhoIs(nil, nil)
	assert.Empty(t, data)

	low, high, err := DecodeWhoIs(nil)
	require.NoError(t, err)
	assert.Nil(t, low)
	assert.Nil(t, high)
}

func TestIAmRoundTrip(t *testing.T) {
	ia := IAm{
		ObjectID:     NewObjectIdentifier(ObjectTypeDevice, 1001),
		MaxAPDU:      1476,
		Segmentation: SegmentationBoth,
		VendorID:     260,
	}
	decoded, err := DecodeIAm(EncodeIAm(ia))
	require.NoError(t, err)
	assert.Equal(t, ia, decoded)
}

func TestWhoHasRoundTripByObjectID(t *testing.T) {
	oid := NewObjectIdentifier(ObjectTypeAnalogValue, 2)
	wh := WhoHas{ObjectID: &oid}

	decoded, err := DecodeWhoHas(EncodeWhoHas(wh))
	require.NoError(t, err)
	require.NotNil(t, decoded.ObjectID)
	assert.Equal(t, oid, *decoded.ObjectID)
}

func TestWhoHasRoundTripByObjectName(t *testing.T) {
	wh := WhoHas{ObjectName: "ZoneTemp1"}

	decoded, err := DecodeWhoHas(EncodeWhoHas(wh))
	require.NoError(t, err)
	assert.Equal(t, "ZoneTemp1", decoded.ObjectName)
	assert.Nil(t, decoded.ObjectID)
}

func TestWhoHasRoundTripWithLimitsAndObjectID(t *testing.T) {
	low, high := uint32(1), uint32(50)
	oid := NewObjectIdentifier(ObjectTypeBinaryValue, 7)
	wh := WhoHas{LowLimit: &low, HighLimit: &high, ObjectID: &oid}

	decoded, err := DecodeWhoHas(EncodeWhoHas(wh))
	require.NoError(t, err)
	require.NotNil(t, decoded.LowLimit)
	require.NotNil(t, decoded.HighLimit)
	assert.EqualValues(t, 1, *decoded.LowLimit)
	assert.EqualValues(t, 50, *decoded.HighLimit)
	require.NotNil(t, decoded.ObjectID)
	assert.Equal(t, oid, *decoded.ObjectID)
}

func TestIHaveRoundTrip(t *testing.T) {
	ih := IHave{
		DeviceID:   NewObjectIdentifier(ObjectTypeDevice, 5),
		ObjectID:   NewObjectIdentifier(ObjectTypeAnalogInput, 3),
		ObjectName: "OutsideAirTemp",
	}
	decoded, err := DecodeIHave(EncodeIHave(ih))
	require.NoError(t, err)
	assert.Equal(t, ih, decoded)
}
