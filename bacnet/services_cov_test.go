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

func TestSubscribeCOVRequestRoundTripMinimal(t *testing.T) {
	req := SubscribeCOVRequest{
		SubscriberProcessID: 1,
		ObjectID:            NewObjectIdentifier(ObjectTypeAnalogInput, 4),
	}
	decoded, err := DecodeSubscribeCOVRequest(EncodeSubscribeCOVRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req.SubscriberProcessID, decoded.SubscriberProcessID)
	assert.Equal(t, req.ObjectID, decoded.ObjectID)
	assert.Nil(t, decoded.Confirmed)
	assert.Nil(t, decoded.Lifetime)
}

func TestSubscribeCOVRequestRoundTripFull(t *testing.T) {
	confirmed := true
	lifetime := uint32(600)
	req := SubscribeCOVRequest{
		SubscriberProcessID: 9,
		ObjectID:            NewObjectIdentifier(ObjectTypeAnalogValue, 1),
		Confirmed:           &confirmed,
		Lifetime:            &lifetime,
	}
	decoded, err := DecodeSubscribeCOVRequest(EncodeSubscribeCOVRequest(req))
	require.NoError(t, err)
	require.NotNil(t, decoded.Confirmed)
	assert.True(t, *decoded.Confirmed)
	require.NotNil(t, decoded.Lifetime)
	assert.EqualValues(t, 600, *decoded.Lifetime)
}

func TestSubscribeCOVPropertyRequestRoundTrip(t *testing.T) {
	confirmed := false
	lifetime := uint32(120)
	propID := PropertyPresentValue
	idx := uint32(3)
	inc := float32(0.5)
	req := SubscribeCOVRequest{
		SubscriberProcessID: 2,
		ObjectID:            NewObjectIdentifier(ObjectTypeAnalogInput, 11),
		Confirmed:           &confirmed,
		Lifetime:            &lifetime,
		PropertyID:          &propID,
		ArrayIndex:          &idx,
		CovIncrement:        &inc,
	}
	decoded, err := DecodeSubscribeCOVRequest(EncodeSubscribeCOVRequest(req))
	require.NoError(t, err)
	require.NotNil(t, decoded.PropertyID)
	assert.Equal(t, propID, *decoded.PropertyID)
	require.NotNil(t, decoded.ArrayIndex)
	assert.EqualValues(t, 3, *decoded.ArrayIndex)
	require.NotNil(t, decoded.CovIncrement)
	assert.InDelta(t, 0.5, *decoded.CovIncrement, 0.0001)
}

func TestCOVNotificationRoundTrip(t *testing.T) {
	n := COVNotification{
		SubscriberProcessID: 1,
		InitiatingDeviceID:  NewObjectIdentifier(ObjectTypeDevice, 100),
		MonitoredObjectID:   NewObjectIdentifier(ObjectTypeAnalogInput, 4),
		TimeRemaining:       60,
		Values: []PropertyValue{
			{PropertyID: PropertyPresentValue, Value: RealValue(21.5)},
			{PropertyID: PropertyStatusFlags, Value: BooleanValue(false)},
		},
	}
	decoded, err := DecodeCOVNotification(EncodeCOVNotification(n))
	require.NoError(t, err)
	assert.Equal(t, n.SubscriberProcessID, decoded.SubscriberProcessID)
	assert.Equal(t, n.InitiatingDeviceID, decoded.InitiatingDeviceID)
	assert.Equal(t, n.MonitoredObjectID, decoded.MonitoredObjectID)
	require.Len(t, decoded.Values, 2)
	assert.Equal(t, PropertyPresentValue, decoded.Values[0].PropertyID)
	assert.EqualValues(t, n.MonitoredObjectID, decoded.Values[0].ObjectID)
}
