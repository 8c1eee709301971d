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

func TestReadRangeRequestRoundTripAll(t *testing.T) {
	req := ReadRangeRequest{
		ObjectID:   NewObjectIdentifier(ObjectTypeAnalogInput, 1),
		PropertyID: PropertyPresentValue,
		Selector:   RangeSelector{Kind: RangeSelectorAll},
	}
	decoded, err := DecodeReadRangeRequest(EncodeReadRangeRequest(req))
	require.NoError(t, err)
	assert.Equal(t, RangeSelectorAll, decoded.Selector.Kind)
}

func TestReadRangeRequestRoundTripByPosition(t *testing.T) {
	req := ReadRangeRequest{
		ObjectID:   NewObjectIdentifier(ObjectTypeAnalogInput, 1),
		PropertyID: PropertyPresentValue,
		Selector:   RangeSelector{Kind: RangeSelectorByPosition, ReferenceIndex: 10, Count: 5},
	}
	decoded, err := DecodeReadRangeRequest(EncodeReadRangeRequest(req))
	require.NoError(t, err)
	assert.Equal(t, RangeSelectorByPosition, decoded.Selector.Kind)
	assert.EqualValues(t, 10, decoded.Selector.ReferenceIndex)
	assert.EqualValues(t, 5, decoded.Selector.Count)
}

func TestReadRangeRequestRoundTripBySequenceNumber(t *testing.T) {
	req := ReadRangeRequest{
		ObjectID:   NewObjectIdentifier(ObjectTypeAnalogInput, 1),
		PropertyID: PropertyPresentValue,
		Selector:   RangeSelector{Kind: RangeSelectorBySequenceNumber, ReferenceSeqNum: 42, Count: -5},
	}
	decoded, err := DecodeReadRangeRequest(EncodeReadRangeRequest(req))
	require.NoError(t, err)
	assert.Equal(t, RangeSelectorBySequenceNumber, decoded.Selector.Kind)
	assert.EqualValues(t, 42, decoded.Selector.ReferenceSeqNum)
	assert.EqualValues(t, -5, decoded.Selector.Count)
}

func TestReadRangeRequestRoundTripByTime(t *testing.T) {
	req := ReadRangeRequest{
		ObjectID:   NewObjectIdentifier(ObjectTypeAnalogInput, 1),
		PropertyID: PropertyPresentValue,
		Selector: RangeSelector{
			Kind:  RangeSelectorByTime,
			Date:  Date{Year: 124, Month: 1, Day: 1},
			Time:  Time{Hour: 0, Minute: 0, Second: 0},
			Count: 20,
		},
	}
	decoded, err := DecodeReadRangeRequest(EncodeReadRangeRequest(req))
	require.NoError(t, err)
	assert.Equal(t, RangeSelectorByTime, decoded.Selector.Kind)
	assert.Equal(t, req.Selector.Date, decoded.Selector.Date)
	assert.EqualValues(t, 20, decoded.Selector.Count)
}

func TestReadRangeAckRoundTrip(t *testing.T) {
	ack := ReadRangeAck{
		ObjectID:    NewObjectIdentifier(ObjectTypeTrendLog, 1),
		PropertyID:  PropertyLogBuffer,
		ResultFlags: BitString{Bits: []bool{true, true, false}},
		ItemCount:   2,
		Items:       []Value{RealValue(1.5), RealValue(2.5)},
	}
	decoded, err := DecodeReadRangeAck(EncodeReadRangeAck(ack))
	require.NoError(t, err)
	assert.Equal(t, ack.ObjectID, decoded.ObjectID)
	assert.EqualValues(t, 2, decoded.ItemCount)
	require.Len(t, decoded.Items, 2)
	assert.EqualValues(t, 1.5, decoded.Items[0].Real)
	assert.Equal(t, ack.ResultFlags.Bits, decoded.ResultFlags.Bits)
}
