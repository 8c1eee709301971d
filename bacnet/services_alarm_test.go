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

func TestAcknowledgeAlarmRequestRoundTrip(t *testing.T) {
	req := AcknowledgeAlarmRequest{
		AcknowledgingProcessID: 1,
		EventObjectID:          NewObjectIdentifier(ObjectTypeAnalogInput, 1),
		EventStateAcknowledged: EventStateOffNormal,
		EventTimeStamp:         TimeStamp{Kind: TimeStampSequenceNumber, SequenceNumber: 42},
		AcknowledgmentSource:   "operator",
		TimeOfAcknowledgment:   TimeStamp{Kind: TimeStampTime, Time: Time{Hour: 10, Minute: 0, Second: 0}},
	}
	decoded, err := DecodeAcknowledgeAlarmRequest(EncodeAcknowledgeAlarmRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req.AcknowledgingProcessID, decoded.AcknowledgingProcessID)
	assert.Equal(t, req.EventObjectID, decoded.EventObjectID)
	assert.Equal(t, req.EventStateAcknowledged, decoded.EventStateAcknowledged)
	assert.Equal(t, req.EventTimeStamp.Kind, decoded.EventTimeStamp.Kind)
	assert.EqualValues(t, 42, decoded.EventTimeStamp.SequenceNumber)
	assert.Equal(t, "operator", decoded.AcknowledgmentSource)
	assert.Equal(t, TimeStampTime, decoded.TimeOfAcknowledgment.Kind)
}

func TestAcknowledgeAlarmRequestRoundTripDateTimeStamp(t *testing.T) {
	req := AcknowledgeAlarmRequest{
		AcknowledgingProcessID: 2,
		EventObjectID:          NewObjectIdentifier(ObjectTypeBinaryInput, 3),
		EventStateAcknowledged: EventStateNormal,
		EventTimeStamp: TimeStamp{
			Kind: TimeStampDateTime,
			Date: Date{Year: 124, Month: 6, Day: 1},
			Time: Time{Hour: 8, Minute: 15, Second: 0},
		},
		AcknowledgmentSource: "auto",
		TimeOfAcknowledgment: TimeStamp{Kind: TimeStampSequenceNumber, SequenceNumber: 7},
	}
	decoded, err := DecodeAcknowledgeAlarmRequest(EncodeAcknowledgeAlarmRequest(req))
	require.NoError(t, err)
	assert.Equal(t, TimeStampDateTime, decoded.EventTimeStamp.Kind)
	assert.Equal(t, req.EventTimeStamp.Date, decoded.EventTimeStamp.Date)
	assert.Equal(t, req.EventTimeStamp.Time, decoded.EventTimeStamp.Time)
}

func TestGetAlarmSummaryAckDecodesFlatEntryRun(t *testing.T) {
	w := NewWriter()
	w.Write(EncodeContextObjectIdentifier(0, NewObjectIdentifier(ObjectTypeAnalogInput, 1)))
	w.Write(EncodeContextEnumerated(1, uint32(EventStateOffNormal)))
	w.Write(EncodeContextTag(2, EncodeBitString(BitString{Bits: []bool{true, false}})))
	w.Write(EncodeContextObjectIdentifier(0, NewObjectIdentifier(ObjectTypeAnalogInput, 2)))
	w.Write(EncodeContextEnumerated(1, uint32(EventStateNormal)))
	w.Write(EncodeContextTag(2, EncodeBitString(BitString{Bits: []bool{false, false}})))

	items, err := DecodeGetAlarmSummaryAck(w.Bytes())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.EqualValues(t, 1, items[0].ObjectID.Instance)
	assert.Equal(t, EventStateOffNormal, items[0].AlarmState)
	assert.EqualValues(t, 2, items[1].ObjectID.Instance)
}

func TestGetEnrollmentSummaryAckDecodesEntries(t *testing.T) {
	w := NewWriter()
	w.Write(EncodeContextObjectIdentifier(0, NewObjectIdentifier(ObjectTypeAnalogInput, 1)))
	w.Write(EncodeContextUnsigned(1, 1))
	w.Write(EncodeContextEnumerated(2, uint32(EventStateNormal)))
	w.Write(EncodeContextUnsigned(3, 5))
	w.Write(EncodeContextUnsigned(4, 10))

	items, err := DecodeGetEnrollmentSummaryAck(w.Bytes())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 5, items[0].Priority)
	assert.EqualValues(t, 10, items[0].NotificationClass)
}

func TestEncodeGetEventInformationRequest(t *testing.T) {
	assert.Nil(t, EncodeGetEventInformationRequest(nil))

	oid := NewObjectIdentifier(ObjectTypeAnalogInput, 9)
	data := EncodeGetEventInformationRequest(&oid)
	assert.NotEmpty(t, data)
}
