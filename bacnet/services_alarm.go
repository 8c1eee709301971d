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

// TimeStampKind discriminates the three wire forms a BACnet timestamp
// may take inside alarm and event services.
type TimeStampKind uint8

const (
	TimeStampTime TimeStampKind = iota
	TimeStampSequenceNumber
	TimeStampDateTime
)

// TimeStamp is a decoded BACnetTimeStamp choice.
type TimeStamp struct {
	Kind           TimeStampKind
	Time           Time
	SequenceNumber uint32
	Date           Date
}

func encodeTimeStamp(tagNum uint8, ts TimeStamp) []byte {
	w := NewWriter()
	w.Write(EncodeOpeningTag(tagNum))
	switch ts.Kind {
	case TimeStampTime:
		w.Write(EncodeTag(0, TagClassContext, 4))
		w.Write(EncodeTime(ts.Time))
	case TimeStampSequenceNumber:
		w.Write(EncodeContextUnsigned(1, ts.SequenceNumber))
	case TimeStampDateTime:
		w.Write(EncodeOpeningTag(2))
		w.Write(EncodeTag(uint8(TagDate), TagClassApplication, 4))
		w.Write(EncodeDate(ts.Date))
		w.Write(EncodeTag(uint8(TagTime), TagClassApplication, 4))
		w.Write(EncodeTime(ts.Time))
		w.Write(EncodeClosingTag(2))
	}
	w.Write(EncodeClosingTag(tagNum))
	return w.Bytes()
}

func decodeTimeStamp(data []byte, wantTag uint8) (TimeStamp, int, error) {
	open, err := decodeTag(data)
	if err != nil || !open.Opening || open.Number != wantTag {
		return TimeStamp{}, 0, ErrInvalidTag
	}
	pos := open.HeaderLen

	inner, err := decodeTag(data[pos:])
	if err != nil {
		return TimeStamp{}, 0, err
	}

	var ts TimeStamp
	switch {
	case inner.Class == TagClassContext && inner.Number == 0 && !inner.Opening:
		if len(data) < pos+inner.HeaderLen+4 {
			return TimeStamp{}, 0, ErrBufferUnderrun
		}
		body := data[pos+inner.HeaderLen : pos+inner.HeaderLen+4]
		ts = TimeStamp{Kind: TimeStampTime, Time: Time{Hour: body[0], Minute: body[1], Second: body[2], Hundredths: body[3]}}
		pos += inner.HeaderLen + 4
	case inner.Class == TagClassContext && inner.Number == 1 && !inner.Opening:
		if len(data) < pos+inner.HeaderLen+inner.Length {
			return TimeStamp{}, 0, ErrBufferUnderrun
		}
		ts = TimeStamp{Kind: TimeStampSequenceNumber, SequenceNumber: DecodeUnsigned(data[pos+inner.HeaderLen : pos+inner.HeaderLen+inner.Length])}
		pos += inner.HeaderLen + inner.Length
	case inner.Opening && inner.Number == 2:
		pos += inner.HeaderLen

		dateTag, err := decodeTag(data[pos:])
		if err != nil || dateTag.Class != TagClassApplication || ApplicationTag(dateTag.Number) != TagDate || dateTag.Length != 4 {
			return TimeStamp{}, 0, ErrInvalidTag
		}
		off := pos + dateTag.HeaderLen
		if len(data) < off+4 {
			return TimeStamp{}, 0, ErrBufferUnderrun
		}
		date, err := DecodeDate(data[off : off+4])
		if err != nil {
			return TimeStamp{}, 0, err
		}
		pos = off + 4

		timeTag, err := decodeTag(data[pos:])
		if err != nil || timeTag.Class != TagClassApplication || ApplicationTag(timeTag.Number) != TagTime || timeTag.Length != 4 {
			return TimeStamp{}, 0, ErrInvalidTag
		}
		off2 := pos + timeTag.HeaderLen
		if len(data) < off2+4 {
			return TimeStamp{}, 0, ErrBufferUnderrun
		}
		t, err := DecodeTime(data[off2 : off2+4])
		if err != nil {
			return TimeStamp{}, 0, err
		}
		pos = off2 + 4

		closeInner, err := decodeTag(data[pos:])
		if err != nil || !closeInner.Closing || closeInner.Number != 2 {
			return TimeStamp{}, 0, ErrInvalidAPDU
		}
		pos += closeInner.HeaderLen
		ts = TimeStamp{Kind: TimeStampDateTime, Date: date, Time: t}
	default:
		return TimeStamp{}, 0, ErrInvalidTag
	}

	closeOuter, err := decodeTag(data[pos:])
	if err != nil || !closeOuter.Closing || closeOuter.Number != wantTag {
		return TimeStamp{}, 0, ErrInvalidAPDU
	}
	pos += closeOuter.HeaderLen

	return ts, pos, nil
}

// AcknowledgeAlarmRequest is the body of an AcknowledgeAlarm request.
type AcknowledgeAlarmRequest struct {
	AcknowledgingProcessID  uint32
	EventObjectID           ObjectIdentifier
	EventStateAcknowledged  EventState
	EventTimeStamp          TimeStamp
	AcknowledgmentSource    string
	TimeOfAcknowledgment    TimeStamp
}

// EncodeAcknowledgeAlarmRequest encodes an AcknowledgeAlarm request body.
func EncodeAcknowledgeAlarmRequest(req AcknowledgeAlarmRequest) []byte {
	w := NewWriter()
	w.Write(EncodeContextUnsigned(0, req.AcknowledgingProcessID))
	w.Write(EncodeContextObjectIdentifier(1, req.EventObjectID))
	w.Write(EncodeContextEnumerated(2, uint32(req.EventStateAcknowledged)))
	w.Write(encodeTimeStamp(3, req.EventTimeStamp))
	w.Write(EncodeContextCharacterString(4, req.AcknowledgmentSource))
	w.Write(encodeTimeStamp(5, req.TimeOfAcknowledgment))
	return w.Bytes()
}

// DecodeAcknowledgeAlarmRequest decodes an AcknowledgeAlarm request body.
func DecodeAcknowledgeAlarmRequest(data []byte) (AcknowledgeAlarmRequest, error) {
	pos := 0

	procID, n, err := decodeContextUnsigned(data[pos:], 0)
	if err != nil {
		return AcknowledgeAlarmRequest{}, err
	}
	pos += n

	oid, n, err := decodeContextObjectID(data[pos:], 1)
	if err != nil {
		return AcknowledgeAlarmRequest{}, err
	}
	pos += n

	state, n, err := decodeContextUnsigned(data[pos:], 2)
	if err != nil {
		return AcknowledgeAlarmRequest{}, err
	}
	pos += n

	eventTS, n, err := decodeTimeStamp(data[pos:], 3)
	if err != nil {
		return AcknowledgeAlarmRequest{}, err
	}
	pos += n

	t, err := decodeTag(data[pos:])
	if err != nil || t.Class != TagClassContext || t.Number != 4 {
		return AcknowledgeAlarmRequest{}, ErrInvalidTag
	}
	off := pos + t.HeaderLen
	if len(data) < off+t.Length {
		return AcknowledgeAlarmRequest{}, ErrBufferUnderrun
	}
	source, err := DecodeCharacterString(data[off : off+t.Length])
	if err != nil {
		return AcknowledgeAlarmRequest{}, err
	}
	pos = off + t.Length

	ackTS, _, err := decodeTimeStamp(data[pos:], 5)
	if err != nil {
		return AcknowledgeAlarmRequest{}, err
	}

	return AcknowledgeAlarmRequest{
		AcknowledgingProcessID: procID,
		EventObjectID:          oid,
		EventStateAcknowledged: EventState(state),
		EventTimeStamp:         eventTS,
		AcknowledgmentSource:   source,
		TimeOfAcknowledgment:   ackTS,
	}, nil
}

// AlarmSummaryItem is one entry of a GetAlarmSummary ack.
type AlarmSummaryItem struct {
	ObjectID                  ObjectIdentifier
	AlarmState                EventState
	AcknowledgedTransitions   BitString
}

// DecodeGetAlarmSummaryAck decodes the body of a GetAlarmSummary ack: a
// flat, unbracketed run of fixed-shape summary entries.
func DecodeGetAlarmSummaryAck(data []byte) ([]AlarmSummaryItem, error) {
	var items []AlarmSummaryItem
	pos := 0
	for pos < len(data) {
		oid, n, err := decodeContextObjectID(data[pos:], 0)
		if err != nil {
			return nil, err
		}
		pos += n

		state, n, err := decodeContextUnsigned(data[pos:], 1)
		if err != nil {
			return nil, err
		}
		pos += n

		t, err := decodeTag(data[pos:])
		if err != nil || t.Class != TagClassContext || t.Number != 2 || t.Length == 0 {
			return nil, ErrInvalidTag
		}
		off := pos + t.HeaderLen
		if len(data) < off+t.Length {
			return nil, ErrBufferUnderrun
		}
		bs, err := DecodeBitString(data[off : off+t.Length])
		if err != nil {
			return nil, err
		}
		pos = off + t.Length

		items = append(items, AlarmSummaryItem{ObjectID: oid, AlarmState: EventState(state), AcknowledgedTransitions: bs})
	}
	return items, nil
}

// EnrollmentSummaryItem is one entry of a GetEnrollmentSummary ack.
type EnrollmentSummaryItem struct {
	ObjectID          ObjectIdentifier
	EventType         uint32
	EventState        EventState
	Priority          uint32
	NotificationClass uint32
}

// DecodeGetEnrollmentSummaryAck decodes the body of a
// GetEnrollmentSummary ack.
func DecodeGetEnrollmentSummaryAck(data []byte) ([]EnrollmentSummaryItem, error) {
	var items []EnrollmentSummaryItem
	pos := 0
	for pos < len(data) {
		oid, n, err := decodeContextObjectID(data[pos:], 0)
		if err != nil {
			return nil, err
		}
		pos += n

		eventType, n, err := decodeContextUnsigned(data[pos:], 1)
		if err != nil {
			return nil, err
		}
		pos += n

		state, n, err := decodeContextUnsigned(data[pos:], 2)
		if err != nil {
			return nil, err
		}
		pos += n

		priority, n, err := decodeContextUnsigned(data[pos:], 3)
		if err != nil {
			return nil, err
		}
		pos += n

		class, n, err := decodeContextUnsigned(data[pos:], 4)
		if err != nil {
			return nil, err
		}
		pos += n

		items = append(items, EnrollmentSummaryItem{
			ObjectID:          oid,
			EventType:         eventType,
			EventState:        EventState(state),
			Priority:          priority,
			NotificationClass: class,
		})
	}
	return items, nil
}

// EncodeGetEventInformationRequest encodes a GetEventInformation
// request body.
func EncodeGetEventInformationRequest(lastReceived *ObjectIdentifier) []byte {
	if lastReceived == nil {
		return nil
	}
	return EncodeContextObjectIdentifier(0, *lastReceived)
}

// EventSummaryItem is one entry of a GetEventInformation ack.
type EventSummaryItem struct {
	ObjectID                ObjectIdentifier
	EventState              EventState
	AcknowledgedTransitions BitString
	NotifyType              uint32
	EventEnable             BitString
	EventPriorities         [3]uint32
}

// GetEventInformationAck is the decoded body of a GetEventInformation
// ack.
type GetEventInformationAck struct {
	Summaries  []EventSummaryItem
	MoreEvents bool
}

// DecodeGetEventInformationAck decodes the body of a
// GetEventInformation ack.
func DecodeGetEventInformationAck(data []byte) (GetEventInformationAck, error) {
	open, err := decodeTag(data)
	if err != nil || !open.Opening || open.Number != 0 {
		return GetEventInformationAck{}, ErrInvalidAPDU
	}
	pos := open.HeaderLen

	var summaries []EventSummaryItem
	for {
		next, err := decodeTag(data[pos:])
		if err != nil {
			return GetEventInformationAck{}, err
		}
		if next.Closing && next.Number == 0 {
			pos += next.HeaderLen
			break
		}

		oid, n, err := decodeContextObjectID(data[pos:], 0)
		if err != nil {
			return GetEventInformationAck{}, err
		}
		pos += n

		state, n, err := decodeContextUnsigned(data[pos:], 1)
		if err != nil {
			return GetEventInformationAck{}, err
		}
		pos += n

		ackTransTag, err := decodeTag(data[pos:])
		if err != nil || ackTransTag.Class != TagClassContext || ackTransTag.Number != 2 || ackTransTag.Length == 0 {
			return GetEventInformationAck{}, ErrInvalidTag
		}
		ackTransOff := pos + ackTransTag.HeaderLen
		if len(data) < ackTransOff+ackTransTag.Length {
			return GetEventInformationAck{}, ErrBufferUnderrun
		}
		ackTrans, err := DecodeBitString(data[ackTransOff : ackTransOff+ackTransTag.Length])
		if err != nil {
			return GetEventInformationAck{}, err
		}
		pos = ackTransOff + ackTransTag.Length

		skipTag, err := decodeTag(data[pos:])
		if err != nil || !skipTag.Opening || skipTag.Number != 3 {
			return GetEventInformationAck{}, ErrInvalidAPDU
		}
		pos += skipTag.HeaderLen
		pos, err = skipConstructed(data, pos, 3)
		if err != nil {
			return GetEventInformationAck{}, err
		}

		notifyType, n, err := decodeContextUnsigned(data[pos:], 4)
		if err != nil {
			return GetEventInformationAck{}, err
		}
		pos += n

		enableTag, err := decodeTag(data[pos:])
		if err != nil || enableTag.Class != TagClassContext || enableTag.Number != 5 || enableTag.Length == 0 {
			return GetEventInformationAck{}, ErrInvalidTag
		}
		enableOff := pos + enableTag.HeaderLen
		if len(data) < enableOff+enableTag.Length {
			return GetEventInformationAck{}, ErrBufferUnderrun
		}
		eventEnable, err := DecodeBitString(data[enableOff : enableOff+enableTag.Length])
		if err != nil {
			return GetEventInformationAck{}, err
		}
		pos = enableOff + enableTag.Length

		prioOpen, err := decodeTag(data[pos:])
		if err != nil || !prioOpen.Opening || prioOpen.Number != 6 {
			return GetEventInformationAck{}, ErrInvalidAPDU
		}
		pos += prioOpen.HeaderLen
		var priorities [3]uint32
		for i := 0; i < 3; i++ {
			t, err := decodeTag(data[pos:])
			if err != nil {
				return GetEventInformationAck{}, err
			}
			if len(data) < pos+t.HeaderLen+t.Length {
				return GetEventInformationAck{}, ErrBufferUnderrun
			}
			priorities[i] = DecodeUnsigned(data[pos+t.HeaderLen : pos+t.HeaderLen+t.Length])
			pos += t.HeaderLen + t.Length
		}
		prioClose, err := decodeTag(data[pos:])
		if err != nil || !prioClose.Closing || prioClose.Number != 6 {
			return GetEventInformationAck{}, ErrInvalidAPDU
		}
		pos += prioClose.HeaderLen

		summaries = append(summaries, EventSummaryItem{
			ObjectID:                oid,
			EventState:              EventState(state),
			AcknowledgedTransitions: ackTrans,
			NotifyType:              notifyType,
			EventEnable:             eventEnable,
			EventPriorities:         priorities,
		})
	}

	moreTag, err := decodeTag(data[pos:])
	if err != nil || moreTag.Class != TagClassContext || moreTag.Number != 1 {
		return GetEventInformationAck{}, ErrInvalidTag
	}
	moreEvents := moreTag.Length == 0
	if !moreEvents {
		if len(data) < pos+moreTag.HeaderLen+moreTag.Length {
			return GetEventInformationAck{}, ErrBufferUnderrun
		}
		moreEvents = DecodeUnsigned(data[pos+moreTag.HeaderLen:pos+moreTag.HeaderLen+moreTag.Length]) != 0
	}

	return GetEventInformationAck{Summaries: summaries, MoreEvents: moreEvents}, nil
}

// skipConstructed advances past a constructed value's children up to
// and including its closing tag, given the tag number that opened it.
func skipConstructed(data []byte, pos int, tagNum uint8) (int, error) {
	for {
		t, err := decodeTag(data[pos:])
		if err != nil {
			return 0, err
		}
		if t.Closing {
			if t.Number != tagNum {
				return 0, ErrInvalidAPDU
			}
			return pos + t.HeaderLen, nil
		}
		if t.Opening {
			pos += t.HeaderLen
			pos, err = skipConstructed(data, pos, t.Number)
			if err != nil {
				return 0, err
			}
			continue
		}
		if len(data) < pos+t.HeaderLen+t.Length {
			return 0, ErrBufferUnderrun
		}
		pos += t.HeaderLen + t.Length
	}
}

// EventNotification is the decoded/encoded body of a Confirmed- or
// Unconfirmed-Event-Notification.
type EventNotification struct {
	ProcessID          uint32
	InitiatingDeviceID ObjectIdentifier
	EventObjectID      ObjectIdentifier
	TimeStamp          TimeStamp
	NotificationClass  uint32
	Priority           uint32
	EventType          uint32
	MessageText        *string
	NotifyType         uint32
	AckRequired        *bool
	FromState          uint32
	ToState            uint32
}

// EncodeEventNotification encodes an Event-Notification body, common
// to both the confirmed and unconfirmed service variants. The optional
// EventValues block (context tag 12) is left to callers that need it;
// this layer carries the fixed header fields only.
func EncodeEventNotification(n EventNotification) []byte {
	w := NewWriter()
	w.Write(EncodeContextUnsigned(0, n.ProcessID))
	w.Write(EncodeContextObjectIdentifier(1, n.InitiatingDeviceID))
	w.Write(EncodeContextObjectIdentifier(2, n.EventObjectID))
	w.Write(encodeTimeStamp(3, n.TimeStamp))
	w.Write(EncodeContextUnsigned(4, n.NotificationClass))
	w.Write(EncodeContextUnsigned(5, n.Priority))
	w.Write(EncodeContextUnsigned(6, n.EventType))
	if n.MessageText != nil {
		w.Write(EncodeContextCharacterString(7, *n.MessageText))
	}
	w.Write(EncodeContextUnsigned(8, n.NotifyType))
	if n.AckRequired != nil {
		w.Write(EncodeContextBoolean(9, *n.AckRequired))
	}
	w.Write(EncodeContextUnsigned(10, n.FromState))
	w.Write(EncodeContextUnsigned(11, n.ToState))
	return w.Bytes()
}

// DecodeEventNotification decodes a Confirmed- or
// Unconfirmed-Event-Notification body. The optional trailing
// event-values block (context tag 12) is recognised and skipped.
func DecodeEventNotification(data []byte) (EventNotification, error) {
	var n EventNotification
	pos := 0

	procID, used, err := decodeContextUnsigned(data[pos:], 0)
	if err != nil {
		return EventNotification{}, err
	}
	n.ProcessID = procID
	pos += used

	devID, used, err := decodeContextObjectID(data[pos:], 1)
	if err != nil {
		return EventNotification{}, err
	}
	n.InitiatingDeviceID = devID
	pos += used

	evtID, used, err := decodeContextObjectID(data[pos:], 2)
	if err != nil {
		return EventNotification{}, err
	}
	n.EventObjectID = evtID
	pos += used

	ts, used, err := decodeTimeStamp(data[pos:], 3)
	if err != nil {
		return EventNotification{}, err
	}
	n.TimeStamp = ts
	pos += used

	class, used, err := decodeContextUnsigned(data[pos:], 4)
	if err != nil {
		return EventNotification{}, err
	}
	n.NotificationClass = class
	pos += used

	priority, used, err := decodeContextUnsigned(data[pos:], 5)
	if err != nil {
		return EventNotification{}, err
	}
	n.Priority = priority
	pos += used

	eventType, used, err := decodeContextUnsigned(data[pos:], 6)
	if err != nil {
		return EventNotification{}, err
	}
	n.EventType = eventType
	pos += used

	if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 7 && !t.Opening {
		off := pos + t.HeaderLen
		if len(data) < off+t.Length {
			return EventNotification{}, ErrBufferUnderrun
		}
		text, err := DecodeCharacterString(data[off : off+t.Length])
		if err != nil {
			return EventNotification{}, err
		}
		n.MessageText = &text
		pos = off + t.Length
	}

	notifyType, used, err := decodeContextUnsigned(data[pos:], 8)
	if err != nil {
		return EventNotification{}, err
	}
	n.NotifyType = notifyType
	pos += used

	if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 9 && !t.Opening {
		ackRequired := t.Length > 0 && len(data) > pos+t.HeaderLen && data[pos+t.HeaderLen] != 0
		n.AckRequired = &ackRequired
		pos += t.HeaderLen + t.Length
	}

	fromState, used, err := decodeContextUnsigned(data[pos:], 10)
	if err != nil {
		return EventNotification{}, err
	}
	n.FromState = fromState
	pos += used

	toState, used, err := decodeContextUnsigned(data[pos:], 11)
	if err != nil {
		return EventNotification{}, err
	}
	n.ToState = toState
	pos += used

	if pos < len(data) {
		if t, err := decodeTag(data[pos:]); err == nil && t.Opening && t.Number == 12 {
			pos += t.HeaderLen
			if _, err := skipConstructed(data, pos, 12); err != nil {
				return EventNotification{}, err
			}
		}
	}

	return n, nil
}
