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

// SubscribeCOVRequest is the decoded/encoded body of a SubscribeCOV or
// SubscribeCOVProperty request. A cancellation omits Confirmed and
// Lifetime entirely.
type SubscribeCOVRequest struct {
	SubscriberProcessID uint32
	ObjectID            ObjectIdentifier
	Confirmed           *bool
	Lifetime            *uint32
	PropertyID          *PropertyIdentifier
	ArrayIndex          *uint32
	CovIncrement        *float32
}

// EncodeSubscribeCOVRequest encodes a SubscribeCOV/SubscribeCOVProperty
// request body. Presence of PropertyID selects the -Property variant.
func EncodeSubscribeCOVRequest(req SubscribeCOVRequest) []byte {
	w := NewWriter()
	w.Write(EncodeContextUnsigned(0, req.SubscriberProcessID))
	w.Write(EncodeContextObjectIdentifier(1, req.ObjectID))
	if req.Confirmed != nil {
		confirmed := uint32(0)
		if *req.Confirmed {
			confirmed = 1
		}
		w.Write(EncodeContextBoolean(2, confirmed != 0))
	}
	if req.Lifetime != nil {
		w.Write(EncodeContextUnsigned(3, *req.Lifetime))
	}
	if req.PropertyID != nil {
		w.Write(EncodeOpeningTag(4))
		w.Write(EncodeContextEnumerated(0, uint32(*req.PropertyID)))
		if req.ArrayIndex != nil {
			w.Write(EncodeContextUnsigned(1, *req.ArrayIndex))
		}
		w.Write(EncodeClosingTag(4))
		if req.CovIncrement != nil {
			w.Write(EncodeContextReal(5, *req.CovIncrement))
		}
	}
	return w.Bytes()
}

// DecodeSubscribeCOVRequest decodes a SubscribeCOV/SubscribeCOVProperty
// request body.
func DecodeSubscribeCOVRequest(data []byte) (SubscribeCOVRequest, error) {
	var req SubscribeCOVRequest
	pos := 0

	subID, n, err := decodeContextUnsigned(data[pos:], 0)
	if err != nil {
		return SubscribeCOVRequest{}, err
	}
	req.SubscriberProcessID = subID
	pos += n

	oidTag, err := decodeTag(data[pos:])
	if err != nil || oidTag.Class != TagClassContext || oidTag.Number != 1 {
		return SubscribeCOVRequest{}, ErrInvalidTag
	}
	off := pos + oidTag.HeaderLen
	if len(data) < off+oidTag.Length {
		return SubscribeCOVRequest{}, ErrBufferUnderrun
	}
	req.ObjectID = DecodeObjectIdentifierFromBytes(data[off : off+oidTag.Length])
	pos = off + oidTag.Length

	if pos >= len(data) {
		return req, nil
	}

	if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 2 && !t.Opening {
		if len(data) < pos+t.HeaderLen+t.Length {
			return SubscribeCOVRequest{}, ErrBufferUnderrun
		}
		body := data[pos+t.HeaderLen : pos+t.HeaderLen+t.Length]
		confirmed := len(body) > 0 && body[0] != 0
		req.Confirmed = &confirmed
		pos += t.HeaderLen + t.Length
	}

	if pos < len(data) {
		if lifetime, n, err := decodeContextUnsigned(data[pos:], 3); err == nil {
			req.Lifetime = &lifetime
			pos += n
		}
	}

	if pos >= len(data) {
		return req, nil
	}

	if open, err := decodeTag(data[pos:]); err == nil && open.Opening && open.Number == 4 {
		pos += open.HeaderLen
		propID, n, err := decodeContextUnsigned(data[pos:], 0)
		if err != nil {
			return SubscribeCOVRequest{}, err
		}
		pid := PropertyIdentifier(propID)
		req.PropertyID = &pid
		pos += n

		if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 1 && !t.Opening {
			idx, n, err := decodeContextUnsigned(data[pos:], 1)
			if err != nil {
				return SubscribeCOVRequest{}, err
			}
			req.ArrayIndex = &idx
			pos += n
		}

		closeTag, err := decodeTag(data[pos:])
		if err != nil || !closeTag.Closing || closeTag.Number != 4 {
			return SubscribeCOVRequest{}, ErrInvalidAPDU
		}
		pos += closeTag.HeaderLen

		if pos < len(data) {
			if incTag, err := decodeTag(data[pos:]); err == nil && incTag.Class == TagClassContext && incTag.Number == 5 {
				if len(data) < pos+incTag.HeaderLen+incTag.Length {
					return SubscribeCOVRequest{}, ErrBufferUnderrun
				}
				inc := DecodeReal(data[pos+incTag.HeaderLen : pos+incTag.HeaderLen+incTag.Length])
				req.CovIncrement = &inc
			}
		}
	}

	return req, nil
}

// COVNotification is the decoded/encoded body of a Confirmed- or
// Unconfirmed-COV-Notification.
type COVNotification struct {
	SubscriberProcessID uint32
	InitiatingDeviceID  ObjectIdentifier
	MonitoredObjectID   ObjectIdentifier
	TimeRemaining       uint32
	Values              []PropertyValue
}

// EncodeCOVNotification encodes a COV-Notification body, common to both
// the confirmed and unconfirmed service variants.
func EncodeCOVNotification(n COVNotification) []byte {
	w := NewWriter()
	w.Write(EncodeContextUnsigned(0, n.SubscriberProcessID))
	w.Write(EncodeContextObjectIdentifier(1, n.InitiatingDeviceID))
	w.Write(EncodeContextObjectIdentifier(2, n.MonitoredObjectID))
	w.Write(EncodeContextUnsigned(3, n.TimeRemaining))
	w.Write(EncodeOpeningTag(4))
	for _, pv := range n.Values {
		w.Write(EncodeContextEnumerated(0, uint32(pv.PropertyID)))
		if pv.ArrayIndex != nil {
			w.Write(EncodeContextUnsigned(1, *pv.ArrayIndex))
		}
		w.Write(EncodeOpeningTag(2))
		w.Write(EncodeValue(pv.Value))
		w.Write(EncodeClosingTag(2))
		if pv.Priority != nil {
			w.Write(EncodeContextUnsigned(3, uint32(*pv.Priority)))
		}
	}
	w.Write(EncodeClosingTag(4))
	return w.Bytes()
}

// DecodeCOVNotification decodes a Confirmed- or
// Unconfirmed-COV-Notification body.
func DecodeCOVNotification(data []byte) (COVNotification, error) {
	var n COVNotification
	pos := 0

	subID, used, err := decodeContextUnsigned(data[pos:], 0)
	if err != nil {
		return COVNotification{}, err
	}
	n.SubscriberProcessID = subID
	pos += used

	devOid, used, err := decodeContextObjectID(data[pos:], 1)
	if err != nil {
		return COVNotification{}, err
	}
	n.InitiatingDeviceID = devOid
	pos += used

	objOid, used, err := decodeContextObjectID(data[pos:], 2)
	if err != nil {
		return COVNotification{}, err
	}
	n.MonitoredObjectID = objOid
	pos += used

	remaining, used, err := decodeContextUnsigned(data[pos:], 3)
	if err != nil {
		return COVNotification{}, err
	}
	n.TimeRemaining = remaining
	pos += used

	listOpen, err := decodeTag(data[pos:])
	if err != nil || !listOpen.Opening || listOpen.Number != 4 {
		return COVNotification{}, ErrInvalidAPDU
	}
	pos += listOpen.HeaderLen

	for {
		next, err := decodeTag(data[pos:])
		if err != nil {
			return COVNotification{}, err
		}
		if next.Closing && next.Number == 4 {
			pos += next.HeaderLen
			break
		}

		propID, used, err := decodeContextUnsigned(data[pos:], 0)
		if err != nil {
			return COVNotification{}, err
		}
		pos += used

		var arrayIndex *uint32
		if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 1 && !t.Opening {
			idx, used, err := decodeContextUnsigned(data[pos:], 1)
			if err != nil {
				return COVNotification{}, err
			}
			arrayIndex = &idx
			pos += used
		}

		valOpen, err := decodeTag(data[pos:])
		if err != nil || !valOpen.Opening || valOpen.Number != 2 {
			return COVNotification{}, ErrInvalidAPDU
		}
		pos += valOpen.HeaderLen

		val, used, err := DecodeValue(data[pos:])
		if err != nil {
			return COVNotification{}, err
		}
		pos += used

		valClose, err := decodeTag(data[pos:])
		if err != nil || !valClose.Closing || valClose.Number != 2 {
			return COVNotification{}, ErrInvalidAPDU
		}
		pos += valClose.HeaderLen

		var priority *uint8
		if pos < len(data) {
			if t, err := decodeTag(data[pos:]); err == nil && t.Class == TagClassContext && t.Number == 3 && !t.Opening {
				p, used, err := decodeContextUnsigned(data[pos:], 3)
				if err != nil {
					return COVNotification{}, err
				}
				pr := uint8(p)
				priority = &pr
				pos += used
			}
		}

		n.Values = append(n.Values, PropertyValue{
			ObjectID:   objOid,
			PropertyID: PropertyIdentifier(propID),
			ArrayIndex: arrayIndex,
			Value:      val,
			Priority:   priority,
		})
	}

	return n, nil
}

// decodeContextObjectID decodes a context-tagged object identifier
// whose tag number must equal wantTag.
func decodeContextObjectID(data []byte, wantTag uint8) (ObjectIdentifier, int, error) {
	t, err := decodeTag(data)
	if err != nil || t.Class != TagClassContext || t.Number != wantTag || t.Opening || t.Closing {
		return ObjectIdentifier{}, 0, ErrInvalidTag
	}
	if len(data) < t.HeaderLen+t.Length {
		return ObjectIdentifier{}, 0, ErrBufferUnderrun
	}
	oid := DecodeObjectIdentifierFromBytes(data[t.HeaderLen : t.HeaderLen+t.Length])
	return oid, t.HeaderLen + t.Length, nil
}
