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
	"fmt"
)

// APDU is the decoded application-layer header plus its unparsed
// service-data tail. Fields not meaningful for a given Type are zero.
type APDU struct {
	Type         PDUType
	Segmented    bool
	MoreFollows  bool
	SegAckNak    bool // Segment-Ack: this is a NAK, not an ACK
	ServerOrigin bool // Segment-Ack/Abort: true if sent by the server
	MaxSegments  uint8
	MaxAPDU      uint8
	InvokeID     uint8
	SequenceNum  uint8
	WindowSize   uint8
	Service      uint8
	RejectReason uint8
	AbortReason  uint8
	ErrorDetail  ErrorDetail
	Data         []byte
}

// ErrorDetail holds the decoded body of a BACnet-Error PDU. BACnet
// defines three wire shapes for this body depending on the service
// that failed: most services use a pair of application-tagged
// enumerated values (class, code); a few (notably ReadRange,
// ConfirmedPrivateTransfer-derived ones) use a context-tagged pair,
// sometimes wrapped in an opening/closing context-0 constructed tag.
type ErrorDetail struct {
	Class ErrorClass
	Code  ErrorCode
	Raw   []byte // bytes following the two-value error detail, if any
}

// EncodeConfirmedRequest encodes a single-segment confirmed-request APDU.
func EncodeConfirmedRequest(invokeID uint8, service ConfirmedServiceChoice, data []byte, maxSegments, maxAPDU uint8) []byte {
	w := NewWriter()
	w.Byte(byte(PDUTypeConfirmedRequest))
	w.Byte((maxSegments << 4) | maxAPDU)
	w.Byte(invokeID)
	w.Byte(byte(service))
	w.Write(data)
	return w.Bytes()
}

// EncodeSegmentedConfirmedRequest encodes one segment of a segmented
// confirmed-request exchange.
func EncodeSegmentedConfirmedRequest(invokeID uint8, service ConfirmedServiceChoice, segmentData []byte, sequenceNum, windowSize, maxSegments, maxAPDU uint8, moreFollows bool) []byte {
	flags := byte(0x08) // segmented
	if moreFollows {
		flags |= 0x04
	}
	w := NewWriter()
	w.Byte(byte(PDUTypeConfirmedRequest) | flags)
	w.Byte((maxSegments << 4) | maxAPDU)
	w.Byte(invokeID)
	w.Byte(sequenceNum)
	w.Byte(windowSize)
	w.Byte(byte(service))
	w.Write(segmentData)
	return w.Bytes()
}

// EncodeUnconfirmedRequest encodes an unconfirmed-request APDU.
func EncodeUnconfirmedRequest(service UnconfirmedServiceChoice, data []byte) []byte {
	w := NewWriter()
	w.Byte(byte(PDUTypeUnconfirmedRequest))
	w.Byte(byte(service))
	w.Write(data)
	return w.Bytes()
}

// EncodeSimpleAck encodes a simple-ack APDU.
func EncodeSimpleAck(invokeID uint8, service ConfirmedServiceChoice) []byte {
	return []byte{byte(PDUTypeSimpleAck), invokeID, byte(service)}
}

// EncodeComplexAck encodes a single-segment complex-ack APDU.
func EncodeComplexAck(invokeID uint8, service ConfirmedServiceChoice, data []byte) []byte {
	w := NewWriter()
	w.Byte(byte(PDUTypeComplexAck))
	w.Byte(invokeID)
	w.Byte(byte(service))
	w.Write(data)
	return w.Bytes()
}

// EncodeSegmentAck encodes a Segment-Ack APDU, acknowledging receipt
// of segments up to and including sequenceNum (or negatively
// acknowledging, if nak is set).
func EncodeSegmentAck(invokeID uint8, serverOrigin, nak, moreFollows bool, sequenceNum, actualWindowSize uint8) []byte {
	flags := byte(0)
	if serverOrigin {
		flags |= 0x02
	}
	if nak {
		flags |= 0x01
	}
	return []byte{byte(PDUTypeSegmentAck) | flags, invokeID, sequenceNum, actualWindowSize}
}

// EncodeError encodes an Error APDU with the two-value (class, code)
// application-tagged detail form, the shape used by the large
// majority of services.
func EncodeError(invokeID uint8, service ConfirmedServiceChoice, class ErrorClass, code ErrorCode) []byte {
	w := NewWriter()
	w.Byte(byte(PDUTypeError))
	w.Byte(invokeID)
	w.Byte(byte(service))
	w.Write(EncodeEnumeratedTag(uint32(class)))
	w.Write(EncodeEnumeratedTag(uint32(code)))
	return w.Bytes()
}

// EncodeReject encodes a Reject APDU.
func EncodeReject(invokeID uint8, reason RejectReason) []byte {
	return []byte{byte(PDUTypeReject), invokeID, byte(reason)}
}

// EncodeAbort encodes an Abort APDU.
func EncodeAbort(invokeID uint8, serverOrigin bool, reason AbortReason) []byte {
	flags := byte(0)
	if serverOrigin {
		flags |= 0x01
	}
	return []byte{byte(PDUTypeAbort) | flags, invokeID, byte(reason)}
}

// DecodeAPDU dispatches to the per-type decoder selected by the
// high nibble of the first octet.
func DecodeAPDU(data []byte) (*APDU, error) {
	if len(data) < 1 {
		return nil, ErrInvalidAPDU
	}

	switch PDUType(data[0] & 0xF0) {
	case PDUTypeConfirmedRequest:
		return decodeConfirmedRequest(data)
	case PDUTypeUnconfirmedRequest:
		return decodeUnconfirmedRequest(data)
	case PDUTypeSimpleAck:
		return decodeSimpleAck(data)
	case PDUTypeComplexAck:
		return decodeComplexAck(data)
	case PDUTypeSegmentAck:
		return decodeSegmentAck(data)
	case PDUTypeError:
		return decodeErrorAPDU(data)
	case PDUTypeReject:
		return decodeRejectAPDU(data)
	case PDUTypeAbort:
		return decodeAbortAPDU(data)
	default:
		return nil, fmt.Errorf("%w: unknown PDU type %02x", ErrInvalidAPDU, data[0]&0xF0)
	}
}

func decodeConfirmedRequest(data []byte) (*APDU, error) {
	if len(data) < 4 {
		return nil, ErrInvalidAPDU
	}

	apdu := &APDU{
		Type:        PDUTypeConfirmedRequest,
		Segmented:   data[0]&0x08 != 0,
		MoreFollows: data[0]&0x04 != 0,
		MaxSegments: (data[1] >> 4) & 0x07,
		MaxAPDU:     data[1] & 0x0F,
		InvokeID:    data[2],
		Service:     data[3],
		Data:        data[4:],
	}

	if apdu.Segmented {
		if len(data) < 6 {
			return nil, ErrInvalidAPDU
		}
		apdu.SequenceNum = data[3]
		apdu.WindowSize = data[4]
		apdu.Service = data[5]
		apdu.Data = data[6:]
	}

	return apdu, nil
}

func decodeUnconfirmedRequest(data []byte) (*APDU, error) {
	if len(data) < 2 {
		return nil, ErrInvalidAPDU
	}
	return &APDU{Type: PDUTypeUnconfirmedRequest, Service: data[1], Data: data[2:]}, nil
}

func decodeSimpleAck(data []byte) (*APDU, error) {
	if len(data) < 3 {
		return nil, ErrInvalidAPDU
	}
	return &APDU{Type: PDUTypeSimpleAck, InvokeID: data[1], Service: data[2]}, nil
}

func decodeComplexAck(data []byte) (*APDU, error) {
	if len(data) < 3 {
		return nil, ErrInvalidAPDU
	}

	apdu := &APDU{
		Type:        PDUTypeComplexAck,
		Segmented:   data[0]&0x08 != 0,
		MoreFollows: data[0]&0x04 != 0,
		InvokeID:    data[1],
		Service:     data[2],
		Data:        data[3:],
	}

	if apdu.Segmented {
		if len(data) < 5 {
			return nil, ErrInvalidAPDU
		}
		apdu.SequenceNum = data[3]
		apdu.WindowSize = data[4]
		apdu.Data = data[5:]
	}

	return apdu, nil
}

func decodeSegmentAck(data []byte) (*APDU, error) {
	if len(data) < 4 {
		return nil, ErrInvalidAPDU
	}
	return &APDU{
		Type:         PDUTypeSegmentAck,
		ServerOrigin: data[0]&0x02 != 0,
		SegAckNak:    data[0]&0x01 != 0,
		InvokeID:     data[1],
		SequenceNum:  data[2],
		WindowSize:   data[3],
	}, nil
}

// decodeErrorAPDU parses the Error PDU's fixed header and then probes
// the error-detail body for whichever of the three wire shapes is
// present: (a) two application-tagged enumerated values [class, code];
// (b) two context-tagged unsigned values (tag numbers 0 and 1); or
// (c) the same context-tagged pair wrapped in an opening/closing
// context-0 constructed tag (seen on services that nest their normal
// ack body in a context-0 sequence and reuse that shape for errors).
func decodeErrorAPDU(data []byte) (*APDU, error) {
	if len(data) < 3 {
		return nil, ErrInvalidAPDU
	}

	apdu := &APDU{Type: PDUTypeError, InvokeID: data[1], Service: data[2], Data: data[3:]}

	detail, err := decodeErrorDetail(apdu.Data)
	if err != nil {
		return nil, err
	}
	apdu.ErrorDetail = detail
	return apdu, nil
}

func decodeErrorDetail(data []byte) (ErrorDetail, error) {
	if len(data) == 0 {
		return ErrorDetail{}, nil
	}

	// Variant (c): opening context-0 wrapping the pair.
	if t, err := decodeTag(data); err == nil && t.Opening && t.Number == 0 {
		inner := data[t.HeaderLen:]
		class, code, consumed, err := decodeClassCodePair(inner, TagClassContext)
		if err != nil {
			return ErrorDetail{}, err
		}
		closeData := inner[consumed:]
		ct, err := decodeTag(closeData)
		if err != nil || !ct.Closing || ct.Number != 0 {
			return ErrorDetail{}, ErrInvalidAPDU
		}
		return ErrorDetail{Class: class, Code: code, Raw: closeData[ct.HeaderLen:]}, nil
	}

	// Variant (a): application-tagged pair.
	if class, code, consumed, err := decodeClassCodePair(data, TagClassApplication); err == nil {
		return ErrorDetail{Class: class, Code: code, Raw: data[consumed:]}, nil
	}

	// Variant (b): bare context-tagged pair.
	class, code, consumed, err := decodeClassCodePair(data, TagClassContext)
	if err != nil {
		return ErrorDetail{}, err
	}
	return ErrorDetail{Class: class, Code: code, Raw: data[consumed:]}, nil
}

func decodeClassCodePair(data []byte, class TagClass) (ErrorClass, ErrorCode, int, error) {
	t1, err := decodeTag(data)
	if err != nil || t1.Opening || t1.Closing || t1.Class != class {
		return 0, 0, 0, ErrInvalidAPDU
	}
	off := t1.HeaderLen
	if len(data) < off+t1.Length {
		return 0, 0, 0, ErrInvalidAPDU
	}
	classVal := DecodeUnsigned(data[off : off+t1.Length])
	off += t1.Length

	t2, err := decodeTag(data[off:])
	if err != nil || t2.Opening || t2.Closing || t2.Class != class {
		return 0, 0, 0, ErrInvalidAPDU
	}
	off2 := off + t2.HeaderLen
	if len(data) < off2+t2.Length {
		return 0, 0, 0, ErrInvalidAPDU
	}
	codeVal := DecodeUnsigned(data[off2 : off2+t2.Length])
	off2 += t2.Length

	return ErrorClass(classVal), ErrorCode(codeVal), off2, nil
}

func decodeRejectAPDU(data []byte) (*APDU, error) {
	if len(data) < 3 {
		return nil, ErrInvalidAPDU
	}
	return &APDU{Type: PDUTypeReject, InvokeID: data[1], RejectReason: data[2]}, nil
}

func decodeAbortAPDU(data []byte) (*APDU, error) {
	if len(data) < 3 {
		return nil, ErrInvalidAPDU
	}
	return &APDU{
		Type:         PDUTypeAbort,
		ServerOrigin: data[0]&0x01 != 0,
		InvokeID:     data[1],
		AbortReason:  data[2],
	}, nil
}

// maxAPDUOctets maps the max-apdu-length-accepted nibble (as sent in
// the confirmed-request header) to its negotiated octet count.
var maxAPDUOctets = map[uint8]int{
	0: 50, 1: 128, 2: 206, 3: 480, 4: 1024, 5: 1476,
}

// MaxAPDUOctets resolves the max-apdu-length-accepted code to an
// octet count, or 0 if the code is unrecognized.
func MaxAPDUOctets(code uint8) int {
	return maxAPDUOctets[code]
}
