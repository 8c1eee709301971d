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

// ConfirmedPrivateTransferRequest is the body of a
// ConfirmedPrivateTransfer request. ServiceParameters is opaque
// vendor-specific data; nil means the optional block is absent, while
// a non-nil empty slice means it is present but empty.
type ConfirmedPrivateTransferRequest struct {
	VendorID          uint32
	ServiceNumber     uint32
	ServiceParameters []byte
}

// EncodeConfirmedPrivateTransferRequest encodes a
// ConfirmedPrivateTransfer request body.
func EncodeConfirmedPrivateTransferRequest(req ConfirmedPrivateTransferRequest) []byte {
	w := NewWriter()
	w.Write(EncodeContextUnsigned(0, req.VendorID))
	w.Write(EncodeContextUnsigned(1, req.ServiceNumber))
	if req.ServiceParameters != nil {
		w.Write(EncodeOpeningTag(2))
		w.Write(req.ServiceParameters)
		w.Write(EncodeClosingTag(2))
	}
	return w.Bytes()
}

// DecodeConfirmedPrivateTransferRequest decodes a
// ConfirmedPrivateTransfer request body.
func DecodeConfirmedPrivateTransferRequest(data []byte) (ConfirmedPrivateTransferRequest, error) {
	var req ConfirmedPrivateTransferRequest
	pos := 0

	vendorID, n, err := decodeContextUnsigned(data[pos:], 0)
	if err != nil {
		return ConfirmedPrivateTransferRequest{}, err
	}
	req.VendorID = vendorID
	pos += n

	serviceNum, n, err := decodeContextUnsigned(data[pos:], 1)
	if err != nil {
		return ConfirmedPrivateTransferRequest{}, err
	}
	req.ServiceNumber = serviceNum
	pos += n

	if pos < len(data) {
		block, n, err := decodeConstructedBlockBytes(data[pos:], 2)
		if err != nil {
			return ConfirmedPrivateTransferRequest{}, err
		}
		req.ServiceParameters = block
		pos += n
	}

	if pos != len(data) {
		return ConfirmedPrivateTransferRequest{}, ErrInvalidTag
	}

	return req, nil
}

// ConfirmedPrivateTransferAck is the decoded body of a
// ConfirmedPrivateTransfer ack. ResultBlock is nil when the optional
// block is absent and a non-nil empty slice when it is present but
// empty, mirroring ServiceParameters.
type ConfirmedPrivateTransferAck struct {
	VendorID      uint32
	ServiceNumber uint32
	ResultBlock   []byte
}

// EncodeConfirmedPrivateTransferAck encodes a ConfirmedPrivateTransfer
// ack body.
func EncodeConfirmedPrivateTransferAck(ack ConfirmedPrivateTransferAck) []byte {
	w := NewWriter()
	w.Write(EncodeContextUnsigned(0, ack.VendorID))
	w.Write(EncodeContextUnsigned(1, ack.ServiceNumber))
	if ack.ResultBlock != nil {
		w.Write(EncodeOpeningTag(2))
		w.Write(ack.ResultBlock)
		w.Write(EncodeClosingTag(2))
	}
	return w.Bytes()
}

// DecodeConfirmedPrivateTransferAck decodes a ConfirmedPrivateTransfer
// ack body.
func DecodeConfirmedPrivateTransferAck(data []byte) (ConfirmedPrivateTransferAck, error) {
	var ack ConfirmedPrivateTransferAck
	pos := 0

	vendorID, n, err := decodeContextUnsigned(data[pos:], 0)
	if err != nil {
		return ConfirmedPrivateTransferAck{}, err
	}
	ack.VendorID = vendorID
	pos += n

	serviceNum, n, err := decodeContextUnsigned(data[pos:], 1)
	if err != nil {
		return ConfirmedPrivateTransferAck{}, err
	}
	ack.ServiceNumber = serviceNum
	pos += n

	if pos < len(data) {
		block, n, err := decodeConstructedBlockBytes(data[pos:], 2)
		if err != nil {
			return ConfirmedPrivateTransferAck{}, err
		}
		ack.ResultBlock = block
		pos += n
	}

	if pos != len(data) {
		return ConfirmedPrivateTransferAck{}, ErrInvalidTag
	}

	return ack, nil
}

// UnconfirmedPrivateTransferRequest is the body of an
// UnconfirmedPrivateTransfer request; it shares the wire shape of the
// confirmed request minus the invoke-id carried by the PDU header.
type UnconfirmedPrivateTransferRequest = ConfirmedPrivateTransferRequest

// EncodeUnconfirmedPrivateTransferRequest encodes an
// UnconfirmedPrivateTransfer request body.
func EncodeUnconfirmedPrivateTransferRequest(req UnconfirmedPrivateTransferRequest) []byte {
	return EncodeConfirmedPrivateTransferRequest(req)
}

// DecodeUnconfirmedPrivateTransferRequest decodes an
// UnconfirmedPrivateTransfer request body.
func DecodeUnconfirmedPrivateTransferRequest(data []byte) (UnconfirmedPrivateTransferRequest, error) {
	return DecodeConfirmedPrivateTransferRequest(data)
}

// decodeConstructedBlockBytes requires data to open with the given
// opening tag number and returns the raw bytes nested between it and
// its matching closing tag (which may themselves contain further
// nested constructed tags), plus the total bytes consumed including
// both the opening and closing tag markers.
func decodeConstructedBlockBytes(data []byte, tagNum uint8) (block []byte, consumed int, err error) {
	open, err := decodeTag(data)
	if err != nil {
		return nil, 0, err
	}
	if !open.Opening || open.Number != tagNum {
		return nil, 0, ErrInvalidTag
	}

	pos := open.HeaderLen
	innerStart := pos
	depth := 0

	for {
		if pos >= len(data) {
			return nil, 0, ErrBufferUnderrun
		}
		t, err := decodeTag(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		switch {
		case t.Opening:
			depth++
			pos += t.HeaderLen
		case t.Closing:
			if depth > 0 {
				depth--
				pos += t.HeaderLen
				continue
			}
			if t.Number != tagNum {
				return nil, 0, ErrInvalidTag
			}
			inner := data[innerStart:pos]
			pos += t.HeaderLen
			return inner, pos, nil
		default:
			pos += t.HeaderLen + t.Length
		}
	}
}
