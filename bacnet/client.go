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

// Package bacnet provides a BACnet/IP client implementation for building automation systems.
package bacnet

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgeframe/bacstack/bacnet/internal/transport"
)

// ownMaxAPDUCode is the max-apdu-length-accepted nibble this client
// advertises on every confirmed request: code 5, 1476 octets.
const ownMaxAPDUCode = 5

// ConnectionState represents the client connection state
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Client is a BACnet/IP client
type Client struct {
	opts      *clientOptions
	transport *transport.UDPTransport

	state    atomic.Int32
	invokeID atomic.Uint32

	// Pending requests, keyed by invoke-id
	pendingMu sync.RWMutex
	pending   map[uint8]chan *APDU

	// Discovered devices
	devicesMu sync.RWMutex
	devices   map[uint32]*DeviceInfo

	// Object owners learned from I-Have, for WhoHas
	objectsMu sync.RWMutex
	objects   map[ObjectIdentifier]IHave

	// COV subscriptions
	covMu   sync.RWMutex
	covSubs map[uint32]COVHandler

	// BBMD administrative commands share one in-flight slot: the
	// spec allows only one outstanding command at a time.
	bbmdMu      sync.Mutex
	bbmdPending chan []byte

	// Metrics
	metrics *Metrics

	// Logger
	logger *slog.Logger

	group          *errgroup.Group
	receiverCtx    context.Context
	receiverCancel context.CancelFunc
}

// COVHandler is called when a COV notification is received
type COVHandler func(deviceID uint32, objectID ObjectIdentifier, values []PropertyValue)

// NewClient creates a new BACnet client
func NewClient(opts ...Option) (*Client, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	c := &Client{
		opts:    options,
		pending: make(map[uint8]chan *APDU),
		devices: make(map[uint32]*DeviceInfo),
		objects: make(map[ObjectIdentifier]IHave),
		covSubs: make(map[uint32]COVHandler),
		metrics: NewMetrics(options.metricsRegisterer),
		logger:  options.logger,
	}

	c.transport = transport.NewUDPTransport(options.localAddress)
	c.transport.SetReadTimeout(options.timeout)
	c.transport.SetWriteTimeout(options.timeout)

	return c, nil
}

// Connect opens the BACnet client connection
func (c *Client) Connect(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return ErrAlreadyConnected
	}

	c.metrics.ConnectAttempts.Inc()

	if err := c.transport.Open(ctx); err != nil {
		c.state.Store(int32(StateDisconnected))
		c.metrics.ConnectFailures.Inc()
		return fmt.Errorf("open transport: %w", err)
	}

	c.receiverCtx, c.receiverCancel = context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(c.receiverCtx)
	c.group = group
	c.receiverCtx = groupCtx
	group.Go(c.receiveLoop)

	c.state.Store(int32(StateConnected))
	c.metrics.ConnectSuccesses.Inc()

	c.logger.Info("connected",
		slog.String("local_addr", c.transport.LocalAddr().String()),
	)

	if c.opts.bbmdAddress != "" {
		if err := c.RegisterForeignDevice(ctx); err != nil {
			c.logger.Warn("failed to register as foreign device",
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// Close closes the BACnet client connection
func (c *Client) Close() error {
	if c.state.Load() == int32(StateDisconnected) {
		return nil
	}

	c.state.Store(int32(StateDisconnected))
	c.metrics.Disconnects.Inc()

	if c.receiverCancel != nil {
		c.receiverCancel()
		_ = c.group.Wait()
	}

	c.pendingMu.Lock()
	for _, ch := range c.pending {
		close(ch)
	}
	c.pending = make(map[uint8]chan *APDU)
	c.pendingMu.Unlock()

	if err := c.transport.Close(); err != nil {
		return fmt.Errorf("close transport: %w", err)
	}

	c.logger.Info("disconnected")
	return nil
}

// State returns the current connection state
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Metrics returns the client metrics
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// nextInvokeID returns the next invoke ID, skipping the reserved value
// zero so every issued invoke-id is usable as a live pending-request key.
func (c *Client) nextInvokeID() uint8 {
	id := uint8(c.invokeID.Add(1) & 0xFF)
	if id == 0 {
		id = uint8(c.invokeID.Add(1) & 0xFF)
	}
	return id
}

// receiveLoop reads inbound datagrams until the receiver context is
// cancelled, dispatching each to its own goroutine under the errgroup
// so Close can wait for in-flight handlers to drain.
func (c *Client) receiveLoop() error {
	for {
		select {
		case <-c.receiverCtx.Done():
			return nil
		default:
		}

		data, addr, err := c.transport.ReceiveWithTimeout(100 * time.Millisecond)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if c.transport.IsClosed() {
				return nil
			}
			c.logger.Debug("receive error", slog.String("error", err.Error()))
			continue
		}

		c.metrics.BytesReceived.Add(int64(len(data)))
		c.metrics.RecordActivity()

		packet := append([]byte(nil), data...)
		c.group.Go(func() error {
			c.handlePacket(packet, addr)
			return nil
		})
	}
}

// handlePacket processes an incoming packet
func (c *Client) handlePacket(data []byte, addr *net.UDPAddr) {
	bvlc, err := DecodeBVLC(data)
	if err != nil {
		c.logger.Debug("invalid BVLC", slog.String("error", err.Error()))
		return
	}

	switch bvlc.Function {
	case BVLCResult, BVLCReadBroadcastDistributionTableAck, BVLCReadForeignDeviceTableAck:
		c.handleBBMDResponse(data)
		return
	}

	npduData := data[4:]
	origin := addr
	if bvlc.Function == BVLCForwardedNPDU {
		if len(npduData) < 6 {
			return
		}
		ip, port, err := DecodeOriginAddress(npduData[:6])
		if err != nil {
			return
		}
		origin = &net.UDPAddr{IP: net.IP(ip[:]), Port: int(port)}
		npduData = npduData[6:]
	}

	npdu, offset, err := DecodeNPDU(npduData)
	if err != nil {
		c.logger.Debug("invalid NPDU", slog.String("error", err.Error()))
		return
	}

	if npdu.Control&NPDUControlNetworkLayerMessage != 0 {
		return
	}

	apduData := npduData[offset:]
	apdu, err := DecodeAPDU(apduData)
	if err != nil {
		c.logger.Debug("invalid APDU", slog.String("error", err.Error()))
		return
	}

	switch apdu.Type {
	case PDUTypeUnconfirmedRequest:
		c.handleUnconfirmedRequest(apdu, origin, npdu)

	case PDUTypeConfirmedRequest:
		c.handleConfirmedRequest(apdu, origin, npdu)

	case PDUTypeSimpleAck, PDUTypeComplexAck, PDUTypeSegmentAck:
		c.metrics.ResponsesReceived.Inc()
		c.handleResponse(apdu)

	case PDUTypeError:
		c.metrics.ResponsesReceived.Inc()
		c.metrics.ErrorsReceived.Inc()
		c.handleResponse(apdu)

	case PDUTypeReject:
		c.metrics.ResponsesReceived.Inc()
		c.metrics.RejectsReceived.Inc()
		c.handleResponse(apdu)

	case PDUTypeAbort:
		c.metrics.ResponsesReceived.Inc()
		c.metrics.AbortsReceived.Inc()
		c.handleResponse(apdu)
	}
}

// handleBBMDResponse forwards a raw BVLC-level administrative response
// to the one in-flight command waiting on it, if any.
func (c *Client) handleBBMDResponse(body []byte) {
	c.bbmdMu.Lock()
	ch := c.bbmdPending
	c.bbmdMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- body:
	default:
	}
}

// handleUnconfirmedRequest handles unconfirmed service requests
func (c *Client) handleUnconfirmedRequest(apdu *APDU, addr *net.UDPAddr, npdu *NPDU) {
	switch UnconfirmedServiceChoice(apdu.Service) {
	case ServiceIAm:
		c.handleIAm(apdu.Data, addr, npdu)

	case ServiceIHave:
		c.handleIHave(apdu.Data)

	case ServiceUnconfirmedCOVNotification:
		c.dispatchCOVNotification(apdu.Data)
	}
}

// handleConfirmedRequest handles confirmed service requests addressed
// to this client: today that is only confirmed COV notification
// delivery from a subscribed device, which is dispatched and answered
// with a Simple-Ack. Any other confirmed service, including confirmed
// event notifications, is answered with a Reject (unrecognized-service).
// Segmented inbound requests are answered with an Abort
// (segmentation-not-supported) and are not reassembled.
func (c *Client) handleConfirmedRequest(apdu *APDU, addr *net.UDPAddr, npdu *NPDU) {
	if apdu.Segmented {
		c.sendAbort(addr, apdu.InvokeID, AbortReasonSegmentationNotSupported)
		return
	}

	switch ConfirmedServiceChoice(apdu.Service) {
	case ServiceConfirmedCOVNotification:
		c.dispatchCOVNotification(apdu.Data)
		c.sendSimpleAck(addr, apdu.InvokeID, ConfirmedServiceChoice(apdu.Service))
	default:
		c.sendReject(addr, apdu.InvokeID, RejectReasonUnrecognizedService)
	}
}

// handleIAm handles I-Am responses
func (c *Client) handleIAm(data []byte, addr *net.UDPAddr, npdu *NPDU) {
	c.metrics.IAmReceived.Inc()

	ia, err := DecodeIAm(data)
	if err != nil || ia.ObjectID.Type != ObjectTypeDevice {
		return
	}

	var deviceAddr Address
	if npdu.Control&NPDUControlSourceSpecifier != 0 {
		deviceAddr = Address{Net: npdu.SrcNet, Addr: npdu.SrcAddr}
	} else {
		deviceAddr = Address{Net: 0, Addr: addr.IP.To4()}
	}

	device := &DeviceInfo{
		ObjectID:      ia.ObjectID,
		Address:       deviceAddr,
		MaxAPDULength: uint16(ia.MaxAPDU),
		Segmentation:  ia.Segmentation,
		VendorID:      uint16(ia.VendorID),
	}

	c.devicesMu.Lock()
	_, exists := c.devices[ia.ObjectID.Instance]
	c.devices[ia.ObjectID.Instance] = device
	c.devicesMu.Unlock()

	if !exists {
		c.metrics.DevicesDiscovered.Inc()
	}

	c.logger.Debug("device discovered",
		slog.Uint64("device_id", uint64(ia.ObjectID.Instance)),
		slog.String("address", addr.String()),
		slog.Uint64("vendor_id", uint64(ia.VendorID)),
	)
}

// handleIHave records an I-Have response against the object it advertises.
func (c *Client) handleIHave(data []byte) {
	ih, err := DecodeIHave(data)
	if err != nil {
		return
	}
	c.objectsMu.Lock()
	c.objects[ih.ObjectID] = ih
	c.objectsMu.Unlock()
}

// dispatchCOVNotification decodes a COV notification body and invokes
// the matching registered handler, if any.
func (c *Client) dispatchCOVNotification(data []byte) {
	c.metrics.COVNotifications.Inc()

	n, err := DecodeCOVNotification(data)
	if err != nil {
		c.logger.Debug("invalid COV notification", slog.String("error", err.Error()))
		return
	}

	c.covMu.RLock()
	handler, ok := c.covSubs[n.SubscriberProcessID]
	c.covMu.RUnlock()
	if ok {
		handler(n.InitiatingDeviceID.Instance, n.MonitoredObjectID, n.Values)
	}
}

// handleResponse handles a response to a pending request
func (c *Client) handleResponse(apdu *APDU) {
	c.pendingMu.RLock()
	ch, ok := c.pending[apdu.InvokeID]
	c.pendingMu.RUnlock()

	if ok {
		select {
		case ch <- apdu:
		default:
		}
	}
}

// sendSimpleAck emits a Simple-Ack in response to an inbound confirmed request.
func (c *Client) sendSimpleAck(addr *net.UDPAddr, invokeID uint8, service ConfirmedServiceChoice) {
	apdu := EncodeSimpleAck(invokeID, service)
	c.sendRaw(addr, apdu)
}

// sendReject emits a Reject in response to an inbound confirmed request.
func (c *Client) sendReject(addr *net.UDPAddr, invokeID uint8, reason RejectReason) {
	apdu := EncodeReject(invokeID, reason)
	c.sendRaw(addr, apdu)
}

// sendAbort emits an Abort in response to an inbound confirmed request.
func (c *Client) sendAbort(addr *net.UDPAddr, invokeID uint8, reason AbortReason) {
	apdu := EncodeAbort(invokeID, false, reason)
	c.sendRaw(addr, apdu)
}

// sendSegmentAckTo emits a Segment-Ack for the given sequence number,
// advertising this client's configured window ceiling as its receive
// capacity.
func (c *Client) sendSegmentAckTo(addr *net.UDPAddr, invokeID uint8, seq uint8, nak bool) {
	apdu := EncodeSegmentAck(invokeID, false, nak, false, seq, c.opts.segmentWindowCeiling)
	c.sendRaw(addr, apdu)
}

func (c *Client) sendRaw(addr *net.UDPAddr, apdu []byte) {
	npdu := EncodeNPDU(false, NPDUControlPriorityNormal)
	bvlc := EncodeBVLC(BVLCOriginalUnicastNPDU, len(npdu)+len(apdu))
	packet := make([]byte, 0, len(bvlc)+len(npdu)+len(apdu))
	packet = append(packet, bvlc...)
	packet = append(packet, npdu...)
	packet = append(packet, apdu...)
	if err := c.transport.Send(context.Background(), addr, packet); err != nil {
		c.logger.Debug("send raw apdu failed", slog.String("error", err.Error()))
		return
	}
	c.metrics.BytesSent.Add(int64(len(packet)))
}

// segmentPayload returns the body a single segment may carry when
// talking to a device with the given declared max-APDU size (0 if
// unknown, in which case this client's own ceiling is assumed).
func segmentPayload(deviceMaxAPDU uint16) int {
	max := int(deviceMaxAPDU)
	if max <= 0 || max > MaxAPDULength {
		max = MaxAPDULength
	}
	size := max - 5
	if size < 32 {
		size = 32
	}
	return size
}

// sendRequest sends a confirmed request, transparently segmenting it if
// its body does not fit a single APDU, and returns the final response.
func (c *Client) sendRequest(ctx context.Context, deviceID uint32, addr *net.UDPAddr, service ConfirmedServiceChoice, data []byte) (*APDU, error) {
	if c.State() != StateConnected {
		return nil, ErrNotConnected
	}

	invokeID := c.nextInvokeID()

	respCh := make(chan *APDU, 4)
	c.pendingMu.Lock()
	c.pending[invokeID] = respCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, invokeID)
		c.pendingMu.Unlock()
	}()

	var deviceMaxAPDU uint16
	if dev, ok := c.GetDevice(deviceID); ok {
		deviceMaxAPDU = dev.MaxAPDULength
	}

	start := time.Now()
	c.metrics.RequestsSent.Inc()
	c.metrics.ActiveRequests.Inc()
	defer c.metrics.ActiveRequests.Dec()

	segSize := segmentPayload(deviceMaxAPDU)
	var resp *APDU
	var err error
	if len(data) <= segSize {
		resp, err = c.sendSingleSegment(ctx, addr, invokeID, service, data, respCh)
	} else {
		resp, err = c.sendSegmented(ctx, addr, invokeID, service, data, segSize, respCh)
	}
	if err != nil {
		c.metrics.RequestsFailed.Inc()
		if err == ErrTimeout {
			c.metrics.RequestsTimedOut.Inc()
		}
		return nil, err
	}
	c.metrics.RequestLatency.Record(time.Since(start))

	return c.finish(resp, invokeID, addr)
}

// finish reassembles a segmented complex-ack if needed and translates
// terminal error/reject/abort PDUs into Go errors.
func (c *Client) finish(resp *APDU, invokeID uint8, addr *net.UDPAddr) (*APDU, error) {
	switch resp.Type {
	case PDUTypeSimpleAck:
		c.metrics.RequestsSucceeded.Inc()
		return resp, nil

	case PDUTypeComplexAck:
		if !resp.Segmented {
			c.metrics.RequestsSucceeded.Inc()
			return resp, nil
		}
		final, err := c.reassembleComplexAck(resp, invokeID, addr)
		if err != nil {
			return nil, err
		}
		return c.finish(final, invokeID, addr)

	case PDUTypeError:
		return nil, &RemoteServiceError{
			InvokeID:      resp.InvokeID,
			ServiceChoice: resp.Service,
			ClassRaw:      uint32(resp.ErrorDetail.Class),
			CodeRaw:       uint32(resp.ErrorDetail.Code),
			ClassTyped:    resp.ErrorDetail.Class,
			CodeTyped:     resp.ErrorDetail.Code,
		}

	case PDUTypeReject:
		return nil, RemoteReject{&RejectError{InvokeID: resp.InvokeID, Reason: RejectReason(resp.RejectReason)}}

	case PDUTypeAbort:
		return nil, RemoteAbort{&AbortError{InvokeID: resp.InvokeID, Server: resp.ServerOrigin, Reason: AbortReason(resp.AbortReason)}}

	default:
		return nil, fmt.Errorf("%w: unexpected PDU type %02x", ErrInvalidResponse, resp.Type)
	}
}

// sendSingleSegment sends a non-segmented confirmed request and waits
// for its terminal response.
func (c *Client) sendSingleSegment(ctx context.Context, addr *net.UDPAddr, invokeID uint8, service ConfirmedServiceChoice, data []byte, respCh chan *APDU) (*APDU, error) {
	apdu := EncodeConfirmedRequest(invokeID, service, data, 0, ownMaxAPDUCode)
	npdu := EncodeNPDU(true, NPDUControlPriorityNormal)
	bvlc := EncodeBVLC(BVLCOriginalUnicastNPDU, len(npdu)+len(apdu))

	packet := make([]byte, 0, len(bvlc)+len(npdu)+len(apdu))
	packet = append(packet, bvlc...)
	packet = append(packet, npdu...)
	packet = append(packet, apdu...)

	if err := c.transport.Send(ctx, addr, packet); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	c.metrics.BytesSent.Add(int64(len(packet)))

	select {
	case <-ctx.Done():
		return nil, ErrTimeout
	case resp, ok := <-respCh:
		if !ok {
			return nil, ErrConnectionClosed
		}
		return resp, nil
	case <-time.After(c.opts.responseTimeout):
		return nil, ErrTimeout
	}
}

// sendSegmented drives the sliding-window segmentation handshake: all
// segments in the current window are sent before any ack is awaited,
// and only the final sequence number of the batch is waited on. A
// positive ack grows the window (capped at the configured ceiling and
// the peer's last announced size); a negative ack or timeout halves it
// (floor 1), consumes a retry, and resends the same batch.
func (c *Client) sendSegmented(ctx context.Context, addr *net.UDPAddr, invokeID uint8, service ConfirmedServiceChoice, data []byte, segSize int, respCh chan *APDU) (*APDU, error) {
	var segments [][]byte
	for pos := 0; pos < len(data); pos += segSize {
		end := pos + segSize
		if end > len(data) {
			end = len(data)
		}
		segments = append(segments, data[pos:end])
	}
	if len(segments) > 256 {
		return nil, ErrSegmentedRequestTooLarge
	}

	window := c.opts.segmentWindow
	retries := c.opts.segmentRetries
	sent := 0

	for sent < len(segments) {
		end := sent + int(window)
		if end > len(segments) {
			end = len(segments)
		}

		for i := sent; i < end; i++ {
			more := i != len(segments)-1
			seg := EncodeSegmentedConfirmedRequest(invokeID, service, segments[i], uint8(i), window, 0, ownMaxAPDUCode, more)
			npdu := EncodeNPDU(true, NPDUControlPriorityNormal)
			bvlc := EncodeBVLC(BVLCOriginalUnicastNPDU, len(npdu)+len(seg))
			packet := make([]byte, 0, len(bvlc)+len(npdu)+len(seg))
			packet = append(packet, bvlc...)
			packet = append(packet, npdu...)
			packet = append(packet, seg...)
			if err := c.transport.Send(ctx, addr, packet); err != nil {
				return nil, fmt.Errorf("send segment: %w", err)
			}
			c.metrics.BytesSent.Add(int64(len(packet)))
		}

		lastSeq := uint8(end - 1)
		positive, peerWindow, terminal, err := c.awaitSegmentAck(ctx, respCh, lastSeq)
		switch {
		case err != nil:
			if retries <= 0 {
				return nil, err
			}
			retries--
			if window > 1 {
				window /= 2
			}
			continue

		case terminal != nil:
			return terminal, nil

		case positive:
			sent = end
			if window < c.opts.segmentWindowCeiling {
				window++
			}
			if peerWindow > 0 && peerWindow < window {
				window = peerWindow
			}
		}
	}

	return c.awaitTerminal(ctx, respCh)
}

// awaitSegmentAck waits for either the Segment-Ack matching lastSeq or
// a terminal response (Simple/Complex-Ack, Error, Reject, Abort) that
// ends the exchange early.
func (c *Client) awaitSegmentAck(ctx context.Context, respCh chan *APDU, lastSeq uint8) (positive bool, peerWindow uint8, terminal *APDU, err error) {
	deadline := time.Now().Add(c.opts.segmentAckTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, 0, nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return false, 0, nil, ErrTimeout
		case <-time.After(remaining):
			return false, 0, nil, ErrTimeout
		case apdu, ok := <-respCh:
			if !ok {
				return false, 0, nil, ErrConnectionClosed
			}
			switch apdu.Type {
			case PDUTypeSegmentAck:
				if apdu.SequenceNum != lastSeq {
					continue
				}
				if apdu.SegAckNak {
					return false, apdu.WindowSize, nil, ErrSegmentNegativeAck
				}
				return true, apdu.WindowSize, nil, nil
			case PDUTypeSimpleAck, PDUTypeComplexAck, PDUTypeError, PDUTypeReject, PDUTypeAbort:
				return false, 0, apdu, nil
			default:
				continue
			}
		}
	}
}

// awaitTerminal waits for the final non-segment-ack response once every
// segment of a segmented request has been positively acked.
func (c *Client) awaitTerminal(ctx context.Context, respCh chan *APDU) (*APDU, error) {
	deadline := time.Now().Add(c.opts.responseTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ErrTimeout
		case <-time.After(remaining):
			return nil, ErrTimeout
		case apdu, ok := <-respCh:
			if !ok {
				return nil, ErrConnectionClosed
			}
			if apdu.Type == PDUTypeSegmentAck {
				continue
			}
			return apdu, nil
		}
	}
}

// reassembleComplexAck accumulates the segments of a segmented
// complex-ack response, acking each in turn: a duplicate sequence is
// re-acked without growth, an out-of-order sequence is dropped without
// an ack, and the valid next segment is appended and re-acked. The
// reassembled body is capped at maxReassembledAPDU.
func (c *Client) reassembleComplexAck(first *APDU, invokeID uint8, addr *net.UDPAddr) (*APDU, error) {
	buf := append([]byte(nil), first.Data...)
	if len(buf) > maxReassembledAPDU {
		return nil, ErrResponseTooLarge
	}
	expectedSeq := first.SequenceNum
	c.sendSegmentAckTo(addr, invokeID, expectedSeq, false)
	if !first.MoreFollows {
		return &APDU{Type: PDUTypeComplexAck, InvokeID: invokeID, Service: first.Service, Data: buf}, nil
	}

	c.pendingMu.RLock()
	respCh := c.pending[invokeID]
	c.pendingMu.RUnlock()
	if respCh == nil {
		return nil, ErrConnectionClosed
	}

	deadline := time.Now().Add(c.opts.responseTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}
		select {
		case <-time.After(remaining):
			return nil, ErrTimeout
		case apdu, ok := <-respCh:
			if !ok {
				return nil, ErrConnectionClosed
			}
			if apdu.Type != PDUTypeComplexAck || !apdu.Segmented {
				if apdu.Type == PDUTypeError || apdu.Type == PDUTypeReject || apdu.Type == PDUTypeAbort {
					return apdu, nil
				}
				continue
			}

			switch {
			case apdu.SequenceNum == expectedSeq:
				c.sendSegmentAckTo(addr, invokeID, apdu.SequenceNum, false)
				continue
			case apdu.SequenceNum == expectedSeq+1:
				buf = append(buf, apdu.Data...)
				if len(buf) > maxReassembledAPDU {
					return nil, ErrResponseTooLarge
				}
				expectedSeq = apdu.SequenceNum
				c.sendSegmentAckTo(addr, invokeID, expectedSeq, false)
				if !apdu.MoreFollows {
					return &APDU{Type: PDUTypeComplexAck, InvokeID: invokeID, Service: first.Service, Data: buf}, nil
				}
			default:
				continue
			}
		}
	}
}

// sendUnconfirmedRequest sends an unconfirmed request
func (c *Client) sendUnconfirmedRequest(ctx context.Context, addr *net.UDPAddr, broadcast bool, service UnconfirmedServiceChoice, data []byte) error {
	if c.State() != StateConnected {
		return ErrNotConnected
	}

	apdu := EncodeUnconfirmedRequest(service, data)
	npdu := EncodeNPDU(false, NPDUControlPriorityNormal)

	var bvlcFunc BVLCFunction
	if broadcast {
		bvlcFunc = BVLCOriginalBroadcastNPDU
	} else {
		bvlcFunc = BVLCOriginalUnicastNPDU
	}
	bvlc := EncodeBVLC(bvlcFunc, len(npdu)+len(apdu))

	packet := make([]byte, 0, len(bvlc)+len(npdu)+len(apdu))
	packet = append(packet, bvlc...)
	packet = append(packet, npdu...)
	packet = append(packet, apdu...)

	c.metrics.RequestsSent.Inc()

	var err error
	if broadcast {
		err = c.transport.Broadcast(ctx, DefaultPort, packet)
	} else {
		err = c.transport.Send(ctx, addr, packet)
	}

	if err != nil {
		c.metrics.RequestsFailed.Inc()
		return fmt.Errorf("send unconfirmed request: %w", err)
	}

	c.metrics.BytesSent.Add(int64(len(packet)))
	c.metrics.RequestsSucceeded.Inc()

	return nil
}

// RegisterForeignDevice registers as a foreign device with the
// configured BBMD.
func (c *Client) RegisterForeignDevice(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", c.opts.bbmdAddress, c.opts.bbmdPort))
	if err != nil {
		return fmt.Errorf("resolve BBMD address: %w", err)
	}

	ttl := uint16(c.opts.foreignDeviceTTL.Seconds())
	data := EncodeRegisterForeignDevice(ttl)

	if err := c.transport.Send(ctx, addr, data); err != nil {
		return fmt.Errorf("send registration: %w", err)
	}

	c.logger.Info("registered as foreign device",
		slog.String("bbmd", addr.String()),
		slog.Duration("ttl", c.opts.foreignDeviceTTL),
	)

	return nil
}

// bbmdCommand serializes one administrative BVLC exchange with the
// configured BBMD, enforcing the single-outstanding-command rule.
func (c *Client) bbmdCommand(ctx context.Context, frame []byte) ([]byte, error) {
	c.bbmdMu.Lock()
	defer c.bbmdMu.Unlock()

	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", c.opts.bbmdAddress, c.opts.bbmdPort))
	if err != nil {
		return nil, fmt.Errorf("resolve BBMD address: %w", err)
	}

	replyCh := make(chan []byte, 1)
	c.bbmdPending = replyCh
	defer func() { c.bbmdPending = nil }()

	if err := c.transport.Send(ctx, addr, frame); err != nil {
		return nil, fmt.Errorf("send bbmd command: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ErrTimeout
	case <-time.After(2 * time.Second):
		return nil, ErrTimeout
	case body := <-replyCh:
		return body, nil
	}
}

// ReadBroadcastDistributionTable reads the BBMD's broadcast distribution table.
func (c *Client) ReadBroadcastDistributionTable(ctx context.Context) ([]BDTEntry, error) {
	body, err := c.bbmdCommand(ctx, EncodeReadBroadcastDistributionTable())
	if err != nil {
		return nil, err
	}
	if len(body) >= 3 && BVLCFunction(body[1]) == BVLCResult {
		code, err := DecodeBVLCResult(body[4:])
		if err != nil {
			return nil, err
		}
		return nil, BvlcResult(code)
	}
	return DecodeBroadcastDistributionTableAck(body[4:])
}

// WriteBroadcastDistributionTable replaces the BBMD's broadcast
// distribution table.
func (c *Client) WriteBroadcastDistributionTable(ctx context.Context, entries []BDTEntry) error {
	body, err := c.bbmdCommand(ctx, EncodeWriteBroadcastDistributionTable(entries))
	if err != nil {
		return err
	}
	code, err := DecodeBVLCResult(body[4:])
	if err != nil {
		return err
	}
	if code != 0 {
		return BvlcResult(code)
	}
	return nil
}

// ReadForeignDeviceTable reads the BBMD's foreign device table.
func (c *Client) ReadForeignDeviceTable(ctx context.Context) ([]FDTEntry, error) {
	body, err := c.bbmdCommand(ctx, EncodeReadForeignDeviceTable())
	if err != nil {
		return nil, err
	}
	if len(body) >= 3 && BVLCFunction(body[1]) == BVLCResult {
		code, err := DecodeBVLCResult(body[4:])
		if err != nil {
			return nil, err
		}
		return nil, BvlcResult(code)
	}
	return DecodeForeignDeviceTableAck(body[4:])
}

// DeleteForeignDeviceTableEntry removes a registrant from the BBMD's
// foreign device table.
func (c *Client) DeleteForeignDeviceTableEntry(ctx context.Context, addr [4]byte, port uint16) error {
	body, err := c.bbmdCommand(ctx, EncodeDeleteForeignDeviceTableEntry(addr, port))
	if err != nil {
		return err
	}
	code, err := DecodeBVLCResult(body[4:])
	if err != nil {
		return err
	}
	if code != 0 {
		return BvlcResult(code)
	}
	return nil
}

// WhoIs sends a Who-Is request to discover devices
func (c *Client) WhoIs(ctx context.Context, opts ...DiscoverOption) ([]*DeviceInfo, error) {
	options := defaultDiscoverOptions()
	for _, opt := range opts {
		opt(options)
	}

	data := EncodeWhoIs(options.LowLimit, options.HighLimit)

	if err := c.sendUnconfirmedRequest(ctx, nil, true, ServiceWhoIs, data); err != nil {
		return nil, err
	}
	c.metrics.WhoIsSent.Inc()

	select {
	case <-ctx.Done():
	case <-time.After(options.Timeout):
	}

	c.devicesMu.RLock()
	devices := make([]*DeviceInfo, 0, len(c.devices))
	for _, dev := range c.devices {
		devices = append(devices, dev)
	}
	c.devicesMu.RUnlock()

	return devices, nil
}

// WhoHas broadcasts a Who-Has request and returns the I-Have responses
// collected during timeout.
func (c *Client) WhoHas(ctx context.Context, wh WhoHas, timeout time.Duration) ([]IHave, error) {
	data := EncodeWhoHas(wh)
	if err := c.sendUnconfirmedRequest(ctx, nil, true, ServiceWhoHas, data); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
	case <-time.After(timeout):
	}

	c.objectsMu.RLock()
	defer c.objectsMu.RUnlock()
	results := make([]IHave, 0, len(c.objects))
	for _, ih := range c.objects {
		if wh.ObjectID != nil && ih.ObjectID == *wh.ObjectID {
			results = append(results, ih)
		} else if wh.ObjectName != "" && ih.ObjectName == wh.ObjectName {
			results = append(results, ih)
		}
	}
	return results, nil
}

// GetDevice returns information about a discovered device
func (c *Client) GetDevice(deviceID uint32) (*DeviceInfo, bool) {
	c.devicesMu.RLock()
	defer c.devicesMu.RUnlock()
	dev, ok := c.devices[deviceID]
	return dev, ok
}

// resolveDevice resolves a device ID to its address
func (c *Client) resolveDevice(ctx context.Context, deviceID uint32) (*net.UDPAddr, error) {
	c.devicesMu.RLock()
	dev, ok := c.devices[deviceID]
	c.devicesMu.RUnlock()

	if !ok {
		_, err := c.WhoIs(ctx, WithDeviceRange(deviceID, deviceID), WithDiscoveryTimeout(2*time.Second))
		if err != nil {
			return nil, err
		}

		c.devicesMu.RLock()
		dev, ok = c.devices[deviceID]
		c.devicesMu.RUnlock()

		if !ok {
			return nil, ErrDeviceNotFound
		}
	}

	if len(dev.Address.Addr) == 4 {
		return &net.UDPAddr{IP: net.IP(dev.Address.Addr), Port: DefaultPort}, nil
	} else if len(dev.Address.Addr) == 6 {
		return &net.UDPAddr{
			IP:   net.IP(dev.Address.Addr[:4]),
			Port: int(binary.BigEndian.Uint16(dev.Address.Addr[4:])),
		}, nil
	}

	return nil, fmt.Errorf("invalid device address format")
}

// ReadProperty reads a property from a BACnet object
func (c *Client) ReadProperty(ctx context.Context, deviceID uint32, objectID ObjectIdentifier, propertyID PropertyIdentifier, opts ...ReadOption) (Value, error) {
	options := &ReadOptions{}
	for _, opt := range opts {
		opt(options)
	}

	addr, err := c.resolveDevice(ctx, deviceID)
	if err != nil {
		return Value{}, err
	}

	data := EncodeReadPropertyRequest(objectID, propertyID, options.ArrayIndex)

	resp, err := c.sendRequest(ctx, deviceID, addr, ServiceReadProperty, data)
	if err != nil {
		return Value{}, err
	}

	ack, err := DecodeReadPropertyAck(resp.Data)
	if err != nil {
		return Value{}, err
	}
	return ack.Value, nil
}

// WriteProperty writes a property to a BACnet object
func (c *Client) WriteProperty(ctx context.Context, deviceID uint32, objectID ObjectIdentifier, propertyID PropertyIdentifier, value Value, opts ...WriteOption) error {
	options := &WriteOptions{}
	for _, opt := range opts {
		opt(options)
	}

	addr, err := c.resolveDevice(ctx, deviceID)
	if err != nil {
		return err
	}

	data := EncodeWritePropertyRequest(objectID, propertyID, options.ArrayIndex, value, options.Priority)

	_, err = c.sendRequest(ctx, deviceID, addr, ServiceWriteProperty, data)
	return err
}

// ReadPropertyMultiple reads multiple properties from one or more objects
func (c *Client) ReadPropertyMultiple(ctx context.Context, deviceID uint32, requests []ReadPropertyRequest) ([]RPMResult, error) {
	addr, err := c.resolveDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	objectRequests := make(map[ObjectIdentifier][]ReadPropertyRequest)
	var order []ObjectIdentifier
	for _, req := range requests {
		if _, seen := objectRequests[req.ObjectID]; !seen {
			order = append(order, req.ObjectID)
		}
		objectRequests[req.ObjectID] = append(objectRequests[req.ObjectID], req)
	}

	data := make([]byte, 0, 64)
	for _, oid := range order {
		data = append(data, EncodeReadPropertyMultipleRequest(oid, objectRequests[oid])...)
	}

	resp, err := c.sendRequest(ctx, deviceID, addr, ServiceReadPropertyMultiple, data)
	if err != nil {
		return nil, err
	}

	return DecodeReadPropertyMultipleAck(resp.Data)
}

// SubscribeCOV subscribes to COV (Change of Value) notifications
func (c *Client) SubscribeCOV(ctx context.Context, deviceID uint32, objectID ObjectIdentifier, handler COVHandler, opts ...SubscribeOption) (uint32, error) {
	options := &SubscribeOptions{Confirmed: false}
	for _, opt := range opts {
		opt(options)
	}

	addr, err := c.resolveDevice(ctx, deviceID)
	if err != nil {
		return 0, err
	}

	subID := uint32(c.nextInvokeID())

	confirmed := options.Confirmed
	req := SubscribeCOVRequest{
		SubscriberProcessID: subID,
		ObjectID:            objectID,
		Confirmed:           &confirmed,
		Lifetime:            options.Lifetime,
	}
	data := EncodeSubscribeCOVRequest(req)

	_, err = c.sendRequest(ctx, deviceID, addr, ServiceSubscribeCOV, data)
	if err != nil {
		return 0, err
	}

	c.covMu.Lock()
	c.covSubs[subID] = handler
	c.covMu.Unlock()

	c.metrics.COVSubscriptions.Inc()
	c.metrics.ActiveSubscriptions.Inc()

	return subID, nil
}

// UnsubscribeCOV unsubscribes from COV notifications
func (c *Client) UnsubscribeCOV(ctx context.Context, deviceID uint32, objectID ObjectIdentifier, subID uint32) error {
	addr, err := c.resolveDevice(ctx, deviceID)
	if err != nil {
		return err
	}

	req := SubscribeCOVRequest{SubscriberProcessID: subID, ObjectID: objectID}
	data := EncodeSubscribeCOVRequest(req)

	_, err = c.sendRequest(ctx, deviceID, addr, ServiceSubscribeCOV, data)
	if err != nil {
		return err
	}

	c.covMu.Lock()
	if _, ok := c.covSubs[subID]; ok {
		delete(c.covSubs, subID)
		c.metrics.ActiveSubscriptions.Dec()
	}
	c.covMu.Unlock()

	return nil
}

// GetObjectList retrieves the list of objects from a device
func (c *Client) GetObjectList(ctx context.Context, deviceID uint32) ([]ObjectIdentifier, error) {
	lengthVal, err := c.ReadProperty(ctx, deviceID,
		NewObjectIdentifier(ObjectTypeDevice, deviceID),
		PropertyObjectList,
		WithArrayIndex(0),
	)
	if err != nil {
		return nil, err
	}
	if lengthVal.Kind != ValueUnsigned {
		return nil, fmt.Errorf("unexpected object-list length kind: %v", lengthVal.Kind)
	}
	length := lengthVal.Unsigned

	objects := make([]ObjectIdentifier, 0, length)
	for i := uint32(1); i <= length; i++ {
		val, err := c.ReadProperty(ctx, deviceID,
			NewObjectIdentifier(ObjectTypeDevice, deviceID),
			PropertyObjectList,
			WithArrayIndex(i),
		)
		if err != nil {
			continue
		}
		if val.Kind == ValueObjectIdentifier {
			objects = append(objects, val.ObjectID)
		}
	}

	return objects, nil
}
