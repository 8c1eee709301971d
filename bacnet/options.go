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
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientOptions holds the immutable configuration a Client is built
// with. Construct via NewClient(opts ...Option); there is no setter
// surface afterward.
type clientOptions struct {
	localAddress string
	timeout      time.Duration

	responseTimeout time.Duration

	segmentWindow        uint8
	segmentWindowCeiling uint8
	segmentRetries       int
	segmentAckTimeout    time.Duration

	bbmdAddress      string
	bbmdPort         int
	foreignDeviceTTL time.Duration

	logger           *slog.Logger
	metricsRegisterer prometheus.Registerer
}

func defaultOptions() *clientOptions {
	return &clientOptions{
		timeout:              5 * time.Second,
		responseTimeout:      3 * time.Second,
		segmentWindow:        1,
		segmentWindowCeiling: 16,
		segmentRetries:       2,
		segmentAckTimeout:    500 * time.Millisecond,
		bbmdPort:             DefaultPort,
		foreignDeviceTTL:     5 * time.Minute,
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures a Client at construction time.
type Option func(*clientOptions)

// WithLocalAddress binds the client's UDP socket to a specific local
// address instead of an ephemeral port on all interfaces.
func WithLocalAddress(addr string) Option {
	return func(o *clientOptions) { o.localAddress = addr }
}

// WithTimeout sets the transport read/write deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithResponseTimeout sets the deadline for a confirmed request's
// final response, default 3s.
func WithResponseTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.responseTimeout = d }
}

// WithSegmentWindow sets the initial segmented-request window size and
// the ceiling it may grow to, default 1 and 16.
func WithSegmentWindow(initial, ceiling uint8) Option {
	return func(o *clientOptions) {
		o.segmentWindow = initial
		o.segmentWindowCeiling = ceiling
	}
}

// WithSegmentRetries sets the number of window resends allowed on
// segment-ack timeout or negative-ack, default 2.
func WithSegmentRetries(n int) Option {
	return func(o *clientOptions) { o.segmentRetries = n }
}

// WithSegmentAckTimeout sets the deadline for a single window's
// segment-ack, default 500ms.
func WithSegmentAckTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.segmentAckTimeout = d }
}

// WithBBMD configures a foreign-device registration with the given
// BACnet Broadcast Management Device on Connect.
func WithBBMD(address string, port int) Option {
	return func(o *clientOptions) {
		o.bbmdAddress = address
		o.bbmdPort = port
	}
}

// WithForeignDeviceTTL sets the registration lifetime advertised to the
// BBMD, default 5 minutes.
func WithForeignDeviceTTL(d time.Duration) Option {
	return func(o *clientOptions) { o.foreignDeviceTTL = d }
}

// WithLogger sets the client's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithMetricsRegisterer registers the client's prometheus collectors
// against reg instead of leaving them unregistered.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *clientOptions) { o.metricsRegisterer = reg }
}

// DiscoverOptions configures WhoIs.
type DiscoverOptions struct {
	LowLimit, HighLimit *uint32
	Timeout             time.Duration
}

func defaultDiscoverOptions() *DiscoverOptions {
	return &DiscoverOptions{Timeout: 3 * time.Second}
}

// DiscoverOption configures a WhoIs call.
type DiscoverOption func(*DiscoverOptions)

// WithDeviceRange restricts Who-Is to devices whose instance number
// falls in [low, high].
func WithDeviceRange(low, high uint32) DiscoverOption {
	return func(o *DiscoverOptions) {
		o.LowLimit = &low
		o.HighLimit = &high
	}
}

// WithDiscoveryTimeout sets how long WhoIs waits to collect I-Am
// responses before returning.
func WithDiscoveryTimeout(d time.Duration) DiscoverOption {
	return func(o *DiscoverOptions) { o.Timeout = d }
}

// ReadOptions configures ReadProperty and GetObjectList.
type ReadOptions struct {
	ArrayIndex *uint32
}

// ReadOption configures a ReadProperty call.
type ReadOption func(*ReadOptions)

// WithArrayIndex restricts a ReadProperty call to a single element of
// an array-valued property. WriteProperty uses WithWriteArrayIndex.
func WithArrayIndex(index uint32) ReadOption {
	return func(o *ReadOptions) { o.ArrayIndex = &index }
}

// WriteOptions configures WriteProperty.
type WriteOptions struct {
	ArrayIndex *uint32
	Priority   *uint8
}

// WriteOption configures a WriteProperty call.
type WriteOption func(*WriteOptions)

// WithWriteArrayIndex restricts a WriteProperty call to a single
// element of an array-valued property.
func WithWriteArrayIndex(index uint32) WriteOption {
	return func(o *WriteOptions) { o.ArrayIndex = &index }
}

// WithPriority sets the write priority (1-16) carried on a
// WriteProperty request.
func WithPriority(priority uint8) WriteOption {
	return func(o *WriteOptions) { o.Priority = &priority }
}

// SubscribeOptions configures SubscribeCOV.
type SubscribeOptions struct {
	Confirmed bool
	Lifetime  *uint32
}

// SubscribeOption configures a SubscribeCOV call.
type SubscribeOption func(*SubscribeOptions)

// WithConfirmedNotifications requests confirmed COV notifications
// instead of the unconfirmed default.
func WithConfirmedNotifications() SubscribeOption {
	return func(o *SubscribeOptions) { o.Confirmed = true }
}

// WithSubscriptionLifetime bounds the subscription to d; omitting this
// option requests an indefinite subscription.
func WithSubscriptionLifetime(d time.Duration) SubscribeOption {
	return func(o *SubscribeOptions) {
		seconds := uint32(d.Seconds())
		o.Lifetime = &seconds
	}
}
