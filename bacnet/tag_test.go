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

func TestTagRoundTripShortForm(t *testing.T) {
	tag := EncodeTag(3, TagClassApplication, 2)
	require.Len(t, tag, 1)

	num, class, length, headerLen, err := DecodeTagNumber(tag)
	require.NoError(t, err)
	assert.EqualValues(t, 3, num)
	assert.Equal(t, TagClassApplication, class)
	assert.Equal(t, 2, length)
	assert.Equal(t, 1, headerLen)
}

func TestTagRoundTripExtendedTagNumber(t *testing.T) {
	tag := EncodeTag(20, TagClassContext, 1)
	num, class, length, headerLen, err := DecodeTagNumber(tag)
	require.NoError(t, err)
	assert.EqualValues(t, 20, num)
	assert.Equal(t, TagClassContext, class)
	assert.Equal(t, 1, length)
	assert.Equal(t, 2, headerLen)
}

func TestTagRoundTripExtendedLength(t *testing.T) {
	data := make([]byte, 300)
	tag := EncodeTag(1, TagClassApplication, len(data))

	_, _, length, headerLen, err := DecodeTagNumber(tag)
	require.NoError(t, err)
	assert.Equal(t, 300, length)
	assert.Equal(t, len(tag), headerLen)
}

func TestOpeningClosingTagRoundTrip(t *testing.T) {
	open := EncodeOpeningTag(4)
	_, _, length, _, err := DecodeTagNumber(open)
	require.NoError(t, err)
	assert.Equal(t, -1, length)

	closeTag := EncodeClosingTag(4)
	_, _, length, _, err = DecodeTagNumber(closeTag)
	require.NoError(t, err)
	assert.Equal(t, -2, length)
}

func TestOpeningTagRejectsApplicationClass(t *testing.T) {
	// Length code 6 (opening) with the class bit clear (application class) is malformed.
	_, err := decodeTag([]byte{0x06})
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestDecodeTagTruncatedExtendedLength(t *testing.T) {
	_, err := decodeTag([]byte{0x15})
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestDecodeTagEmptyInput(t *testing.T) {
	_, _, _, _, err := DecodeTagNumber(nil)
	assert.ErrorIs(t, err, ErrInvalidTag)
}
