//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//


package rsp

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eros/pkg/errors"
)

func TestChecksumCheckValue(t *testing.T) {
	assert.Equal(t, uint16(0xEF6F), Checksum.Checksum([]byte("123456789")))
	assert.Equal(t, uint16(0), Checksum.Checksum(nil))
}

func TestFrameWireFormat(t *testing.T) {
	tests := []struct {
		frame Frame
		wire  string
	}{
		{Frame{Header{1, DATA_ACK}, []byte("ping")}, "010070696e67d77d"},
		{Frame{Header{1, RESP_ACK}, nil}, "012007e0"},
		{Frame{Header{1, RESP_NACK}, []byte("no handler")}, "01306e6f2068616e646c657221bf"},
		{Frame{Header{0, DATA_NOACK}, []byte("x")}, "0010787168"},
	}
	for _, tc := range tests {
		b := tc.frame.Encode()
		assert.Equal(t, tc.wire, hex.EncodeToString(b), tc.frame.Header.String())

		f, err := DecodeFrame(b)
		require.NoError(t, err)
		assert.Equal(t, tc.frame.Header, f.Header)
		assert.Equal(t, string(tc.frame.Data), string(f.Data))
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	_, err := DecodeFrame([]byte{0x01, 0x20, 0x07})
	assert.ErrorIs(t, err, errors.ErrTruncated)

	b := (&Frame{Header{9, DATA_ACK}, []byte("abc")}).Encode()
	for i := range b {
		c := append([]byte(nil), b...)
		c[i] ^= 0x01
		_, err = DecodeFrame(c)
		assert.ErrorIs(t, err, errors.ErrChecksum, "bit flip at %d", i)
	}

	bad := Checksum.Append([]byte{0x01, 0x50})
	_, err = DecodeFrame(bad)
	assert.ErrorIs(t, err, errors.ErrFraming)
}

func TestFrameTypeString(t *testing.T) {
	assert.Equal(t, "DATA_ACK", DATA_ACK.String())
	assert.Equal(t, "RESP_NACK", RESP_NACK.String())
	assert.Equal(t, "FrameType(9)", FrameType(9).String())
	assert.True(t, DATA_NOACK.IsData())
	assert.True(t, RESP_ACK.IsResponse())
	assert.False(t, RESP_ACK.IsData())
}

func TestPendingTable(t *testing.T) {
	var p pendingTable

	ch, err := p.register(3)
	require.NoError(t, err)
	_, err = p.register(3)
	assert.ErrorIs(t, err, errors.ErrSequenceBusy)
	assert.Equal(t, 1, p.outstanding())

	f := &Frame{Header: Header{Seq: 3, Type: RESP_ACK}}
	assert.True(t, p.deliver(f))
	assert.Same(t, f, <-ch)
	assert.Equal(t, 0, p.outstanding())

	// no waiter: parked until the seq is registered again
	assert.False(t, p.deliver(&Frame{Header: Header{Seq: 4, Type: RESP_NACK}}))
	assert.False(t, p.deliver(&Frame{Header: Header{Seq: 4, Type: RESP_ACK}}))
	assert.Equal(t, 1, p.unclaimedCount())
	ch, err = p.register(4)
	require.NoError(t, err)
	assert.Equal(t, 0, p.unclaimedCount())
	select {
	case <-ch:
		t.Fatal("stale response delivered to a new waiter")
	default:
	}

	p.cancel(4, ch)
	assert.Equal(t, 0, p.outstanding())
	assert.False(t, p.deliver(&Frame{Header: Header{Seq: 4, Type: RESP_ACK}}))
}

func TestPendingCancelKeepsNewerWaiter(t *testing.T) {
	var p pendingTable
	old, err := p.register(8)
	require.NoError(t, err)
	p.cancel(8, old)
	_, err = p.register(8)
	require.NoError(t, err)
	p.cancel(8, old)
	assert.Equal(t, 1, p.outstanding())
}
