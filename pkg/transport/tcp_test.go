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

package transport

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eros/pkg/errors"
	"eros/pkg/util"
)

func readN(t *testing.T, tr Transport, n int) []byte {
	t.Helper()
	var got []byte
	for len(got) < n {
		b, err := tr.Read()
		require.NoError(t, err)
		got = append(got, b...)
	}
	return got
}

func TestTCPEcho(t *testing.T) {
	ln, err := ListenTCP("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan *TCP, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	client, err := DialTCP(TCPConfig{Addr: ln.Addr().String()})
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, CONNECTED, client.State())
	assert.Equal(t, StreamCapabilities, client.Capabilities())

	server := <-accepted
	defer server.Close()

	require.NoError(t, client.Write([]byte("ping")))
	assert.Equal(t, []byte("ping"), readN(t, server, 4))
	require.NoError(t, server.Write([]byte("pong")))
	assert.Equal(t, []byte("pong"), readN(t, client, 4))
}

func TestTCPDialFailureWithoutReconnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = DialTCP(TCPConfig{Addr: addr, ConnectTimeout: util.Duration{Duration: 200 * time.Millisecond}})
	assert.ErrorIs(t, err, errors.ErrTransport)
}

func TestTCPPeerLossWithoutReconnectIsDead(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err == nil {
			c.Close()
		}
	}()

	client, err := DialTCP(TCPConfig{Addr: ln.Addr().String()})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Read()
	assert.ErrorIs(t, err, errors.ErrClosed)
	assert.Equal(t, DEAD, client.State())
	assert.ErrorIs(t, client.Write([]byte("x")), errors.ErrClosed)
}

func TestTCPAutoReconnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	conns := make(chan net.Conn, 2)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			conns <- c
		}
	}()

	client, err := DialTCP(TCPConfig{
		Addr:                  ln.Addr().String(),
		AutoReconnect:         true,
		ReconnectIntervalBase: 10,
		ReconnectIntervalMax:  40,
	})
	require.NoError(t, err)
	defer client.Close()

	first := <-conns
	readDone := make(chan []byte, 1)
	go func() {
		b, err := client.Read()
		if err == nil {
			readDone <- b
		}
	}()

	// the first server side hangs up, the client must come back on its own
	first.Close()
	var second net.Conn
	select {
	case second = <-conns:
	case <-time.After(3 * time.Second):
		t.Fatal("client did not reconnect")
	}
	defer second.Close()
	require.True(t, client.WaitForState(CONNECTED, 2*time.Second))

	_, err = second.Write([]byte("back"))
	require.NoError(t, err)
	select {
	case b := <-readDone:
		assert.Equal(t, []byte("back"), b)
		assert.Equal(t, uint64(2), client.Epoch(), "bytes came from the second connection")
	case <-time.After(2 * time.Second):
		t.Fatal("read did not survive the reconnect")
	}

	require.NoError(t, client.Write([]byte("hi")))
	buf := make([]byte, 2)
	_, err = io.ReadFull(second, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), buf)
}

func TestTCPCloseIsTerminal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			defer c.Close()
		}
	}()

	client, err := DialTCP(TCPConfig{Addr: ln.Addr().String(), AutoReconnect: true, ReconnectIntervalBase: 10})
	require.NoError(t, err)

	readErr := make(chan error, 1)
	go func() {
		_, err := client.Read()
		readErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, client.Close())

	select {
	case err := <-readErr:
		assert.ErrorIs(t, err, errors.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked read not released by Close")
	}
	assert.Equal(t, DEAD, client.State())
	assert.ErrorIs(t, client.Write([]byte("x")), errors.ErrClosed)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, DEAD, client.State(), "no reconnect after close")
}

func TestTCPWriteBeforeConnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	client, err := DialTCP(TCPConfig{
		Addr:                  addr,
		AutoReconnect:         true,
		ConnectTimeout:        util.Duration{Duration: 100 * time.Millisecond},
		ReconnectIntervalBase: 1000,
	})
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, CONNECTING, client.State())
	assert.ErrorIs(t, client.Write([]byte("x")), errors.ErrNotConnected)
}

func TestTCPLargeWrite(t *testing.T) {
	ln, err := ListenTCP("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	accepted := make(chan *TCP, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()
	client, err := DialTCP(TCPConfig{Addr: ln.Addr().String()})
	require.NoError(t, err)
	defer client.Close()
	server := <-accepted
	defer server.Close()

	payload := bytes.Repeat([]byte{0xA5}, 10000)
	go client.Write(payload)
	assert.Equal(t, payload, readN(t, server, len(payload)))
}
