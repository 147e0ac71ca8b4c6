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
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"eros/pkg/errors"
	"eros/pkg/logging/otel"
	"eros/pkg/util"
	"eros/third_party/forked/golang/glog"
)

// TCP is a byte-stream client link. With AutoReconnect set a broken
// connection is re-dialed in the background with a doubling interval, and
// Read keeps blocking across the gap.
type TCP struct {
	*StateMachine
	config    TCPConfig
	mtx       sync.Mutex
	conn      net.Conn
	connEpoch uint64
	readEpoch atomic.Uint64
	closed    bool
	doneCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func newTCP(config TCPConfig, name string) *TCP {
	config.SetDefaultIfNotDefined()
	return &TCP{
		StateMachine: NewStateMachine(name, config.AutoReconnect),
		config:       config,
		doneCh:       make(chan struct{}),
	}
}

// DialTCP connects to config.Addr. Without auto-reconnect a failed first
// dial is returned as an error; with it the dial is retried in the
// background and the transport stays CONNECTING until it succeeds.
func DialTCP(config TCPConfig) (*TCP, error) {
	t := newTCP(config, "tcp:"+config.Addr)
	if err := t.dial(); err != nil {
		if !t.config.AutoReconnect {
			t.StateMachine.Close()
			return nil, err
		}
		t.startReconnect()
	}
	return t, nil
}

// NewConn wraps an accepted connection. It never reconnects.
func NewConn(c net.Conn) *TCP {
	t := newTCP(TCPConfig{Addr: c.RemoteAddr().String()}, "tcp:"+c.RemoteAddr().String())
	t.conn = c
	t.connEpoch = 1
	t.Set(CONNECTED)
	return t
}

func (t *TCP) Capabilities() Capabilities {
	return StreamCapabilities
}

func (t *TCP) dial() error {
	start := time.Now()
	conn, err := net.DialTimeout("tcp", t.config.Addr, t.config.ConnectTimeout.Duration)
	timeTaken := time.Since(start)
	if err != nil {
		otel.RecordConnect(t.config.Addr, otel.StatusError, timeTaken)
		if glog.LOG_DEBUG {
			glog.Debugf("connect to %s failed: %s", t.config.Addr, err)
		}
		return fmt.Errorf("dial %s: %s: %w", t.config.Addr, err, errors.ErrTransport)
	}
	otel.RecordConnect(t.config.Addr, otel.StatusSuccess, timeTaken)

	t.mtx.Lock()
	if t.closed {
		t.mtx.Unlock()
		conn.Close()
		return errors.ErrClosed
	}
	t.conn = conn
	t.connEpoch++
	t.mtx.Unlock()

	if glog.LOG_DEBUG {
		glog.Debugf("connected: %s, laddr: %v", t.config.Addr, conn.LocalAddr())
	}
	t.Set(CONNECTED)
	return nil
}

func (t *TCP) startReconnect() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.closed {
		return
	}
	t.wg.Add(1)
	go t.reconnect()
}

func (t *TCP) reconnect() {
	defer t.wg.Done()

	backoff := util.NewBackoff(
		time.Duration(t.config.ReconnectIntervalBase)*time.Millisecond,
		time.Duration(t.config.ReconnectIntervalMax)*time.Millisecond)
	timer := util.NewTimerWrapper(backoff.Base)
	timer.Reset(backoff.Next())
	defer timer.Stop()

	for {
		select {
		case <-t.doneCh:
			return

		case <-timer.GetTimeoutCh():
			timer.Fired()
			if err := t.dial(); err == nil || err == errors.ErrClosed {
				return
			}
			timer.Reset(backoff.Next())
		}
	}
}

func (t *TCP) current() net.Conn {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.conn
}

// waitConn blocks until a connection is up or the link is dead.
func (t *TCP) waitConn() (net.Conn, uint64, error) {
	for {
		changed := t.Changed()
		t.mtx.Lock()
		c, epoch := t.conn, t.connEpoch
		t.mtx.Unlock()
		if c != nil {
			return c, epoch, nil
		}
		if t.IsDead() {
			return nil, 0, errors.ErrClosed
		}
		select {
		case <-changed:
		case <-t.doneCh:
			return nil, 0, errors.ErrClosed
		}
	}
}

// linkDown drops c after an I/O error and either starts reconnecting or
// marks the link dead.
func (t *TCP) linkDown(c net.Conn, err error) {
	t.mtx.Lock()
	if t.conn != c {
		t.mtx.Unlock()
		return
	}
	t.conn = nil
	closed := t.closed
	t.mtx.Unlock()
	c.Close()

	if closed {
		return
	}
	glog.Warningf("%s: connection lost: %s", t.Name(), err)
	if t.config.AutoReconnect {
		t.Set(CONNECTING)
		t.startReconnect()
	} else {
		t.StateMachine.Close()
	}
}

func (t *TCP) Read() ([]byte, error) {
	buf := make([]byte, t.config.ReadBufSize)
	for {
		c, epoch, err := t.waitConn()
		if err != nil {
			return nil, err
		}
		n, err := c.Read(buf)
		if n > 0 {
			t.readEpoch.Store(epoch)
			return buf[:n], nil
		}
		if err != nil {
			t.linkDown(c, err)
		}
	}
}

// Epoch returns the connection generation of the last chunk Read returned.
// Every successful dial starts a new generation.
func (t *TCP) Epoch() uint64 {
	return t.readEpoch.Load()
}

func (t *TCP) Write(b []byte) error {
	c := t.current()
	if c == nil {
		if t.IsDead() {
			return errors.ErrClosed
		}
		return errors.ErrNotConnected
	}
	if d := t.config.WriteTimeout.Duration; d > 0 {
		c.SetWriteDeadline(time.Now().Add(d))
	}
	if _, err := c.Write(b); err != nil {
		t.linkDown(c, err)
		return fmt.Errorf("write %s: %s: %w", t.config.Addr, err, errors.ErrTransport)
	}
	return nil
}

// Close is terminal: the link goes DEAD and never reconnects.
func (t *TCP) Close() error {
	t.closeOnce.Do(func() {
		t.mtx.Lock()
		t.closed = true
		c := t.conn
		t.conn = nil
		t.mtx.Unlock()

		close(t.doneCh)
		if c != nil {
			c.Close()
		}
		t.StateMachine.Close()
		t.wg.Wait()
	})
	return nil
}

// Listener accepts eros peers over TCP.
type Listener struct {
	ln net.Listener
}

func ListenTCP(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %s: %w", addr, err, errors.ErrTransport)
	}
	glog.Infof("listening on %s", ln.Addr())
	return &Listener{ln: ln}, nil
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *Listener) Accept() (*TCP, error) {
	c, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	glog.Infof("accepted %s", c.RemoteAddr())
	return NewConn(c), nil
}

func (l *Listener) Close() error {
	return l.ln.Close()
}
