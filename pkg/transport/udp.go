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

	"eros/pkg/errors"
	"eros/third_party/forked/golang/glog"
)

// UDP carries one eros packet per datagram. Without a RemoteAddr it answers
// the peer it heard from last.
type UDP struct {
	*StateMachine
	config UDPConfig
	conn   *net.UDPConn
	mtx    sync.Mutex
	peer   *net.UDPAddr

	closeOnce sync.Once
}

func DialUDP(config UDPConfig) (*UDP, error) {
	config.SetDefaultIfNotDefined()
	laddr, err := net.ResolveUDPAddr("udp", config.LocalAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %s: %w", config.LocalAddr, err, errors.ErrTransport)
	}
	var peer *net.UDPAddr
	if config.RemoteAddr != "" {
		if peer, err = net.ResolveUDPAddr("udp", config.RemoteAddr); err != nil {
			return nil, fmt.Errorf("resolve %s: %s: %w", config.RemoteAddr, err, errors.ErrTransport)
		}
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %s: %w", config.LocalAddr, err, errors.ErrTransport)
	}
	u := &UDP{
		StateMachine: NewStateMachine("udp:"+conn.LocalAddr().String(), false),
		config:       config,
		conn:         conn,
		peer:         peer,
	}
	u.Set(CONNECTED)
	return u, nil
}

func (u *UDP) Capabilities() Capabilities {
	return PacketCapabilities
}

func (u *UDP) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

func (u *UDP) Read() ([]byte, error) {
	buf := make([]byte, u.config.ReadBufSize)
	n, addr, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		if u.IsDead() {
			return nil, errors.ErrClosed
		}
		return nil, fmt.Errorf("udp read: %s: %w", err, errors.ErrTransport)
	}
	if u.config.RemoteAddr == "" {
		u.mtx.Lock()
		u.peer = addr
		u.mtx.Unlock()
	}
	if glog.LOG_VERBOSE {
		glog.Verbosef("udp rx %d bytes from %s", n, addr)
	}
	return buf[:n], nil
}

func (u *UDP) Write(b []byte) error {
	if u.IsDead() {
		return errors.ErrClosed
	}
	u.mtx.Lock()
	peer := u.peer
	u.mtx.Unlock()
	if peer == nil {
		return errors.ErrNotConnected
	}
	if _, err := u.conn.WriteToUDP(b, peer); err != nil {
		return fmt.Errorf("udp write %s: %s: %w", peer, err, errors.ErrTransport)
	}
	return nil
}

func (u *UDP) Close() (err error) {
	u.closeOnce.Do(func() {
		u.StateMachine.Close()
		err = u.conn.Close()
	})
	return
}
