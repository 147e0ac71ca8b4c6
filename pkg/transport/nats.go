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
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"eros/pkg/errors"
	"eros/pkg/logging/otel"
	"eros/third_party/forked/golang/glog"
)

// NATS is a packet link over a NATS server: writes are published on
// TxSubject, reads come from RxSubject. The client's connection events
// drive the state machine.
type NATS struct {
	*StateMachine
	config    NATSConfig
	conn      *nats.Conn
	sub       *nats.Subscription
	msgCh     chan *nats.Msg
	doneCh    chan struct{}
	closeOnce sync.Once
}

func DialNATS(config NATSConfig) (*NATS, error) {
	config.SetDefaultIfNotDefined()
	t := &NATS{
		StateMachine: NewStateMachine("nats:"+config.TxSubject, config.AutoReconnect),
		config:       config,
		msgCh:        make(chan *nats.Msg, config.QueueSize),
		doneCh:       make(chan struct{}),
	}

	start := time.Now()
	conn, err := nats.Connect(config.URL, t.connectionOptions()...)
	if err != nil {
		otel.RecordConnect(config.URL, otel.StatusError, time.Since(start))
		t.StateMachine.Close()
		return nil, fmt.Errorf("nats connect %s: %s: %w", config.URL, err, errors.ErrTransport)
	}
	otel.RecordConnect(config.URL, otel.StatusSuccess, time.Since(start))
	t.conn = conn

	if t.sub, err = conn.ChanSubscribe(config.RxSubject, t.msgCh); err != nil {
		conn.Close()
		t.StateMachine.Close()
		return nil, fmt.Errorf("nats subscribe %s: %s: %w", config.RxSubject, err, errors.ErrTransport)
	}
	t.Set(CONNECTED)
	return t, nil
}

func (t *NATS) connectionOptions() []nats.Option {
	opts := []nats.Option{
		nats.Name(t.config.Name),
		nats.Timeout(t.config.ConnectTimeout.Duration),
		nats.DisconnectErrHandler(t.handleDisconnect),
		nats.ReconnectHandler(t.handleReconnect),
		nats.ClosedHandler(t.handleClosed),
	}
	if t.config.AutoReconnect {
		opts = append(opts,
			nats.MaxReconnects(t.config.MaxReconnects),
			nats.ReconnectWait(t.config.ReconnectWait.Duration))
	} else {
		opts = append(opts, nats.NoReconnect())
	}
	return opts
}

func (t *NATS) handleDisconnect(_ *nats.Conn, err error) {
	if err != nil {
		glog.Warningf("%s: disconnected: %s", t.Name(), err)
	}
	if t.config.AutoReconnect {
		t.Set(CONNECTING)
	}
}

func (t *NATS) handleReconnect(nc *nats.Conn) {
	glog.Infof("%s: reconnected to %s", t.Name(), nc.ConnectedUrl())
	t.Set(CONNECTED)
}

func (t *NATS) handleClosed(_ *nats.Conn) {
	t.shutdown()
}

func (t *NATS) shutdown() {
	t.closeOnce.Do(func() {
		close(t.doneCh)
		t.StateMachine.Close()
	})
}

func (t *NATS) Capabilities() Capabilities {
	return PacketCapabilities
}

func (t *NATS) Read() ([]byte, error) {
	select {
	case m := <-t.msgCh:
		return m.Data, nil
	case <-t.doneCh:
		return nil, errors.ErrClosed
	}
}

func (t *NATS) Write(b []byte) error {
	switch t.State() {
	case DEAD:
		return errors.ErrClosed
	case CONNECTING:
		return errors.ErrNotConnected
	}
	if err := t.conn.Publish(t.config.TxSubject, b); err != nil {
		if err == nats.ErrConnectionClosed {
			return errors.ErrClosed
		}
		return fmt.Errorf("nats publish %s: %s: %w", t.config.TxSubject, err, errors.ErrTransport)
	}
	return nil
}

func (t *NATS) Close() error {
	if t.sub != nil {
		t.sub.Unsubscribe()
	}
	t.conn.Close()
	t.shutdown()
	return nil
}
