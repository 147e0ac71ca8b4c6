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
	"strings"
	"time"

	"eros/pkg/util"
	"eros/third_party/forked/golang/glog"
)

const (
	KindTCP      = "tcp"
	KindUDP      = "udp"
	KindPipe     = "pipe"
	KindLoopback = "loopback"
	KindNATS     = "nats"
)

var (
	DefaultTCPConfig = TCPConfig{
		ConnectTimeout:        util.Duration{Duration: 1 * time.Second},
		WriteTimeout:          util.Duration{Duration: 500 * time.Millisecond},
		ReconnectIntervalBase: 100,   // 100ms
		ReconnectIntervalMax:  20000, // 20 seconds
		ReadBufSize:           1024,
	}

	DefaultUDPConfig = UDPConfig{
		LocalAddr:   ":0",
		ReadBufSize: 1500,
	}

	DefaultPipeConfig = PipeConfig{
		Name:      "eros",
		Side:      "a",
		QueueSize: 1024,
	}

	DefaultNATSConfig = NATSConfig{
		URL:            "nats://127.0.0.1:4222",
		Name:           "eros",
		TxSubject:      "eros.a",
		RxSubject:      "eros.b",
		ConnectTimeout: util.Duration{Duration: 2 * time.Second},
		ReconnectWait:  util.Duration{Duration: 2 * time.Second},
		MaxReconnects:  -1,
		QueueSize:      1024,
	}
)

type (
	TCPConfig struct {
		Addr                  string
		ConnectTimeout        util.Duration
		WriteTimeout          util.Duration
		AutoReconnect         bool
		ReconnectIntervalBase int // in ms
		ReconnectIntervalMax  int // in ms
		ReadBufSize           int
	}

	UDPConfig struct {
		LocalAddr   string
		RemoteAddr  string
		ReadBufSize int
	}

	PipeConfig struct {
		Name string
		// a, b or loopback
		Side string
		// Writes are split into random chunks of 1..MaxChunk bytes when set.
		MaxChunk  int
		QueueSize int
		Seed      int64
	}

	NATSConfig struct {
		URL            string
		Name           string
		TxSubject      string
		RxSubject      string
		ConnectTimeout util.Duration
		ReconnectWait  util.Duration
		AutoReconnect  bool
		MaxReconnects  int
		QueueSize      int
	}

	Config struct {
		Kind string
		TCP  TCPConfig
		UDP  UDPConfig
		Pipe PipeConfig
		NATS NATSConfig
	}
)

func (conf *TCPConfig) SetDefaultIfNotDefined() (set bool) {
	if conf.ConnectTimeout.Duration == 0 {
		set = true
		conf.ConnectTimeout = DefaultTCPConfig.ConnectTimeout
	}
	if conf.WriteTimeout.Duration == 0 {
		set = true
		conf.WriteTimeout = DefaultTCPConfig.WriteTimeout
	}
	if conf.ReconnectIntervalBase <= 0 {
		set = true
		conf.ReconnectIntervalBase = DefaultTCPConfig.ReconnectIntervalBase
	}
	if conf.ReconnectIntervalMax < conf.ReconnectIntervalBase {
		set = true
		conf.ReconnectIntervalMax = DefaultTCPConfig.ReconnectIntervalMax
		if conf.ReconnectIntervalMax < conf.ReconnectIntervalBase {
			conf.ReconnectIntervalMax = conf.ReconnectIntervalBase
		}
	}
	if conf.ReadBufSize <= 0 {
		set = true
		conf.ReadBufSize = DefaultTCPConfig.ReadBufSize
	}
	return
}

func (conf *UDPConfig) SetDefaultIfNotDefined() (set bool) {
	if conf.LocalAddr == "" {
		set = true
		conf.LocalAddr = DefaultUDPConfig.LocalAddr
	}
	if conf.ReadBufSize <= 0 {
		set = true
		conf.ReadBufSize = DefaultUDPConfig.ReadBufSize
	}
	return
}

func (conf *PipeConfig) SetDefaultIfNotDefined() (set bool) {
	if conf.Name == "" {
		set = true
		conf.Name = DefaultPipeConfig.Name
	}
	if conf.Side == "" {
		set = true
		conf.Side = DefaultPipeConfig.Side
	}
	if conf.QueueSize <= 0 {
		set = true
		conf.QueueSize = DefaultPipeConfig.QueueSize
	}
	return
}

func (conf *NATSConfig) SetDefaultIfNotDefined() (set bool) {
	if conf.URL == "" {
		set = true
		conf.URL = DefaultNATSConfig.URL
	}
	if conf.Name == "" {
		set = true
		conf.Name = DefaultNATSConfig.Name
	}
	if conf.TxSubject == "" {
		set = true
		conf.TxSubject = DefaultNATSConfig.TxSubject
	}
	if conf.RxSubject == "" {
		set = true
		conf.RxSubject = DefaultNATSConfig.RxSubject
	}
	if conf.ConnectTimeout.Duration == 0 {
		set = true
		conf.ConnectTimeout = DefaultNATSConfig.ConnectTimeout
	}
	if conf.ReconnectWait.Duration == 0 {
		set = true
		conf.ReconnectWait = DefaultNATSConfig.ReconnectWait
	}
	if conf.MaxReconnects == 0 {
		set = true
		conf.MaxReconnects = DefaultNATSConfig.MaxReconnects
	}
	if conf.QueueSize <= 0 {
		set = true
		conf.QueueSize = DefaultNATSConfig.QueueSize
	}
	return
}

func (conf *Config) SetDefaultIfNotDefined() {
	if conf.Kind == "" {
		conf.Kind = KindTCP
	}
	conf.Kind = strings.ToLower(conf.Kind)
	conf.TCP.SetDefaultIfNotDefined()
	conf.UDP.SetDefaultIfNotDefined()
	conf.Pipe.SetDefaultIfNotDefined()
	conf.NATS.SetDefaultIfNotDefined()
}

func (conf *Config) Dump() {
	glog.Infof("Transport.Kind: %s", conf.Kind)
	switch conf.Kind {
	case KindTCP:
		glog.Infof("Transport.TCP: %+v", conf.TCP)
	case KindUDP:
		glog.Infof("Transport.UDP: %+v", conf.UDP)
	case KindPipe:
		glog.Infof("Transport.Pipe: %+v", conf.Pipe)
	case KindNATS:
		glog.Infof("Transport.NATS: %+v", conf.NATS)
	}
}

// Open creates the transport named by conf.Kind. reg is only used by pipes
// and may be nil otherwise.
func Open(conf *Config, reg *Registry) (Transport, error) {
	conf.SetDefaultIfNotDefined()
	switch conf.Kind {
	case KindTCP:
		return DialTCP(conf.TCP)
	case KindUDP:
		return DialUDP(conf.UDP)
	case KindPipe:
		if reg == nil {
			return nil, fmt.Errorf("pipe transport needs a registry")
		}
		side, err := ParseSide(conf.Pipe.Side)
		if err != nil {
			return nil, err
		}
		return reg.Open(conf.Pipe.Name, side, conf.Pipe), nil
	case KindLoopback:
		return NewLoopback(conf.Pipe.QueueSize), nil
	case KindNATS:
		return DialNATS(conf.NATS)
	}
	return nil, fmt.Errorf("unknown transport kind %q", conf.Kind)
}
