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

package eros

import (
	"time"

	"eros/pkg/proto"
	"eros/pkg/util"
	"eros/third_party/forked/golang/glog"
)

var (
	DefaultConfig = Config{
		Name:               "eros",
		MaxDiscardBuffer:   64 * 1024,
		MaxCarryOver:       proto.DefaultMaxCarryOver,
		DiscardLogInterval: util.Duration{Duration: 1 * time.Second},
		ReadErrorBackoff:   util.Duration{Duration: 10 * time.Millisecond},
	}
)

type Config struct {
	Name string
	// Discarded bytes kept for diagnostics; the newest bytes win.
	MaxDiscardBuffer int
	// Bytes the framer buffers while waiting for a delimiter.
	MaxCarryOver       int
	DiscardLogInterval util.Duration
	// Pause after a transport read error that did not kill the link.
	ReadErrorBackoff util.Duration

	Clock func() time.Time `toml:"-"`
}

func (conf *Config) SetDefaultIfNotDefined() (set bool) {
	if conf.Name == "" {
		set = true
		conf.Name = DefaultConfig.Name
	}
	if conf.MaxDiscardBuffer <= 0 {
		set = true
		conf.MaxDiscardBuffer = DefaultConfig.MaxDiscardBuffer
	}
	if conf.MaxCarryOver <= 0 {
		set = true
		conf.MaxCarryOver = DefaultConfig.MaxCarryOver
	}
	if conf.DiscardLogInterval.Duration <= 0 {
		set = true
		conf.DiscardLogInterval = DefaultConfig.DiscardLogInterval
	}
	if conf.ReadErrorBackoff.Duration <= 0 {
		set = true
		conf.ReadErrorBackoff = DefaultConfig.ReadErrorBackoff
	}
	if conf.Clock == nil {
		conf.Clock = time.Now
	}
	return
}

func (conf *Config) Dump() {
	glog.Infof("Eros.Name: %s", conf.Name)
	glog.Infof("Eros.MaxDiscardBuffer: %d", conf.MaxDiscardBuffer)
	glog.Infof("Eros.MaxCarryOver: %d", conf.MaxCarryOver)
	glog.Infof("Eros.DiscardLogInterval: %s", conf.DiscardLogInterval.Duration)
}
