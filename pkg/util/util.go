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

/*
Package util implements some utility functions.
*/
package util

import (
	"encoding/hex"
	"time"

	uuid "github.com/satori/go.uuid"
)

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() (text []byte, err error) {
	text = []byte(d.Duration.String())
	return
}

// NewInstanceID returns a random (v4) id used to tell endpoints apart in logs
// and metrics.
func NewInstanceID() string {
	return uuid.NewV4().String()
}

// HexTail returns the hex dump of at most the last n bytes of b.
func HexTail(b []byte, n int) string {
	if n > 0 && len(b) > n {
		b = b[len(b)-n:]
	}
	return hex.EncodeToString(b)
}

// Backoff yields reconnect intervals doubling from base up to max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
	cur  time.Duration
}

func NewBackoff(base, max time.Duration) *Backoff {
	if max < base {
		max = base
	}
	return &Backoff{Base: base, Max: max}
}

func (b *Backoff) Next() time.Duration {
	if b.cur == 0 {
		b.cur = b.Base
		return b.cur
	}
	b.cur *= 2
	if b.cur > b.Max {
		b.cur = b.Max
	}
	return b.cur
}

func (b *Backoff) Reset() {
	b.cur = 0
}
