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

package util

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

func TestSeqCounterWraps(t *testing.T) {
	var c SeqCounter
	for i := 1; i <= 255; i++ {
		if got := c.Next(); int(got) != i {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}
	if got := c.Next(); got != 1 {
		t.Errorf("expected wrap to 1, got %d", got)
	}
}

func TestSeqCounterNeverZero(t *testing.T) {
	var c SeqCounter
	var wg sync.WaitGroup
	var mu sync.Mutex
	zero := false
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if c.Next() == 0 {
					mu.Lock()
					zero = true
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	if zero {
		t.Error("sequence 0 handed out")
	}
}

func TestBackoff(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, 500*time.Millisecond)
	expected := []time.Duration{100, 200, 400, 500, 500}
	for i, e := range expected {
		if got := b.Next(); got != e*time.Millisecond {
			t.Errorf("step %d: expected %v, got %v", i, e*time.Millisecond, got)
		}
	}
	b.Reset()
	if got := b.Next(); got != 100*time.Millisecond {
		t.Errorf("after reset got %v", got)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1500ms")); err != nil {
		t.Fatal(err)
	}
	if d.Duration != 1500*time.Millisecond {
		t.Errorf("got %v", d.Duration)
	}
	text, _ := d.MarshalText()
	if string(text) != "1.5s" {
		t.Errorf("got %s", text)
	}
}

func TestHexTail(t *testing.T) {
	if got := HexTail([]byte{1, 2, 3, 4}, 2); got != "0304" {
		t.Errorf("got %s", got)
	}
	if got := HexTail([]byte{0xab}, 64); got != "ab" {
		t.Errorf("got %s", got)
	}
}

func TestTimerWrapper(t *testing.T) {
	tw := NewTimerWrapper(time.Hour)
	if tw.GetTimeoutCh() != nil {
		t.Error("stopped timer should expose a nil channel")
	}
	tw.Reset(5 * time.Millisecond)
	select {
	case <-tw.GetTimeoutCh():
		tw.Fired()
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	if !tw.IsStopped() {
		t.Error("expected stopped after fire")
	}
}

func TestPrintable(t *testing.T) {
	if s := ToPrintableString([]byte{'h', 'i', 0x00}); s != "hi." {
		t.Errorf("got %q", s)
	}
	if s := ToPrintableAndHexString([]byte{'h', 'i', 0x00}); s != "hi. [686900]" {
		t.Errorf("got %q", s)
	}

	var buf bytes.Buffer
	WriteHexDump(&buf, []byte("0123456789abcdefXY\x01"))
	expected := "00000000  30 31 32 33 34 35 36 37 38 39 61 62 63 64 65 66  |0123456789abcdef|\n" +
		"00000010  58 59 01                                         |XY.|\n"
	if buf.String() != expected {
		t.Errorf("hex dump\n%s\nexpected\n%s", buf.String(), expected)
	}
}
