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


package app

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"time"

	"eros/pkg/eros"
	"eros/pkg/stats"
	"eros/pkg/transport"
	"eros/pkg/util"
	"eros/third_party/forked/golang/glog"
)

type cmdLoopbackT struct {
	erosCommandT
	optChannel  int
	optCount    int
	optSize     int
	optMaxChunk int
	optCorrupt  int
	optDump     bool
	optTimeout  time.Duration
}

func (c *cmdLoopbackT) Init(name string, desc string) {
	c.erosCommandT.Init(name, desc)
	c.IntOption(&c.optChannel, "ch|channel", kDefaultChannel, "channel to send on")
	c.IntOption(&c.optCount, "n", 100, "number of packets")
	c.IntOption(&c.optSize, "size", 32, "payload size in bytes")
	c.IntOption(&c.optMaxChunk, "max-chunk", 7, "largest chunk the simulated line delivers at once")
	c.IntOption(&c.optCorrupt, "corrupt", 0, "every n-th packet gets a flipped byte on the wire, 0 disables")
	c.BoolOption(&c.optDump, "dump", false, "hex dump the discarded bytes")
	c.DurationOption(&c.optTimeout, "t|timeout", 5*time.Second, "how long to wait for the packets to arrive")
	c.SetSynopsis("[option]")
	c.AddExample("erostool loopback -n 1000 -corrupt 10", "send 1000 packets over a chunking pipe, corrupting every 10th")
}

func (c *cmdLoopbackT) Exec() error {
	ctx, cancel := c.setUp()
	defer cancel()
	defer c.tearDown()

	reg := transport.NewRegistry()
	pipeConf := transport.PipeConfig{MaxChunk: c.optMaxChunk, Seed: time.Now().UnixNano()}
	ta := reg.Open("loopback", transport.SideA, pipeConf)
	tb := reg.Open("loopback", transport.SideB, pipeConf)

	a := eros.New(ta, &eros.Config{Name: "a"})
	b := eros.New(tb, &eros.Config{Name: "b"})
	defer a.Close()
	defer b.Close()

	received := make(chan []byte, c.optCount)
	if err := b.Attach(c.optChannel, eros.ChannelHandlerFunc(func(p []byte) {
		received <- append([]byte(nil), p...)
	})); err != nil {
		return err
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	sent := make([][]byte, 0, c.optCount)
	for i := 1; i <= c.optCount; i++ {
		payload := make([]byte, c.optSize)
		rnd.Read(payload)
		if c.optCorrupt > 0 && i%c.optCorrupt == 0 {
			wire, err := a.Encode(c.optChannel, payload)
			if err != nil {
				return err
			}
			wire[rnd.Intn(len(wire)-1)] ^= 0x5a
			if err = ta.Write(wire); err != nil {
				return err
			}
			continue
		}
		if err := a.Transmit(c.optChannel, payload); err != nil {
			return err
		}
		sent = append(sent, payload)
	}

	var matched, mismatched int
	deadline := time.After(c.optTimeout)
loop:
	for matched+mismatched < len(sent) {
		select {
		case p := <-received:
			if bytes.Equal(p, sent[matched+mismatched]) {
				matched++
			} else {
				mismatched++
			}
		case <-deadline:
			glog.Warningf("timed out with %d of %d packets received", matched+mismatched, len(sent))
			break loop
		case <-ctx.Done():
			break loop
		}
	}

	fmt.Printf("\nsent %d packets, %d intact, %d mismatched, %d discarded at the receiver\n",
		c.optCount, matched, mismatched, b.DiscardCount())
	stats.PrintRateTable(os.Stdout, b.RateRows())
	if c.optDump {
		util.WriteHexDump(os.Stdout, b.DrainDiscarded())
	} else {
		b.LogDiscarded()
	}
	if matched != len(sent) {
		return fmt.Errorf("%d of %d packets were lost", len(sent)-matched, len(sent))
	}
	return nil
}
