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
	"fmt"
	"time"

	"eros/pkg/transport"
	"eros/third_party/forked/golang/glog"
)

type cmdSendT struct {
	erosCommandT
	optChannel  int
	optHex      bool
	optCount    int
	optInterval time.Duration
	optWait     time.Duration
	payload     []byte
}

func (c *cmdSendT) Init(name string, desc string) {
	c.erosCommandT.Init(name, desc)
	c.IntOption(&c.optChannel, "ch|channel", kDefaultChannel, "channel to send on")
	c.BoolOption(&c.optHex, "x|hex", false, "payload is hex encoded")
	c.IntOption(&c.optCount, "n", 1, "number of times to send the payload")
	c.DurationOption(&c.optInterval, "i|interval", 0, "pause between sends")
	c.DurationOption(&c.optWait, "w|wait", 2*time.Second, "how long to wait for the transport to connect")
	c.SetSynopsis("[option] <payload>")
	c.AddExample("erostool send -o Transport.TCP.Addr=127.0.0.1:9000 -ch 3 hello", "send hello on channel 3")
}

func (c *cmdSendT) Parse(args []string) (err error) {
	if err = c.erosCommandT.Parse(args); err != nil {
		return
	}
	if c.NArg() < 1 {
		return fmt.Errorf("missing payload")
	}
	c.payload, err = parsePayload(c.Arg(0), c.optHex)
	return
}

func (c *cmdSendT) Exec() error {
	ctx, cancel := c.setUp()
	defer cancel()
	defer c.tearDown()

	e, err := c.openEros(c.conf.AppName, transport.NewRegistry())
	if err != nil {
		return err
	}
	defer e.Close()
	if !e.WaitForState(transport.CONNECTED, c.optWait) {
		return fmt.Errorf("transport not connected within %s (state %s)", c.optWait, e.State())
	}

	for i := 0; i < c.optCount; i++ {
		if i > 0 && c.optInterval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.optInterval):
			}
		}
		if err = e.Transmit(c.optChannel, c.payload); err != nil {
			return err
		}
	}
	_, tx := e.Analytics(c.optChannel)
	glog.Infof("sent %d packets, %d bytes on channel %d", tx.Packets, tx.Total, c.optChannel)
	return nil
}
