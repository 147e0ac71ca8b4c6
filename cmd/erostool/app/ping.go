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
	"context"
	"fmt"
	"os"
	"time"

	"eros/pkg/rsp"
	"eros/pkg/transport"
	"eros/pkg/util"
)

const (
	kPlacementChannel = "channel"
	kPlacementStream  = "stream"
)

type cmdPingT struct {
	erosCommandT
	optChannel   int
	optCount     int
	optInterval  time.Duration
	optPlacement string
	optNoAck     bool
	optWait      time.Duration
	payload      []byte
}

func (c *cmdPingT) Init(name string, desc string) {
	c.erosCommandT.Init(name, desc)
	c.IntOption(&c.optChannel, "ch|channel", kDefaultChannel, "channel carrying the reliability layer")
	c.IntOption(&c.optCount, "n", 10, "number of requests")
	c.DurationOption(&c.optInterval, "i|interval", 200*time.Millisecond, "pause between requests")
	c.StringOption(&c.optPlacement, "placement", kPlacementChannel,
		"channel: frames ride on an eros channel. stream: frames are COBS framed directly on the transport")
	c.BoolOption(&c.optNoAck, "noack", false, "send without requesting acknowledgements")
	c.DurationOption(&c.optWait, "w|wait", 2*time.Second, "how long to wait for the transport to connect")
	c.SetSynopsis("[option] [<payload>]")
	c.AddExample("erostool ping -o Transport.TCP.Addr=127.0.0.1:9000 -ch 2 -n 100", "100 requests against 'erostool listen -rsp 2'")
}

func (c *cmdPingT) Parse(args []string) (err error) {
	if err = c.erosCommandT.Parse(args); err != nil {
		return
	}
	c.payload = []byte("ping")
	if c.NArg() > 0 {
		c.payload = []byte(c.Arg(0))
	}
	if c.optPlacement != kPlacementChannel && c.optPlacement != kPlacementStream {
		err = fmt.Errorf("unknown placement %q", c.optPlacement)
	}
	return
}

func (c *cmdPingT) openPort() (port rsp.Port, closeFn func() error, err error) {
	if c.optPlacement == kPlacementStream {
		var t transport.Transport
		if t, err = transport.Open(&c.conf.Transport, transport.NewRegistry()); err != nil {
			return
		}
		if !t.WaitForState(transport.CONNECTED, c.optWait) {
			t.Close()
			return nil, nil, fmt.Errorf("transport not connected within %s", c.optWait)
		}
		p := rsp.NewPacketizer(t)
		return p, p.Close, nil
	}

	e, err := c.openEros(c.conf.AppName, transport.NewRegistry())
	if err != nil {
		return
	}
	if !e.WaitForState(transport.CONNECTED, c.optWait) {
		e.Close()
		return nil, nil, fmt.Errorf("transport not connected within %s", c.optWait)
	}
	p, err := rsp.NewChannelPort(e, c.optChannel)
	if err != nil {
		e.Close()
		return
	}
	return p, e.Close, nil
}

func (c *cmdPingT) Exec() error {
	ctx, cancel := c.setUp()
	defer cancel()
	defer c.tearDown()

	port, closeFn, err := c.openPort()
	if err != nil {
		return err
	}
	defer closeFn()

	link := rsp.NewLink(port, &c.conf.Reliability)
	for i := 0; i < c.optCount && ctx.Err() == nil; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(c.optInterval):
			}
		}
		start := time.Now()
		resp, err := link.Send(ctx, c.payload, !c.optNoAck)
		switch {
		case err == context.Canceled:
		case err != nil:
			fmt.Printf("seq %d: %s\n", i+1, err)
		case resp.OK:
			fmt.Printf("seq %d: ok %s time=%s\n", i+1, util.ToPrintableAndHexString(resp.Data), time.Since(start).Round(time.Microsecond))
		default:
			fmt.Printf("seq %d: nack %s time=%s\n", i+1, util.ToPrintableAndHexString(resp.Data), time.Since(start).Round(time.Microsecond))
		}
	}

	counters := link.Counters()
	fmt.Printf("\n%d sent, %d acked, %d nacked, %d timed out, %d dropped\n",
		counters.Sent, counters.Acked, counters.Nacked, counters.TimedOut, counters.Dropped)
	if !c.optNoAck {
		link.LatencyStats().PrettyPrint(os.Stdout)
	}
	return nil
}
