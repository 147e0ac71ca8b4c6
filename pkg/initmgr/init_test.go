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


package initmgr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initNoop(...interface{}) error {
	return nil
}

type recorder struct {
	events []string
}

func (r *recorder) initializer(name string, fail bool) IInitializer {
	return &Initializer{
		name: name,
		InitializeFunc: func(args ...interface{}) error {
			r.events = append(r.events, fmt.Sprintf("init %s %v", name, args))
			if fail {
				return fmt.Errorf("%s failed", name)
			}
			return nil
		},
		FinalizeFunc: func() {
			r.events = append(r.events, "finalize "+name)
		},
	}
}

func TestRunAndFinalizeOrder(t *testing.T) {
	Reset()
	defer Reset()

	r := &recorder{}
	Register(r.initializer("log", false), "info", "erostool")
	Register(r.initializer("otel", false))
	RegisterWithWeight(r.initializer("config", false), -1)

	require.NoError(t, Run())
	require.NoError(t, Run())
	Finalize()
	Finalize()

	assert.Equal(t, []string{
		"init config []",
		"init log [info erostool]",
		"init otel []",
		"finalize otel",
		"finalize log",
		"finalize config",
	}, r.events)
}

func TestRunFailureFinalizesEarlierEntries(t *testing.T) {
	Reset()
	defer Reset()

	r := &recorder{}
	Register(r.initializer("log", false))
	Register(r.initializer("otel", true))
	Register(r.initializer("never", false))

	err := Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "otel failed")
	Finalize()
	assert.Equal(t, []string{"init log []", "init otel []", "finalize log"}, r.events)
}

func TestNewInitializerName(t *testing.T) {
	i := NewInitializer(initNoop, nil)
	assert.Equal(t, "eros/pkg/initmgr", i.Name())
	assert.NoError(t, i.Initialize())
	i.Finalize()
	assert.Equal(t, "unknown package", NewInitializer(nil, nil).Name())
}
