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

package proto

import (
	"eros/pkg/errors"
)

const maxCobsRun = 0xFF

// CobsEncode stuffs in so that the result holds no 0x00. The delimiter is not
// appended.
func CobsEncode(in []byte) []byte {
	out := make([]byte, 1, len(in)+len(in)/254+2)
	codeIdx := 0
	code := byte(1)

	for i, b := range in {
		if b != 0 {
			out = append(out, b)
			code++
		}
		if b == 0 || code == maxCobsRun {
			out[codeIdx] = code
			if b == 0 || i+1 < len(in) {
				codeIdx = len(out)
				out = append(out, 0)
				code = 1
			} else {
				codeIdx = -1
			}
		}
	}
	if codeIdx >= 0 {
		out[codeIdx] = code
	}
	return out
}

// CobsDecode reverses CobsEncode. An embedded 0x00 or a code byte pointing
// past the end yields ErrFraming.
func CobsDecode(in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in))
	i := 0
	for i < len(in) {
		code := in[i]
		if code == 0 {
			return nil, errors.ErrFraming
		}
		i++
		end := i + int(code) - 1
		if end > len(in) {
			return nil, errors.ErrFraming
		}
		for _, b := range in[i:end] {
			if b == 0 {
				return nil, errors.ErrFraming
			}
		}
		out = append(out, in[i:end]...)
		i = end
		if code < maxCobsRun && i < len(in) {
			out = append(out, 0)
		}
	}
	return out, nil
}
