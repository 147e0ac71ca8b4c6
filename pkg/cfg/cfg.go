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


// Package cfg holds TOML configuration as a case-insensitive key/value tree
// so that command line overrides can be merged over a file before the result
// is decoded into a typed config struct.
package cfg

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"eros/third_party/forked/golang/glog"
)

type (
	// Config is not safe for concurrent use.
	Config struct {
		kvMap map[string]keyValue
	}

	// keyValue keeps the key as written next to its value. Nested tables are
	// map[string]keyValue keyed by the lower-cased key.
	keyValue struct {
		key   string
		value interface{}
	}
)

// ReadFrom loads the properties of i, a struct or a map.
func (c *Config) ReadFrom(i interface{}) error {
	var buf bytes.Buffer
	if i != nil {
		if err := toml.NewEncoder(&buf).Encode(i); err != nil {
			return err
		}
	}
	return c.ReadFromToml(&buf)
}

func (c *Config) ReadFromToml(r io.Reader) error {
	m := make(map[string]interface{})
	if _, err := toml.NewDecoder(r).Decode(&m); err != nil {
		return err
	}
	c.setFrom(m)
	return nil
}

func (c *Config) ReadFromTomlFile(file string) error {
	m := make(map[string]interface{})
	if _, err := toml.DecodeFile(file, &m); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	c.setFrom(m)
	return nil
}

func (c *Config) WriteToToml(w io.Writer) error {
	m := make(map[string]interface{})
	setMap(m, c.kvMap)
	return toml.NewEncoder(w).Encode(m)
}

// WriteTo decodes the properties into v, normally a pointer to a config
// struct.
func (c *Config) WriteTo(v interface{}) error {
	var buf bytes.Buffer
	if err := c.WriteToToml(&buf); err != nil {
		return err
	}
	_, err := toml.Decode(buf.String(), v)
	return err
}

// Merge copies the properties of overrides into c, replacing values of the
// same key. Keys compare case-insensitively.
func (c *Config) Merge(overrides *Config) error {
	if c.kvMap == nil {
		c.kvMap = make(map[string]keyValue)
	}
	return merge(c.kvMap, overrides.kvMap, "")
}

// WriteToKVList writes one key=value line per leaf, sorted by key.
func (c *Config) WriteToKVList(w io.Writer) {
	var lines []string
	for _, v := range c.kvMap {
		lines = appendKeyValue(lines, v.key, v)
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// GetValue returns the value of a dot-delimited key, nil if absent. Tables
// come back as map[string]interface{}.
func (c *Config) GetValue(dotDelimitedKey string) interface{} {
	return getValueFromMap(c.kvMap, strings.Split(dotDelimitedKey, "."))
}

func (c *Config) SetKeyValue(dotDelimitedKey string, v interface{}) error {
	keys := strings.Split(dotDelimitedKey, ".")
	leaf := keys[len(keys)-1]
	tree := map[string]keyValue{strings.ToLower(leaf): {leaf, v}}
	for i := len(keys) - 2; i >= 0; i-- {
		tree = map[string]keyValue{strings.ToLower(keys[i]): {keys[i], tree}}
	}
	if c.kvMap == nil {
		c.kvMap = make(map[string]keyValue)
	}
	return merge(c.kvMap, tree, "")
}

// SetOverride applies one "Dot.Delimited.Key=value" assignment. The value is
// taken as a bool, an integer or a float when it parses as one and as a
// string otherwise. Quotes force a string.
func (c *Config) SetOverride(assignment string) error {
	i := strings.IndexByte(assignment, '=')
	if i <= 0 {
		return fmt.Errorf("invalid override %q, want key=value", assignment)
	}
	key := strings.TrimSpace(assignment[:i])
	return c.SetKeyValue(key, parseValue(strings.TrimSpace(assignment[i+1:])))
}

func parseValue(s string) interface{} {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func appendKeyValue(lines []string, k string, v keyValue) []string {
	if vm, ok := v.value.(map[string]keyValue); ok {
		for _, sv := range vm {
			lines = appendKeyValue(lines, k+"."+sv.key, sv)
		}
		return lines
	}
	return append(lines, fmt.Sprintf("%s=%v", k, v.value))
}

func (c *Config) setFrom(m map[string]interface{}) {
	c.kvMap = make(map[string]keyValue)
	setKvMap(c.kvMap, m)
}

func merge(to, from map[string]keyValue, path string) error {
	for k, v := range from {
		fromMap, fromIsMap := v.value.(map[string]keyValue)
		toV, found := to[k]
		if !found {
			if fromIsMap {
				nmap := make(map[string]keyValue)
				to[k] = keyValue{v.key, nmap}
				if err := merge(nmap, fromMap, path+v.key+"."); err != nil {
					return err
				}
			} else {
				to[k] = v
			}
			continue
		}
		toMap, toIsMap := toV.value.(map[string]keyValue)
		switch {
		case toIsMap && fromIsMap:
			if err := merge(toMap, fromMap, path+toV.key+"."); err != nil {
				return err
			}
		case toIsMap != fromIsMap:
			return fmt.Errorf("%s%s: cannot replace a table with a value or a value with a table", path, toV.key)
		default:
			to[k] = keyValue{toV.key, v.value}
		}
	}
	return nil
}

func getValueFromMap(m map[string]keyValue, keys []string) interface{} {
	v, ok := m[strings.ToLower(keys[0])]
	if !ok {
		return nil
	}
	vm, isMap := v.value.(map[string]keyValue)
	if len(keys) == 1 {
		if isMap {
			out := make(map[string]interface{})
			setMap(out, vm)
			return out
		}
		return v.value
	}
	if !isMap {
		return nil
	}
	return getValueFromMap(vm, keys[1:])
}

func setKvMap(to map[string]keyValue, from map[string]interface{}) {
	for k, v := range from {
		lkey := strings.ToLower(k)
		if _, found := to[lkey]; found {
			glog.Warningf("config key %s appears more than once, skipped", k)
			continue
		}
		if vm, ok := v.(map[string]interface{}); ok {
			kvmap := make(map[string]keyValue)
			to[lkey] = keyValue{k, kvmap}
			setKvMap(kvmap, vm)
		} else {
			to[lkey] = keyValue{k, v}
		}
	}
}

func setMap(to map[string]interface{}, from map[string]keyValue) {
	for _, v := range from {
		if vm, ok := v.value.(map[string]keyValue); ok {
			nmap := make(map[string]interface{})
			to[v.key] = nmap
			setMap(nmap, vm)
		} else {
			to[v.key] = v.value
		}
	}
}
