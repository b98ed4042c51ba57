/*
Copyright 2025 The Antfly Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package jsonenc provides a configurable JSON encoding/decoding
// layer for the engine's reports, the referenced response payloads
// httpx decodes, and the request bodies the CLI transport sends
// (amos.Validate calls sonic directly, not through this layer). It
// defaults to github.com/bytedance/sonic for the throughput a
// fuzzing run's volume of request/response bodies needs, but the
// codec is swappable for encoding/json when exact stdlib number
// formatting matters (e.g. diffing a report against a golden file).
package jsonenc

import (
	"io"

	"github.com/bytedance/sonic"
)

// Config holds the JSON encoding/decoding functions the rest of the
// engine calls through.
type Config struct {
	Marshal         func(v any) ([]byte, error)
	MarshalIndent   func(v any, prefix, indent string) ([]byte, error)
	Unmarshal       func(data []byte, v any) error
	UnmarshalString func(s string, v any) error
	NewEncoder      func(w io.Writer) *sonic.Encoder
	NewDecoder      func(r io.Reader) *sonic.Decoder
}

// DefaultConfig returns the sonic-backed configuration.
func DefaultConfig() Config {
	api := sonic.ConfigDefault
	return Config{
		Marshal:         api.Marshal,
		MarshalIndent:   api.MarshalIndent,
		Unmarshal:       api.Unmarshal,
		UnmarshalString: sonic.UnmarshalString,
		NewEncoder:      sonic.ConfigDefault.NewEncoder,
		NewDecoder:      sonic.ConfigDefault.NewDecoder,
	}
}

var config = DefaultConfig()

// SetConfig overrides the global codec, e.g. to swap in
// encoding/json for a stdlib-exact diff.
func SetConfig(c Config) { config = c }

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) { return config.Marshal(v) }

// MarshalIndent is like Marshal but applies prefix/indent formatting,
// used for the human-readable report files (spec §6).
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return config.MarshalIndent(v, prefix, indent)
}

// Unmarshal parses JSON-encoded data into v.
func Unmarshal(data []byte, v any) error { return config.Unmarshal(data, v) }

// UnmarshalString parses a JSON-encoded string into v, used to decode
// a referenced operation's response payload during HTTP translation.
func UnmarshalString(s string, v any) error { return config.UnmarshalString(s, v) }
