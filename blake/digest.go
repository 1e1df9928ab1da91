// Copyright 2026 RetailNext, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blake

import (
	"crypto/md5"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
	"golang.org/x/crypto/blake2b"
)

const (
	digestLength = blake2b.Size256
	textPrefix   = "blake2b-"
)

// Digest identifies the content of an uploaded grade image.
type Digest [digestLength]byte

var ErrInvalidDigest = errors.New("blake: invalid digest")

func Sum(body []byte) Digest {
	return blake2b.Sum256(body)
}

// ContentMD5 is the value for a Content-MD5 header over body.
func ContentMD5(body []byte) string {
	sum := md5.Sum(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) String() string {
	return textPrefix + base64.RawURLEncoding.EncodeToString(d[:])
}

func Parse(text string) (Digest, error) {
	var d Digest
	if !strings.HasPrefix(text, textPrefix) {
		return d, ErrInvalidDigest
	}
	data, err := base64.RawURLEncoding.DecodeString(text[len(textPrefix):])
	if err != nil {
		return d, err
	}
	if len(data) != digestLength {
		return d, ErrInvalidDigest
	}
	copy(d[:], data)
	return d, nil
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Digest) MarshalEasyJSON(w *jwriter.Writer) {
	w.String(d.String())
}

func (d *Digest) UnmarshalEasyJSON(in *jlexer.Lexer) {
	parsed, err := Parse(in.String())
	if err != nil {
		in.AddError(err)
		return
	}
	*d = parsed
}
