// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package settings

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
)

const (
	tagKey       = "settings"
	tagEncrypted = "encrypted"
)

// defaultEncoding matches encoding/json output so payloads written by other
// tools decode the same way.
var defaultEncoding = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}

// fieldFailure travels on Stream.Attachment and Iterator.Attachment.
// jsoniter flattens errors raised inside struct fields into strings, so the
// first failure is parked there and turned into a typed error once the
// outermost read or write returns.
type fieldFailure struct {
	field         string
	err           error
	missingCipher bool
}

func (f *fieldFailure) Error() string {
	if f.missingCipher {
		return fmt.Sprintf("field %s: %v", f.field, ErrCipherNotConfigured)
	}
	return fmt.Sprintf("field %s: %v", f.field, f.err)
}

// fieldCodec encrypts and decrypts single struct fields. It is shared by
// all encoders and decoders created for one frozen jsoniter config.
type fieldCodec struct {
	cipher Cipher
	api    jsoniter.API
}

func newFieldCodec(cfg jsoniter.Config, cipher Cipher) *fieldCodec {
	codec := &fieldCodec{cipher: cipher, api: cfg.Froze()}
	codec.api.RegisterExtension(&encryptionExtension{codec: codec})
	return codec
}

type encryptionExtension struct {
	jsoniter.DummyExtension
	codec *fieldCodec
}

func (x *encryptionExtension) UpdateStructDescriptor(desc *jsoniter.StructDescriptor) {
	for _, binding := range desc.Fields {
		if !encryptedTag(binding.Field.Tag()) {
			continue
		}
		typ := binding.Field.Type()
		name := binding.Field.Name()
		binding.Encoder = &encryptedEncoder{field: name, typ: typ, inner: binding.Encoder, codec: x.codec}
		binding.Decoder = &encryptedDecoder{field: name, typ: typ, inner: binding.Decoder, codec: x.codec}
	}
}

func encryptedTag(tag reflect.StructTag) bool {
	v, ok := tag.Lookup(tagKey)
	if !ok {
		return false
	}
	for opt := range strings.SplitSeq(v, ",") {
		if strings.TrimSpace(opt) == tagEncrypted {
			return true
		}
	}
	return false
}

type encryptedEncoder struct {
	field string
	typ   reflect2.Type
	inner jsoniter.ValEncoder
	codec *fieldCodec
}

func (e *encryptedEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return e.inner.IsEmpty(ptr)
}

func (e *encryptedEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	if isNilValue(e.typ, ptr) {
		stream.WriteNil()
		return
	}
	if e.codec.cipher == nil {
		failStream(stream, &fieldFailure{field: e.field, missingCipher: true})
		stream.WriteNil()
		return
	}
	plaintext, err := e.plaintext(ptr)
	if err != nil {
		failStream(stream, asFieldFailure(e.field, err))
		stream.WriteNil()
		return
	}
	ciphertext, err := e.codec.cipher.Encrypt(plaintext)
	if err != nil {
		failStream(stream, &fieldFailure{field: e.field, err: err})
		stream.WriteNil()
		return
	}
	stream.WriteString(ciphertext)
}

// plaintext is the value's own JSON encoding, except for strings and
// string pointers which are taken verbatim.
func (e *encryptedEncoder) plaintext(ptr unsafe.Pointer) (string, error) {
	switch stringForm(e.typ) {
	case directString:
		return *(*string)(ptr), nil
	case pointerString:
		return **(**string)(ptr), nil
	}
	sub := e.codec.api.BorrowStream(nil)
	defer e.codec.api.ReturnStream(sub)
	e.inner.Encode(ptr, sub)
	if err := writeErr(sub); err != nil {
		return "", err
	}
	return string(sub.Buffer()), nil
}

type encryptedDecoder struct {
	field string
	typ   reflect2.Type
	inner jsoniter.ValDecoder
	codec *fieldCodec
}

func (d *encryptedDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		d.typ.UnsafeSet(ptr, d.typ.UnsafeNew())
		return
	case jsoniter.StringValue:
	default:
		iter.Skip()
		failIter(iter, &fieldFailure{field: d.field, err: errors.New("encrypted value is not a string")})
		return
	}

	ciphertext := iter.ReadString()
	if iter.Error != nil && iter.Error != io.EOF {
		return
	}
	if d.codec.cipher == nil {
		failIter(iter, &fieldFailure{field: d.field, missingCipher: true})
		return
	}
	plaintext, err := d.codec.cipher.Decrypt(ciphertext)
	if err != nil {
		failIter(iter, &fieldFailure{field: d.field, err: err})
		return
	}

	switch stringForm(d.typ) {
	case directString:
		*(*string)(ptr) = plaintext
		return
	case pointerString:
		s := plaintext
		*(**string)(ptr) = &s
		return
	}
	d.typ.UnsafeSet(ptr, d.typ.UnsafeNew())
	sub := d.codec.api.BorrowIterator([]byte(plaintext))
	defer d.codec.api.ReturnIterator(sub)
	d.inner.Decode(ptr, sub)
	if err := readErr(sub); err != nil {
		failIter(iter, asFieldFailure(d.field, err))
	}
}

type stringShape int

const (
	notString stringShape = iota
	directString
	pointerString
)

// stringForm reports whether typ is a string kind or a single pointer to
// one. Both are encrypted as the raw text.
func stringForm(typ reflect2.Type) stringShape {
	t := typ.Type1()
	switch {
	case t.Kind() == reflect.String:
		return directString
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.String:
		return pointerString
	}
	return notString
}

func isNilValue(typ reflect2.Type, ptr unsafe.Pointer) bool {
	switch typ.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return typ.UnsafeIsNil(ptr)
	}
	return false
}

// asFieldFailure keeps a failure from a nested encrypted field as is, so
// the innermost field name and a missing cipher are reported faithfully.
func asFieldFailure(field string, err error) *fieldFailure {
	var f *fieldFailure
	if errors.As(err, &f) {
		return f
	}
	return &fieldFailure{field: field, err: err}
}

func failStream(stream *jsoniter.Stream, f *fieldFailure) {
	if stream.Attachment == nil {
		stream.Attachment = f
	}
	if stream.Error == nil {
		stream.Error = f
	}
}

func failIter(iter *jsoniter.Iterator, f *fieldFailure) {
	if iter.Attachment == nil {
		iter.Attachment = f
	}
	iter.ReportError("settings", f.Error())
}

func writeErr(stream *jsoniter.Stream) error {
	if f, ok := stream.Attachment.(*fieldFailure); ok {
		return f
	}
	return stream.Error
}

// readErr reports the outcome of a complete read, including bytes left
// over after the value.
func readErr(iter *jsoniter.Iterator) error {
	if f, ok := iter.Attachment.(*fieldFailure); ok {
		return f
	}
	if iter.Error != nil && iter.Error != io.EOF {
		return iter.Error
	}
	if iter.WhatIsNext() != jsoniter.InvalidValue {
		return errors.New("unexpected data after value")
	}
	return nil
}

func (c *fieldCodec) marshal(v any) (string, error) {
	stream := c.api.BorrowStream(nil)
	defer c.api.ReturnStream(stream)
	stream.WriteVal(v)
	if err := writeErr(stream); err != nil {
		return "", err
	}
	return string(stream.Buffer()), nil
}

func (c *fieldCodec) unmarshal(data string, v any) error {
	if strings.TrimSpace(data) == "" {
		return errors.New("empty payload")
	}
	iter := c.api.BorrowIterator([]byte(data))
	defer c.api.ReturnIterator(iter)
	iter.ReadVal(v)
	return readErr(iter)
}
