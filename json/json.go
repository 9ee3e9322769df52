// Package json is the codec used across the host. It is backed by
// json-iterator in standard-library compatible mode and fills `default:"..."`
// struct tags (creasty/defaults) before encoding and decoding structs.
package json

import (
	"io"
	"reflect"

	"github.com/creasty/defaults"
	jsoniter "github.com/json-iterator/go"
)

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// RawMessage is a raw encoded JSON value.
type RawMessage = jsoniter.RawMessage

// applyDefaults only touches pointers to structs; maps, slices and scalars
// pass through untouched.
func applyDefaults(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil
	}
	return defaults.Set(v)
}

func Marshal(v any) ([]byte, error) {
	if err := applyDefaults(v); err != nil {
		return nil, err
	}
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	if err := applyDefaults(v); err != nil {
		return nil, err
	}
	return api.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	if err := applyDefaults(v); err != nil {
		return err
	}
	return api.Unmarshal(data, v)
}

// Encoder writes JSON values to a stream.
type Encoder struct {
	enc *jsoniter.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: api.NewEncoder(w)}
}

func (e *Encoder) Encode(v any) error {
	if err := applyDefaults(v); err != nil {
		return err
	}
	return e.enc.Encode(v)
}

// Decoder reads JSON values from a stream.
type Decoder struct {
	dec *jsoniter.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: api.NewDecoder(r)}
}

func (d *Decoder) Decode(v any) error {
	if err := applyDefaults(v); err != nil {
		return err
	}
	return d.dec.Decode(v)
}
