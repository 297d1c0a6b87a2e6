package common

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// MarshalCanonical encodes v as canonical JSON: map keys are sorted so that
// equal values always produce equal bytes.
func MarshalCanonical(v interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// UnmarshalCanonical decodes data produced by MarshalCanonical into v.
func UnmarshalCanonical(data []byte, v interface{}) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(v)
}
