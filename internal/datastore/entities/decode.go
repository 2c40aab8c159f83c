package entities

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

var dateValueType = reflect.TypeOf(DateValue{})

// dateValueHook turns any stored date representation into a DateValue. Unparseable
// values decode as an invalid DateValue so the record is skipped rather than rejected.
func dateValueHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != dateValueType {
		return data, nil
	}
	dv, err := ParseDateValue(data)
	if err != nil {
		return DateValue{}, nil
	}
	return dv, nil
}

// Decode converts stored document fields into T.
func Decode[T any](data map[string]any) (*T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		DecodeHook:       dateValueHook,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(data); err != nil {
		return nil, fmt.Errorf("decode %T: %w", out, err)
	}
	return &out, nil
}
