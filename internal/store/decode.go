package store

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// decodeValue turns a raw settings value (maps/slices from JSON or from Set) into out.
func decodeValue(key string, input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, key, err)
	}
	return nil
}
