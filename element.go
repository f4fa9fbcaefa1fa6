package ringbuffer

import (
	"fmt"
	"reflect"
)

// checkElement rejects element types whose bytes cannot stand in for the
// value: anything holding a pointer, directly or through a field or array.
// Such values would be invisible to the garbage collector once stored in
// the ring, and meaningless to another process.
func checkElement[T any]() error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if err := plainData(t); err != nil {
		return fmt.Errorf("element type %s is not plain data: %w", t, err)
	}
	return nil
}

func plainData(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		return plainData(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if err := plainData(f.Type); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		return nil
	}
	return fmt.Errorf("%s is a reference kind", t.Kind())
}
