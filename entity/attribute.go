package entity

import (
	"database/sql"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Attributer lets an entity expose attributes by column name without
// relying on reflection.
type Attributer interface {
	Attribute(name string) (any, bool)
}

var nullInt64Type = reflect.TypeOf(sql.NullInt64{})

// Int64Attribute reads a numeric attribute (typically a foreign key) by column
// name. The column is matched against the field's bun tag, then against the
// snake_case field name. Nil pointers, invalid sql.NullInt64 values and zero
// identities report present == false.
func Int64Attribute(e any, column string) (value int64, present bool, err error) {
	if a, ok := e.(Attributer); ok {
		raw, ok := a.Attribute(column)
		if !ok {
			return 0, false, nil
		}
		return toInt64(reflect.ValueOf(raw), column)
	}

	rv := reflect.ValueOf(e)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return 0, false, fmt.Errorf("entity: nil entity reading %q", column)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return 0, false, fmt.Errorf("entity: cannot read %q from %s", column, rv.Type())
	}

	field, ok := findColumn(rv, column)
	if !ok {
		return 0, false, fmt.Errorf("entity: %s has no column %q", rv.Type(), column)
	}
	return toInt64(field, column)
}

func findColumn(rv reflect.Value, column string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.Anonymous && indirectType(sf.Type).Kind() == reflect.Struct {
			fv := rv.Field(i)
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if found, ok := findColumn(fv, column); ok {
				return found, true
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if columnName(sf) == column {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func columnName(sf reflect.StructField) string {
	if tag, ok := sf.Tag.Lookup("bun"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return Underscore(sf.Name)
}

func toInt64(v reflect.Value, column string) (int64, bool, error) {
	if !v.IsValid() {
		return 0, false, nil
	}
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return 0, false, nil
		}
		v = v.Elem()
	}

	if v.Type() == nullInt64Type {
		if !v.FieldByName("Valid").Bool() {
			return 0, false, nil
		}
		id := v.FieldByName("Int64").Int()
		return id, id != 0, nil
	}

	var id int64
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		id = v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, false, fmt.Errorf("entity: column %q value %d overflows int64", column, u)
		}
		id = int64(u)
	default:
		return 0, false, fmt.Errorf("entity: column %q is %s, not an identity", column, v.Type())
	}
	if id == 0 {
		return 0, false, nil
	}
	return id, true, nil
}
