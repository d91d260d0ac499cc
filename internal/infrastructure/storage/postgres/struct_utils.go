package postgres

import (
	"reflect"
	"slices"
	"sync"
)

// ExtractDBColumns lists the "db" tags of T in field order, walking
// embedded structs. Fields tagged "-" or untagged are skipped.
//
//	cols := ExtractDBColumns[medicine.Medicine]()
//	// ["id", "shop_id", "name", ...]
func ExtractDBColumns[T any](omit ...string) []string {
	var zero T
	fields := fieldsOf(reflect.TypeOf(zero))
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		if slices.Contains(omit, f.column) {
			continue
		}
		cols = append(cols, f.column)
	}
	return cols
}

type dbField struct {
	index  []int
	column string
}

var fieldCache sync.Map // reflect.Type -> []dbField

// fieldsOf returns cached tag metadata, computed once per type.
func fieldsOf(t reflect.Type) []dbField {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]dbField)
	}

	var fields []dbField
	if t.Kind() == reflect.Struct {
		fields = collectFields(t, nil)
	}
	fieldCache.Store(t, fields)
	return fields
}

func collectFields(t reflect.Type, prefix []int) []dbField {
	var out []dbField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(slices.Clone(prefix), i)

		if f.Anonymous {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				out = append(out, collectFields(ft, index)...)
				continue
			}
		}

		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		out = append(out, dbField{index: index, column: tag})
	}
	return out
}

// StructToMap maps "db" column names to field values, for squirrel SetMap.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	fields := fieldsOf(rv.Type())
	res := make(map[string]any, len(fields))
	for _, f := range fields {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// StructValues returns v's values ordered as columns, for COPY rows.
func StructValues(v any, columns []string) []any {
	m := StructToMap(v)
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = m[c]
	}
	return row
}
