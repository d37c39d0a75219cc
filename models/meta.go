package models

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// GetSchema will get the database schema from a struct
func GetSchema(v interface{}) []string {
	var schema []string
	ty := reflect.TypeOf(v)
	if ty.Kind() == reflect.Ptr {
		ty = ty.Elem()
	}
Outer:
	for i := 0; i < ty.NumField(); i++ {
		fld := ty.Field(i)
		var tag string
		for _, t := range []string{"db", "json"} {
			tag = fld.Tag.Get(t)
			if tag == "-" {
				continue Outer
			}
			if tag != "" {
				break
			}
		}
		if tag != "" {
			schema = append(schema, tag)
		} else {
			schema = append(schema, fld.Name)
		}
	}
	return schema
}

// GetNamedSchema will return a table schema with the named columns
func GetNamedSchema(tableName string, v interface{}) []string {
	schema := GetSchema(v)
	for i := range schema {
		schema[i] = tableName + "." + schema[i]
	}
	return schema
}

// Columns returns the table schema of v as a slice of
// interfaces so it can be passed to a select statement.
func Columns(tableName string, v interface{}) []interface{} {
	schema := GetNamedSchema(tableName, v)
	cols := make([]interface{}, len(schema))
	for i, c := range schema {
		cols[i] = c
	}
	return cols
}

// ToCSVRow converts a flat struct to a slice of strings on order
func ToCSVRow(v interface{}) ([]string, error) {
	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Ptr:
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot convert %s to a csv row", val.Kind())
	}
	typ := val.Type()
	var (
		row []string
		s   string
	)
	for i := 0; i < val.NumField(); i++ {
		f := val.Field(i)
		feildType := typ.Field(i)
		if feildType.Tag.Get("db") == "-" || feildType.Tag.Get("csv") == "-" {
			continue
		}

	KindCheck:
		switch f.Kind() {
		case reflect.Ptr:
			if f.IsNil() {
				s = ""
				break
			}
			f = f.Elem()
			goto KindCheck
		case reflect.String:
			s = f.String()
		case reflect.Int, reflect.Int32, reflect.Int64:
			s = strconv.FormatInt(f.Int(), 10)
		case reflect.Bool:
			s = strconv.FormatBool(f.Bool())
		case reflect.Struct:
			switch itval := f.Interface().(type) {
			case sql.NullString:
				s = itval.String
			case sql.NullInt64:
				if itval.Valid {
					s = strconv.FormatInt(itval.Int64, 10)
				} else {
					s = ""
				}
			default:
				return nil, errors.New("cannot handle this struct")
			}
		default:
			return nil, fmt.Errorf("cannot handle field kind %s", f.Kind())
		}
		row = append(row, s)
	}
	return row, nil
}
