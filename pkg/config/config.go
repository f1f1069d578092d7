// Package config loads YAML configuration files and applies environment
// variable overrides declared through `env` struct tags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads a YAML file into out, expanding ${VAR} references first,
// then applies `env` tag overrides.
func Load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), out); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	ApplyEnv(out)
	return nil
}

// LoadOrDefault behaves like Load but leaves out untouched (apart from env
// overrides) when the file does not exist.
func LoadOrDefault(path string, out any) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		ApplyEnv(out)
		return nil
	}
	return Load(path, out)
}

// ApplyEnv walks v (a pointer to a struct) and overwrites every field whose
// `env` tag names a set environment variable. Nested structs are visited.
// Values that fail to parse are ignored.
func ApplyEnv(v any) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := val.Field(i)

		if fieldVal.Kind() == reflect.Struct {
			if fieldVal.CanAddr() {
				ApplyEnv(fieldVal.Addr().Interface())
			}
			continue
		}

		envTag := field.Tag.Get("env")
		if envTag == "" || !fieldVal.CanSet() {
			continue
		}
		envVal, ok := os.LookupEnv(envTag)
		if !ok {
			continue
		}
		setField(fieldVal, envVal)
	}
}

func setField(fieldVal reflect.Value, envVal string) {
	if fieldVal.Type() == durationType {
		if d, err := time.ParseDuration(envVal); err == nil {
			fieldVal.SetInt(int64(d))
		}
		return
	}

	switch fieldVal.Kind() {
	case reflect.String:
		fieldVal.SetString(envVal)
	case reflect.Int, reflect.Int64:
		if n, err := strconv.ParseInt(strings.TrimSpace(envVal), 10, 64); err == nil {
			fieldVal.SetInt(n)
		}
	case reflect.Float64:
		if f, err := strconv.ParseFloat(strings.TrimSpace(envVal), 64); err == nil {
			fieldVal.SetFloat(f)
		}
	case reflect.Bool:
		fieldVal.SetBool(strings.EqualFold(envVal, "true") || envVal == "1")
	case reflect.Slice:
		if fieldVal.Type().Elem().Kind() != reflect.String {
			return
		}
		parts := SplitList(envVal)
		out := reflect.MakeSlice(fieldVal.Type(), len(parts), len(parts))
		for i, p := range parts {
			out.Index(i).SetString(p)
		}
		fieldVal.Set(out)
	}
}

// SplitList splits a comma-separated list, trimming blanks and dropping
// empty entries.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
