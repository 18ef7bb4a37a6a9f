// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// LoadParameters overlays the TOML file on a copy of base and validates the result.
// Keys absent from the file keep base's values. base is never modified.
func LoadParameters(file string, base *ParameterSet) (*ParameterSet, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := DecodeParameters(bufio.NewReader(f), base)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return p, err
}

// DecodeParameters overlays TOML read from r on a copy of base and validates the result.
func DecodeParameters(r io.Reader, base *ParameterSet) (*ParameterSet, error) {
	p := base.clone()
	if err := tomlSettings.NewDecoder(r).Decode(p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// DumpParameters writes the parameter set as TOML.
func DumpParameters(w io.Writer, p *ParameterSet) error {
	out, err := tomlSettings.Marshal(p)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
