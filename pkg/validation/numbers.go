// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package validation

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"

	"github.com/sanketshevkar/cicero/pkg/artifact"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
)

// MaxSafeInteger is the largest magnitude an integer can have and still be
// represented exactly by an IEEE 754 double, 2^53-1.
const MaxSafeInteger = 1<<53 - 1

// SafeIntegerValidator rejects integral numbers whose magnitude exceeds
// MaxSafeInteger anywhere in the data. The content hash canonicalizes
// numbers as doubles, so such integers would hash the same as a neighbour.
type SafeIntegerValidator struct{}

var _ Validator = SafeIntegerValidator{}

// Validate implements Validator.
func (SafeIntegerValidator) Validate(_ artifact.Template, data map[string]interface{}) error {
	return checkSafeIntegers("", data)
}

func checkSafeIntegers(path string, v interface{}) error {
	switch x := v.(type) {
	case map[string]interface{}:
		for k, e := range x {
			if err := checkSafeIntegers(path+"/"+k, e); err != nil {
				return err
			}
		}
	case []interface{}:
		for i, e := range x {
			if err := checkSafeIntegers(path+"/"+strconv.Itoa(i), e); err != nil {
				return err
			}
		}
	case int:
		return checkInt(path, big.NewInt(int64(x)))
	case int32:
		return checkInt(path, big.NewInt(int64(x)))
	case int64:
		return checkInt(path, big.NewInt(x))
	case uint:
		return checkInt(path, new(big.Int).SetUint64(uint64(x)))
	case uint32:
		return checkInt(path, new(big.Int).SetUint64(uint64(x)))
	case uint64:
		return checkInt(path, new(big.Int).SetUint64(x))
	case float64:
		return checkFloat(path, x)
	case float32:
		return checkFloat(path, float64(x))
	case json.Number:
		if i, ok := new(big.Int).SetString(x.String(), 10); ok {
			return checkInt(path, i)
		}
		if f, err := x.Float64(); err == nil {
			return checkFloat(path, f)
		}
	}
	return nil
}

var maxSafe = big.NewInt(MaxSafeInteger)

func checkInt(path string, i *big.Int) error {
	if new(big.Int).Abs(i).Cmp(maxSafe) > 0 {
		return unsafeInteger(path, i.String())
	}
	return nil
}

func checkFloat(path string, f float64) error {
	if f == math.Trunc(f) && math.Abs(f) > MaxSafeInteger && !math.IsInf(f, 0) {
		return unsafeInteger(path, big.NewFloat(f).Text('f', 0))
	}
	return nil
}

func unsafeInteger(path, value string) error {
	if path == "" {
		path = "/"
	}
	return errdefs.Newf(errdefs.ErrTypeSchemaMismatch,
		"integer %s at %s is outside the exactly representable range of +/-%d", value, path, int64(MaxSafeInteger))
}
