// Copyright 2026 the dbfs authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package xlate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCeilDiv(t *testing.T) {
	cases := []struct {
		a, b, want uint64
	}{
		{0, 4096, 0},
		{1, 4096, 1},
		{4096, 4096, 1},
		{4097, 4096, 2},
		{8192, 4096, 2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ceilDiv(c.a, c.b))
	}
}

func TestErrorMessageSuggestsFsck(t *testing.T) {
	err := runtimeErr("no changes made")
	assert.Contains(t, err.Error(), "no changes made")
	assert.Contains(t, err.Error(), "consider running fsck")
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{dbErr(errors.New("boom")), DbConnectorError},
		{runtimeErr("x"), RuntimeError},
		{clientErr("x"), ClientError},
		{notFoundErr("x"), NotFoundError},
	}
	for _, c := range cases {
		var xerr *Error
		require.True(t, errors.As(c.err, &xerr))
		assert.Equal(t, c.kind, xerr.Kind)
	}
}

func TestDbErrUnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	assert.ErrorIs(t, dbErr(cause), cause)
}
