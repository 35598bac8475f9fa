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

package sqlcat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-dbfs/dbfs/internal/model"
)

func TestWriteBuildsOneTuplePerBlock(t *testing.T) {
	blocks := []model.Block{
		{InodeID: 7, BlockID: 1, Data: []byte("aaaa")},
		{InodeID: 7, BlockID: 2, Data: []byte("bbbb")},
	}
	query, args := Write(blocks)

	assert.Equal(t, 2, strings.Count(query, "(?, ?, ?)"))
	assert.Contains(t, query, "ON DUPLICATE KEY UPDATE")
	require.Len(t, args, 6)
	assert.Equal(t, uint32(7), args[0])
	assert.Equal(t, uint32(1), args[1])
	assert.Equal(t, []byte("aaaa"), args[2])
	assert.Equal(t, uint32(2), args[4])
}

func TestPadUntilEmptyRange(t *testing.T) {
	query, args := PadUntil(1, 5, 5)
	assert.Empty(t, query)
	assert.Nil(t, args)

	query, args = PadUntil(1, 6, 5)
	assert.Empty(t, query)
	assert.Nil(t, args)
}

func TestPadUntilFillsZeroedFullBlocks(t *testing.T) {
	query, args := PadUntil(3, 1, 4)

	assert.Equal(t, 3, strings.Count(query, "(?, ?, ?)"))
	require.Len(t, args, 9)
	assert.Equal(t, uint32(1), args[1])
	assert.Equal(t, uint32(2), args[4])
	assert.Equal(t, uint32(3), args[7])
	data, ok := args[2].([]byte)
	require.True(t, ok)
	assert.Len(t, data, FileBlockSize)
	for _, byteVal := range data {
		assert.Equal(t, byte(0), byteVal)
	}
}

func TestPadFileZeroCount(t *testing.T) {
	query, args := PadFile(1, 4, 0)
	assert.Empty(t, query)
	assert.Nil(t, args)
}

func TestPadFileStartsAfterLastID(t *testing.T) {
	query, args := PadFile(2, 4, 2)
	assert.Equal(t, 2, strings.Count(query, "(?, ?, ?)"))
	require.Len(t, args, 6)
	assert.Equal(t, uint32(5), args[1])
	assert.Equal(t, uint32(6), args[4])
}
