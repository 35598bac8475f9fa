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
)

// TestStatementPlaceholderArity pins the number of `?` placeholders each
// named statement binds, so a statement edit that changes its arity breaks
// loudly here instead of at runtime.
func TestStatementPlaceholderArity(t *testing.T) {
	cases := []struct {
		name string
		stmt string
		want int
	}{
		{"GetInode", GetInode, 1},
		{"GetFileSize", GetFileSize, 1},
		{"GetSizeAndHead", GetSizeAndHead, 1},
		{"CountHardlinks", CountHardlinks, 1},
		{"CountChildrenDirs", CountChildrenDirs, 1},
		{"CountDirectoryChildren", CountDirectoryChildren, 1},
		{"ListDirectory", ListDirectory, 1},
		{"GetDirectoryParent", GetDirectoryParent, 1},
		{"LookupInodeID", LookupInodeID, 2},
		{"CreateInode", CreateInode, 7},
		{"CreateFile", CreateFile, 3},
		{"UpdateInode", UpdateInode, 10},
		{"RenameFile", RenameFile, 4},
		{"DeleteFile", DeleteFile, 2},
		{"DeleteInode", DeleteInode, 1},
		{"ReadFile", ReadFile, 3},
		{"GetFullBlocks", GetFullBlocks, 3},
		{"GetFileHead", GetFileHead, 1},
		{"TrimBlocks", TrimBlocks, 2},
		{"ResizeLastBlock", ResizeLastBlock, 3},
		{"PadLastBlock", PadLastBlock, 2},
		{"DropBlocks", DropBlocks, 1},
		{"GetFsStat", GetFsStat, 0},
		{"CreateRootInode", CreateRootInode, 6},
		{"CreateRootFile", CreateRootFile, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, strings.Count(c.stmt, "?"), c.name)
	}
}

func TestSizeQueriesReturnNothingForEmptyFiles(t *testing.T) {
	// An inode without blocks must yield zero rows, not a NULL bytes column.
	assert.Contains(t, GetFileSize, "WHERE blocks > 0")
	assert.Contains(t, GetSizeAndHead, "WHERE blocks > 0")
}

func TestTrimBlocksDropsFromTheTail(t *testing.T) {
	assert.Contains(t, TrimBlocks, "ORDER BY `block_id` DESC")
}

func TestListDirectoryOrdersByInode(t *testing.T) {
	assert.True(t, strings.HasSuffix(ListDirectory, "ORDER BY `inode_id`"))
}
