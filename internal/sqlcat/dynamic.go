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

	"github.com/go-dbfs/dbfs/internal/model"
)

// Write builds an upsert for a contiguous run of blocks, one VALUES tuple per
// block, with ON DUPLICATE KEY UPDATE so overlapping writes to existing
// blocks behave as an overwrite rather than a duplicate-key error. blocks
// must be non-empty; the caller (the Translation Layer) never calls this
// with zero blocks.
func Write(blocks []model.Block) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO `block` (`inode_id`, `block_id`, `data`) VALUES ")

	args := make([]any, 0, len(blocks)*3)
	for i, blk := range blocks {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, blk.InodeID, blk.BlockID, blk.Data)
	}
	b.WriteString(" ON DUPLICATE KEY UPDATE `data` = VALUES(`data`)")
	return b.String(), args
}

// PadUntil inserts zero-filled full blocks for every block_id in
// [start, until), used to extend a file up to but not including a final
// partial block. Returns ("", nil) when the range is empty.
func PadUntil(inode uint32, start, until uint32) (string, []any) {
	if until <= start {
		return "", nil
	}

	zero := make([]byte, FileBlockSize)
	var b strings.Builder
	b.WriteString("INSERT INTO `block` (`inode_id`, `block_id`, `data`) VALUES ")

	args := make([]any, 0, int(until-start)*3)
	for id := start; id < until; id++ {
		if id > start {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, inode, id, zero)
	}
	b.WriteString(" ON DUPLICATE KEY UPDATE `data` = VALUES(`data`)")
	return b.String(), args
}

// PadFile inserts n zero-filled full blocks starting right after lastID,
// used by resize/write to extend a file by whole blocks before the aligned
// tail is written. Returns ("", nil) when n is zero.
func PadFile(inode uint32, lastID uint32, n uint32) (string, []any) {
	if n == 0 {
		return "", nil
	}
	return PadUntil(inode, lastID+1, lastID+1+n)
}
