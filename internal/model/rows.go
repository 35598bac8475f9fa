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

package model

import "time"

// Inode is a row of the `inode` table.
type Inode struct {
	ID          uint32    `db:"id"`
	Owner       uint32    `db:"owner"`
	Group       uint32    `db:"group"`
	FileType    string    `db:"file_type"`
	SpecialBits uint8     `db:"special_bits"`
	UserPerm    uint8     `db:"user_perm"`
	GroupPerm   uint8     `db:"group_perm"`
	OtherPerm   uint8     `db:"other_perm"`
	AccessedAt  time.Time `db:"accessed_at"`
	ModifiedAt  time.Time `db:"modified_at"`
	CreatedAt   time.Time `db:"created_at"`
}

// Kind decodes the FileType this inode's file_type tag represents.
func (i Inode) Kind() FileType { return ParseFileType(i.FileType) }

// Permissions assembles this inode's packed permission bits.
func (i Inode) Permissions() Permissions {
	return Permissions{Special: i.SpecialBits, Owner: i.UserPerm, Group: i.GroupPerm, Other: i.OtherPerm}
}

// Block is a row of the `block` table.
type Block struct {
	InodeID uint32 `db:"inode_id"`
	BlockID uint32 `db:"block_id"`
	Data    []byte `db:"data"`
}

// FileSize is the result of GetFileSize: logical size in bytes and blocks.
type FileSize struct {
	Bytes  uint64 `db:"bytes"`
	Blocks uint64 `db:"blocks"`
}

// FileSizeAndHead is the result of sqlcat.GetSizeAndHead.
type FileSizeAndHead struct {
	Bytes       int64  `db:"bytes"`
	Blocks      int64  `db:"blocks"`
	LastBlockID uint32 `db:"last_block_id"`
}

// FileHead is the result of sqlcat.GetFileHead.
type FileHead struct {
	BlockCount  int64  `db:"bc"`
	LastBlockID uint32 `db:"last_block_id"`
}

// Hardlinks is the result of sqlcat.CountHardlinks.
type Hardlinks struct {
	Count int64 `db:"hardlinks"`
}

// ChildrenDirs is the result of sqlcat.CountChildrenDirs.
type ChildrenDirs struct {
	Count int64 `db:"children_dirs"`
}

// DirectoryChildren is the result of sqlcat.CountDirectoryChildren.
type DirectoryChildren struct {
	Count int64 `db:"children"`
}

// DirectoryListRow is one row of sqlcat.ListDirectory.
type DirectoryListRow struct {
	Name     string `db:"name"`
	InodeID  uint32 `db:"inode_id"`
	FileType string `db:"file_type"`
}

// DirectoryParentRow is the result of sqlcat.GetDirectoryParent.
type DirectoryParentRow struct {
	ParentInodeID uint32 `db:"parent_inode_id"`
}

// InodeLookupRow is the result of sqlcat.LookupInodeID.
type InodeLookupRow struct {
	InodeID uint32 `db:"inode_id"`
}

// FsStatRow is the result of sqlcat.GetFsStat.
type FsStatRow struct {
	UsedInodes int64 `db:"used_inodes"`
	UsedBlocks int64 `db:"used_blocks"`
}

// BlockDataRow is a single `data` column projection, used by sqlcat.ReadFile
// callers that only need the bytes (sqlcat.GetFullBlocks rows decode into
// Block).
type BlockDataRow struct {
	Data []byte `db:"data"`
}
