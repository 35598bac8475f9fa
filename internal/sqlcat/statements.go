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

// Package sqlcat is the Command Catalogue: every named, parameterised SQL
// statement the Translation Layer runs, plus the dynamic generators for
// row-count-dependent multi-row inserts. MySQL-flavoured SQL, bound with `?`
// placeholders in order.
package sqlcat

import "fmt"

// FileBlockSize must match config.FileBlockSize; it is inlined into a couple
// of statements at package init.
const FileBlockSize = 4096

// GetFileSize computes (bytes, blocks) for an inode. Files with no blocks
// produce no rows; the filter keeps the last-block-length subquery's NULL
// from leaking into the bytes column.
var GetFileSize = fmt.Sprintf(`
WITH ino AS (SELECT ? AS ino),
     file_tmp AS (SELECT COUNT(*) AS blocks FROM `+"`block`"+` WHERE `+"`inode_id`"+` = (SELECT ino FROM ino))
SELECT
    blocks * %[1]d - (
        SELECT %[1]d - OCTET_LENGTH(`+"`data`"+`) FROM `+"`block`"+`
        WHERE `+"`inode_id`"+` = (SELECT ino FROM ino) ORDER BY `+"`block_id`"+` DESC LIMIT 1
    ) AS bytes,
    blocks AS blocks
FROM file_tmp WHERE blocks > 0`, FileBlockSize)

// GetSizeAndHead computes (bytes, blocks, last_block_id). As with
// GetFileSize, files with no blocks produce no rows.
var GetSizeAndHead = fmt.Sprintf(`
WITH ino AS (SELECT ? AS ino),
     file_tmp AS (SELECT COUNT(*) AS blocks FROM `+"`block`"+` WHERE `+"`inode_id`"+` = (SELECT ino FROM ino))
SELECT
    blocks * %[1]d - (
        SELECT %[1]d - OCTET_LENGTH(`+"`data`"+`) FROM `+"`block`"+`
        WHERE `+"`inode_id`"+` = (SELECT ino FROM ino) ORDER BY `+"`block_id`"+` DESC LIMIT 1
    ) AS bytes,
    blocks AS blocks,
    IFNULL(
        (SELECT `+"`block_id`"+` FROM `+"`block`"+` WHERE `+"`inode_id`"+` = (SELECT ino FROM ino) ORDER BY `+"`block_id`"+` DESC LIMIT 1),
        CAST(0 AS UNSIGNED)
    ) AS last_block_id
FROM file_tmp WHERE blocks > 0`, FileBlockSize)

// CountChildrenDirs counts direct children of an inode whose target type is
// 'd', excluding the self-reference row.
const CountChildrenDirs = "WITH `ino` AS (SELECT ? AS `ino`) SELECT COUNT(*) AS `children_dirs` FROM `inode` WHERE `id` IN (SELECT `inode_id` FROM `file` WHERE `parent_inode_id` = (SELECT `ino` FROM `ino`)) AND `id` != (SELECT `ino` FROM `ino`) AND `file_type` = 'd'"

// CountHardlinks counts `file` rows pointing at an inode.
const CountHardlinks = "SELECT COUNT(*) AS `hardlinks` FROM `file` WHERE `inode_id` = ?"

// CountDirectoryChildren counts `file` rows with a given parent.
const CountDirectoryChildren = "SELECT COUNT(*) AS `children` FROM `file` WHERE `parent_inode_id` = ?"

// GetInode fetches one inode row.
const GetInode = "SELECT * FROM `inode` WHERE `id` = ?"

// UpdateInode rewrites all mutable inode attributes; binds owner, group,
// atime, mtime, ctime, special, user_perm, group_perm, other_perm, id.
const UpdateInode = "UPDATE `inode` SET `owner` = ?, `group` = ?, `accessed_at` = ?, `modified_at` = ?, `created_at` = ?, `special_bits` = ?, `user_perm` = ?, `group_perm` = ?, `other_perm` = ? WHERE `id` = ?"

// CreateInode inserts a new inode; binds owner, group, file_type, special,
// user_perm, group_perm, other_perm.
const CreateInode = "INSERT INTO `inode` (`owner`, `group`, `file_type`, `special_bits`, `user_perm`, `group_perm`, `other_perm`) VALUES (?, ?, ?, ?, ?, ?, ?)"

// CreateFile inserts one directory entry; binds parent_inode_id, name, inode_id.
const CreateFile = "INSERT INTO `file` (`parent_inode_id`, `name`, `inode_id`) VALUES (?, ?, ?)"

// ListDirectory lists children of a directory (excluding the self row)
// ordered by child inode id ascending.
const ListDirectory = "WITH `ino` AS (SELECT ? AS `ino`), `file_info` AS (SELECT `name`, `inode_id` FROM `file` WHERE `parent_inode_id` = (SELECT `ino` FROM `ino`) AND `inode_id` != (SELECT `ino` FROM `ino`)) SELECT `name` AS `name`, `inode_id`, (SELECT `file_type` FROM `inode` WHERE `id` = `file_info`.`inode_id`) AS `file_type` FROM `file_info` ORDER BY `inode_id`"

// GetDirectoryParent returns the parent inode id of a directory's own file row.
const GetDirectoryParent = "SELECT `parent_inode_id` FROM `file` WHERE `inode_id` = ?"

// LookupInodeID resolves a (name, parent) pair to a child inode id.
const LookupInodeID = "SELECT `inode_id` FROM `file` WHERE `name` = ? AND `parent_inode_id` = ?"

// GetFsStat counts live inodes and blocks.
const GetFsStat = "SELECT (SELECT COUNT(*) FROM `inode`) AS `used_inodes`, (SELECT COUNT(*) FROM `block`) AS `used_blocks`"

// RenameFile re-targets exactly one `file` row; binds dest_parent, dest_name,
// src_parent, src_name.
const RenameFile = "UPDATE `file` SET `parent_inode_id` = ?, `name` = ? WHERE `parent_inode_id` = ? AND `name` = ?"

// DeleteFile removes exactly one `file` row; binds name, parent_inode_id.
const DeleteFile = "DELETE FROM `file` WHERE `name` = ? AND `parent_inode_id` = ?"

// DeleteInode removes exactly one `inode` row; binds id.
const DeleteInode = "DELETE FROM `inode` WHERE `id` = ?"

// ReadFile returns block `data` ordered by block_id ascending; binds
// inode_id, max_blocks, offset_blocks.
const ReadFile = "SELECT `data` FROM `block` WHERE `inode_id` = ? ORDER BY `block_id` ASC LIMIT ? OFFSET ?"

// GetFullBlocks returns whole block rows ordered by block_id ascending;
// binds inode_id, max_blocks, offset_blocks.
const GetFullBlocks = "SELECT * FROM `block` WHERE `inode_id` = ? ORDER BY `block_id` ASC LIMIT ? OFFSET ?"

// GetFileHead returns (block_count, last_block_id) with the latter
// null-coalesced to 0; binds inode_id.
const GetFileHead = "WITH `ino` AS (SELECT ? AS `ino`) SELECT COUNT(*) AS `bc`, IFNULL((SELECT `block_id` FROM `block` WHERE `inode_id` = (SELECT `ino` FROM `ino`) ORDER BY `block_id` DESC LIMIT 1), CAST(0 AS UNSIGNED)) AS `last_block_id` FROM `block` WHERE `inode_id` = (SELECT `ino` FROM `ino`)"

// TrimBlocks deletes the n blocks with the largest block_id; binds
// inode_id, n.
const TrimBlocks = "DELETE FROM `block` WHERE `inode_id` = ? ORDER BY `block_id` DESC LIMIT ?"

// ResizeLastBlock sets the last block's data to its first truncate_to bytes,
// right-padded with NULs to length pad_to; binds truncate_to, pad_to, inode_id.
const ResizeLastBlock = "UPDATE `block` SET `data` = RPAD(SUBSTR(`data`, 1, ?), ?, CHAR(0)) WHERE `inode_id` = ? ORDER BY `block_id` DESC LIMIT 1"

// PadLastBlock right-pads the last block's data with NULs to length pad_to;
// binds pad_to, inode_id.
const PadLastBlock = "UPDATE `block` SET `data` = RPAD(`data`, ?, CHAR(0)) WHERE `inode_id` = ? ORDER BY `block_id` DESC LIMIT 1"

// DropBlocks deletes every block of an inode; binds inode_id.
const DropBlocks = "DELETE FROM `block` WHERE `inode_id` = ?"

// TruncateBlocks, TruncateFiles, and TruncateInodes empty the three tables
// (and reset their auto-increment counters) as the first step of `format`.
// Order matters: blocks and files reference inodes, so they go first.
const (
	TruncateBlocks = "TRUNCATE TABLE `block`"
	TruncateFiles  = "TRUNCATE TABLE `file`"
	TruncateInodes = "TRUNCATE TABLE `inode`"
)

// CreateRootInode inserts the root directory inode with an explicit id of 1,
// relying on the table having just been truncated so no earlier row claims
// that id; binds owner, group, special, u, g, o (the id 1 is a literal in
// the statement, not a bound parameter).
const CreateRootInode = "INSERT INTO `inode` (`id`, `owner`, `group`, `file_type`, `special_bits`, `user_perm`, `group_perm`, `other_perm`) VALUES (1, ?, ?, 'd', ?, ?, ?, ?)"

// CreateRootFile inserts the root's self-referencing `.` directory entry
// (parent_inode_id = inode_id = 1).
const CreateRootFile = "INSERT INTO `file` (`parent_inode_id`, `name`, `inode_id`) VALUES (1, ?, 1)"

// CreateInodeTable, CreateFileTable, and CreateBlockTable establish the
// schema on a fresh database so `format` works without a separate DDL step.
const (
	CreateInodeTable = "CREATE TABLE IF NOT EXISTS `inode` (" +
		"`id` INT UNSIGNED NOT NULL AUTO_INCREMENT, " +
		"`owner` INT UNSIGNED NOT NULL, " +
		"`group` INT UNSIGNED NOT NULL, " +
		"`file_type` CHAR(1) NOT NULL, " +
		"`special_bits` TINYINT UNSIGNED NOT NULL DEFAULT 0, " +
		"`user_perm` TINYINT UNSIGNED NOT NULL, " +
		"`group_perm` TINYINT UNSIGNED NOT NULL, " +
		"`other_perm` TINYINT UNSIGNED NOT NULL, " +
		"`accessed_at` TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, " +
		"`modified_at` TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, " +
		"`created_at` TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, " +
		"PRIMARY KEY (`id`))"

	CreateFileTable = "CREATE TABLE IF NOT EXISTS `file` (" +
		"`id` INT UNSIGNED NOT NULL AUTO_INCREMENT, " +
		"`parent_inode_id` INT UNSIGNED NOT NULL, " +
		"`name` VARBINARY(255) NOT NULL, " +
		"`inode_id` INT UNSIGNED NOT NULL, " +
		"PRIMARY KEY (`id`), " +
		"UNIQUE KEY `parent_name` (`parent_inode_id`, `name`))"

	CreateBlockTable = "CREATE TABLE IF NOT EXISTS `block` (" +
		"`inode_id` INT UNSIGNED NOT NULL, " +
		"`block_id` INT UNSIGNED NOT NULL, " +
		"`data` VARBINARY(4096) NOT NULL, " +
		"PRIMARY KEY (`inode_id`, `block_id`))"
)
