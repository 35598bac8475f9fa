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

// Package model holds the row types persisted in the `inode`, `file`, and
// `block` tables and the driver-facing projections the Translation Layer
// hands to the FUSE layer.
package model

import "time"

// FileType is the set of object kinds the `inode.file_type` column can hold.
type FileType int

const (
	// Unknown is never stored; it is returned when a file_type tag fails to
	// decode, and getattr treats it as a fatal runtime error.
	Unknown FileType = iota
	Regular
	Directory
	Symlink
	NamedPipe
	Socket
)

// fileTypeTags maps each FileType to the single-character tag used in the
// `inode.file_type` column.
var fileTypeTags = map[FileType]byte{
	Regular:   '-',
	Directory: 'd',
	Symlink:   'l',
	NamedPipe: 'p',
	Socket:    's',
}

// Tag returns the single-character database encoding for t.
func (t FileType) Tag() string {
	b, ok := fileTypeTags[t]
	if !ok {
		return ""
	}
	return string(b)
}

// ParseFileType decodes the single-character `inode.file_type` tag. Unknown
// tags decode to Unknown rather than an error; callers that cannot tolerate
// an unknown kind (getattr's driver conversion) must check explicitly.
func ParseFileType(tag string) FileType {
	if len(tag) != 1 {
		return Unknown
	}
	switch tag[0] {
	case '-':
		return Regular
	case 'd':
		return Directory
	case 'l':
		return Symlink
	case 'p':
		return NamedPipe
	case 's':
		return Socket
	default:
		return Unknown
	}
}

func (t FileType) String() string {
	switch t {
	case Regular:
		return "regular"
	case Directory:
		return "directory"
	case Symlink:
		return "symlink"
	case NamedPipe:
		return "pipe"
	case Socket:
		return "socket"
	default:
		return "unknown"
	}
}

// Permissions packs the four octal permission groups stored on an inode:
// special bits (setuid/setgid/sticky), owner, group, other. Each field holds
// a value in 0..7.
type Permissions struct {
	Special uint8
	Owner   uint8
	Group   uint8
	Other   uint8
}

// Pack returns the combined permission bits as used by host mode math:
// (special<<9)|(owner<<6)|(group<<3)|other.
func (p Permissions) Pack() uint16 {
	return uint16(p.Special)<<9 | uint16(p.Owner)<<6 | uint16(p.Group)<<3 | uint16(p.Other)
}

// UnpackPermissions is the inverse of Permissions.Pack, extracting the four
// 3-bit groups from a combined host-style mode value.
func UnpackPermissions(bits uint16) Permissions {
	return Permissions{
		Special: uint8((bits >> 9) & 0x7),
		Owner:   uint8((bits >> 6) & 0x7),
		Group:   uint8((bits >> 3) & 0x7),
		Other:   uint8(bits & 0x7),
	}
}

// FileAttr is the full attribute projection returned by getattr, lookup,
// and setattr.
type FileAttr struct {
	Ino         uint32
	Uid         uint32
	Gid         uint32
	Nlink       uint32
	Bytes       uint64
	Blocks      uint64
	Atime       time.Time
	Mtime       time.Time
	Ctime       time.Time
	Kind        FileType
	Permissions Permissions
}

// FileSetAttr is the writable subset of FileAttr accepted by setattr.
type FileSetAttr struct {
	Uid         uint32
	Gid         uint32
	Atime       time.Time
	Mtime       time.Time
	Ctime       time.Time
	Permissions Permissions
}

// DirectoryEntry is one row of a readdir result, post type-tag decoding.
type DirectoryEntry struct {
	Name string
	Ino  uint32
	Kind FileType
}

// FilesystemStat is the result of statfs.
type FilesystemStat struct {
	UsedInodes uint64
	UsedBlocks uint64
}
