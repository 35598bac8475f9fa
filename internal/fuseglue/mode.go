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

package fuseglue

import (
	"os"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/go-dbfs/dbfs/internal/model"
)

// kindTypeBits is the os.FileMode type bit (ModeDir, ModeSymlink, ...) for
// each FileType. Regular contributes no type bit.
func kindTypeBits(kind model.FileType) os.FileMode {
	switch kind {
	case model.Directory:
		return os.ModeDir
	case model.Symlink:
		return os.ModeSymlink
	case model.NamedPipe:
		return os.ModeNamedPipe
	case model.Socket:
		return os.ModeSocket
	default:
		return 0
	}
}

// kindFromMode decodes the type bits of a host mode back to a FileType, or
// Unknown if the bits don't match one of the five stored kinds (devices and
// other types decode to Unknown).
func kindFromMode(mode os.FileMode) model.FileType {
	switch mode & os.ModeType {
	case os.ModeDir:
		return model.Directory
	case os.ModeSymlink:
		return model.Symlink
	case os.ModeNamedPipe:
		return model.NamedPipe
	case os.ModeSocket:
		return model.Socket
	case 0:
		return model.Regular
	default:
		return model.Unknown
	}
}

// permToMode packs Permissions into an os.FileMode: setuid/setgid/sticky
// become os.ModeSetuid/ModeSetgid/ModeSticky, and rwx for owner/group/other
// fills the low 9 bits.
func permToMode(p model.Permissions) os.FileMode {
	var m os.FileMode
	if p.Special&0x4 != 0 {
		m |= os.ModeSetuid
	}
	if p.Special&0x2 != 0 {
		m |= os.ModeSetgid
	}
	if p.Special&0x1 != 0 {
		m |= os.ModeSticky
	}
	return m | os.FileMode(p.Pack()&0o777)
}

// modeToPerm is the inverse of permToMode.
func modeToPerm(mode os.FileMode) model.Permissions {
	var special uint8
	if mode&os.ModeSetuid != 0 {
		special |= 0x4
	}
	if mode&os.ModeSetgid != 0 {
		special |= 0x2
	}
	if mode&os.ModeSticky != 0 {
		special |= 0x1
	}
	perm := model.UnpackPermissions(uint16(mode.Perm()))
	perm.Special = special
	return perm
}

// attrToFuse converts a Translation Layer attribute projection into the
// kernel bridge's InodeAttributes.
func attrToFuse(attr model.FileAttr) fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Size:  attr.Bytes,
		Nlink: attr.Nlink,
		Mode:  kindTypeBits(attr.Kind) | permToMode(attr.Permissions),
		Atime: attr.Atime,
		Mtime: attr.Mtime,
		Ctime: attr.Ctime,
		Uid:   attr.Uid,
		Gid:   attr.Gid,
	}
}
