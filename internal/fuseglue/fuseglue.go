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

// Package fuseglue translates kernel upcalls into Translation Layer and
// Write Cache calls, maps internal errors to kernel error codes, and caches
// the most recent directory listing.
package fuseglue

import (
	"context"
	"sync"
	"syscall"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/jacobsa/timeutil"

	"github.com/go-dbfs/dbfs/internal/config"
	"github.com/go-dbfs/dbfs/internal/model"
	"github.com/go-dbfs/dbfs/internal/writecache"
	"github.com/go-dbfs/dbfs/internal/xlate"
)

// FS implements fuseutil.FileSystem over a Translation Layer and Write
// Cache. Every operation not overridden below returns ENOSYS via the
// embedded NotImplementedFileSystem.
type FS struct {
	fuseutil.NotImplementedFileSystem

	tl    *xlate.Layer
	cache *writecache.Cache
	clock timeutil.Clock

	// uid and gid stamp newly created inodes; the kernel does not deliver
	// the caller's credentials through the op structs.
	uid uint32
	gid uint32

	dirMu      sync.Mutex
	dirInode   fuseops.InodeID
	dirEntries []model.DirectoryEntry
}

// New builds the Bridge Glue over an already-constructed Translation Layer
// and Write Cache. uid and gid are assigned to inodes created through the
// mount.
func New(tl *xlate.Layer, cache *writecache.Cache, clock timeutil.Clock, uid, gid uint32) *FS {
	return &FS{tl: tl, cache: cache, clock: clock, uid: uid, gid: gid}
}

// flush issues a synchronous cache flush before every non-write operation,
// as required so reads never observe stale pending writes.
func (fs *FS) flush() {
	fs.cache.Flush()
}

func (fs *FS) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	fs.flush()

	stat, err := fs.tl.Statfs(ctx)
	if err != nil {
		return errno(err)
	}

	const veryLargeBlockTotal = 1 << 32
	op.BlockSize = config.FileBlockSize
	op.Blocks = veryLargeBlockTotal
	op.BlocksFree = veryLargeBlockTotal - stat.UsedBlocks
	op.BlocksAvailable = op.BlocksFree
	op.Inodes = veryLargeBlockTotal
	op.InodesFree = veryLargeBlockTotal - stat.UsedInodes
	op.IoSize = config.FileBlockSize
	return nil
}

func (fs *FS) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	fs.flush()

	attr, err := fs.tl.Lookup(ctx, op.Name, uint32(op.Parent))
	if err != nil {
		return errno(err)
	}

	op.Entry.Child = fuseops.InodeID(attr.Ino)
	op.Entry.Attributes = attrToFuse(attr)
	return nil
}

func (fs *FS) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	fs.flush()

	attr, err := fs.tl.Getattr(ctx, uint32(op.Inode))
	if err != nil {
		return errno(err)
	}
	op.Attributes = attrToFuse(attr)
	return nil
}

// SetInodeAttributes enforces that a mode change's type bits match the
// inode's existing kind, resizes storage when Size is set, then runs a
// single setattr call carrying every mutable field.
func (fs *FS) SetInodeAttributes(ctx context.Context, op *fuseops.SetInodeAttributesOp) error {
	fs.flush()

	current, err := fs.tl.Getattr(ctx, uint32(op.Inode))
	if err != nil {
		return errno(err)
	}

	if op.Size != nil {
		if err := fs.tl.Resize(ctx, uint32(op.Inode), *op.Size); err != nil {
			return errno(err)
		}
		current, err = fs.tl.Getattr(ctx, uint32(op.Inode))
		if err != nil {
			return errno(err)
		}
	}

	setattr := model.FileSetAttr{
		Uid:         current.Uid,
		Gid:         current.Gid,
		Atime:       current.Atime,
		Mtime:       current.Mtime,
		Ctime:       fs.clock.Now(),
		Permissions: current.Permissions,
	}
	if op.Atime != nil {
		setattr.Atime = *op.Atime
	}
	if op.Mtime != nil {
		setattr.Mtime = *op.Mtime
	}
	if op.Mode != nil {
		if kindFromMode(*op.Mode) != current.Kind {
			return syscall.EINVAL
		}
		setattr.Permissions = modeToPerm(*op.Mode)
	}

	attr, err := fs.tl.Setattr(ctx, uint32(op.Inode), setattr)
	if err != nil {
		return errno(err)
	}
	op.Attributes = attrToFuse(attr)
	return nil
}

func (fs *FS) ForgetInode(ctx context.Context, op *fuseops.ForgetInodeOp) error {
	// All persistent state lives in the database; there is no in-memory inode
	// table to garbage collect.
	return nil
}

func (fs *FS) MkDir(ctx context.Context, op *fuseops.MkDirOp) error {
	fs.flush()

	attr, err := fs.tl.Mknod(ctx, uint32(op.Parent), op.Name, model.Directory, model.FileSetAttr{
		Uid: fs.uid, Gid: fs.gid, Permissions: modeToPerm(op.Mode),
	})
	if err != nil {
		return errno(err)
	}
	op.Entry.Child = fuseops.InodeID(attr.Ino)
	op.Entry.Attributes = attrToFuse(attr)
	return nil
}

// MkNode accepts only regular files, pipes, and sockets; directories go
// through MkDir and symlinks through CreateSymlink.
func (fs *FS) MkNode(ctx context.Context, op *fuseops.MkNodeOp) error {
	fs.flush()

	kind := kindFromMode(op.Mode)
	if kind != model.Regular && kind != model.NamedPipe && kind != model.Socket {
		return syscall.EINVAL
	}

	attr, err := fs.tl.Mknod(ctx, uint32(op.Parent), op.Name, kind, model.FileSetAttr{
		Uid: fs.uid, Gid: fs.gid, Permissions: modeToPerm(op.Mode),
	})
	if err != nil {
		return errno(err)
	}
	op.Entry.Child = fuseops.InodeID(attr.Ino)
	op.Entry.Attributes = attrToFuse(attr)
	return nil
}

func (fs *FS) CreateFile(ctx context.Context, op *fuseops.CreateFileOp) error {
	fs.flush()

	attr, err := fs.tl.Mknod(ctx, uint32(op.Parent), op.Name, model.Regular, model.FileSetAttr{
		Uid: fs.uid, Gid: fs.gid, Permissions: modeToPerm(op.Mode),
	})
	if err != nil {
		return errno(err)
	}
	op.Entry.Child = fuseops.InodeID(attr.Ino)
	op.Entry.Attributes = attrToFuse(attr)
	op.Handle = fuseops.HandleID(attr.Ino)
	return nil
}

// CreateSymlink implements symlink by mknod(kind=Symlink, perm=0777)
// followed by an unsafe-write of the raw target bytes at offset 0.
func (fs *FS) CreateSymlink(ctx context.Context, op *fuseops.CreateSymlinkOp) error {
	fs.flush()

	attr, err := fs.tl.Mknod(ctx, uint32(op.Parent), op.Name, model.Symlink, model.FileSetAttr{
		Uid: fs.uid, Gid: fs.gid,
		Permissions: model.Permissions{Owner: 7, Group: 7, Other: 7},
	})
	if err != nil {
		return errno(err)
	}

	if err := fs.tl.UnsafeWrite(ctx, attr.Ino, 0, []byte(op.Target)); err != nil {
		return errno(err)
	}

	op.Entry.Child = fuseops.InodeID(attr.Ino)
	op.Entry.Attributes = attrToFuse(attr)
	return nil
}

func (fs *FS) CreateLink(ctx context.Context, op *fuseops.CreateLinkOp) error {
	fs.flush()

	if err := fs.tl.Link(ctx, uint32(op.Parent), op.Name, uint32(op.Target)); err != nil {
		return errno(err)
	}

	attr, err := fs.tl.Getattr(ctx, uint32(op.Target))
	if err != nil {
		return errno(err)
	}
	op.Entry.Child = op.Target
	op.Entry.Attributes = attrToFuse(attr)
	return nil
}

// RmDir refuses to remove a directory with more than the `.`/`..` entries,
// then delegates to the same unlink path regular files use.
func (fs *FS) RmDir(ctx context.Context, op *fuseops.RmDirOp) error {
	fs.flush()

	target, err := fs.tl.LookupID(ctx, op.Name, uint32(op.Parent))
	if err != nil {
		return errno(err)
	}

	count, err := fs.tl.CountChildren(ctx, target)
	if err != nil {
		return errno(err)
	}
	if count > 2 {
		return syscall.ENOTEMPTY
	}

	if err := fs.tl.Unlink(ctx, uint32(op.Parent), op.Name); err != nil {
		return errno(err)
	}
	return nil
}

func (fs *FS) Unlink(ctx context.Context, op *fuseops.UnlinkOp) error {
	fs.flush()

	if err := fs.tl.Unlink(ctx, uint32(op.Parent), op.Name); err != nil {
		return errno(err)
	}
	return nil
}

// Rename unlinks an existing destination before retargeting the entry.
func (fs *FS) Rename(ctx context.Context, op *fuseops.RenameOp) error {
	fs.flush()

	if _, err := fs.tl.LookupID(ctx, op.NewName, uint32(op.NewParent)); err == nil {
		if err := fs.tl.Unlink(ctx, uint32(op.NewParent), op.NewName); err != nil {
			return errno(err)
		}
	}

	if err := fs.tl.Rename(ctx, uint32(op.OldParent), op.OldName, uint32(op.NewParent), op.NewName); err != nil {
		return errno(err)
	}
	return nil
}

func (fs *FS) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	fs.flush()
	op.Handle = fuseops.HandleID(op.Inode)
	return nil
}

// ReadDir serves a cached listing per inode so a client iterating multiple
// offsets incurs one database round-trip; the cache is dropped once the
// iterator reaches end-of-list or a different inode is read.
func (fs *FS) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	fs.flush()

	fs.dirMu.Lock()
	defer fs.dirMu.Unlock()

	if fs.dirEntries == nil || fs.dirInode != op.Inode {
		entries, err := fs.tl.Readdir(ctx, uint32(op.Inode))
		if err != nil {
			return errno(err)
		}
		fs.dirInode = op.Inode
		fs.dirEntries = entries
	}

	if int(op.Offset) > len(fs.dirEntries) {
		return syscall.EINVAL
	}

	// Each entry's Offset is the index of the next entry, the convention
	// fuseutil.WriteDirent callers use to resume iteration.
	consumed := 0
	for i := int(op.Offset); i < len(fs.dirEntries); i++ {
		e := fs.dirEntries[i]
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], fuseutil.Dirent{
			Offset: fuseops.DirOffset(i + 1),
			Inode:  fuseops.InodeID(e.Ino),
			Name:   e.Name,
			Type:   direntType(e.Kind),
		})
		if n == 0 {
			break
		}
		op.BytesRead += n
		consumed++
	}

	if int(op.Offset)+consumed >= len(fs.dirEntries) {
		fs.dirEntries = nil
	}
	return nil
}

func direntType(kind model.FileType) fuseutil.DirentType {
	switch kind {
	case model.Directory:
		return fuseutil.DT_Directory
	case model.Symlink:
		return fuseutil.DT_Link
	case model.NamedPipe:
		return fuseutil.DT_FIFO
	case model.Socket:
		return fuseutil.DT_Socket
	default:
		return fuseutil.DT_File
	}
}

func (fs *FS) ReleaseDirHandle(ctx context.Context, op *fuseops.ReleaseDirHandleOp) error {
	return nil
}

func (fs *FS) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	op.Handle = fuseops.HandleID(op.Inode)
	return nil
}

func (fs *FS) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	fs.flush()

	n, err := fs.tl.Read(ctx, uint32(op.Inode), uint64(op.Offset), op.Dst)
	if err != nil {
		return errno(err)
	}
	op.BytesRead = n
	return nil
}

// WriteFile routes through the Write Cache rather than calling the
// Translation Layer directly; the cache coalesces the kernel's small
// sequential writes into block-sized batches.
func (fs *FS) WriteFile(ctx context.Context, op *fuseops.WriteFileOp) error {
	fs.cache.Write(uint32(op.Inode), uint64(op.Offset), op.Data)
	return nil
}

func (fs *FS) SyncFile(ctx context.Context, op *fuseops.SyncFileOp) error {
	fs.flush()
	return nil
}

func (fs *FS) FlushFile(ctx context.Context, op *fuseops.FlushFileOp) error {
	fs.flush()
	return nil
}

func (fs *FS) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) error {
	return nil
}

func (fs *FS) ReadSymlink(ctx context.Context, op *fuseops.ReadSymlinkOp) error {
	fs.flush()

	attr, err := fs.tl.Getattr(ctx, uint32(op.Inode))
	if err != nil {
		return errno(err)
	}

	buf := make([]byte, attr.Bytes)
	n, err := fs.tl.Read(ctx, uint32(op.Inode), 0, buf)
	if err != nil {
		return errno(err)
	}
	op.Target = string(buf[:n])
	return nil
}

func (fs *FS) Destroy() {}

var _ fuseutil.FileSystem = (*FS)(nil)
