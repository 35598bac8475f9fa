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

// Package xlate is the SQL Translation Layer: the mapping between
// filesystem operations and the three-table schema driven through
// internal/sqlcat, fronted by a single mutex-guarded DB connection.
package xlate

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jacobsa/syncutil"

	"github.com/go-dbfs/dbfs/internal/config"
	"github.com/go-dbfs/dbfs/internal/dbx"
	"github.com/go-dbfs/dbfs/internal/model"
	"github.com/go-dbfs/dbfs/internal/sqlcat"
)

const blockSize = config.FileBlockSize

// Layer is the SQL Translation Layer. All exported methods take and release
// mu for their whole duration, so a caller bundling several related reads
// (e.g. getattr composed of GetInode + CountHardlinks) observes one
// consistent snapshot of the database.
type Layer struct {
	db *dbx.Adapter

	// mu guards every call below; checkInvariants is a no-op since there is
	// no in-memory state to validate.
	mu syncutil.InvariantMutex
}

// New builds a Translation Layer over an already-opened DB Adapter.
func New(db *dbx.Adapter) *Layer {
	l := &Layer{db: db}
	l.mu = syncutil.NewInvariantMutex(l.checkInvariants)
	return l
}

func (l *Layer) checkInvariants() {}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// Filesize runs sqlcat.GetFileSize; an empty result yields {0,0}.
func (l *Layer) Filesize(ctx context.Context, inode uint32) (uint64, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filesizeLocked(ctx, inode)
}

func (l *Layer) filesizeLocked(ctx context.Context, inode uint32) (uint64, uint64, error) {
	rows, err := dbx.Query[model.FileSize](ctx, l.db, sqlcat.GetFileSize, inode)
	if err != nil {
		return 0, 0, dbErr(err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Bytes, rows[0].Blocks, nil
}

// CountHardlinks runs sqlcat.CountHardlinks.
func (l *Layer) CountHardlinks(ctx context.Context, inode uint32) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countHardlinksLocked(ctx, inode)
}

func (l *Layer) countHardlinksLocked(ctx context.Context, inode uint32) (uint32, error) {
	rows, err := dbx.Query[model.Hardlinks](ctx, l.db, sqlcat.CountHardlinks, inode)
	if err != nil {
		return 0, dbErr(err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return uint32(rows[0].Count), nil
}

// CountSubdirs runs sqlcat.CountChildrenDirs and adds 2 for `.` and `..`.
func (l *Layer) CountSubdirs(ctx context.Context, inode uint32) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countSubdirsLocked(ctx, inode)
}

func (l *Layer) countSubdirsLocked(ctx context.Context, inode uint32) (uint32, error) {
	rows, err := dbx.Query[model.ChildrenDirs](ctx, l.db, sqlcat.CountChildrenDirs, inode)
	if err != nil {
		return 0, dbErr(err)
	}
	if len(rows) == 0 {
		return 2, nil
	}
	return uint32(rows[0].Count) + 2, nil
}

// Getattr fetches the inode row and assembles the full attribute projection.
func (l *Layer) Getattr(ctx context.Context, inode uint32) (model.FileAttr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getattrLocked(ctx, inode)
}

func (l *Layer) getattrLocked(ctx context.Context, inode uint32) (model.FileAttr, error) {
	rows, err := dbx.Query[model.Inode](ctx, l.db, sqlcat.GetInode, inode)
	if err != nil {
		return model.FileAttr{}, dbErr(err)
	}
	if len(rows) == 0 {
		return model.FileAttr{}, runtimeErr("no inode found")
	}
	row := rows[0]
	kind := row.Kind()

	var nlink uint32
	var bytes, blocks uint64
	switch kind {
	case model.Regular, model.Symlink, model.NamedPipe, model.Socket:
		nlink, err = l.countHardlinksLocked(ctx, inode)
		if err != nil {
			return model.FileAttr{}, err
		}
		if kind == model.Regular || kind == model.Symlink {
			bytes, blocks, err = l.filesizeLocked(ctx, inode)
			if err != nil {
				return model.FileAttr{}, err
			}
		}
	case model.Directory:
		nlink, err = l.countSubdirsLocked(ctx, inode)
		if err != nil {
			return model.FileAttr{}, err
		}
	default:
		return model.FileAttr{}, runtimeErr("unknown file type converting inode to attributes")
	}

	return model.FileAttr{
		Ino:         inode,
		Uid:         row.Owner,
		Gid:         row.Group,
		Nlink:       nlink,
		Bytes:       bytes,
		Blocks:      blocks,
		Atime:       row.AccessedAt,
		Mtime:       row.ModifiedAt,
		Ctime:       row.CreatedAt,
		Kind:        kind,
		Permissions: row.Permissions(),
	}, nil
}

// LookupID decodes name as UTF-8 and resolves it within parent.
func (l *Layer) LookupID(ctx context.Context, name string, parent uint32) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lookupIDLocked(ctx, name, parent)
}

func (l *Layer) lookupIDLocked(ctx context.Context, name string, parent uint32) (uint32, error) {
	if !utf8.ValidString(name) {
		return 0, runtimeErr("name is not valid UTF-8")
	}
	rows, err := dbx.Query[model.InodeLookupRow](ctx, l.db, sqlcat.LookupInodeID, name, parent)
	if err != nil {
		return 0, dbErr(err)
	}
	if len(rows) == 0 {
		return 0, notFoundErr(fmt.Sprintf("no entry named %q under inode %d", name, parent))
	}
	return rows[0].InodeID, nil
}

// Lookup is getattr(lookup_id(name, parent)).
func (l *Layer) Lookup(ctx context.Context, name string, parent uint32) (model.FileAttr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ino, err := l.lookupIDLocked(ctx, name, parent)
	if err != nil {
		return model.FileAttr{}, err
	}
	return l.getattrLocked(ctx, ino)
}

// Readdir lists `.`, `..`, and the directory's children in child-inode order.
func (l *Layer) Readdir(ctx context.Context, inode uint32) ([]model.DirectoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	parentRows, err := dbx.Query[model.DirectoryParentRow](ctx, l.db, sqlcat.GetDirectoryParent, inode)
	if err != nil {
		return nil, dbErr(err)
	}
	if len(parentRows) == 0 {
		return nil, runtimeErr("no parent entry found for directory")
	}

	childRows, err := dbx.Query[model.DirectoryListRow](ctx, l.db, sqlcat.ListDirectory, inode)
	if err != nil {
		return nil, dbErr(err)
	}

	entries := make([]model.DirectoryEntry, 0, len(childRows)+2)
	entries = append(entries, model.DirectoryEntry{Name: ".", Ino: inode, Kind: model.Directory})
	entries = append(entries, model.DirectoryEntry{Name: "..", Ino: parentRows[0].ParentInodeID, Kind: model.Directory})
	for _, row := range childRows {
		entries = append(entries, model.DirectoryEntry{Name: row.Name, Ino: row.InodeID, Kind: model.ParseFileType(row.FileType)})
	}
	return entries, nil
}

// CountChildren is sqlcat.CountDirectoryChildren + 2.
func (l *Layer) CountChildren(ctx context.Context, inode uint32) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := dbx.Query[model.DirectoryChildren](ctx, l.db, sqlcat.CountDirectoryChildren, inode)
	if err != nil {
		return 0, dbErr(err)
	}
	if len(rows) == 0 {
		return 2, nil
	}
	return uint64(rows[0].Count) + 2, nil
}

// Read fetches at most max_blocks = ceil(len(buf)/4096)+1 block rows
// starting at offset_blocks = offset/4096, then slices out exactly buf's
// window. Returns the number of bytes actually produced.
func (l *Layer) Read(ctx context.Context, inode uint32, offset uint64, buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(buf) == 0 {
		return 0, nil
	}

	maxBlocks := ceilDiv(uint64(len(buf)), blockSize) + 1
	offsetBlocks := offset / blockSize

	rows, err := dbx.Query[model.BlockDataRow](ctx, l.db, sqlcat.ReadFile, inode, maxBlocks, offsetBlocks)
	if err != nil {
		return 0, dbErr(err)
	}
	if len(rows) == 0 {
		return 0, clientErr("read failed (pointer or size invalid)")
	}

	var full []byte
	for _, row := range rows {
		full = append(full, row.Data...)
	}

	skip := offset - offsetBlocks*blockSize
	if skip > uint64(len(full)) {
		skip = uint64(len(full))
	}
	full = full[skip:]

	n := copy(buf, full)
	return n, nil
}

// Write is the aligned small-write path: it reads back whole blocks it
// touches, mutates them in memory, and upserts the changed blocks.
func (l *Layer) Write(ctx context.Context, inode uint32, offset uint64, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeLocked(ctx, inode, offset, data)
}

func (l *Layer) writeLocked(ctx context.Context, inode uint32, offset uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	end := offset + uint64(len(data))
	startBlock := offset/blockSize + 1
	endBlock := ceilDiv(end, blockSize)
	startOffsetInBlock := offset % blockSize

	headRows, err := dbx.Query[model.FileSizeAndHead](ctx, l.db, sqlcat.GetSizeAndHead, inode)
	if err != nil {
		return dbErr(err)
	}
	var curBytes, curBlocks uint64
	var lastBlockID uint32
	if len(headRows) > 0 {
		curBytes = uint64(headRows[0].Bytes)
		curBlocks = uint64(headRows[0].Blocks)
		lastBlockID = headRows[0].LastBlockID
	}

	if end > curBytes && curBlocks > 0 {
		if _, err := l.db.Command(ctx, sqlcat.ResizeLastBlock, blockSize, blockSize, inode); err != nil {
			return dbErr(err)
		}
	}
	if endBlock > curBlocks {
		query, args := sqlcat.PadFile(inode, lastBlockID, uint32(endBlock-curBlocks))
		if query != "" {
			if _, err := l.db.Command(ctx, query, args...); err != nil {
				return dbErr(err)
			}
		}
	}

	numTouched := endBlock - startBlock + 1
	blockRows, err := dbx.Query[model.Block](ctx, l.db, sqlcat.GetFullBlocks, inode, numTouched, startBlock-1)
	if err != nil {
		return dbErr(err)
	}
	if uint64(len(blockRows)) < numTouched {
		return clientErr("write is possibly out of bounds")
	}

	lastOrigLen := len(blockRows[len(blockRows)-1].Data)
	for i := range blockRows {
		full := make([]byte, blockSize)
		copy(full, blockRows[i].Data)
		blockRows[i].Data = full
	}

	written := 0
	for i := range blockRows {
		blockStart := 0
		if i == 0 {
			blockStart = int(startOffsetInBlock)
		}
		n := copy(blockRows[i].Data[blockStart:], data[written:])
		written += n
	}

	// The final blob keeps the file's logical length: the file ends at the
	// write's end when the write grew it, at its previous size otherwise.
	lastLen := lastOrigLen
	if end > curBytes {
		lastLen = int(end - (endBlock-1)*blockSize)
	}
	last := len(blockRows) - 1
	blockRows[last].Data = blockRows[last].Data[:lastLen]

	query, args := sqlcat.Write(blockRows)
	if _, err := l.db.Command(ctx, query, args...); err != nil {
		return dbErr(err)
	}
	return nil
}

// UnsafeWrite is the presumed-dense fast path used by the Write Cache and by
// symlink creation: it assumes the write region already lies within (or
// immediately after) the file's current dense block run.
func (l *Layer) UnsafeWrite(ctx context.Context, inode uint32, offset uint64, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unsafeWriteLocked(ctx, inode, offset, data)
}

func (l *Layer) unsafeWriteLocked(ctx context.Context, inode uint32, offset uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	end := offset + uint64(len(data))
	startBlock := uint32(offset/blockSize) + 1
	endBlock := uint32(ceilDiv(end, blockSize))

	headRows, err := dbx.Query[model.FileHead](ctx, l.db, sqlcat.GetFileHead, inode)
	if err != nil {
		return dbErr(err)
	}
	var blockCount int64
	var lastBlockID uint32
	if len(headRows) > 0 {
		blockCount = headRows[0].BlockCount
		lastBlockID = headRows[0].LastBlockID
	}

	if startBlock > uint32(blockCount) {
		if blockCount > 0 {
			if _, err := l.db.Command(ctx, sqlcat.PadLastBlock, blockSize, inode); err != nil {
				return dbErr(err)
			}
		}
		query, args := sqlcat.PadUntil(inode, lastBlockID+1, startBlock)
		if query != "" {
			if _, err := l.db.Command(ctx, query, args...); err != nil {
				return dbErr(err)
			}
		}
	}

	startAligned := offset%blockSize == 0
	endAligned := end%blockSize == 0

	region := make([]byte, int(endBlock-startBlock+1)*blockSize)

	// tailRawLen is the stored length of the final touched block before this
	// write, so a partial-end write inside the file's last block preserves its
	// logical length instead of growing the file to a block boundary.
	var tailRawLen int

	switch {
	case startAligned && endAligned:
		// No read-back needed; the region is fully overwritten below.
	case startAligned && !endAligned:
		tail, n, err := l.readOneBlock(ctx, inode, endBlock)
		if err != nil {
			return err
		}
		tailRawLen = n
		copy(region[len(region)-blockSize:], tail)
	case !startAligned && endAligned:
		head, _, err := l.readOneBlock(ctx, inode, startBlock)
		if err != nil {
			return err
		}
		copy(region[:blockSize], head)
	default:
		head, n, err := l.readOneBlock(ctx, inode, startBlock)
		if err != nil {
			return err
		}
		tailRawLen = n
		copy(region[:blockSize], head)
		if endBlock != startBlock {
			tail, n, err := l.readOneBlock(ctx, inode, endBlock)
			if err != nil {
				return err
			}
			tailRawLen = n
			copy(region[len(region)-blockSize:], tail)
		}
	}

	overlayAt := offset - uint64(startBlock-1)*blockSize
	copy(region[overlayAt:], data)

	lastLen := int(end - uint64(endBlock-1)*blockSize)
	if tailRawLen > lastLen {
		lastLen = tailRawLen
	}

	blocks := make([]model.Block, 0, len(region)/blockSize)
	for i := 0; i*blockSize < len(region); i++ {
		chunk := region[i*blockSize : min(len(region), (i+1)*blockSize)]
		buf := make([]byte, len(chunk))
		copy(buf, chunk)
		blocks = append(blocks, model.Block{InodeID: inode, BlockID: startBlock + uint32(i), Data: buf})
	}
	last := len(blocks) - 1
	blocks[last].Data = blocks[last].Data[:lastLen]

	query, args := sqlcat.Write(blocks)
	if _, err := l.db.Command(ctx, query, args...); err != nil {
		return dbErr(err)
	}
	return nil
}

// readOneBlock fetches a single block's data padded to full width, along
// with its stored length. A block that does not exist yet (a write extending
// past the current end of file) reads back as zeros with length 0.
func (l *Layer) readOneBlock(ctx context.Context, inode uint32, blockID uint32) ([]byte, int, error) {
	rows, err := dbx.Query[model.BlockDataRow](ctx, l.db, sqlcat.ReadFile, inode, uint64(1), uint64(blockID-1))
	if err != nil {
		return nil, 0, dbErr(err)
	}
	buf := make([]byte, blockSize)
	n := 0
	if len(rows) > 0 {
		n = len(rows[0].Data)
		copy(buf, rows[0].Data)
	}
	return buf, n, nil
}

// Resize grows or shrinks a file's block storage to exactly new_size bytes.
func (l *Layer) Resize(ctx context.Context, inode uint32, newSize uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if newSize == 0 {
		if _, err := l.db.Command(ctx, sqlcat.DropBlocks, inode); err != nil {
			return dbErr(err)
		}
		return nil
	}

	headRows, err := dbx.Query[model.FileHead](ctx, l.db, sqlcat.GetFileHead, inode)
	if err != nil {
		return dbErr(err)
	}
	var blockCount int64
	if len(headRows) > 0 {
		blockCount = headRows[0].BlockCount
	}

	newBlocks := int64(ceilDiv(newSize, blockSize))

	if newBlocks > blockCount {
		if blockCount > 0 {
			if _, err := l.db.Command(ctx, sqlcat.ResizeLastBlock, blockSize, blockSize, inode); err != nil {
				return dbErr(err)
			}
		}
		var lastID uint32
		if len(headRows) > 0 {
			lastID = headRows[0].LastBlockID
		}
		query, args := sqlcat.PadFile(inode, lastID, uint32(newBlocks-blockCount))
		if query != "" {
			if _, err := l.db.Command(ctx, query, args...); err != nil {
				return dbErr(err)
			}
		}
	} else if k := blockCount - newBlocks; k > 0 {
		if _, err := l.db.Command(ctx, sqlcat.TrimBlocks, inode, k); err != nil {
			return dbErr(err)
		}
	}

	lastBlockLen := newSize - uint64(newBlocks-1)*blockSize
	if _, err := l.db.Command(ctx, sqlcat.ResizeLastBlock, lastBlockLen, lastBlockLen, inode); err != nil {
		return dbErr(err)
	}
	return nil
}

// Mknod inserts a new inode of the given kind and links it under (parent, name).
func (l *Layer) Mknod(ctx context.Context, parent uint32, name string, kind model.FileType, attr model.FileSetAttr) (model.FileAttr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.Command(ctx, sqlcat.CreateInode,
		attr.Uid, attr.Gid, kind.Tag(),
		attr.Permissions.Special, attr.Permissions.Owner, attr.Permissions.Group, attr.Permissions.Other)
	if err != nil {
		return model.FileAttr{}, dbErr(err)
	}
	newIno := uint32(res.LastInsertID)

	if _, err := l.db.Command(ctx, sqlcat.CreateFile, parent, name, newIno); err != nil {
		return model.FileAttr{}, dbErr(err)
	}

	return l.getattrLocked(ctx, newIno)
}

// Link adds a second directory entry pointing at an existing inode.
func (l *Layer) Link(ctx context.Context, parent uint32, name string, targetInode uint32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.Command(ctx, sqlcat.CreateFile, parent, name, targetInode)
	if err != nil {
		return dbErr(err)
	}
	if res.RowsAffected != 1 {
		return runtimeErr("no changes made")
	}
	return nil
}

// Unlink removes the (parent, name) entry and, per policy, the backing
// inode: always for directories, only at zero hardlinks for regular files
// and symlinks, never for pipes and sockets.
func (l *Layer) Unlink(ctx context.Context, parent uint32, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	target, err := l.lookupIDLocked(ctx, name, parent)
	if err != nil {
		return err
	}

	res, err := l.db.Command(ctx, sqlcat.DeleteFile, name, parent)
	if err != nil {
		return dbErr(err)
	}
	if res.RowsAffected != 1 {
		return runtimeErr("no changes made")
	}

	attr, err := l.getattrLocked(ctx, target)
	if err != nil {
		return err
	}

	deleteInode := false
	switch attr.Kind {
	case model.Regular, model.Symlink:
		deleteInode = attr.Nlink == 0
	case model.Directory:
		deleteInode = true
	case model.NamedPipe, model.Socket:
		deleteInode = false
	}

	if deleteInode {
		res, err := l.db.Command(ctx, sqlcat.DeleteInode, target)
		if err != nil {
			return dbErr(err)
		}
		if res.RowsAffected != 1 {
			return runtimeErr("no changes made")
		}
	}
	return nil
}

// Rename retargets a single directory entry.
func (l *Layer) Rename(ctx context.Context, srcParent uint32, srcName string, dstParent uint32, dstName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.Command(ctx, sqlcat.RenameFile, dstParent, dstName, srcParent, srcName)
	if err != nil {
		return dbErr(err)
	}
	if res.RowsAffected != 1 {
		return runtimeErr("no changes made")
	}
	return nil
}

// Setattr overwrites every mutable inode attribute in one statement.
func (l *Layer) Setattr(ctx context.Context, inode uint32, attr model.FileSetAttr) (model.FileAttr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.Command(ctx, sqlcat.UpdateInode,
		attr.Uid, attr.Gid, attr.Atime, attr.Mtime, attr.Ctime,
		attr.Permissions.Special, attr.Permissions.Owner, attr.Permissions.Group, attr.Permissions.Other,
		inode)
	if err != nil {
		return model.FileAttr{}, dbErr(err)
	}
	if res.RowsAffected != 1 {
		return model.FileAttr{}, runtimeErr("no changes made")
	}
	return l.getattrLocked(ctx, inode)
}

// Statfs returns the live inode and block counts.
func (l *Layer) Statfs(ctx context.Context) (model.FilesystemStat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := dbx.Query[model.FsStatRow](ctx, l.db, sqlcat.GetFsStat)
	if err != nil {
		return model.FilesystemStat{}, dbErr(err)
	}
	if len(rows) == 0 {
		return model.FilesystemStat{}, nil
	}
	return model.FilesystemStat{UsedInodes: uint64(rows[0].UsedInodes), UsedBlocks: uint64(rows[0].UsedBlocks)}, nil
}

// Format creates the schema if missing, empties the three tables, and
// recreates the canonical root: inode 1 as a directory, plus its
// self-referencing `.` file row (parent_inode_id = inode_id = 1).
func (l *Layer) Format(ctx context.Context, owner, group uint32, perm model.Permissions) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, stmt := range []string{
		sqlcat.CreateInodeTable, sqlcat.CreateFileTable, sqlcat.CreateBlockTable,
		sqlcat.TruncateBlocks, sqlcat.TruncateFiles, sqlcat.TruncateInodes,
	} {
		if _, err := l.db.Command(ctx, stmt); err != nil {
			return dbErr(err)
		}
	}
	if _, err := l.db.Command(ctx, sqlcat.CreateRootInode,
		owner, group, perm.Special, perm.Owner, perm.Group, perm.Other); err != nil {
		return dbErr(err)
	}
	if _, err := l.db.Command(ctx, sqlcat.CreateRootFile, "."); err != nil {
		return dbErr(err)
	}
	return nil
}
