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

// Package importer implements the `import` subcommand: it walks a host
// directory tree and replays its contents through the Translation Layer,
// preserving type, ownership, permission bits, and timestamps, and reusing
// a previously-created inode via Link when it encounters a second directory
// entry for an already-imported host inode.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sys/unix"

	"github.com/go-dbfs/dbfs/internal/config"
	"github.com/go-dbfs/dbfs/internal/logger"
	"github.com/go-dbfs/dbfs/internal/model"
	"github.com/go-dbfs/dbfs/internal/xlate"
)

// copyChunkBytes is how much of a regular file's content is staged in
// memory between UnsafeWrite calls during import.
const copyChunkBytes = 1 << 20 // 1 MiB

// hostInode identifies a host file uniquely enough to detect hard links:
// the (device, inode) pair a second directory entry for the same file will
// repeat exactly.
type hostInode struct {
	dev uint64
	ino uint64
}

// Importer walks a host directory tree into the filesystem backed by tl.
type Importer struct {
	tl *xlate.Layer

	// seen maps a host (dev, ino) pair to the dbfs inode already created for
	// it, so a second directory entry for the same host file becomes a Link
	// instead of a duplicate upload.
	seen map[hostInode]uint32
}

// New builds an Importer over an already-constructed Translation Layer.
func New(tl *xlate.Layer) *Importer {
	return &Importer{tl: tl, seen: make(map[hostInode]uint32)}
}

// Import walks sourcePath (which must be a directory) and reproduces its
// contents under the filesystem's root inode.
func (im *Importer) Import(ctx context.Context, sourcePath string) error {
	info, err := os.Lstat(sourcePath)
	if err != nil {
		return fmt.Errorf("importer: stat %s: %w", sourcePath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("importer: %s is not a directory", sourcePath)
	}
	return im.importDir(ctx, sourcePath, config.RootInodeID)
}

func (im *Importer) importDir(ctx context.Context, hostPath string, parentIno uint32) error {
	entries, err := os.ReadDir(hostPath)
	if err != nil {
		return fmt.Errorf("importer: readdir %s: %w", hostPath, err)
	}

	// Sort for deterministic, reviewable import runs; the filesystem itself
	// orders readdir by inode id regardless of insertion order.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		childPath := filepath.Join(hostPath, entry.Name())
		if err := im.importEntry(ctx, childPath, parentIno, entry.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) importEntry(ctx context.Context, hostPath string, parentIno uint32, name string) error {
	var st unix.Stat_t
	if err := unix.Lstat(hostPath, &st); err != nil {
		return fmt.Errorf("importer: lstat %s: %w", hostPath, err)
	}

	key := hostInode{dev: uint64(st.Dev), ino: st.Ino}
	if st.Nlink > 1 {
		if existing, ok := im.seen[key]; ok {
			logger.Infof("importer: linking %s to existing inode %d", hostPath, existing)
			return im.tl.Link(ctx, parentIno, name, existing)
		}
	}

	attr := model.FileSetAttr{
		Uid:         st.Uid,
		Gid:         st.Gid,
		Atime:       statTime(st.Atim),
		Mtime:       statTime(st.Mtim),
		Ctime:       statTime(st.Ctim),
		Permissions: statPermissions(st.Mode),
	}

	mode := os.FileMode(st.Mode)
	switch {
	case mode&unix.S_IFMT == unix.S_IFDIR:
		return im.importDirNode(ctx, hostPath, parentIno, name, attr)
	case mode&unix.S_IFMT == unix.S_IFLNK:
		return im.importSymlink(ctx, hostPath, parentIno, name, attr, key)
	case mode&unix.S_IFMT == unix.S_IFREG:
		return im.importRegular(ctx, hostPath, parentIno, name, attr, key)
	case mode&unix.S_IFMT == unix.S_IFIFO:
		return im.importSpecial(ctx, parentIno, name, model.NamedPipe, attr, key)
	case mode&unix.S_IFMT == unix.S_IFSOCK:
		return im.importSpecial(ctx, parentIno, name, model.Socket, attr, key)
	default:
		logger.Warnf("importer: skipping %s: unsupported host file type %v", hostPath, mode)
		return nil
	}
}

func (im *Importer) importDirNode(ctx context.Context, hostPath string, parentIno uint32, name string, attr model.FileSetAttr) error {
	created, err := im.tl.Mknod(ctx, parentIno, name, model.Directory, attr)
	if err != nil {
		return fmt.Errorf("importer: mkdir %s: %w", hostPath, err)
	}
	if _, err := im.tl.Setattr(ctx, created.Ino, attr); err != nil {
		return fmt.Errorf("importer: setattr %s: %w", hostPath, err)
	}
	return im.importDir(ctx, hostPath, created.Ino)
}

func (im *Importer) importSymlink(ctx context.Context, hostPath string, parentIno uint32, name string, attr model.FileSetAttr, key hostInode) error {
	target, err := os.Readlink(hostPath)
	if err != nil {
		return fmt.Errorf("importer: readlink %s: %w", hostPath, err)
	}

	created, err := im.tl.Mknod(ctx, parentIno, name, model.Symlink, attr)
	if err != nil {
		return fmt.Errorf("importer: mknod symlink %s: %w", hostPath, err)
	}
	if err := im.tl.UnsafeWrite(ctx, created.Ino, 0, []byte(target)); err != nil {
		return fmt.Errorf("importer: write symlink target %s: %w", hostPath, err)
	}
	if _, err := im.tl.Setattr(ctx, created.Ino, attr); err != nil {
		return fmt.Errorf("importer: setattr %s: %w", hostPath, err)
	}
	im.seen[key] = created.Ino
	return nil
}

func (im *Importer) importRegular(ctx context.Context, hostPath string, parentIno uint32, name string, attr model.FileSetAttr, key hostInode) error {
	created, err := im.tl.Mknod(ctx, parentIno, name, model.Regular, attr)
	if err != nil {
		return fmt.Errorf("importer: mknod %s: %w", hostPath, err)
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return fmt.Errorf("importer: open %s: %w", hostPath, err)
	}
	defer f.Close()

	buf := make([]byte, copyChunkBytes)
	var offset uint64
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if err := im.tl.UnsafeWrite(ctx, created.Ino, offset, buf[:n]); err != nil {
				return fmt.Errorf("importer: write %s at %d: %w", hostPath, offset, err)
			}
			offset += uint64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("importer: read %s: %w", hostPath, readErr)
		}
	}

	if _, err := im.tl.Setattr(ctx, created.Ino, attr); err != nil {
		return fmt.Errorf("importer: setattr %s: %w", hostPath, err)
	}
	im.seen[key] = created.Ino
	return nil
}

func (im *Importer) importSpecial(ctx context.Context, parentIno uint32, name string, kind model.FileType, attr model.FileSetAttr, key hostInode) error {
	created, err := im.tl.Mknod(ctx, parentIno, name, kind, attr)
	if err != nil {
		return fmt.Errorf("importer: mknod %s %s: %w", kind, name, err)
	}
	if _, err := im.tl.Setattr(ctx, created.Ino, attr); err != nil {
		return fmt.Errorf("importer: setattr %s: %w", name, err)
	}
	im.seen[key] = created.Ino
	return nil
}

func statTime(ts unix.Timespec) time.Time {
	return time.Unix(int64(ts.Sec), int64(ts.Nsec))
}

// statPermissions extracts the four permission groups dbfs stores from a
// host stat mode: setuid/setgid/sticky plus owner/group/other rwx.
func statPermissions(mode uint32) model.Permissions {
	var special uint8
	if mode&unix.S_ISUID != 0 {
		special |= 0x4
	}
	if mode&unix.S_ISGID != 0 {
		special |= 0x2
	}
	if mode&unix.S_ISVTX != 0 {
		special |= 0x1
	}
	perm := model.UnpackPermissions(uint16(mode & 0o777))
	perm.Special = special
	return perm
}
