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

// Package writecache coalesces the kernel's small sequential writes into
// block-sized batches: a single background worker buffers writes to one
// inode at a time and flushes them through the Translation Layer's
// UnsafeWrite path when the buffer fills, the write stream moves elsewhere,
// or the worker goes idle.
package writecache

import (
	"context"
	"time"

	"github.com/go-dbfs/dbfs/internal/config"
	"github.com/go-dbfs/dbfs/internal/logger"
)

// Target is the write sink the cache flushes into, implemented by
// *xlate.Layer.
type Target interface {
	UnsafeWrite(ctx context.Context, inode uint32, offset uint64, data []byte) error
}

// idleFlush is how long the worker waits for a message before flushing
// whatever is buffered and going back to sleep.
const idleFlush = config.DefaultCacheIdleFlushMillis * time.Millisecond

// writeCmd is a buffered write request.
type writeCmd struct {
	inode  uint32
	offset uint64
	data   []byte
}

type message struct {
	write *writeCmd // nil for a bare flush request
	done  chan struct{}
}

// Cache coalesces sequential writes to a single inode before pushing them
// through the Translation Layer's unsafe_write path.
type Cache struct {
	msgs chan message
}

// New starts the worker goroutine and returns a handle to it. size is the
// coalescing buffer's capacity in bytes.
func New(tl Target, size int) *Cache {
	c := &Cache{msgs: make(chan message)}
	w := &worker{tl: tl, buf: make([]byte, size), lastInode: ^uint32(0)}
	go w.run(c.msgs)
	return c
}

// Write buffers data for inode at offset, coalescing it with any
// still-buffered run for the same inode, and blocks until the worker has
// accepted (and, if necessary, flushed) it.
func (c *Cache) Write(inode uint32, offset uint64, data []byte) {
	done := make(chan struct{})
	c.msgs <- message{write: &writeCmd{inode: inode, offset: offset, data: data}, done: done}
	<-done
}

// Flush forces the worker to push any buffered bytes to the Translation
// Layer and blocks until it has done so.
func (c *Cache) Flush() {
	done := make(chan struct{})
	c.msgs <- message{done: done}
	<-done
}

type worker struct {
	tl  Target
	buf []byte
	ptr int

	inodeOffset uint64
	lastInode   uint32
}

func (w *worker) run(msgs <-chan message) {
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if msg.write != nil {
				w.write(*msg.write)
			} else {
				w.flush()
			}
			close(msg.done)
		case <-time.After(idleFlush):
			w.flush()
		}
	}
}

func (w *worker) write(cmd writeCmd) {
	if cmd.inode != w.lastInode || cmd.offset < w.inodeOffset || cmd.offset >= w.inodeOffset+uint64(len(w.buf)) {
		w.flush()
		w.lastInode = cmd.inode
		w.inodeOffset = cmd.offset
	}

	written := 0
	for written < len(cmd.data) {
		availInCache := len(w.buf) - w.ptr
		toWrite := len(cmd.data) - written
		willWrite := toWrite
		if availInCache < willWrite {
			willWrite = availInCache
		}

		copy(w.buf[w.ptr:w.ptr+willWrite], cmd.data[written:written+willWrite])
		w.ptr += willWrite
		if w.ptr >= len(w.buf) {
			w.flush()
		}

		written += willWrite
	}
}

func (w *worker) flush() {
	if w.ptr == 0 {
		return
	}

	logger.Debugf("cache: flushing inode %d, offset %d, %d bytes", w.lastInode, w.inodeOffset, w.ptr)

	if err := w.tl.UnsafeWrite(context.Background(), w.lastInode, w.inodeOffset, w.buf[:w.ptr]); err != nil {
		logger.Errorf("cache: flush failed for inode %d: %v", w.lastInode, err)
	}

	w.inodeOffset += uint64(w.ptr)
	w.ptr = 0
}
