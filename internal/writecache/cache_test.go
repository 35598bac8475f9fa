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

package writecache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTarget captures every flushed run so tests can assert on what
// reached the Translation Layer.
type recordingTarget struct {
	flushes []flushRecord
	err     error
}

type flushRecord struct {
	inode  uint32
	offset uint64
	data   []byte
}

func (r *recordingTarget) UnsafeWrite(_ context.Context, inode uint32, offset uint64, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	r.flushes = append(r.flushes, flushRecord{inode: inode, offset: offset, data: buf})
	return r.err
}

func newTestWorker(size int) (*worker, *recordingTarget) {
	rec := &recordingTarget{}
	return &worker{tl: rec, buf: make([]byte, size), lastInode: ^uint32(0)}, rec
}

func TestWorkerCoalescesSequentialWrites(t *testing.T) {
	w, rec := newTestWorker(16)

	w.write(writeCmd{inode: 1, offset: 0, data: []byte("hello")})
	assert.EqualValues(t, 1, w.lastInode)
	assert.EqualValues(t, 0, w.inodeOffset)
	assert.Equal(t, 5, w.ptr)

	w.write(writeCmd{inode: 1, offset: 5, data: []byte(" world")})
	assert.Equal(t, 11, w.ptr)
	assert.Equal(t, "hello world", string(w.buf[:w.ptr]))
	assert.Empty(t, rec.flushes, "nothing should reach the database before a flush")
}

func TestWorkerFlushesOnInodeChange(t *testing.T) {
	w, rec := newTestWorker(16)

	w.write(writeCmd{inode: 1, offset: 0, data: []byte("abc")})
	w.write(writeCmd{inode: 2, offset: 0, data: []byte("xyz")})

	require.Len(t, rec.flushes, 1)
	assert.EqualValues(t, 1, rec.flushes[0].inode)
	assert.EqualValues(t, 0, rec.flushes[0].offset)
	assert.Equal(t, "abc", string(rec.flushes[0].data))

	assert.EqualValues(t, 2, w.lastInode)
	assert.Equal(t, "xyz", string(w.buf[:w.ptr]))
}

func TestWorkerFlushesOnNonContiguousOffset(t *testing.T) {
	w, rec := newTestWorker(16)

	w.write(writeCmd{inode: 1, offset: 0, data: []byte("abc")})
	w.write(writeCmd{inode: 1, offset: 100, data: []byte("xyz")})

	require.Len(t, rec.flushes, 1)
	assert.Equal(t, "abc", string(rec.flushes[0].data))
	assert.EqualValues(t, 100, w.inodeOffset)
	assert.Equal(t, "xyz", string(w.buf[:w.ptr]))
}

func TestWorkerSplitsWritesLargerThanBuffer(t *testing.T) {
	w, rec := newTestWorker(8)

	w.write(writeCmd{inode: 3, offset: 0, data: []byte("0123456789abcdefgh")})

	// Two full buffers flushed, two bytes left pending.
	require.Len(t, rec.flushes, 2)
	assert.EqualValues(t, 0, rec.flushes[0].offset)
	assert.Equal(t, "01234567", string(rec.flushes[0].data))
	assert.EqualValues(t, 8, rec.flushes[1].offset)
	assert.Equal(t, "89abcdef", string(rec.flushes[1].data))
	assert.Equal(t, "gh", string(w.buf[:w.ptr]))
	assert.EqualValues(t, 16, w.inodeOffset)
}

func TestFlushAdvancesBaseOffset(t *testing.T) {
	w, rec := newTestWorker(16)

	w.write(writeCmd{inode: 1, offset: 32, data: []byte("abcd")})
	w.flush()

	require.Len(t, rec.flushes, 1)
	assert.EqualValues(t, 32, rec.flushes[0].offset)
	assert.EqualValues(t, 36, w.inodeOffset)
	assert.Equal(t, 0, w.ptr)
}

func TestFlushNoopWhenEmpty(t *testing.T) {
	w, rec := newTestWorker(16)
	w.flush()
	assert.Empty(t, rec.flushes)
	assert.Equal(t, 0, w.ptr)
}

func TestFlushSwallowsTargetErrors(t *testing.T) {
	w, rec := newTestWorker(16)
	rec.err = assert.AnError

	w.write(writeCmd{inode: 1, offset: 0, data: []byte("abcd")})
	w.flush()

	// The error is logged, the buffer still resets.
	require.Len(t, rec.flushes, 1)
	assert.Equal(t, 0, w.ptr)
	assert.EqualValues(t, 4, w.inodeOffset)
}

func TestCacheEndToEndAck(t *testing.T) {
	rec := &recordingTarget{}
	c := New(rec, 8)

	// Write returns only after the worker handled the message, so a Flush
	// right after must observe the buffered bytes.
	c.Write(5, 0, []byte("data"))
	c.Flush()

	require.Len(t, rec.flushes, 1)
	assert.EqualValues(t, 5, rec.flushes[0].inode)
	assert.Equal(t, "data", string(rec.flushes[0].data))
}
