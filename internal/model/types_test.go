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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileTypeTagRoundTrip(t *testing.T) {
	for _, kind := range []FileType{Regular, Directory, Symlink, NamedPipe, Socket} {
		assert.Equal(t, kind, ParseFileType(kind.Tag()), "kind %v", kind)
	}
}

func TestFileTypeTags(t *testing.T) {
	assert.Equal(t, "-", Regular.Tag())
	assert.Equal(t, "d", Directory.Tag())
	assert.Equal(t, "l", Symlink.Tag())
	assert.Equal(t, "p", NamedPipe.Tag())
	assert.Equal(t, "s", Socket.Tag())
	assert.Empty(t, Unknown.Tag())
}

func TestParseFileTypeRejectsGarbage(t *testing.T) {
	assert.Equal(t, Unknown, ParseFileType(""))
	assert.Equal(t, Unknown, ParseFileType("x"))
	assert.Equal(t, Unknown, ParseFileType("dd"))
}

func TestPermissionsPack(t *testing.T) {
	p := Permissions{Special: 0o2, Owner: 0o7, Group: 0o5, Other: 0o1}
	assert.Equal(t, uint16(0o2751), p.Pack())
}

func TestPermissionsPackRoundTrip(t *testing.T) {
	cases := []Permissions{
		{},
		{Owner: 7, Group: 7, Other: 7},
		{Special: 7, Owner: 7, Group: 7, Other: 7},
		{Special: 1, Owner: 6, Group: 4, Other: 0},
	}
	for _, p := range cases {
		assert.Equal(t, p, UnpackPermissions(p.Pack()), "perm %+v", p)
	}
}

func TestInodeProjections(t *testing.T) {
	row := Inode{
		FileType:    "d",
		SpecialBits: 1,
		UserPerm:    7,
		GroupPerm:   5,
		OtherPerm:   5,
	}
	assert.Equal(t, Directory, row.Kind())
	assert.Equal(t, Permissions{Special: 1, Owner: 7, Group: 5, Other: 5}, row.Permissions())
}
