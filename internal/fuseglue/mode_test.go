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
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-dbfs/dbfs/internal/model"
	"github.com/go-dbfs/dbfs/internal/xlate"
)

func TestKindFromModeRoundTrip(t *testing.T) {
	for _, kind := range []model.FileType{
		model.Regular, model.Directory, model.Symlink, model.NamedPipe, model.Socket,
	} {
		assert.Equal(t, kind, kindFromMode(kindTypeBits(kind)), "kind %v", kind)
	}
}

func TestKindFromModeRejectsDevices(t *testing.T) {
	assert.Equal(t, model.Unknown, kindFromMode(os.ModeDevice))
	assert.Equal(t, model.Unknown, kindFromMode(os.ModeCharDevice|os.ModeDevice))
}

func TestPermModeRoundTrip(t *testing.T) {
	cases := []model.Permissions{
		{Owner: 7, Group: 5, Other: 5},
		{Special: 7, Owner: 7, Group: 7, Other: 7},
		{Special: 2, Owner: 6, Group: 0, Other: 0},
		{},
	}
	for _, p := range cases {
		assert.Equal(t, p, modeToPerm(permToMode(p)), "perm %+v", p)
	}
}

func TestPermToModeSpecialBits(t *testing.T) {
	assert.Equal(t, os.ModeSetuid|os.FileMode(0o755), permToMode(model.Permissions{Special: 4, Owner: 7, Group: 5, Other: 5}))
	assert.Equal(t, os.ModeSticky|os.FileMode(0o777), permToMode(model.Permissions{Special: 1, Owner: 7, Group: 7, Other: 7}))
}

func TestAttrToFuseTypeBits(t *testing.T) {
	attr := model.FileAttr{Kind: model.Directory, Permissions: model.Permissions{Owner: 7, Group: 5, Other: 5}}
	got := attrToFuse(attr)
	assert.True(t, got.Mode.IsDir())
	assert.Equal(t, os.FileMode(0o755), got.Mode.Perm())
}

func TestErrnoMapping(t *testing.T) {
	cases := []struct {
		kind xlate.Kind
		want error
	}{
		{xlate.NotFoundError, syscall.ENOENT},
		{xlate.ClientError, syscall.EINVAL},
		{xlate.Unimplemented, syscall.EINTR},
		{xlate.RuntimeError, syscall.EIO},
		{xlate.DbConnectorError, syscall.EIO},
		{xlate.DbLockError, syscall.EIO},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, errno(&xlate.Error{Kind: c.kind, Reason: "test"}), "kind %v", c.kind)
	}
}

func TestErrnoPassesThroughForeignErrors(t *testing.T) {
	assert.Equal(t, syscall.ENOTEMPTY, errno(syscall.ENOTEMPTY))
	assert.NoError(t, errno(nil))
}
