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

package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"github.com/go-dbfs/dbfs/internal/model"
)

func TestStatPermissions(t *testing.T) {
	assert.Equal(t,
		model.Permissions{Owner: 7, Group: 5, Other: 5},
		statPermissions(unix.S_IFREG|0o755))

	assert.Equal(t,
		model.Permissions{Special: 4, Owner: 7, Group: 5, Other: 5},
		statPermissions(unix.S_IFREG|unix.S_ISUID|0o755))

	assert.Equal(t,
		model.Permissions{Special: 1, Owner: 7, Group: 7, Other: 7},
		statPermissions(unix.S_IFDIR|unix.S_ISVTX|0o777))
}

func TestStatTime(t *testing.T) {
	ts := unix.Timespec{Sec: 1700000000, Nsec: 123456789}
	assert.Equal(t, time.Unix(1700000000, 123456789), statTime(ts))
}
