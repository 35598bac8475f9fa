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
	"errors"
	"syscall"

	"github.com/go-dbfs/dbfs/internal/xlate"
)

// errno maps a Translation Layer error to its kernel error code:
// DbConnectorError, DbLockError and RuntimeError all become I/O error;
// NotFoundError becomes no-such-file; ClientError becomes invalid-argument;
// Unimplemented is interrupted. Errors that did not originate from the
// Translation Layer pass through unchanged so a caller can still return a
// specific errno (e.g. ENOTEMPTY for rmdir).
func errno(err error) error {
	if err == nil {
		return nil
	}

	var xerr *xlate.Error
	if !errors.As(err, &xerr) {
		return err
	}

	switch xerr.Kind {
	case xlate.NotFoundError:
		return syscall.ENOENT
	case xlate.ClientError:
		return syscall.EINVAL
	case xlate.Unimplemented:
		return syscall.EINTR
	default: // DbConnectorError, DbLockError, RuntimeError
		return syscall.EIO
	}
}
