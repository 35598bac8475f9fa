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

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/jacobsa/timeutil"
	"github.com/spf13/cobra"

	"github.com/go-dbfs/dbfs/internal/dbx"
	"github.com/go-dbfs/dbfs/internal/fuseglue"
	"github.com/go-dbfs/dbfs/internal/logger"
	"github.com/go-dbfs/dbfs/internal/writecache"
	"github.com/go-dbfs/dbfs/internal/xlate"
)

var mountCmd = &cobra.Command{
	Use:   "mount <mountpoint>",
	Short: "Mount the filesystem and serve it until unmounted",
	Args:  cobra.ExactArgs(1),
	RunE:  runMount,
}

func init() {
	mountCmd.Flags().Bool("allow-root", false, "allow the root user to access the mount even if it did not create it")
	mountCmd.Flags().Bool("allow-other", false, "allow users other than the mount's creator to access it")
	_ = v.BindPFlag("allow-root", mountCmd.Flags().Lookup("allow-root"))
	_ = v.BindPFlag("allow-other", mountCmd.Flags().Lookup("allow-other"))
}

func runMount(cmd *cobra.Command, args []string) error {
	mountPoint := args[0]
	cfg := resolvedConfig()
	logger.Init(cfg.LogFile, cfg.LogVerbose)

	db, err := dbx.Open("mysql", cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	clock := timeutil.RealClock()
	tl := xlate.New(db)
	cache := writecache.New(tl, cfg.WriteCacheBytes)
	fs := fuseglue.New(tl, cache, clock, uint32(os.Getuid()), uint32(os.Getgid()))

	mountCfg := &fuse.MountConfig{
		FSName:      "dbfs",
		Subtype:     "dbfs",
		VolumeName:  "dbfs",
		ErrorLogger: log.New(os.Stderr, "fuse: ", log.LstdFlags),
	}
	if cfg.LogVerbose {
		mountCfg.DebugLogger = log.New(os.Stderr, "fuse_debug: ", log.LstdFlags)
	}
	if cfg.AllowOther {
		mountCfg.Options = map[string]string{"allow_other": ""}
	} else if cfg.AllowRoot {
		mountCfg.Options = map[string]string{"allow_root": ""}
	}

	server := fuseutil.NewFileSystemServer(fs)

	// Instance id ties together log lines from concurrent mounts against the
	// same database.
	logger.Infof("mounting dbfs at %s (instance %s)", mountPoint, uuid.New())
	mfs, err := fuse.Mount(mountPoint, server, mountCfg)
	if err != nil {
		return fmt.Errorf("fuse.Mount: %w", err)
	}

	if err := mfs.Join(context.Background()); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
