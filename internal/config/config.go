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

// Package config holds the build-time and runtime-tunable settings for dbfs:
// database connection parameters, the fixed block size, and write-cache
// sizing. Values are bound through viper so they can come from flags,
// environment variables, or defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// FileBlockSize is the fixed block size used to chunk file contents in the
// `block` table. Changing it requires reformatting the database; it is not a
// runtime option.
const FileBlockSize = 4096

// MaxNameLength is the maximum byte length of a `file.name` entry.
const MaxNameLength = 255

// RootInodeID is the inode id reserved for the filesystem root.
const RootInodeID = 1

const (
	DefaultSQLHost = "127.0.0.1:3306"
	DefaultSQLUser = "dbfs"
	DefaultSQLPass = "dbfs"
	DefaultSQLDB   = "dbfs"

	// DefaultWriteCacheBytes is the Write Cache's default buffer capacity.
	DefaultWriteCacheBytes = 1 << 20 // 1 MiB

	// DefaultCacheIdleFlushMillis is how long, in milliseconds, the Write
	// Cache worker waits for a message before flushing and going back to
	// sleep.
	DefaultCacheIdleFlushMillis = 100
)

// DB holds connection parameters for the backing MySQL-compatible server.
type DB struct {
	Host     string
	User     string
	Password string
	Database string
}

// DSN renders the go-sql-driver/mysql data source name for these settings.
func (d DB) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&multiStatements=false", d.User, d.Password, d.Host, d.Database)
}

// Config is the fully-resolved runtime configuration for a dbfs invocation.
type Config struct {
	DB DB

	// WriteCacheBytes is the capacity of the Write Cache's buffer.
	WriteCacheBytes int

	// AllowRoot and AllowOther map to the FUSE mount options of the same name.
	AllowRoot  bool
	AllowOther bool

	// LogFile, when non-empty, routes log output through lumberjack rotation
	// instead of stderr.
	LogFile    string
	LogVerbose bool
}

// FromViper resolves a Config from a bound viper instance, applying defaults
// for anything left unset.
func FromViper(v *viper.Viper) Config {
	cfg := Config{
		DB: DB{
			Host:     v.GetString("db.host"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Database: v.GetString("db.name"),
		},
		WriteCacheBytes: v.GetInt("cache.bytes"),
		AllowRoot:       v.GetBool("allow-root"),
		AllowOther:      v.GetBool("allow-other"),
		LogFile:         v.GetString("log.file"),
		LogVerbose:      v.GetBool("log.verbose"),
	}

	if cfg.DB.Host == "" {
		cfg.DB.Host = DefaultSQLHost
	}
	if cfg.DB.User == "" {
		cfg.DB.User = DefaultSQLUser
	}
	if cfg.DB.Password == "" {
		cfg.DB.Password = DefaultSQLPass
	}
	if cfg.DB.Database == "" {
		cfg.DB.Database = DefaultSQLDB
	}
	if cfg.WriteCacheBytes <= 0 {
		cfg.WriteCacheBytes = DefaultWriteCacheBytes
	}

	return cfg
}
