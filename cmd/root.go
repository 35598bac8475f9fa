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

// Package cmd is the dbfs CLI surface: a single binary with `mount`,
// `format`, and `import` subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-dbfs/dbfs/internal/config"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "dbfs",
	Short: "dbfs - a FUSE filesystem backed entirely by a SQL database",
	Long: `dbfs presents a POSIX-like filesystem whose persistent state lives
entirely in a relational database. Use "dbfs format" once against an empty
database, then "dbfs mount <mountpoint>" to serve it.`,
	SilenceUsage: true,
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db-host", "", "SQL server host:port (default "+config.DefaultSQLHost+")")
	pf.String("db-user", "", "SQL user (default "+config.DefaultSQLUser+")")
	pf.String("db-password", "", "SQL password")
	pf.String("db-name", "", "SQL database name (default "+config.DefaultSQLDB+")")
	pf.Int("cache-bytes", 0, "Write Cache buffer capacity in bytes (default 1MiB)")
	pf.String("log-file", "", "rotate logs to this file instead of stderr")
	pf.Bool("log-verbose", false, "enable debug-level logging")

	_ = v.BindPFlag("db.host", pf.Lookup("db-host"))
	_ = v.BindPFlag("db.user", pf.Lookup("db-user"))
	_ = v.BindPFlag("db.password", pf.Lookup("db-password"))
	_ = v.BindPFlag("db.name", pf.Lookup("db-name"))
	_ = v.BindPFlag("cache.bytes", pf.Lookup("cache-bytes"))
	_ = v.BindPFlag("log.file", pf.Lookup("log-file"))
	_ = v.BindPFlag("log.verbose", pf.Lookup("log-verbose"))

	v.SetEnvPrefix("dbfs")
	v.AutomaticEnv()

	rootCmd.AddCommand(mountCmd, formatCmd, importCmd)
}

func resolvedConfig() config.Config {
	return config.FromViper(v)
}
