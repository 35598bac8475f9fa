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

	"github.com/spf13/cobra"

	"github.com/go-dbfs/dbfs/internal/dbx"
	"github.com/go-dbfs/dbfs/internal/importer"
	"github.com/go-dbfs/dbfs/internal/logger"
	"github.com/go-dbfs/dbfs/internal/xlate"
)

var importCmd = &cobra.Command{
	Use:   "import <source-path>",
	Short: "Walk a host directory tree and reproduce it inside the filesystem",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]
	cfg := resolvedConfig()
	logger.Init(cfg.LogFile, cfg.LogVerbose)

	db, err := dbx.Open("mysql", cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	tl := xlate.New(db)
	im := importer.New(tl)

	logger.Infof("importing %s", sourcePath)
	if err := im.Import(context.Background(), sourcePath); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	logger.Infof("import complete")
	return nil
}
