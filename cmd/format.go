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
	"github.com/go-dbfs/dbfs/internal/logger"
	"github.com/go-dbfs/dbfs/internal/model"
	"github.com/go-dbfs/dbfs/internal/xlate"
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Reset the database to an empty filesystem containing only the root directory",
	Args:  cobra.NoArgs,
	RunE:  runFormat,
}

func runFormat(cmd *cobra.Command, args []string) error {
	cfg := resolvedConfig()
	logger.Init(cfg.LogFile, cfg.LogVerbose)

	db, err := dbx.Open("mysql", cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	tl := xlate.New(db)

	root := model.Permissions{Owner: 7, Group: 5, Other: 5}
	if err := tl.Format(context.Background(), 0, 0, root); err != nil {
		return fmt.Errorf("format: %w", err)
	}

	logger.Infof("formatted database %q at %s", cfg.DB.Database, cfg.DB.Host)
	return nil
}
