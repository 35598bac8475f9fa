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

// Package logger wraps the standard library logger with leveled entry
// points and optional lumberjack-backed file rotation.
package logger

import (
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.Mutex
	std     = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	verbose = false
)

// Init points the logger at a rotating file (when path is non-empty) and
// sets the debug-logging threshold.
func Init(path string, debug bool) {
	mu.Lock()
	defer mu.Unlock()

	verbose = debug

	var w io.Writer = os.Stderr
	if path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	std = log.New(w, "", log.LstdFlags|log.Lmicroseconds)
}

func Info(args ...any) {
	mu.Lock()
	defer mu.Unlock()
	std.Print(append([]any{"INFO: "}, args...)...)
}

func Warn(args ...any) {
	mu.Lock()
	defer mu.Unlock()
	std.Print(append([]any{"WARN: "}, args...)...)
}

func Error(args ...any) {
	mu.Lock()
	defer mu.Unlock()
	std.Print(append([]any{"ERROR: "}, args...)...)
}

func Infof(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	std.Printf("INFO: "+format, args...)
}

func Warnf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	std.Printf("WARN: "+format, args...)
}

func Errorf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	std.Printf("ERROR: "+format, args...)
}

// Debug and Debugf are no-ops unless Init was called with debug=true.
func Debug(args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	std.Print(append([]any{"DEBUG: "}, args...)...)
}

func Debugf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	std.Printf("DEBUG: "+format, args...)
}
