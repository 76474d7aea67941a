// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zbc

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// LogLevel is the package-wide diagnostic verbosity: "none" silences every
// diagnostic, the rest step up logrus's usual levels.
type LogLevel string

const (
	LogNone  LogLevel = "none"
	LogError LogLevel = "error"
	LogWarn  LogLevel = "warn"
	LogInfo  LogLevel = "info"
	LogDebug LogLevel = "debug"
)

// SetLogLevel sets the package-wide logrus level used by every backend's
// diagnostic output. "none" redirects output to io.Discard rather than
// merely raising the level past Panic, since logrus has no "off" level of
// its own.
func SetLogLevel(level LogLevel) error {
	if level == LogNone {
		log.SetOutput(io.Discard)
		return nil
	}
	lvl, err := log.ParseLevel(string(level))
	if err != nil {
		log.Warnf("zbc: unknown log level %q, level left unchanged", level)
		return &Error{Kind: KindInvalidArgument, Err: err}
	}
	log.SetOutput(defaultLogOutput)
	log.SetLevel(lvl)
	return nil
}

// defaultLogOutput is logrus's own default (os.Stderr), captured once so
// SetLogLevel(LogNone) can later be reversed without hard-coding os.Stderr
// here.
var defaultLogOutput = log.StandardLogger().Out
