// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "strconv"

const notAvailable = "N/A"

// BuildInfo identifies a node or server binary: the linker-injected release
// fields plus the newest schema migration it embeds. Two peers with the same
// SchemaVersion agree on the table layout regardless of release.
type BuildInfo struct {
	Version       string
	Date          string
	Commit        string
	SchemaVersion int64
}

// NewBuildInfo collects the build metadata of a binary.
func NewBuildInfo(version, date, commit string, schemaVersion int64) BuildInfo {
	return BuildInfo{
		Version:       version,
		Date:          date,
		Commit:        commit,
		SchemaVersion: schemaVersion,
	}
}

// Lines renders the startup banner, one field per line. Unset fields show as N/A.
func (b BuildInfo) Lines() []string {
	schema := notAvailable
	if b.SchemaVersion > 0 {
		schema = strconv.FormatInt(b.SchemaVersion, 10)
	}

	return []string{
		"Build version: " + orNotAvailable(b.Version),
		"Build date: " + orNotAvailable(b.Date),
		"Build commit: " + orNotAvailable(b.Commit),
		"Schema version: " + schema,
	}
}

func orNotAvailable(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
