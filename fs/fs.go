// Package appfs embeds the files the binaries need at runtime: SQL migrations and email templates.
package appfs

import "embed"

// Directory patterns skip files starting with "_", so the email layouts are matched by glob.
//
//go:embed migrations templates/email/*
var FS embed.FS
