// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package web embeds the HTML templates served by the accounts site.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var embedded embed.FS

// Templates returns the template directory as a flat file system.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		// The directory is embedded at build time; Sub can only fail on a bad path literal.
		panic(err)
	}
	return sub
}
