// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package render turns page templates into HTML responses.

Every page is parsed together with the shared layout at startup, so a broken
template fails the boot instead of the first request. Pages are rendered into
a buffer before anything is written; a template error never produces half a
page.
*/
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/taibuivan/yomira-accounts/internal/users/account"
)

// layoutFile wraps every page; it must define the "layout" template.
const layoutFile = "layout.html"

// # Pages

const (
	PageIndex    = "index"
	PageLogin    = "login"
	PageRegister = "register"
	PageProfile  = "profile"
	PageError    = "error"
)

// Pages lists every page parsed by [New].
var Pages = []string{PageIndex, PageLogin, PageRegister, PageProfile, PageError}

// Page is the data every template receives. The layout reads User, Notice
// and Error; the remaining fields are page-specific.
type Page struct {
	// User is the authenticated visitor, nil when anonymous.
	User *account.User

	Notice string
	Error  string

	// Title and Message describe an error page.
	Title   string
	Message string
}

// Renderer holds the parsed page set.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the layout plus every entry of [Pages] from fsys.
func New(fsys fs.FS) (*Renderer, error) {
	renderer := &Renderer{pages: make(map[string]*template.Template, len(Pages))}

	for _, page := range Pages {
		parsed, err := template.New(layoutFile).ParseFS(fsys, layoutFile, page+".html")
		if err != nil {
			return nil, fmt.Errorf("render_parse_failed: %s: %w", page, err)
		}
		renderer.pages[page] = parsed
	}

	return renderer, nil
}

// HTML renders page with data and writes it with the given status.
func (renderer *Renderer) HTML(writer http.ResponseWriter, status int, page string, data Page) error {
	parsed, ok := renderer.pages[page]
	if !ok {
		return fmt.Errorf("render_unknown_page: %s", page)
	}

	var buffer bytes.Buffer
	if err := parsed.ExecuteTemplate(&buffer, "layout", data); err != nil {
		return fmt.Errorf("render_execute_failed: %s: %w", page, err)
	}

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.Header().Set("Cache-Control", "no-store")
	writer.WriteHeader(status)
	_, err := buffer.WriteTo(writer)
	return err
}
