package saver

import (
	"github.com/playwright-community/playwright-go"
)

// namedPage is the part of playwright.Page a browser.Session needs.
type namedPage struct {
	playwright.Page
	url string
}

func (p *namedPage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.url = url
	return nil, nil
}

func (p *namedPage) URL() string { return p.url }

func (p *namedPage) Content() (string, error) { return "<html>" + p.url + "</html>", nil }
