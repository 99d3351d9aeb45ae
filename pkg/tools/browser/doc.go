// Package browser drives Chromium through Playwright for page capture.
//
// A Session wraps one browser, one context and one page. It satisfies
// capture.Browser (Navigate, HTML) and sync.Locker, so a capture.Capturer
// holds the session's lock from navigation through extraction and two
// captures sharing a session never observe each other's page.
//
// The SessionManager owns the Playwright driver and named sessions. The
// html_saver tool uses DefaultSessionName unless the caller names another
// session created with start_browser_session.
//
// # Timeouts
//
// Playwright calls are synchronous and take millisecond timeouts. Navigate
// and HTML translate the context deadline into that timeout and return as
// soon as the context is done.
//
// # Example Usage
//
//	manager := browser.NewSessionManager()
//	defer manager.Shutdown()
//
//	session, err := manager.EnsureSession(browser.DefaultSessionName, browser.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//
//	c, err := capture.New(session, capture.NewOSFilesystem(nil))
//	if err != nil {
//	    return err
//	}
//	result, err := c.Capture(ctx, capture.Request{URL: "https://example.com", FilePath: "out/page.html"})
package browser
