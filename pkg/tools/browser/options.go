package browser

import (
	"github.com/entrhq/pagecapture/pkg/config"
)

// OptionsFromSettings maps the browser config section onto session options.
func OptionsFromSettings(s config.BrowserSettings) SessionOptions {
	opts := SessionOptions{
		Headless:       s.Headless,
		Viewport:       &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
		Timeout:        DefaultTimeout,
		WaitUntil:      s.WaitUntil,
		ExecutablePath: s.BrowserBin,
	}
	if s.Timeout > 0 {
		opts.Timeout = float64(s.Timeout.Milliseconds())
	}
	if opts.WaitUntil == "" {
		opts.WaitUntil = DefaultWaitUntil
	}
	return opts
}

// DefaultOptions returns session options from the global config, or the
// package defaults when config is not initialized.
func DefaultOptions() SessionOptions {
	if section := config.GetBrowser(); section != nil {
		return OptionsFromSettings(section.Settings())
	}
	return OptionsFromSettings(config.NewBrowserSection().Settings())
}
