// Package capture saves the rendered HTML of a web page to a local file.
//
// A capture is a strict three-step sequence against two collaborators:
//
//  1. Navigate: the Browser loads the URL as its current page
//  2. Extract: the Browser returns the serialized HTML of that page
//  3. Persist: the Filesystem ensures the parent directory and writes the file
//
// Each step must finish before the next begins. A failure at any step stops
// the sequence and is reported as an *Error whose Kind names the step.
// Describe renders any outcome as a single display line.
//
// # Sessions
//
// The browser handle is passed explicitly to New and its lifetime belongs to
// the caller. Captures that share a handle are serialized from navigate
// through extract, so one capture never reads another's page. File writes
// are not coordinated: concurrent overwrites of one path are last-writer-wins
// and concurrent appends may interleave.
//
// # Example Usage
//
//	capturer, err := capture.New(session, capture.NewOSFilesystem(guard))
//	result, err := capturer.Capture(ctx, capture.Request{
//	    URL:      "https://example.com",
//	    FilePath: "out/example.html",
//	    Mode:     capture.ModeOverwrite,
//	})
//	fmt.Println(capture.Describe(result, err))
package capture
