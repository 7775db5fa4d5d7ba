package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool
	NoColor      bool

	// Stdout receives formatted results, Stderr log and error lines.
	// Named apart from the embedded context's Err method.
	Stdout io.Writer
	Stderr io.Writer

	// DefaultTimeout bounds each batch of device submissions; zero disables it
	DefaultTimeout time.Duration

	// Progress reporting
	ProgressCallback func(message string, percent int)
}

// NewContext creates a new application context
func NewContext() *Context {
	return &Context{
		Context:        context.Background(),
		OutputFormat:   "table",
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		DefaultTimeout: 30 * time.Second,
	}
}

// WithTimeout creates a context with timeout. A non-positive timeout only
// adds cancellation.
func (c *Context) WithTimeout(timeout time.Duration) (*Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(c.Context, timeout)
	} else {
		ctx, cancel = context.WithCancel(c.Context)
	}
	newCtx := *c
	newCtx.Context = ctx
	return &newCtx, cancel
}

// SetProgress sets the progress callback function
func (c *Context) SetProgress(callback func(string, int)) {
	c.ProgressCallback = callback
}

// Progress reports progress if callback is set
func (c *Context) Progress(message string, percent int) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(message, percent)
	}
}

// Log outputs a message based on verbosity settings
func (c *Context) Log(message string) {
	if !c.Quiet && c.Verbose {
		fmt.Fprintln(c.errWriter(), message)
	}
}

// Error outputs an error message unless quiet
func (c *Context) Error(message string) {
	if !c.Quiet {
		fmt.Fprintln(c.errWriter(), "Error:", message)
	}
}

// Output returns the writer for formatted results
func (c *Context) Output() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c *Context) errWriter() io.Writer {
	if c.Stderr == nil {
		return os.Stderr
	}
	return c.Stderr
}
