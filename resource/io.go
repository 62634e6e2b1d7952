package resource

import (
	"context"
	"io"
)

// LimitWriter wraps w so every Write first waits for the controller's IO
// budget. A nil controller passes writes through untouched.
func LimitWriter(ctx context.Context, c *Controller, w io.Writer) io.Writer {
	if c == nil || c.ioLimiter == nil {
		return w
	}
	return &limitedWriter{ctx: ctx, c: c, w: w}
}

// LimitReader wraps r so every Read first waits for the controller's IO
// budget, sized by the read buffer.
func LimitReader(ctx context.Context, c *Controller, r io.Reader) io.Reader {
	if c == nil || c.ioLimiter == nil {
		return r
	}
	return &limitedReader{ctx: ctx, c: c, r: r}
}

type limitedWriter struct {
	ctx context.Context
	c   *Controller
	w   io.Writer
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if err := w.c.WaitIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

type limitedReader struct {
	ctx context.Context
	c   *Controller
	r   io.Reader
}

func (r *limitedReader) Read(p []byte) (int, error) {
	if err := r.c.WaitIO(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
