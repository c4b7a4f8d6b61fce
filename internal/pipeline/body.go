package pipeline

import (
	"errors"
	"io"
	"strings"
)

// Body is the payload of a Request. It holds either a lazy byte stream or
// materialized text, never both. The stream is drained at most once: the
// first call to Text or Bytes reads it to the end, closes it and keeps the
// result, so later stages never see a drained stream.
type Body struct {
	stream io.ReadCloser
	text   string
	ready  bool
}

// StreamBody wraps a lazily read stream. The stream is closed once drained
// or when Close is called.
func StreamBody(r io.ReadCloser) *Body {
	return &Body{stream: r}
}

// TextBody returns a body that is already materialized.
func TextBody(s string) *Body {
	return &Body{text: s, ready: true}
}

// Materialized reports whether the body holds text rather than a stream.
func (b *Body) Materialized() bool {
	return b == nil || b.ready
}

// Text drains the stream (once) and returns the body as a string.
func (b *Body) Text() (string, error) {
	if b == nil {
		return "", nil
	}
	if b.ready {
		return b.text, nil
	}
	if b.stream == nil {
		return "", errors.New("body: no stream")
	}
	data, err := io.ReadAll(b.stream)
	_ = b.stream.Close()
	b.stream = nil
	if err != nil {
		return "", err
	}
	b.text = string(data)
	b.ready = true
	return b.text, nil
}

// Bytes is Text for binary consumers.
func (b *Body) Bytes() ([]byte, error) {
	s, err := b.Text()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// Reader returns a reader over the body. For a stream body it hands out the
// stream itself, so it must be consumed by exactly one reader; materialized
// bodies yield a fresh reader each call.
func (b *Body) Reader() io.Reader {
	if b == nil {
		return strings.NewReader("")
	}
	if b.ready {
		return strings.NewReader(b.text)
	}
	return b.stream
}

// Close releases an undrained stream.
func (b *Body) Close() error {
	if b == nil || b.ready || b.stream == nil {
		return nil
	}
	err := b.stream.Close()
	b.stream = nil
	return err
}
