package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type countingReader struct {
	r      io.Reader
	reads  int
	closed bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func (c *countingReader) Close() error {
	c.closed = true
	return nil
}

func TestBody_DrainsStreamOnce(t *testing.T) {
	src := &countingReader{r: strings.NewReader("hello")}
	b := StreamBody(src)
	if b.Materialized() {
		t.Fatalf("stream body should not start materialized")
	}
	s1, err := b.Text()
	if err != nil {
		t.Fatalf("Text err=%v", err)
	}
	reads := src.reads
	s2, err := b.Text()
	if err != nil {
		t.Fatalf("second Text err=%v", err)
	}
	if s1 != "hello" || s2 != "hello" {
		t.Fatalf("got %q then %q", s1, s2)
	}
	if src.reads != reads {
		t.Fatalf("stream read again after materialization")
	}
	if !src.closed {
		t.Fatalf("drained stream should be closed")
	}
	if !b.Materialized() {
		t.Fatalf("body should be materialized after Text")
	}
	got, _ := io.ReadAll(b.Reader())
	if string(got) != "hello" {
		t.Fatalf("Reader after materialization=%q", got)
	}
}

func TestRequest_Discriminator(t *testing.T) {
	if d := NewRequest("/App.vue", "type=template").Discriminator(); d != "template" {
		t.Fatalf("discriminator=%q", d)
	}
	if d := NewRequest("/App.vue", "").Discriminator(); d != "" {
		t.Fatalf("discriminator=%q", d)
	}
	if d := NewRequest("/App.vue", "%zz").Discriminator(); d != "" {
		t.Fatalf("malformed query discriminator=%q", d)
	}
}

func TestTypeByExtension(t *testing.T) {
	cases := map[string]string{
		"/main.js":        MIMEJavaScript,
		"/a/b/style.CSS":  MIMECSS,
		"/index.html":     "text/html",
		"/src/logo.png":   "image/png",
		"/src/photo.jpeg": "image/jpeg",
		"/App.vue":        MIMEOctet,
		"/LICENSE":        MIMEOctet,
	}
	for in, want := range cases {
		if got := TypeByExtension(in); got != want {
			t.Fatalf("TypeByExtension(%q)=%q want %q", in, got, want)
		}
	}
}

func TestContentTypeHeader(t *testing.T) {
	if got := ContentTypeHeader(MIMEJavaScript); got != "application/javascript; charset=utf-8" {
		t.Fatalf("js header=%q", got)
	}
	if got := ContentTypeHeader("image/png"); got != "image/png" {
		t.Fatalf("png header=%q", got)
	}
}

func TestChain_StopsAtFirstError(t *testing.T) {
	var ran []string
	mk := func(name string, err error) Stage {
		return StageFunc{StageName: name, Fn: func(_ context.Context, _ *Request) error {
			ran = append(ran, name)
			return err
		}}
	}
	boom := &NotFoundError{Path: "/x"}
	err := Chain{mk("a", nil), mk("b", boom), mk("c", nil)}.Run(context.Background(), NewRequest("/x", ""))
	if len(ran) != 2 {
		t.Fatalf("ran=%v", ran)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err=%v not a NotFoundError", err)
	}
	if !strings.HasPrefix(err.Error(), "b: ") {
		t.Fatalf("err not tagged with stage name: %v", err)
	}
	if StatusFor(err) != http.StatusNotFound {
		t.Fatalf("status=%d", StatusFor(err))
	}
}

func TestStatusFor(t *testing.T) {
	if StatusFor(nil) != http.StatusOK {
		t.Fatalf("nil should be 200")
	}
	if StatusFor(&ResolutionError{Specifier: "vue"}) != http.StatusInternalServerError {
		t.Fatalf("resolution error should be 500")
	}
	if StatusFor(&MalformedComponentError{Path: "/A.vue", Part: "script"}) != http.StatusInternalServerError {
		t.Fatalf("malformed component should be 500")
	}
}
