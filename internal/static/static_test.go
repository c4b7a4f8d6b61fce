package static

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/r9s-ai/devserve/internal/pipeline"
)

func TestStage_ServesFilesByteIdentical(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	project := fstest.MapFS{
		"index.html":  {Data: []byte("<!doctype html>")},
		"src/main.js": {Data: []byte("import App from './App.vue'\n")},
		"src/app.css": {Data: []byte(".a{color:red}")},
	}
	public := fstest.MapFS{
		"favicon.png": {Data: png},
		"index.html":  {Data: []byte("shadowed")},
	}
	st := New(project, public).Stage()

	cases := []struct {
		path string
		typ  string
		body []byte
	}{
		{"/", "text/html", []byte("<!doctype html>")},
		{"/index.html", "text/html", []byte("<!doctype html>")},
		{"/src/main.js", pipeline.MIMEJavaScript, []byte("import App from './App.vue'\n")},
		{"/src/app.css", pipeline.MIMECSS, []byte(".a{color:red}")},
		{"/favicon.png", "image/png", png},
	}
	for _, tc := range cases {
		req := pipeline.NewRequest(tc.path, "")
		if err := st.Apply(context.Background(), req); err != nil {
			t.Fatalf("%s: Apply err=%v", tc.path, err)
		}
		if req.Type != tc.typ {
			t.Fatalf("%s: type=%q want %q", tc.path, req.Type, tc.typ)
		}
		if req.Body.Materialized() {
			t.Fatalf("%s: body should be a lazy stream", tc.path)
		}
		got, err := req.Body.Bytes()
		if err != nil {
			t.Fatalf("%s: read body: %v", tc.path, err)
		}
		if !bytes.Equal(got, tc.body) {
			t.Fatalf("%s: body=%q want %q", tc.path, got, tc.body)
		}
	}
}

func TestStage_NotFound(t *testing.T) {
	st := New(fstest.MapFS{"src/dir/a.js": {Data: []byte("x")}}).Stage()
	for _, p := range []string{"/missing.js", "/src/dir", "/../etc/passwd"} {
		req := pipeline.NewRequest(p, "")
		err := st.Apply(context.Background(), req)
		var nf *pipeline.NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("%s: err=%v want NotFoundError", p, err)
		}
		if req.Body != nil {
			t.Fatalf("%s: body set on miss", p)
		}
	}
}
