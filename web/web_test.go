package web

import (
	"io/fs"
	"testing"
)

func TestStaticFSRooted(t *testing.T) {
	for _, name := range []string{"app.js", "style.css"} {
		if _, err := fs.Stat(StaticFS, name); err != nil {
			t.Errorf("stat %s: %v", name, err)
		}
	}
}

func TestTemplatesEmbedded(t *testing.T) {
	matches, err := fs.Glob(Templates, "templates/*.html")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) == 0 {
		t.Error("no templates embedded")
	}
}
