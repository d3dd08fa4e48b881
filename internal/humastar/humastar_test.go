package humastar

import "testing"

func TestConsole(t *testing.T) {
	got := console("warn", `Icons: overlay: missing column: "Path"`)
	want := `console.warn("Icons: overlay: missing column: \"Path\"");`
	if got != want {
		t.Errorf("console() = %s, want %s", got, want)
	}
}

func TestDataInit(t *testing.T) {
	if got := DataInit("/a", "/b?q=1"); got != "@get('/a') @get('/b?q=1')" {
		t.Errorf("DataInit = %q", got)
	}
	if got := DataInit(); got != "" {
		t.Errorf("DataInit() = %q", got)
	}
}
