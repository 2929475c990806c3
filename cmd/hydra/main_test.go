package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/fatih/color"

	"hydra/internal/ast"
	"hydra/internal/testkit"
	"hydra/internal/treeio"
)

func writeTree(t *testing.T, dir, name string, p *testkit.Program) string {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	if err := treeio.WriteFile(path, treeio.NewDocument(name, p.B, p.File)); err != nil {
		t.Fatalf("write tree: %v", err)
	}
	return path
}

func goodProgram() *testkit.Program {
	p := testkit.NewProgram()
	p.Fn("first", []ast.FnParam{p.Param("a", p.SizedArray(p.Named("i32"), "N", 0, false))}, p.Named("i32"),
		p.Return(p.Index(p.Ident("a"), p.Int(0))))
	p.Fn("main", nil, ast.NoTypeID,
		p.Let("x", p.Array(p.Named("i32"), 3), p.Ints(1, 2, 3)),
		p.Do(p.Call("first", p.Ident("x"))),
	)
	return p
}

func brokenProgram() *testkit.Program {
	p := testkit.NewProgram()
	p.Fn("main", nil, ast.NoTypeID,
		p.Const("x", p.Named("i32"), p.Int(1)),
		p.Do(p.Assign(p.Ident("x"), p.Int(2))),
	)
	return p
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	runTraceCleanup()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "hydra.toml")
	if err := os.WriteFile(cfg, []byte("[mono]\nmax_depth = 16\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	good := writeTree(t, dir, "good", goodProgram())

	out, err := runRoot(t, "check", "--color", "off", "--config", cfg, "--emit-mono", "--out", outDir, good)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "first<3>") || !strings.Contains(out, "checked 1 unit(s): ok") {
		t.Fatalf("output:\n%s", out)
	}
	f, err := os.Open(filepath.Join(outDir, "good.hyr"))
	if err != nil {
		t.Fatalf("result document: %v", err)
	}
	defer f.Close()
	doc, err := treeio.DecodeResult(f, treeio.FormatMsgpack)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Unit != "good" || len(doc.Specializations) != 1 {
		t.Fatalf("doc = %+v", doc)
	}

	broken := writeTree(t, dir, "broken", brokenProgram())
	out, err = runRoot(t, "check", "--color", "off", "--config", cfg, "--emit-mono=false", "--out", "", broken)
	var exit exitError
	if !errors.As(err, &exit) || exit.code != 1 {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "ERROR SEM3230 broken:") || !strings.Contains(out, "1 with errors") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestCheckRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "hydra.toml")
	if err := os.WriteFile(cfg, []byte("[mono]\ndepth = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	good := writeTree(t, dir, "good", goodProgram())
	if _, err := runRoot(t, "check", "--color", "off", "--config", cfg, "--emit-mono=false", "--out", "", good); err == nil || !strings.Contains(err.Error(), "mono.depth") {
		t.Fatalf("err = %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version", "--color", "off", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, `"tool": "hydra"`) || !strings.Contains(out, `"tree_schema": 1`) {
		t.Fatalf("output:\n%s", out)
	}
}

func TestReadColorMode(t *testing.T) {
	for in, want := range map[string]colorMode{"": colorAuto, "AUTO": colorAuto, "on": colorOn, " off ": colorOff} {
		got, err := readColorMode(in)
		if err != nil || got != want {
			t.Fatalf("readColorMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readColorMode("rainbow"); err == nil {
		t.Fatalf("rainbow accepted")
	}
}

func TestWriteTableAligns(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var b bytes.Buffer
	writeTable(&b, [][]string{{"id", "signature"}, {"1", "f<5>"}, {"12", "g<i32>"}})
	want := "  id  signature\n  1   f<5>\n  12  g<i32>\n"
	if b.String() != want {
		t.Fatalf("table:\n%q\nwant\n%q", b.String(), want)
	}
	if got := truncate(strings.Repeat("x", 60), 10); got != "xxxxxxx..." {
		t.Fatalf("truncate = %q", got)
	}
}

func TestResultName(t *testing.T) {
	tests := map[string]string{
		"good":               "good",
		"dir/unit.yaml":      "unit",
		"/abs/path/tree.hyt": "tree",
		"":                   "unit",
	}
	for in, want := range tests {
		if got := resultName(in); got != want {
			t.Fatalf("resultName(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := resultExtension("xml"); err == nil {
		t.Fatalf("xml accepted")
	}
}

func TestResultNamesDisambiguate(t *testing.T) {
	tests := []struct {
		units []string
		want  []string
	}{
		{[]string{"a/x.yaml", "b/x.yaml"}, []string{"x", "x-2"}},
		{[]string{"a/x.yaml", "b/x.yaml", "c/x.yaml"}, []string{"x", "x-2", "x-3"}},
		{[]string{"a/x.yaml", "b/x.yaml", "x-2.yaml"}, []string{"x", "x-3", "x-2"}},
		{[]string{"x.yaml", "y.yaml"}, []string{"x", "y"}},
	}
	for _, tt := range tests {
		if got := resultNames(tt.units); !slices.Equal(got, tt.want) {
			t.Fatalf("resultNames(%v) = %v, want %v", tt.units, got, tt.want)
		}
	}
}

func TestCheckWritesDistinctResults(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	for _, sub := range []string{"a", "b", "out"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	cfg := filepath.Join(dir, "hydra.toml")
	if err := os.WriteFile(cfg, []byte("[mono]\nmax_depth = 16\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	first := writeTree(t, filepath.Join(dir, "a"), "good", goodProgram())
	second := writeTree(t, filepath.Join(dir, "b"), "good", goodProgram())

	out, err := runRoot(t, "check", "--color", "off", "--config", cfg, "--emit-mono=false", "--out", outDir, first, second)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	for _, name := range []string{"good.hyr", "good-2.hyr"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("result %s: %v", name, err)
		}
	}
}

func TestPaintSeverityPlain(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	for _, line := range []string{"ERROR SEM3230 u:1:2 x", "WARNING SEM1 u:1:2 y", "note u:1:2 z", "plain"} {
		if got := paintSeverity(line); got != line {
			t.Fatalf("paintSeverity(%q) = %q", line, got)
		}
	}
}
