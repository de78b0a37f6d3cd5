package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "src/main/kotlin/com/example/Api.kt", `package com.example

annotation class Route(val path: String, val method: String = "GET", vararg val tags: String)
`)
	writeTestFile(t, dir, "src/main/kotlin/com/example/Users.kt", `package com.example

@Route("/users", tags = ["public", "v1"])
class Users
`)
	writeTestFile(t, dir, "src/main/java/com/example/Marker.java", `package com.example;

public @interface Marker {
    int value() default 7;
}
`)
	writeTestFile(t, dir, "src/main/kotlin/com/example/Marked.kt", `package com.example

@Marker
class Marked
`)
	return dir
}

func TestRunDump(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"dump", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"repo: " + filepath.Base(dir),
		"files: 4",
		"annotations[2]{",
		"com.example.Users,com.example.Route,0,path,literal,source,",
		"com.example.Users,com.example.Route,0,method,literal,default,",
		`"{\"public\", \"v1\"}"`,
		"com.example.Marked,com.example.Marker,0,value,literal,default,7,",
		"dependencies[2]{source,target,symbols}:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunDumpTable(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"dump", "--format", "table", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "ANNOTATION") {
		t.Errorf("missing table header:\n%s", out)
	}
	if !strings.Contains(out, `"GET"`) {
		t.Errorf("missing default value:\n%s", out)
	}
}

func TestRunDumpBadFormat(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	err := run([]string{"dump", "--format", "xml", t.TempDir()}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestRunLangFilter(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"dump", "-l", "java", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "files: 1") {
		t.Errorf("expected only the Java file:\n%s", stdout.String())
	}
}

func TestRunUnsupportedLanguage(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	err := run([]string{"dump", "-l", "scala", createSampleRepo(t)}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unsupported language") {
		t.Fatalf("expected unsupported language error, got %v", err)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout.String() != "ktlight dev\n" {
		t.Errorf("version output: %q", stdout.String())
	}
}

func TestRunNoFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "readme.txt", "nothing here")

	var stdout, stderr bytes.Buffer
	err := run([]string{"dump", dir}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "no Kotlin or Java files") {
		t.Fatalf("expected no-files error, got %v", err)
	}
}

func TestRunNotADirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "A.kt", "class A\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"dump", filepath.Join(dir, "A.kt")}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("expected not-a-directory error, got %v", err)
	}
}

func TestRunMaxFileSize(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, "ktlight.toml", "[source]\nmax-file-size = 80\n")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"dump", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stderr.String(), "skipped (too large)") {
		t.Errorf("expected size warning, stderr: %q", stderr.String())
	}
}

func TestRunAttr(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"attr", "--root", dir, "com.example.Users", "Route"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"path", `"/users"`, "method", "default", "tags", "array"} {
		if !strings.Contains(out, want) {
			t.Errorf("attr output missing %q:\n%s", want, out)
		}
	}

	stdout.Reset()
	if err := run([]string{"attr", "-r", dir, "com.example.Users", "com.example.Route", "method"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(stdout.String(), "/users") {
		t.Errorf("single attribute output should not list path:\n%s", stdout.String())
	}
}

func TestRunAttrErrors(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"attr", "-r", dir, "com.example.Users", "Nope"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "no @Nope on com.example.Users") {
		t.Errorf("expected missing annotation error, got %v", err)
	}
	err = run([]string{"attr", "-r", dir, "com.example.Users", "Route", "nope"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), `no attribute "nope"`) {
		t.Errorf("expected missing attribute error, got %v", err)
	}
}

// TestRunStubsFallback builds stubs from one tree and reads them from
// another that only has the usages.
func TestRunStubsFallback(t *testing.T) {
	t.Parallel()
	lib := createSampleRepo(t)
	db := filepath.Join(t.TempDir(), "stubs.db")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"stubs", "build", "--out", db, lib}, &stdout, &stderr); err != nil {
		t.Fatalf("stubs build: %v", err)
	}
	if !strings.Contains(stderr.String(), "wrote 2 annotation classes and 2 usages") {
		t.Errorf("stderr: %q", stderr.String())
	}

	app := t.TempDir()
	writeTestFile(t, app, "ktlight.toml", "[stubs]\npath = "+`"`+filepath.ToSlash(db)+`"`+"\n")
	writeTestFile(t, app, "App.kt", `package com.example

@Route("/app")
class App
`)

	stdout.Reset()
	if err := run([]string{"attr", "-r", app, "com.example.App", "Route", "method"}, &stdout, &stderr); err != nil {
		t.Fatalf("attr: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, `"GET"`) || !strings.Contains(out, "compiled") {
		t.Errorf("expected compiled default:\n%s", out)
	}
}

func TestRunDumpAnnotationFilter(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"dump", "-a", "marker", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "annotations[1]{") || strings.Contains(out, "com.example.Route") {
		t.Errorf("expected only the Marker usage:\n%s", out)
	}
}

func TestRunDumpFileFilter(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"dump", "--file", "Users.kt", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "files: 1") || !strings.Contains(out, "com.example.Route") {
		t.Errorf("expected only Users.kt:\n%s", out)
	}
}
