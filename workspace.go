package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/phobologic/ktlight/internal/config"
	"github.com/phobologic/ktlight/internal/discover"
	"github.com/phobologic/ktlight/internal/index"
	"github.com/phobologic/ktlight/internal/lang"
	"github.com/phobologic/ktlight/internal/light"
	"github.com/phobologic/ktlight/internal/resolve"
	"github.com/phobologic/ktlight/internal/stubs"
	"github.com/phobologic/ktlight/internal/syntax"
)

// workspace is an indexed source tree with its configuration.
type workspace struct {
	cfg     *config.Config
	snap    *index.Snapshot
	resOpts []resolve.Option
	opts    light.Options
	store   *stubs.Store // compiled fallback; nil when not configured
}

// load indexes the tree at args[0] (default ".") per its configuration.
// With withStubs set, an existing stub database is opened as the compiled
// fallback.
func (g *globals) load(ctx context.Context, args []string, withStubs bool) (*workspace, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := config.LoadOrDefault(root)
	if err != nil {
		return nil, err
	}
	g.configureLogging(cfg)

	langFilter, err := parseLangs(g.langs)
	if err != nil {
		return nil, err
	}

	var entries []discover.FileEntry
	for _, dir := range cfg.RootPaths() {
		prefix, err := filepath.Rel(cfg.Dir, dir)
		if err != nil {
			return nil, fmt.Errorf("source root %s: %w", dir, err)
		}
		files, err := discover.Files(dir, discover.Options{
			Languages:   langFilter,
			Exclude:     cfg.Source.Exclude,
			MaxFileSize: int64(cfg.Source.MaxFileSize),
			Warnings:    g.stderr,
		})
		if err != nil {
			return nil, fmt.Errorf("discovering files: %w", err)
		}
		for _, f := range files {
			f.Path = filepath.ToSlash(filepath.Join(prefix, f.Path))
			entries = append(entries, f)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no Kotlin or Java files found")
	}

	snap, err := index.Build(ctx, cfg.Dir, entries)
	if err != nil {
		return nil, err
	}

	ws := &workspace{
		cfg:     cfg,
		snap:    snap,
		resOpts: []resolve.Option{resolve.WithDefaultImports(cfg.Resolve.DefaultImports)},
		opts:    light.Options{MaxDepth: cfg.View.MaxDepth},
	}
	if path := cfg.StubsPath(); withStubs && path != "" {
		if _, err := os.Stat(path); err == nil {
			if ws.store, err = stubs.Open(path); err != nil {
				return nil, err
			}
			ws.opts.Fallback = ws.store
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stub database: %w", err)
		}
	}
	return ws, nil
}

// cache returns a fresh view cache over the workspace snapshot.
func (ws *workspace) cache() *light.Cache {
	return light.NewCache(resolve.New(ws.snap, ws.resOpts...), ws.opts)
}

func (ws *workspace) Close() error {
	if ws.store == nil {
		return nil
	}
	return ws.store.Close()
}

func (g *globals) configureLogging(cfg *config.Config) {
	var path *string
	if cfg.Log.File != "" {
		p := cfg.Log.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(cfg.Dir, p)
		}
		path = &p
	}
	verbosity := cfg.Log.Verbosity + g.verbose
	if verbosity == 0 && path == nil {
		return
	}
	commonlog.Configure(verbosity, path)
}

func parseLangs(langs string) ([]syntax.Language, error) {
	if langs == "" {
		return nil, nil
	}
	var out []syntax.Language
	for _, name := range strings.Split(langs, ",") {
		name = strings.TrimSpace(name)
		l := syntax.Language(name)
		if _, ok := lang.Languages[l]; !ok {
			return nil, fmt.Errorf("unsupported language %q", name)
		}
		out = append(out, l)
	}
	return out, nil
}
