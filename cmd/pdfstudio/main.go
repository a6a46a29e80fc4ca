// Command pdfstudio applies editor operations to PDF files from the command
// line. It drives the same registry and tool pipeline as the interactive
// editor, one document session per invocation.
//
// Usage:
//
//	pdfstudio rotate -in a.pdf -pages 1,3 -delta 90
//	pdfstudio watermark -in a.pdf -text DRAFT
//	pdfstudio delete -in a.pdf -pages 2
//	pdfstudio merge -in a.pdf -with b.pdf
//	pdfstudio split -in a.pdf -at 3
//	pdfstudio note -in a.pdf -md notes.md
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wudi/pdfstudio/editor"
	"github.com/wudi/pdfstudio/observability"
	"github.com/wudi/pdfstudio/tools"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	in := fs.String("in", "", "input PDF file")
	pages := fs.String("pages", "", "comma-separated 1-based page numbers")
	delta := fs.Int("delta", 90, "rotation in degrees, multiple of 90")
	text := fs.String("text", "", "text for watermark/stamp")
	with := fs.String("with", "", "second PDF file for merge")
	at := fs.Int("at", 1, "split after this page")
	md := fs.String("md", "", "markdown file for note")
	verbose := fs.Bool("v", false, "log progress to stderr")
	fs.Parse(os.Args[2:])

	if *in == "" {
		fatal(fmt.Errorf("-in is required"))
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		fatal(err)
	}

	var opts []editor.Option
	if *verbose {
		opts = append(opts, editor.WithLogger(observability.NewWriterLogger(os.Stderr)))
	}
	ctx := context.Background()
	reg := editor.NewRegistry(opts...)
	doc, err := reg.Open(ctx, data, *in)
	if err != nil {
		fatal(err)
	}

	switch cmd {
	case "rotate":
		err = tools.RotatePages(ctx, reg, doc, parsePages(*pages), *delta)
	case "watermark":
		err = tools.WatermarkText(ctx, reg, doc, *text, tools.WatermarkOptions{})
	case "delete":
		err = tools.DeletePages(ctx, reg, doc, parsePages(*pages))
	case "merge":
		err = runMerge(ctx, reg, doc, *with)
	case "split":
		err = runSplit(ctx, reg, doc, *at)
		if err == nil {
			return // runSplit writes its own outputs
		}
	case "note":
		err = runNote(ctx, reg, doc, *md)
	default:
		usage()
	}
	if err != nil {
		fatal(err)
	}

	out, name := editor.Export(doc)
	if err := os.WriteFile(name, out, 0o644); err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %s (%d pages)\n", name, doc.PageCount())
}

func runMerge(ctx context.Context, reg *editor.Registry, doc *editor.Document, with string) error {
	if with == "" {
		return fmt.Errorf("-with is required for merge")
	}
	data, err := os.ReadFile(with)
	if err != nil {
		return err
	}
	other, err := reg.Open(ctx, data, with)
	if err != nil {
		return err
	}
	return tools.Merge(ctx, reg, doc, other)
}

func runSplit(ctx context.Context, reg *editor.Registry, doc *editor.Document, at int) error {
	first, second, err := tools.Split(ctx, reg, doc, at)
	if err != nil {
		return err
	}
	for _, part := range []*editor.Document{first, second} {
		out, name := editor.Export(part)
		if err := os.WriteFile(name, out, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d pages)\n", name, part.PageCount())
	}
	return nil
}

func runNote(ctx context.Context, reg *editor.Registry, doc *editor.Document, md string) error {
	if md == "" {
		return fmt.Errorf("-md is required for note")
	}
	src, err := os.ReadFile(md)
	if err != nil {
		return err
	}
	return tools.InsertNotePage(ctx, reg, doc, string(src), tools.NoteMarkdown)
}

func parsePages(s string) []int {
	if s == "" {
		return nil
	}
	var pages []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			fatal(fmt.Errorf("bad page number %q", part))
		}
		pages = append(pages, n)
	}
	return pages
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pdfstudio {rotate|watermark|delete|merge|split|note} [flags]")
	os.Exit(2)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "pdfstudio:", err)
	os.Exit(1)
}
