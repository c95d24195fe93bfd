package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lemmi/glubapi/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type newOptions struct {
	Author   string
	Title    string
	Dirname  string
	Section  string
	Priority int
	Hidden   bool
	Simulate bool
	Edit     bool
}

var newOpts newOptions

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new entry below pages/<section>",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, meta, err := scaffold(cfg.Prefix, newOpts, time.Now())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, dir)
		fmt.Fprintln(out, string(meta))
		if newOpts.Edit && !newOpts.Simulate {
			return edit(dir)
		}
		return nil
	},
}

func init() {
	f := newCmd.Flags()
	f.StringVar(&newOpts.Author, "author", "Webmaster", "Set the autorname")
	f.StringVar(&newOpts.Title, "title", "New Page", "Set the title")
	f.StringVar(&newOpts.Dirname, "dirname", "", "Set the directory name, derived from date and title if empty")
	f.StringVar(&newOpts.Section, "section", "blog", "Section to create the entry in")
	f.IntVar(&newOpts.Priority, "priority", 0, "Set the priority")
	f.BoolVar(&newOpts.Hidden, "hidden", false, "Hide the page")
	f.BoolVarP(&newOpts.Simulate, "simulate", "n", false, "Only show the result")
	f.BoolVarP(&newOpts.Edit, "edit", "e", false, "Open $EDITOR (or vim) to edit the files")
}

var umlauts = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss")

// delspace keeps the characters allowed in a slug.
func delspace(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		return r
	}
	return '_'
}

func slugify(t time.Time, title string) string {
	return t.Format("2006-01-02_") + strings.Map(delspace, umlauts.Replace(strings.ToLower(title)))
}

// scaffold writes meta.json and article.md of a new entry and returns the
// entry directory and the encoded meta.
func scaffold(prefix string, o newOptions, now time.Time) (string, []byte, error) {
	if o.Dirname == "" {
		o.Dirname = slugify(now, o.Title)
	}
	dir := filepath.Join(prefix, store.PagesDir, o.Section, o.Dirname)

	meta := store.Meta{
		Author:   o.Author,
		Title:    o.Title,
		Date:     store.GCTime(now),
		Priority: o.Priority,
		Hidden:   o.Hidden,
		Content: []store.Content{
			{Type: "text", Path: "article.md"},
			{Type: "image", Path: filepath.ToSlash(filepath.Join("images", o.Dirname, "0001.jpg"))},
		},
	}
	b, err := json.MarshalIndent(meta, "", "\t")
	if err != nil {
		return "", nil, errors.Wrap(err, "Cannot encode meta")
	}
	if o.Simulate {
		return dir, b, nil
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return "", nil, errors.Wrapf(err, "Cannot create section %q", o.Section)
	}
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", nil, errors.Wrapf(err, "Cannot create entry %q", dir)
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), b, 0644); err != nil {
		return "", nil, errors.Wrap(err, "Cannot write meta.json")
	}
	if err := writeArticle(filepath.Join(dir, "article.md"), o.Title); err != nil {
		return "", nil, err
	}
	return dir, b, nil
}

func writeArticle(name, title string) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "Cannot create %q", name)
	}
	defer f.Close()
	return errors.Wrapf(article(f, title), "Cannot write %q", name)
}

func article(w io.Writer, title string) error {
	if _, err := fmt.Fprintf(w, "# %s\n\n", title); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "*Foto: *\n")
	return err
}

func edit(dir string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	path, err := exec.LookPath(editor)
	if err != nil {
		return errors.Wrapf(err, "Cannot find %q", editor)
	}
	args := []string{filepath.Join(dir, "article.md"), filepath.Join(dir, "meta.json")}
	if filepath.Base(path) == "vim" {
		args = append([]string{"-O"}, args...)
	}
	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return errors.Wrap(cmd.Run(), editor)
}
