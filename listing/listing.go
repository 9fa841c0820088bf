// Package listing formats the selection list shown next to the viewer.
package listing

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/yuin/goldmark"

	"github.com/wudi/redactkit/selection"
)

// Labels are the user-facing strings of the list.
type Labels struct {
	Title string
	Count func(n int) string
	Empty string
	Page  string
	Area  string
}

func English() Labels {
	return Labels{
		Title: "Selection List",
		Count: func(n int) string { return fmt.Sprintf("%d selected", n) },
		Empty: "No selections",
		Page:  "Page",
		Area:  "Area",
	}
}

func Japanese() Labels {
	return Labels{
		Title: "選択リスト",
		Count: func(n int) string { return fmt.Sprintf("%d 件選択", n) },
		Empty: "選択なし",
		Page:  "ページ",
		Area:  "エリア",
	}
}

// ForLanguage picks labels by language code; anything unknown is English.
func ForLanguage(lang string) Labels {
	if lang == "ja" {
		return Japanese()
	}
	return English()
}

// Entry is one line of the list. Index is 1-based in page order.
type Entry struct {
	ID     string
	Page   int
	Index  int
	Width  int
	Height int
}

// Entries orders sels by page, keeping insertion order within a page, and
// rounds sizes to whole points.
func Entries(sels []selection.Selection) []Entry {
	sorted := selection.SortedByPage(sels)
	out := make([]Entry, len(sorted))
	for i, s := range sorted {
		out[i] = Entry{
			ID:     s.ID,
			Page:   s.Page,
			Index:  i + 1,
			Width:  int(math.Round(s.Width)),
			Height: int(math.Round(s.Height)),
		}
	}
	return out
}

func (e Entry) Text(l Labels) string {
	return fmt.Sprintf("%s %d · %s %d: %d×%d", l.Page, e.Page, l.Area, e.Index, e.Width, e.Height)
}

// Markdown writes the list as a Markdown document.
func Markdown(w io.Writer, sels []selection.Selection, l Labels) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "## %s\n\n", l.Title)
	entries := Entries(sels)
	if len(entries) == 0 {
		fmt.Fprintf(&b, "_%s_\n", l.Empty)
	} else {
		fmt.Fprintf(&b, "%s\n\n", l.Count(len(entries)))
		for _, e := range entries {
			fmt.Fprintf(&b, "- **%s %d** · %s %d: %d×%d `%s`\n", l.Page, e.Page, l.Area, e.Index, e.Width, e.Height, e.ID)
		}
	}
	_, err := w.Write(b.Bytes())
	return err
}

// HTML renders the Markdown list to HTML with goldmark.
func HTML(w io.Writer, sels []selection.Selection, l Labels) error {
	var src bytes.Buffer
	if err := Markdown(&src, sels, l); err != nil {
		return err
	}
	if err := goldmark.New().Convert(src.Bytes(), w); err != nil {
		return fmt.Errorf("render selection list: %w", err)
	}
	return nil
}
