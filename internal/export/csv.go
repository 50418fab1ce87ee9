package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

// FieldRows renders a profile as Field,Value pairs.
func FieldRows(p *schemas.ExtractedProfile) [][]string {
	return [][]string{
		{"ID", p.ID},
		{"Name", p.Name},
		{"Age", formatInt(p.Age)},
		{"Bio", p.Bio},
		{"Work", p.Work},
		{"Study", p.Study},
		{"Home", p.Home},
		{"Gender", p.Gender},
		{"Distance", formatInt(p.Distance)},
		{"Height (cm)", formatInt(p.HeightCm)},
		{"Instagram", p.Socials.Instagram},
		{"TikTok", p.Socials.TikTok},
		{"Snapchat", p.Socials.Snapchat},
		{"Passions", joinList(p.Passions)},
		{"Lifestyle", joinList(p.Lifestyle)},
		{"Basics", joinList(p.Basics)},
		{"Anthem", p.Anthem.String()},
		{"Looking For", p.LookingFor},
		{"Looking For Tags", joinList(p.LookingForTags)},
		{"Prompts", formatPrompts(p.Prompts)},
		{"Verified", strconv.FormatBool(p.Verified)},
		{"Recently Active", strconv.FormatBool(p.RecentlyActive)},
		{"Image URLs", strings.Join(p.ImageURLs, "; ")},
		{"Extracted At", formatTime(p.ExtractedAt)},
	}
}

// TableHeader lists the columns of the table format.
var TableHeader = []string{
	"id", "name", "age", "bio", "work", "study", "home", "gender", "distance",
	"passions", "lifestyle", "basics", "anthem", "looking_for", "instagram",
	"image_urls", "extracted_at",
}

// TableRow renders a profile as one row under TableHeader.
func TableRow(p *schemas.ExtractedProfile) []string {
	return []string{
		p.ID,
		p.Name,
		formatInt(p.Age),
		p.Bio,
		p.Work,
		p.Study,
		p.Home,
		p.Gender,
		formatInt(p.Distance),
		joinList(p.Passions),
		joinList(p.Lifestyle),
		joinList(p.Basics),
		p.Anthem.String(),
		p.LookingFor,
		p.Socials.Instagram,
		strings.Join(p.ImageURLs, ";"),
		formatTime(p.ExtractedAt),
	}
}

// csvWriter streams rows, writing header once before the first profile.
type csvWriter struct {
	mu     sync.Mutex
	out    io.WriteCloser
	w      *csv.Writer
	header []string
	rows   func(p *schemas.ExtractedProfile) [][]string
	wrote  bool
}

func newFieldWriter(out io.WriteCloser) *csvWriter {
	return &csvWriter{out: out, w: csv.NewWriter(out), header: []string{"Field", "Value"}, rows: FieldRows}
}

func newTableWriter(out io.WriteCloser) *csvWriter {
	return &csvWriter{
		out:    out,
		w:      csv.NewWriter(out),
		header: TableHeader,
		rows:   func(p *schemas.ExtractedProfile) [][]string { return [][]string{TableRow(p)} },
	}
}

func (c *csvWriter) Write(p *schemas.ExtractedProfile) error {
	if p == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.wrote {
		if err := c.w.Write(c.header); err != nil {
			return err
		}
		c.wrote = true
	}
	if err := c.w.WriteAll(c.rows(p)); err != nil {
		return err
	}
	return c.w.Error()
}

func (c *csvWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.wrote {
		if err := c.w.Write(c.header); err != nil {
			c.out.Close()
			return err
		}
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.out.Close()
		return err
	}
	return c.out.Close()
}
