package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/browser/dom"
	"github.com/xkilldash9x/tinderscope/internal/validate"
)

// sectionData is everything read from the h2-headed sections of one scope.
type sectionData struct {
	bio            string
	lookingFor     string
	lookingForTags []string
	passions       []string
	lifestyle      []string
	basics         []string
	essentials     []string
	anthem         *schemas.Anthem
	prompts        []schemas.Prompt
}

// parseSections walks every h2 of root and files its section by normalized heading.
func parseSections(root *goquery.Selection) sectionData {
	var out sectionData
	var tags, passions, lifestyle, basics, essentials validate.OrderedSet
	root.Find("h2").Each(func(_ int, h *goquery.Selection) {
		heading := dom.Text(h)
		title := validate.NormalizeSpace(heading)
		if title == "" {
			return
		}
		c := sectionContainer(h)

		switch {
		case title == "about me" || title == "bio":
			if out.bio == "" {
				out.bio = bodyText(c)
			}
		case strings.Contains(title, "looking for"):
			if out.lookingFor == "" {
				out.lookingFor = dom.Text(c.Find(lookingForMarker).First())
			}
			tags.AddAll(dom.Texts(c.Find(lookingForTagMarker))...)
		case title == "interests" || title == "passions":
			for _, chip := range chips(c, passionChipMarker, legacyChipMarker) {
				if len([]rune(chip)) < maxPassionChipRunes {
					passions.Add(chip)
				}
			}
		case title == "lifestyle":
			lifestyle.AddAll(labeledItems(c)...)
		case title == "more about me":
			basics.AddAll(labeledItems(c)...)
		case title == "essentials":
			items := essentialsItems(c)
			essentials.AddAll(items...)
			basics.AddAll(items...)
		case title == "basics":
			basics.AddAll(chips(c, legacyChipMarker)...)
		case title == "my anthem":
			if out.anthem == nil {
				out.anthem = anthemOf(c)
			}
		default:
			if answer := dom.Text(c.Find(promptAnswerMarker).First()); answer != "" {
				out.prompts = append(out.prompts, schemas.Prompt{Question: heading, Answer: answer})
			}
		}
	})

	out.lookingForTags = tags.Items()
	out.passions = passions.Items()
	out.lifestyle = lifestyle.Items()
	out.basics = basics.Items()
	out.essentials = essentials.Items()
	return out
}

// sectionContainer returns the element holding a heading and its content.
func sectionContainer(h *goquery.Selection) *goquery.Selection {
	if sec := h.Closest("section"); sec.Length() > 0 {
		return sec
	}
	div := h.Closest("div")
	if div.Length() == 0 {
		return h.Parent()
	}
	if p := div.Parent(); p.Length() > 0 && p.Find("h2").Length() == 1 {
		return p
	}
	return div
}

// bodyText returns the section's body copy without its heading.
func bodyText(c *goquery.Selection) string {
	if v := strings.TrimSpace(dom.InnerText(c.Find(bodyTextMarker).First())); v != "" {
		return v
	}
	clone := c.Clone()
	clone.Find("h2").Remove()
	return strings.TrimSpace(dom.InnerText(clone))
}

// chips returns the texts of the first marker that matches in c, falling back to
// list items and then to leaf spans outside the heading.
func chips(c *goquery.Selection, markers ...string) []string {
	for _, m := range markers {
		if texts := dom.Texts(c.Find(m)); len(texts) > 0 {
			return texts
		}
	}
	if texts := dom.Texts(c.Find("li")); len(texts) > 0 {
		return texts
	}
	leaves := c.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("span").Length() == 0 && s.Closest("h2").Length() == 0
	})
	return dom.Texts(leaves)
}

// labeledItems renders list items as "label: value" when both parts are present.
func labeledItems(c *goquery.Selection) []string {
	var out []string
	c.Find("li").Each(func(_ int, li *goquery.Selection) {
		label := dom.Text(li.Find("h3").First())
		value := dom.Text(li.Find(bodyTextMarker).First())
		if label != "" && value != "" {
			out = append(out, label+": "+value)
			return
		}
		if v := dom.Text(li); v != "" {
			out = append(out, v)
		}
	})
	return out
}

func essentialsItems(c *goquery.Selection) []string {
	var out []string
	c.Find("li").Each(func(_ int, li *goquery.Selection) {
		v := dom.Text(li.Find(bodyTextMarker).First())
		if v == "" {
			v = dom.Text(li)
		}
		if v != "" {
			out = append(out, v)
		}
	})
	return out
}

func anthemOf(c *goquery.Selection) *schemas.Anthem {
	song := dom.Text(c.Find(anthemSongMarker).First())
	artist := dom.Text(c.Find(anthemArtistMarker).First())
	if song == "" {
		lines := strings.Split(bodyText(c), "\n")
		song = strings.TrimSpace(lines[0])
		if len(lines) > 1 {
			artist = strings.TrimSpace(lines[1])
		}
	}
	if song == "" {
		return nil
	}
	return &schemas.Anthem{Song: song, Artist: artist}
}

// legacyData reads the fixed-class section layout of the previous UI generation.
type legacyData struct {
	bio      string
	passions []string
}

func parseLegacy(root *goquery.Selection) legacyData {
	var (
		out      legacyData
		passions validate.OrderedSet
	)
	out.bio = strings.TrimSpace(dom.InnerText(root.Find(legacyBioMarker).First()))
	root.Find(legacySectionMarker).Each(func(_ int, sec *goquery.Selection) {
		if validate.NormalizeSpace(dom.Text(sec.Find("h2").First())) == "passions" {
			passions.AddAll(dom.Texts(sec.Find(legacyChipMarker))...)
		}
	})
	out.passions = passions.Items()
	return out
}
