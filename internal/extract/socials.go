package extract

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/validate"
)

var (
	bioHandleRe     = regexp.MustCompile(`@([A-Za-z0-9_.]{3,})`)
	instagramHintRe = regexp.MustCompile(`(?i)instagram\s*@?([A-Za-z0-9_.]{3,})`)
	tiktokHintRe    = regexp.MustCompile(`(?i)tiktok\s*@?([A-Za-z0-9_.]{3,})`)
	snapchatHintRe  = regexp.MustCompile(`(?i)snap(?:chat)?\s*@?([A-Za-z0-9_.]{3,})`)
	emojiRe         = regexp.MustCompile("[\U0001F600-\U0001F64F\U0001F300-\U0001F5FF\U0001F680-\U0001F6FF\U0001F1E0-\U0001F1FF]+")
)

// instagramKeywords are the prefixes people write before an Instagram handle.
var instagramKeywords = map[string]bool{
	"ig": true, "ig-": true, "ig:": true, "ing": true, "ing:": true,
	"inst": true, "inst:": true, "insta": true, "insta:": true,
	"instag": true, "instag:": true, "instagram": true, "instagram:": true,
}

// InstagramFromBio finds an Instagram handle in free text, either as an @handle or
// following a keyword such as "ig:" or "insta".
func InstagramFromBio(bio string) string {
	if m := bioHandleRe.FindStringSubmatch(bio); m != nil {
		return m[1]
	}
	words := strings.Fields(strings.ToLower(bio))
	for i, w := range words {
		w = emojiRe.ReplaceAllString(w, "")
		if instagramKeywords[w] {
			if i+1 >= len(words) {
				return ""
			}
			next := words[i+1]
			if strings.Contains(next, ":") {
				if i+2 < len(words) {
					return words[i+2]
				}
				return ""
			}
			return next
		}
		if prefix, rest, ok := strings.Cut(w, ":"); ok && instagramKeywords[prefix] && rest != "" {
			return rest
		}
	}
	return ""
}

// socialsFrom assembles socials from the bio, every anchor href and the visible text.
// The first match per platform wins.
func socialsFrom(bio string, links []string, text string) schemas.Socials {
	var out schemas.Socials
	out.Instagram = InstagramFromBio(bio)

	var seen validate.OrderedSet
	for _, link := range links {
		if !seen.Add(link) {
			continue
		}
		u, err := parseLink(link)
		if err != nil {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		last := lastSegment(u.Path)
		switch {
		case hostIs(host, "instagram.com"):
			fill(&out.Instagram, last)
		case hostIs(host, "tiktok.com"):
			fill(&out.TikTok, strings.TrimPrefix(last, "@"))
		case hostIs(host, "snapchat.com"):
			fill(&out.Snapchat, last)
		case hostIs(host, "twitter.com"), hostIs(host, "x.com"):
			fill(&out.Twitter, last)
		case hostIs(host, "onlyfans.com"):
			fill(&out.OnlyFans, last)
		case hostIs(host, "spotify.com"):
			fill(&out.Spotify, link)
		}
	}
	out.Links = seen.Items()

	if m := instagramHintRe.FindStringSubmatch(text); m != nil {
		fill(&out.Instagram, m[1])
	}
	if m := tiktokHintRe.FindStringSubmatch(text); m != nil {
		fill(&out.TikTok, m[1])
	}
	if m := snapchatHintRe.FindStringSubmatch(text); m != nil {
		fill(&out.Snapchat, m[1])
	}
	return out
}

// parseLink parses an href. Scheme-less hrefs such as "instagram.com/x" are read
// as host plus path rather than as a relative path.
func parseLink(link string) (*url.URL, error) {
	u, err := url.Parse(link)
	if err != nil || u.Host != "" || u.Scheme != "" || strings.HasPrefix(link, "/") {
		return u, err
	}
	return url.Parse("//" + link)
}

func hostIs(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func lastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// links returns every anchor href in the target's scopes.
func (t Target) links(ctx context.Context) []string {
	var out []string
	for _, s := range t.scopes() {
		sel, err := s.FindByMarker(ctx, linkMarker)
		if err != nil {
			continue
		}
		sel.Each(func(_ int, a *goquery.Selection) {
			if href := strings.TrimSpace(a.AttrOr("href", "")); href != "" {
				out = append(out, href)
			}
		})
	}
	return out
}
