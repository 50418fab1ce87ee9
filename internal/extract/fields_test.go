package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/tinderscope/api/schemas"
	"github.com/xkilldash9x/tinderscope/internal/browser/dom"
)

func TestClassifyEssential(t *testing.T) {
	tests := []struct {
		item string
		want rowFields
	}{
		{"175 cm", rowFields{HeightCm: intPtr(175)}},
		{"Student at Lakeside College", rowFields{Study: "Student at Lakeside College"}},
		{"Lives in Boston", rowFields{Home: "Boston"}},
		{"2 km away", rowFields{Distance: intPtr(2)}},
		{"Less than a mile away", rowFields{Distance: intPtr(1)}},
		{"Straight", rowFields{Gender: "Straight"}},
		{"Nurse", rowFields{Work: "Nurse"}},
		{"Has 2 dogs", rowFields{}},
		{"Never says no to a long walk", rowFields{}},
	}
	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			var got rowFields
			classifyEssential(tt.item, &got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyRowText(t *testing.T) {
	var f rowFields
	for _, row := range []string{"Woman", "Designer at Studio", "Studied at City School", "Lives in Leeds", "10 kilometres away", "Man"} {
		classifyRowText(row, &f)
	}
	assert.Equal(t, rowFields{
		Work:     "Designer at Studio",
		Study:    "Studied at City School",
		Home:     "Leeds",
		Gender:   "Woman",
		Distance: intPtr(10),
	}, f)
}

func TestParseSections(t *testing.T) {
	root, err := dom.Parse(`<div class="profileContent">
  <section><h2>About me</h2><div class="Typs(body-1-regular)">Weekend baker.</div></section>
  <section><h2>Interests</h2>
    <span class="C($c-ds-text-passions-shared)">Baking</span>
    <span class="C($c-ds-text-passions-shared)">Running</span>
    <span class="C($c-ds-text-passions-shared)">Baking</span>
  </section>
  <section><h2>Lifestyle</h2><ul>
    <li><h3>Pets</h3><div class="Typs(body-1-regular)">Cat</div></li>
    <li>Non-smoker</li>
  </ul></section>
  <section><h2>More about me</h2><ul>
    <li><h3>Zodiac</h3><div class="Typs(body-1-regular)">Libra</div></li>
  </ul></section>
  <section><h2>My Anthem</h2>
    <div class="X C($c-ds-text-primary)">Dreams</div>
    <div class="X C($c-ds-text-secondary)">Fleetwood Mac</div>
  </section>
  <section><h2>My simple pleasures</h2><div class="Typs(display-2-strong)">Sunday markets</div></section>
  <section><h2>Unanswered</h2></section>
</div>`)
	require.NoError(t, err)

	got := parseSections(root)
	assert.Equal(t, "Weekend baker.", got.bio)
	assert.Equal(t, []string{"Baking", "Running"}, got.passions)
	assert.Equal(t, []string{"Pets: Cat", "Non-smoker"}, got.lifestyle)
	assert.Equal(t, []string{"Zodiac: Libra"}, got.basics)
	assert.Equal(t, &schemas.Anthem{Song: "Dreams", Artist: "Fleetwood Mac"}, got.anthem)
	assert.Equal(t, "Dreams - Fleetwood Mac", got.anthem.String())
	assert.Equal(t, []schemas.Prompt{{Question: "My simple pleasures", Answer: "Sunday markets"}}, got.prompts)
}

func TestInstagramFromBio(t *testing.T) {
	tests := []struct {
		bio  string
		want string
	}{
		{"coffee & climbing, follow @jane_doe", "jane_doe"},
		{"IG: jane.d", "jane.d"},
		{"insta janed", "janed"},
		{"ig:janed", "janed"},
		{"instagram : janed", "janed"},
		{"📸 insta", ""},
		{"no handles here", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.bio, func(t *testing.T) {
			assert.Equal(t, tt.want, InstagramFromBio(tt.bio))
		})
	}
}

func TestSocialsFrom(t *testing.T) {
	links := []string{
		"https://www.tiktok.com/@dancer",
		"https://x.com/tweeter/",
		"https://open.spotify.com/artist/123",
		"https://box.com/share",
		"https://www.tiktok.com/@dancer",
		"https://onlyfans.com/creator",
		"https://www.snapchat.com/add/snappy",
	}
	got := socialsFrom("", links, "find me on instagram @gram.me")

	assert.Equal(t, "gram.me", got.Instagram)
	assert.Equal(t, "dancer", got.TikTok)
	assert.Equal(t, "tweeter", got.Twitter)
	assert.Equal(t, "https://open.spotify.com/artist/123", got.Spotify)
	assert.Equal(t, "creator", got.OnlyFans)
	assert.Equal(t, "snappy", got.Snapchat)
	assert.Len(t, got.Links, 6, "duplicate links dropped")

	bioWins := socialsFrom("@from_bio", []string{"https://instagram.com/from_link"}, "")
	assert.Equal(t, "from_bio", bioWins.Instagram)

	bare := socialsFrom("", []string{
		"/app/recs",
		"instagram.com/bare_gram",
		"www.tiktok.com/@bare_tok/",
		"mailto:hi@instagram.com",
	}, "")
	assert.Equal(t, "bare_gram", bare.Instagram)
	assert.Equal(t, "bare_tok", bare.TikTok)
	assert.Len(t, bare.Links, 4)

	hints := socialsFrom("", nil, "tiktok mover\nsnapchat ghosty")
	assert.Equal(t, "mover", hints.TikTok)
	assert.Equal(t, "ghosty", hints.Snapchat)
	assert.Empty(t, hints.Links)
}
