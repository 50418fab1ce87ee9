package dom

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardMarkup = `<div data-keyboard-gamepad="true" aria-hidden="false">
  <div class="Row"><svg><title>Photo Verified</title><path d="M1 2z"></path></svg><div>Lives in Berlin</div></div>
  <div><h1 aria-label="Sam 27 years"><span class="Pend(8px)">Sam</span></h1><span>27</span></div>
  <p>Line one<br>Line   two</p>
  <script>var ignored = 1;</script>
</div>`

func TestParse(t *testing.T) {
	root, err := Parse(cardMarkup)
	require.NoError(t, err)

	assert.Equal(t, "div", goquery.NodeName(root))
	v, ok := root.Attr("aria-hidden")
	require.True(t, ok)
	assert.Equal(t, "false", v)
	assert.Equal(t, 1, root.Find("h1").Length())

	_, err = Parse("   ")
	assert.ErrorIs(t, err, ErrEmptySnapshot)
}

func TestInnerText(t *testing.T) {
	root, err := Parse(cardMarkup)
	require.NoError(t, err)

	assert.Equal(t, "Lives in Berlin\nSam\n27\nLine one\nLine two", InnerText(root))
	assert.Equal(t, "Sam", InnerText(root.Find("h1")))
}

func TestBackgroundImageURL(t *testing.T) {
	tests := []struct {
		style string
		want  string
		ok    bool
	}{
		{`background-image: url("https://images-ssl.gotinder.com/u/1/a.jpg"); background-size: cover`, "https://images-ssl.gotinder.com/u/1/a.jpg", true},
		{`background-image:url('https://x/y.jpg')`, "https://x/y.jpg", true},
		{`background-image: url(https://x/z.webp)`, "https://x/z.webp", true},
		{`background-color: red`, "", false},
		{``, "", false},
	}
	for _, tt := range tests {
		got, ok := BackgroundImageURL(tt.style)
		assert.Equal(t, tt.ok, ok, tt.style)
		assert.Equal(t, tt.want, got, tt.style)
	}
}

func TestXPath(t *testing.T) {
	root, err := Parse(cardMarkup)
	require.NoError(t, err)

	nodes, err := XPath(root, ".//*[starts-with(@d, 'M')]")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	assert.Equal(t, "27", XPathText(root, ".//div[h1]/span[1]"))
	assert.Equal(t, "", XPathText(root, ".//article"))

	_, err = XPath(root, "[[[")
	assert.Error(t, err)
}

func TestTexts(t *testing.T) {
	root, err := Parse(`<ul><li> a </li><li></li><li>b  c</li></ul>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b c"}, Texts(root.Find("li")))
	assert.Equal(t, "a b c", Text(root))
}
