package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

func intPtr(v int) *int { return &v }

func sampleProfile() *schemas.ExtractedProfile {
	return &schemas.ExtractedProfile{
		ID:          "abc123",
		Name:        "Mary Jane",
		Age:         intPtr(27),
		Bio:         "Climber, coffee, \"quotes\"",
		Work:        "Engineer",
		Study:       "State University",
		Home:        "Springfield",
		Distance:    intPtr(1),
		Passions:    []string{"Hiking", "Coffee"},
		Basics:      []string{"Virgo"},
		Anthem:      &schemas.Anthem{Song: "Song", Artist: "Band"},
		LookingFor:  "Long-term partner",
		Prompts:     []schemas.Prompt{{Question: "My simple pleasures", Answer: "Sunsets"}},
		ImageURLs:   []string{"https://images-ssl.gotinder.com/u/abc123/1.jpg", "https://images-ssl.gotinder.com/u/abc123/2.jpg"},
		Socials:     schemas.Socials{Instagram: "mj.climbs"},
		Verified:    true,
		ExtractedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestDefaultFilename(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 3, 7, 0, time.UTC)
	assert.Equal(t, "tinder_profile_Mary_Jane_20240501_090307.json", DefaultFilename(sampleProfile(), FormatJSON, now))
	assert.Equal(t, "tinder_profile_Mary_Jane_20240501_090307.csv", DefaultFilename(sampleProfile(), FormatTable, now))
	assert.Equal(t, "tinder_profile_a_b_20240501_090307.csv", DefaultFilename(&schemas.ExtractedProfile{Name: "a/b"}, FormatCSV, now))
	assert.Equal(t, "tinder_profile_unknown_20240501_090307.json", DefaultFilename(nil, FormatJSON, now))
}

func TestJSONWriter(t *testing.T) {
	t.Run("single profile is an object", func(t *testing.T) {
		buf := &bufferCloser{}
		w, err := NewWriter(FormatJSON, buf)
		require.NoError(t, err)
		require.NoError(t, w.Write(sampleProfile()))
		require.NoError(t, w.Close())
		assert.True(t, buf.closed)

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "Mary Jane", got["name"])
		assert.EqualValues(t, 27, got["age"])
		assert.Equal(t, []any{}, got["lifestyle"], "empty lists render as []")
		assert.Nil(t, got["heightCm"])
		assert.Equal(t, map[string]any{"song": "Song", "artist": "Band"}, got["anthem"])
		assert.Contains(t, buf.String(), "\n  \"id\": \"abc123\"")
	})

	t.Run("several profiles are an array", func(t *testing.T) {
		buf := &bufferCloser{}
		w, err := NewWriter(FormatJSON, buf)
		require.NoError(t, err)
		require.NoError(t, w.Write(sampleProfile()))
		require.NoError(t, w.Write(&schemas.ExtractedProfile{ID: "x", Name: "Bo"}))
		require.NoError(t, w.Close())

		var got []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "Bo", got[1]["name"])
		assert.Nil(t, got[1]["age"])
	})

	t.Run("nothing written", func(t *testing.T) {
		buf := &bufferCloser{}
		w, err := NewWriter(FormatJSON, buf)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		assert.Equal(t, "[]\n", buf.String())
	})
}

func TestFieldCSV(t *testing.T) {
	buf := &bufferCloser{}
	w, err := NewWriter(FormatCSV, buf)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleProfile()))
	require.NoError(t, w.Close())

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, []string{"Field", "Value"}, records[0])

	values := make(map[string]string)
	for _, r := range records[1:] {
		values[r[0]] = r[1]
	}
	assert.Equal(t, "27", values["Age"])
	assert.Equal(t, "Climber, coffee, \"quotes\"", values["Bio"])
	assert.Equal(t, "1", values["Distance"])
	assert.Equal(t, "", values["Height (cm)"])
	assert.Equal(t, "Hiking, Coffee", values["Passions"])
	assert.Equal(t, "Song - Band", values["Anthem"])
	assert.Equal(t, "My simple pleasures: Sunsets", values["Prompts"])
	assert.Equal(t, "true", values["Verified"])
	assert.Equal(t, "https://images-ssl.gotinder.com/u/abc123/1.jpg; https://images-ssl.gotinder.com/u/abc123/2.jpg", values["Image URLs"])
	assert.Equal(t, "2024-05-01T12:00:00Z", values["Extracted At"])
}

func TestTableCSV(t *testing.T) {
	buf := &bufferCloser{}
	w, err := NewWriter(FormatTable, buf)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleProfile()))
	require.NoError(t, w.Write(&schemas.ExtractedProfile{ID: "x", Name: "Bo"}))
	require.NoError(t, w.Close())

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, TableHeader, records[0])
	assert.Equal(t, "abc123", records[1][0])
	assert.Equal(t, "Hiking, Coffee", records[1][9])
	assert.Equal(t, "https://images-ssl.gotinder.com/u/abc123/1.jpg;https://images-ssl.gotinder.com/u/abc123/2.jpg", records[1][15])
	assert.Equal(t, []string{"x", "Bo", "", "", "", "", "", "", "", "", "", "", "", "", "", "", ""}, records[2])
}

func TestTableCSV_EmptyHasHeader(t *testing.T) {
	buf := &bufferCloser{}
	w, err := NewWriter(FormatTable, buf)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, strings.Join(TableHeader, ",")+"\n", buf.String())
}

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	w, err := New(FormatJSON, path)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleProfile()))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Mary Jane"`)

	w, err = New("xml", filepath.Join(t.TempDir(), "out.xml"))
	assert.Nil(t, w)
	assert.ErrorContains(t, err, "unsupported output format: xml")

	w, err = New(FormatCSV, "")
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}
