package export

import (
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonWriter buffers profiles and writes one indented object, or an array when
// more than one profile was written.
type jsonWriter struct {
	mu       sync.Mutex
	w        io.WriteCloser
	profiles []*schemas.ExtractedProfile
}

func newJSONWriter(w io.WriteCloser) *jsonWriter {
	return &jsonWriter{w: w}
}

func (j *jsonWriter) Write(p *schemas.ExtractedProfile) error {
	if p == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.profiles = append(j.profiles, p)
	return nil
}

func (j *jsonWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var v any = j.profiles
	switch len(j.profiles) {
	case 0:
		v = []*schemas.ExtractedProfile{}
	case 1:
		v = j.profiles[0]
	}
	data, err := MarshalProfile(v)
	if err != nil {
		j.w.Close()
		return err
	}
	if _, err := j.w.Write(append(data, '\n')); err != nil {
		j.w.Close()
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return j.w.Close()
}

// MarshalProfile renders v as indented JSON with empty lists as [] rather than null.
func MarshalProfile(v any) ([]byte, error) {
	switch p := v.(type) {
	case *schemas.ExtractedProfile:
		v = withEmptyLists(p)
	case []*schemas.ExtractedProfile:
		out := make([]*schemas.ExtractedProfile, len(p))
		for i := range p {
			out[i] = withEmptyLists(p[i])
		}
		v = out
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	return data, nil
}

func withEmptyLists(p *schemas.ExtractedProfile) *schemas.ExtractedProfile {
	c := *p
	for _, l := range []*[]string{&c.Passions, &c.Lifestyle, &c.Basics, &c.LookingForTags, &c.ImageURLs, &c.Socials.Links} {
		if *l == nil {
			*l = []string{}
		}
	}
	if c.Prompts == nil {
		c.Prompts = []schemas.Prompt{}
	}
	return &c
}
