package schemas

import "time"

// -- Extracted Profile Schemas --

// Anthem is the song a profile pins to its page.
type Anthem struct {
	Song   string `json:"song"`
	Artist string `json:"artist,omitempty"`
}

// String renders the anthem as "song - artist".
func (a *Anthem) String() string {
	if a == nil {
		return ""
	}
	if a.Artist == "" {
		return a.Song
	}
	return a.Song + " - " + a.Artist
}

// Prompt is a question/answer pair shown under a free-form heading.
type Prompt struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Socials holds handles discovered for known platforms plus every raw link seen.
type Socials struct {
	Instagram string   `json:"instagram,omitempty"`
	TikTok    string   `json:"tiktok,omitempty"`
	Snapchat  string   `json:"snapchat,omitempty"`
	Twitter   string   `json:"twitter,omitempty"`
	OnlyFans  string   `json:"onlyfans,omitempty"`
	Spotify   string   `json:"spotify,omitempty"`
	Links     []string `json:"links"`
}

// ExtractedProfile is the best-effort record pulled out of one profile view.
// Only Name is guaranteed; pointer fields are nil when absent.
type ExtractedProfile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Age            *int      `json:"age"`
	Bio            string    `json:"bio,omitempty"`
	Work           string    `json:"work,omitempty"`
	Study          string    `json:"study,omitempty"`
	Home           string    `json:"home,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Distance       *int      `json:"distance"`
	HeightCm       *int      `json:"heightCm,omitempty"`
	Passions       []string  `json:"passions"`
	Lifestyle      []string  `json:"lifestyle"`
	Basics         []string  `json:"basics"`
	Anthem         *Anthem   `json:"anthem"`
	LookingFor     string    `json:"lookingFor,omitempty"`
	LookingForTags []string  `json:"lookingForTags"`
	Prompts        []Prompt  `json:"prompts"`
	ImageURLs      []string  `json:"imageUrls"`
	Socials        Socials   `json:"socials"`
	Verified       bool      `json:"verified"`
	RecentlyActive bool      `json:"recentlyActive"`
	ExtractedAt    time.Time `json:"extractedAt"`
}

// InteractionAction names one of the three swipe actions.
type InteractionAction string

const (
	ActionAccept      InteractionAction = "like"
	ActionReject      InteractionAction = "nope"
	ActionSuperAccept InteractionAction = "superlike"
)
