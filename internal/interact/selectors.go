package interact

import (
	"fmt"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

// controls lists the accessible labels and test ids of each action's button.
var controls = map[schemas.InteractionAction]struct {
	labels  []string
	testIDs []string
}{
	schemas.ActionAccept: {
		labels:  []string{"Like"},
		testIDs: []string{"like", "gamepadLike", "recLike"},
	},
	schemas.ActionReject: {
		labels:  []string{"Nope", "Dislike"},
		testIDs: []string{"nope", "gamepadDislike", "recNope"},
	},
	schemas.ActionSuperAccept: {
		labels:  []string{"Super Like", "Superlike"},
		testIDs: []string{"superlike", "gamepadSuperlike", "recSuperLike"},
	},
}

// fallbackKeys are the keyboard shortcuts used when no button is clickable.
var fallbackKeys = map[schemas.InteractionAction]string{
	schemas.ActionAccept: schemas.KeyArrowRight,
	schemas.ActionReject: schemas.KeyArrowLeft,
}

// superAcceptDrag is the offset of the swipe-up gesture on the active card.
const (
	superAcceptDX = 0
	superAcceptDY = -200
)

// Selectors returns the CSS selectors tried for action, in order: every label, then
// every test id, each as a button and then as a div with the button role.
func Selectors(action schemas.InteractionAction) []string {
	c := controls[action]
	var out []string
	for _, label := range c.labels {
		out = append(out,
			fmt.Sprintf("button[aria-label='%s']", label),
			fmt.Sprintf("div[role='button'][aria-label='%s']", label))
	}
	for _, id := range c.testIDs {
		out = append(out,
			fmt.Sprintf("button[data-testid='%s']", id),
			fmt.Sprintf("div[role='button'][data-testid='%s']", id))
	}
	return out
}
