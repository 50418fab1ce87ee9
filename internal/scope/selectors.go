package scope

// Markup fingerprints of the two observed UI generations. They are heuristics with
// an unknown shelf life.
const (
	OverlayMarker     = "div.profileContent"
	DialogSelector    = "div[role='dialog'], div[aria-modal='true']"
	NameMarker        = "[itemprop='name']"
	AgeMarker         = "[itemprop='age']"
	BackButtonMarker  = "[data-testid='profileBackButton']"
	ProfilePathMarker = "/profile"
)

// CardSelectors find the active card, most specific first.
var CardSelectors = []string{
	"div[data-keyboard-gamepad='true'][aria-hidden='false']",
	"div[data-keyboard-gamepad='true']:not([aria-hidden])",
	"div[data-keyboard-gamepad='true']",
}

// OpenProfileSelectors are the known controls that open the detail overlay.
var OpenProfileSelectors = []string{
	"button[aria-label*='Open profile' i]",
	"button[data-testid*='profileOpen' i]",
	"button[data-testid*='openProfile' i]",
	"div[role='button'][aria-label*='Open profile' i]",
}

// openButtonScript clicks a card button whose label text mentions "Open profile".
const openButtonScript = `
  const buttons = Array.from(root.querySelectorAll('button'));
  for (const btn of buttons) {
    const spans = Array.from(btn.querySelectorAll('span'));
    if (spans.some(s => /open profile/i.test(s.textContent || ''))) {
      btn.click();
      return true;
    }
  }
  return false;`

// expandScript activates "view all" controls and collapsed expanders within root.
const expandScript = `
  const buttons = Array.from(root.querySelectorAll('button,[role="button"]'))
    .filter(el => /view all/i.test(el.textContent || ''));
  const expanders = Array.from(root.querySelectorAll('[role="button"][aria-expanded="false"]'));
  const toClick = [...new Set([...buttons, ...expanders])];
  toClick.forEach(el => { try { el.click(); } catch (e) {} });
  return toClick.length;`
