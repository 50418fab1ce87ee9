package scope

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/internal/wait"
)

// Expander clicks collapsed-content controls so hidden sections render before extraction.
type Expander struct {
	cfg    Config
	logger *zap.Logger
}

// NewExpander creates an expander.
func NewExpander(cfg Config, logger *zap.Logger) *Expander {
	if cfg.ExpandRuns <= 0 {
		cfg.ExpandRuns = 3
	}
	return &Expander{cfg: cfg, logger: logger.Named("section_expander")}
}

// ExpandSections activates every "view all" control and collapsed expander within s,
// repeating up to the configured number of runs so expanders revealed by a previous
// run are also opened. It stops early once a run finds nothing and returns the
// total number of controls activated.
func (e *Expander) ExpandSections(ctx context.Context, s Scope) int {
	if s == nil {
		return 0
	}
	total := 0
	for run := 0; run < e.cfg.ExpandRuns; run++ {
		var clicked int
		if err := s.RunScript(ctx, expandScript, &clicked); err != nil {
			e.logger.Debug("Section expansion script failed.", zap.Int("run", run), zap.Error(err))
			break
		}
		if clicked <= 0 {
			break
		}
		total += clicked
		if err := wait.Sleep(ctx, e.cfg.Clock, e.cfg.ExpandSettle); err != nil {
			break
		}
	}
	if total > 0 {
		e.logger.Debug("Expanded profile sections.", zap.Int("controls", total))
	}
	return total
}
