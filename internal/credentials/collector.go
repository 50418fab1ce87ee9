package credentials

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

// Collector reads several sources concurrently and merges their output.
// Earlier sources take precedence when two provide the same cookie or storage key.
type Collector struct {
	sources []Source
	domains []string
	logger  *zap.Logger
}

// NewCollector creates a collector restricted to cookies of domains.
func NewCollector(logger *zap.Logger, domains []string, sources ...Source) *Collector {
	if len(domains) == 0 {
		domains = DefaultDomains
	}
	return &Collector{sources: sources, domains: domains, logger: logger.Named("credential_collector")}
}

// Collect runs every source. A failing source is logged and skipped; the call
// fails with ErrNoCredentials only when the merged result is empty.
func (c *Collector) Collect(ctx context.Context) (schemas.StorageState, error) {
	results := make([]schemas.StorageState, len(c.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		i, src := i, src
		g.Go(func() error {
			state, err := src.Read(gctx)
			if err != nil {
				c.logger.Warn("Credential source failed.", zap.String("source", src.Name()), zap.Error(err))
			}
			results[i] = state
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return schemas.StorageState{}, err
	}
	if err := ctx.Err(); err != nil {
		return schemas.StorageState{}, err
	}

	merged := Merge(c.domains, results...)
	c.logger.Info("Collected credentials.",
		zap.Int("cookies", len(merged.Cookies)),
		zap.Int("origins", len(merged.LocalStorage)))
	if merged.Empty() {
		return merged, ErrNoCredentials
	}
	return merged, nil
}

// Merge combines states in priority order. Cookies outside domains are dropped,
// domains are normalized and duplicates by (domain, path, name) keep the first.
func Merge(domains []string, states ...schemas.StorageState) schemas.StorageState {
	out := schemas.StorageState{
		Cookies:      []schemas.Cookie{},
		LocalStorage: map[string]map[string]string{},
	}
	seen := make(map[string]bool)
	for _, st := range states {
		for _, ck := range st.Cookies {
			if ck.Name == "" || !InDomains(ck.Domain, domains) {
				continue
			}
			ck.Domain = NormalizeDomain(ck.Domain)
			if ck.Path == "" {
				ck.Path = "/"
			}
			if seen[ck.Key()] {
				continue
			}
			seen[ck.Key()] = true
			out.Cookies = append(out.Cookies, ck)
		}
		for origin, items := range st.LocalStorage {
			dst := out.LocalStorage[origin]
			if dst == nil {
				dst = make(map[string]string, len(items))
				out.LocalStorage[origin] = dst
			}
			for k, v := range items {
				if _, ok := dst[k]; !ok {
					dst[k] = v
				}
			}
		}
	}
	for origin, items := range out.LocalStorage {
		if len(items) == 0 {
			delete(out.LocalStorage, origin)
		}
	}
	return out
}
