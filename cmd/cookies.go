package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/internal/credentials"
)

type cookiesOptions struct {
	cookieFile  string
	storageFile string
	browser     string
	idbFile     string
}

func newCookiesCmd(a *app) *cobra.Command {
	var opts cookiesOptions
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Collect Tinder credentials from local browsers into the session files",
		Long: `Reads Tinder cookies from local browser cookie stores (Firefox profiles first)
and Tinder local storage from Firefox profiles, merges them with the existing session
files and writes the cookie and local storage JSON files used by scrape and swipe.
With --indexeddb-file it also dumps token-like values found in Firefox IndexedDB.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			if f.Changed("cookie-file") {
				a.cfg.SetSessionCookieFile(opts.cookieFile)
			}
			if f.Changed("local-storage-file") {
				a.cfg.SetSessionLocalStorageFile(opts.storageFile)
			}
			if f.Changed("indexeddb-file") {
				a.cfg.CredentialsCfg.IndexedDBFile = opts.idbFile
			}
			if f.Changed("browser") {
				a.cfg.CredentialsCfg.Browser = opts.browser
			}
			if b := a.cfg.Credentials().Browser; b != "auto" && b != "firefox" {
				return fmt.Errorf("--browser must be auto or firefox, got %q", b)
			}

			collector := newCredentialCollector(a)
			state, err := collector.Collect(cmd.Context())
			if err != nil {
				return err
			}

			sess := a.cfg.Session()
			if err := credentials.SaveCookies(sess.CookieFile, state.Cookies); err != nil {
				return err
			}
			if err := credentials.SaveLocalStorage(sess.LocalStorageFile, state.LocalStorage); err != nil {
				return err
			}

			items := 0
			for _, kv := range state.LocalStorage {
				items += len(kv)
			}
			a.logger.Info("Credential files written.",
				zap.String("cookie_file", sess.CookieFile),
				zap.String("local_storage_file", sess.LocalStorageFile),
				zap.Int("cookies", len(state.Cookies)),
				zap.Int("local_storage_items", items))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cookies to %s and %d local storage items to %s\n",
				len(state.Cookies), sess.CookieFile, items, sess.LocalStorageFile)

			if path := a.cfg.Credentials().IndexedDBFile; path != "" {
				return writeIndexedDBDump(cmd, a, path)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.cookieFile, "cookie-file", "", "cookie JSON file to write")
	f.StringVar(&opts.storageFile, "local-storage-file", "", "local storage JSON file to write")
	f.StringVar(&opts.browser, "browser", "", "auto (every browser) or firefox")
	f.StringVar(&opts.idbFile, "indexeddb-file", "", "write the Firefox IndexedDB token dump to this file")
	return cmd
}

// newCredentialCollector orders the sources by priority: live browser cookies, Firefox
// local storage, then whatever the existing files already hold.
func newCredentialCollector(a *app) *credentials.Collector {
	cc := a.cfg.Credentials()
	browserSrc := credentials.NewBrowserSource(cc.Domains, cc.FirefoxProfileGlobs, a.logger)
	browserSrc.FirefoxOnly = cc.Browser == "firefox"

	return credentials.NewCollector(a.logger, cc.Domains,
		browserSrc,
		credentials.NewFirefoxLocalStorage(cc.Origins, cc.FirefoxProfileGlobs, a.logger),
		credentials.FileSource{
			CookiePath:       a.cfg.Session().CookieFile,
			LocalStoragePath: a.cfg.Session().LocalStorageFile,
		},
	)
}

// writeIndexedDBDump scans Firefox IndexedDB for token-like values and writes them to path.
func writeIndexedDBDump(cmd *cobra.Command, a *app, path string) error {
	cc := a.cfg.Credentials()
	dump, err := credentials.NewFirefoxIndexedDB(cc.Origins, cc.FirefoxProfileGlobs, a.logger).Read(cmd.Context())
	if err != nil {
		return err
	}
	if err := credentials.SaveIndexedDB(path, dump); err != nil {
		return err
	}

	keys := make([]string, 0, len(dump.Tokens))
	for k := range dump.Tokens {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	a.logger.Info("IndexedDB dump written.", zap.String("path", path), zap.Int("tokens", len(keys)))
	if len(keys) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote IndexedDB dump to %s (no token keys found)\n", path)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote IndexedDB dump to %s with token keys: %s\n", path, strings.Join(keys, ", "))
	return nil
}
