package manifest

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/nodetool-ai/nodetool-sdk/errors"
	"github.com/nodetool-ai/nodetool-sdk/typegen/util"
)

// Fetcher materializes registry records that point at a remote source
// (git, https archives, s3, local paths) into a cache directory.
type Fetcher struct {
	cacheDir   string
	logger     *zap.SugaredLogger
	httpClient *http.Client
}

// NewFetcher creates a fetcher writing into cacheDir
func NewFetcher(cacheDir string, logger *zap.SugaredLogger) *Fetcher {
	return &Fetcher{cacheDir: cacheDir, logger: logger}
}

// WithHTTPClient routes http and https sources through client
func (f *Fetcher) WithHTTPClient(client *http.Client) *Fetcher {
	f.httpClient = client
	return f
}

// CacheDir returns the directory a record is fetched into
func (f *Fetcher) CacheDir(rec PackageRecord) string {
	name := util.NormalizePackageName(rec.Name)
	if name == "" {
		name = "package"
	}
	return filepath.Join(f.cacheDir, name)
}

// Fetch downloads rec.Source and returns the local directory holding it
func (f *Fetcher) Fetch(ctx context.Context, rec PackageRecord) (string, error) {
	if rec.Source == "" {
		return "", errors.Newf("package %s has no source", rec.Name)
	}

	dst := f.CacheDir(rec)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create cache directory for %s", rec.Name)
	}

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	client := &getter.Client{
		Ctx:  ctx,
		Src:  rec.Source,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeDir,
	}
	if f.httpClient != nil {
		client.Getters = f.getters()
	}

	f.logger.Debugw("Fetching package source",
		"package", rec.Name,
		"source", rec.Source,
		"path", dst,
	)

	if err := client.Get(); err != nil {
		return "", errors.WithHintf(
			errors.Wrapf(err, "failed to fetch %s from %s", rec.Name, rec.Source),
			"set source_folder for %s to use a local checkout", rec.Name,
		)
	}
	return dst, nil
}

// getters is go-getter's default set with http(s) replaced
func (f *Fetcher) getters() map[string]getter.Getter {
	getters := make(map[string]getter.Getter, len(getter.Getters))
	for scheme, g := range getter.Getters {
		getters[scheme] = g
	}
	httpGetter := &getter.HttpGetter{Client: f.httpClient, Netrc: true}
	getters["http"] = httpGetter
	getters["https"] = httpGetter
	return getters
}
