package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStorage()
	c.normalizeLibrary()
	c.normalizeEbooks()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	for name, field := range map[string]*string{
		"paths.data_dir":    &c.Paths.DataDir,
		"paths.log_dir":     &c.Paths.LogDir,
		"paths.staging_dir": &c.Paths.StagingDir,
	} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return fmt.Errorf("normalize %s: %w", name, err)
		}
		*field = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeStorage() {
	c.Storage.BaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.BaseURL), "/")
	c.Storage.Token = strings.TrimSpace(c.Storage.Token)
	if c.Storage.RequestTimeout <= 0 {
		c.Storage.RequestTimeout = defaultStorageTimeout
	}
}

func (c *Config) normalizeLibrary() {
	if c.Library.PageSizeDefault <= 0 {
		c.Library.PageSizeDefault = defaultPageSizeDefault
	}
	if c.Library.PageSizeMax <= 0 {
		c.Library.PageSizeMax = defaultPageSizeMax
	}
	if c.Library.PageSizeDefault > c.Library.PageSizeMax {
		c.Library.PageSizeDefault = c.Library.PageSizeMax
	}
}

func (c *Config) normalizeEbooks() {
	if c.Ebooks.CacheTTLSeconds <= 0 {
		c.Ebooks.CacheTTLSeconds = defaultCacheTTLSeconds
	}
	if c.Ebooks.CacheMaxArchives <= 0 {
		c.Ebooks.CacheMaxArchives = defaultCacheMaxArchives
	}
	if c.Ebooks.FetchTimeout <= 0 {
		c.Ebooks.FetchTimeout = defaultFetchTimeout
	}
	if c.Ebooks.MaxArchiveMiB <= 0 {
		c.Ebooks.MaxArchiveMiB = defaultMaxArchiveMiB
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
