// Package cache persists aggregated profiles on disk for a fixed TTL.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"socmint/internal/components/assert"
	"socmint/internal/components/chrono"
	"socmint/internal/components/telemetry"
	"socmint/internal/profile"
)

const (
	report_cache_read    = "cache.read"
	report_cache_write   = "cache.write"
	report_cache_entries = "cache.entries"
)

const (
	DefaultDir = "_CACHE_ROBLOX_OS_"
	DefaultTTL = 6 * time.Hour
)

const fileExt = ".json"

// document is the on-disk layout of one entry.
type document struct {
	// Timestamp is the write time in fractional unix seconds.
	Timestamp float64        `json:"timestamp"`
	Info      profile.Record `json:"info"`
}

// Entry describes a stored record without loading it into the caller.
type Entry struct {
	Key       string
	AccountID string
	Alias     string
	WrittenAt time.Time
	Age       time.Duration
	Expired   bool
}

// FileCache keeps one JSON file per sanitized key under Dir. Entries are
// never evicted, an expired one is ignored until it gets overwritten.
type FileCache struct {
	dir   string
	ttl   time.Duration
	clock chrono.TimeAPI
	tel   telemetry.API
}

func NewFileCache(dir string, ttl time.Duration, clock chrono.TimeAPI, tel telemetry.API) FileCache {
	assert.NotNil(clock)
	assert.NotNil(tel)
	if dir == "" {
		dir = DefaultDir
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return FileCache{
		dir:   dir,
		ttl:   ttl,
		clock: clock,
		tel:   telemetry.NewScopedAPI("cache", tel),
	}
}

func (c FileCache) Dir() string {
	return c.dir
}

func (c FileCache) TTL() time.Duration {
	return c.ttl
}

// SanitizeKey keeps letters, digits, '_' and '-'. Different identifiers may
// map to the same key.
func SanitizeKey(key string) string {
	var sb strings.Builder
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

func (c FileCache) path(key string) string {
	return filepath.Join(c.dir, SanitizeKey(key)+fileExt)
}

func toTimestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromTimestamp(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}

func (c FileCache) fresh(writtenAt time.Time) (age time.Duration, ok bool) {
	age = c.clock.Now().Sub(writtenAt)
	return age, age < c.ttl
}

// Read returns the record stored under key. A missing, corrupt or expired
// entry is reported as absent, never as an error.
func (c FileCache) Read(key string) (profile.Record, bool) {
	path := c.path(key)
	buff, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.tel.ReportDebug("miss", key)
		return profile.Record{}, false
	}
	if err != nil {
		c.tel.ReportBroken(report_cache_read, err, path)
		return profile.Record{}, false
	}

	var doc document
	err = json.Unmarshal(buff, &doc)
	if err != nil {
		c.tel.ReportWarning(report_cache_read, fmt.Errorf("corrupt entry: %w", err), path)
		return profile.Record{}, false
	}

	age, ok := c.fresh(fromTimestamp(doc.Timestamp))
	if !ok {
		c.tel.ReportDebug("expired", key, age.String())
		return profile.Record{}, false
	}
	c.tel.ReportDebug("hit", key, age.String())
	doc.Info.Normalize()
	return doc.Info, true
}

// Write stores record under key with the current time, replacing any
// previous entry.
func (c FileCache) Write(key string, record profile.Record) error {
	err := os.MkdirAll(c.dir, 0755)
	if err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	buff, err := json.MarshalIndent(document{
		Timestamp: toTimestamp(c.clock.Now()),
		Info:      record,
	}, "", "    ")
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	// write to a sibling first so readers never see a partial file
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	_, err = tmp.Write(buff)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write entry: %w", err)
	}
	err = os.Rename(tmp.Name(), c.path(key))
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

func (c FileCache) files() ([]string, error) {
	dirents, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list cache dir: %w", err)
	}
	var names []string
	for _, d := range dirents {
		if d.IsDir() || !strings.HasSuffix(d.Name(), fileExt) {
			continue
		}
		names = append(names, d.Name())
	}
	return names, nil
}

// Entries lists stored entries sorted by key, unreadable files are skipped.
func (c FileCache) Entries() ([]Entry, error) {
	names, err := c.files()
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	for _, name := range names {
		path := filepath.Join(c.dir, name)
		buff, err := os.ReadFile(path)
		if err != nil {
			c.tel.ReportBroken(report_cache_entries, err, path)
			continue
		}
		var doc document
		err = json.Unmarshal(buff, &doc)
		if err != nil {
			c.tel.ReportWarning(report_cache_entries, fmt.Errorf("corrupt entry: %w", err), path)
			continue
		}

		writtenAt := fromTimestamp(doc.Timestamp)
		age, ok := c.fresh(writtenAt)
		entries = append(entries, Entry{
			Key:       strings.TrimSuffix(name, fileExt),
			AccountID: doc.Info.AccountID,
			Alias:     doc.Info.Alias,
			WrittenAt: writtenAt,
			Age:       age,
			Expired:   !ok,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

// Clear removes every entry file and returns how many were removed.
func (c FileCache) Clear() (int, error) {
	names, err := c.files()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		err := os.Remove(filepath.Join(c.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
