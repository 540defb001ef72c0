package main

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/strusidx/engine"
)

// corpus wires together the symbol tables, KV store, and statistics
// plumbing one strusidx-bench invocation needs. Symbol table assignment is
// replayed from sidecar log files so a "query" run sees the same
// DocumentNumber/TermNumber ids an earlier "index" run assigned, without the
// engine package itself needing an on-disk symbol table format.
type corpus struct {
	dir    string
	store  engine.KVStore
	docs   *engine.DocTable
	types  *engine.TermTypeTable
	values *engine.TermValueTable
	stats  *engine.StatisticsLog
}

const (
	docsLogName  = "docs.log"
	termsLogName = "terms.log"
	statsDirName = "stats"
	badgerDir    = "badger"
)

// termTypeWord is the only term type this CLI's analyzer feeds; kept as a
// constant so bootstrapTypes and the indexer never drift apart.
const termTypeWord = "word"

// bootstrapTypes interns every term type this CLI uses, in a fixed order, so
// independent index/query invocations agree on type ids without needing to
// persist TermTypeTable at all.
func bootstrapTypes(types *engine.TermTypeTable) error {
	_, err := types.Intern(termTypeWord)
	return err
}

// openCorpus opens (creating if needed) the on-disk state rooted at dir:
// a badger-backed posting store plus replayed doc/term symbol tables.
func openCorpus(dir string, inMemory bool) (*corpus, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	types := engine.NewTermTypeTable()
	if err := bootstrapTypes(types); err != nil {
		return nil, err
	}
	values := engine.NewTermValueTable()
	docs := engine.NewDocTable()

	if err := replayDocsLog(filepath.Join(dir, docsLogName), docs); err != nil {
		return nil, err
	}
	if err := replayTermsLog(filepath.Join(dir, termsLogName), types, values); err != nil {
		return nil, err
	}

	cfg := engine.DefaultBadgerConfig()
	cfg.InMemory = inMemory
	if !inMemory {
		cfg.Path = filepath.Join(dir, badgerDir)
	}
	store, err := engine.OpenBadgerKVStore(cfg)
	if err != nil {
		return nil, err
	}

	statsLog, err := engine.NewStatisticsLog(filepath.Join(dir, statsDirName), 0)
	if err != nil {
		return nil, err
	}

	return &corpus{dir: dir, store: store, docs: docs, types: types, values: values, stats: statsLog}, nil
}

func (c *corpus) Close() error { return c.store.Close() }

func (c *corpus) docsLogPath() string  { return filepath.Join(c.dir, docsLogName) }
func (c *corpus) termsLogPath() string { return filepath.Join(c.dir, termsLogName) }

// statisticsCache replays every committed statistics blob into a fresh
// StatisticsCache, used by the query command to compute idf and corpus size.
func (c *corpus) statisticsCache() (*engine.StatisticsCache, error) {
	cache := engine.NewStatisticsCache(c.types, c.values)
	timestamps, err := c.stats.ListAfter(0)
	if err != nil {
		return nil, err
	}
	for _, ts := range timestamps {
		msg, err := c.stats.ReadBlob(ts)
		if err != nil {
			return nil, err
		}
		if err := cache.ApplyMessage(msg); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

func replayDocsLog(path string, docs *engine.DocTable) error {
	return forEachLogLine(path, func(line string) error {
		_, err := docs.Intern(line)
		return err
	})
}

func replayTermsLog(path string, types *engine.TermTypeTable, values *engine.TermValueTable) error {
	return forEachLogLine(path, func(line string) error {
		typeID, ok := types.Lookup(termTypeWord)
		if !ok {
			return nil
		}
		_, err := values.Intern(typeID, line)
		return err
	})
}

func forEachLogLine(path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}

// appendLogLines appends each of lines to the log file at path, skipping
// ones already recorded there (tracked via seen, loaded by the caller
// before any new assignments were made this run).
func appendLogLines(path string, lines []string, seen map[string]bool) error {
	var fresh []string
	for _, l := range lines {
		if seen[l] {
			continue
		}
		seen[l] = true
		fresh = append(fresh, l)
	}
	if len(fresh) == 0 {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, l := range fresh {
		if _, err := w.WriteString(l); err != nil {
			return err
		}
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// loadSeenSet reads every line already present at path into a set, used to
// seed appendLogLines's dedup before a run stages any new assignments.
func loadSeenSet(path string) (map[string]bool, error) {
	seen := make(map[string]bool)
	err := forEachLogLine(path, func(line string) error {
		seen[line] = true
		return nil
	})
	return seen, err
}

// sanitizeDocID strips surrounding whitespace and newlines from a file path
// used as an external document id, since docs.log is newline-delimited.
func sanitizeDocID(id string) string {
	return strings.TrimSpace(strings.ReplaceAll(id, "\n", " "))
}
