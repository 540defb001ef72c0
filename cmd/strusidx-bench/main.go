package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/strusidx/engine"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "strusidx-bench",
		Short: "Index and query a corpus through the strusidx engine package",
	}
	root.AddCommand(newIndexCmd(), newQueryCmd(), newStatsCmd())
	return root
}

func newIndexCmd() *cobra.Command {
	var dataDir string
	var inMemory bool
	var stem bool
	var minWordLen int

	cmd := &cobra.Command{
		Use:   "index [files...]",
		Short: "Analyze and index one document per file argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(dataDir, inMemory, AnalyzerConfig{MinWordLength: minWordLen, Stem: stem}, args)
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "./strusidx-data", "directory holding the posting store and symbol logs")
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "use an in-memory KV store instead of persisting to --data-dir/badger")
	cmd.Flags().BoolVar(&stem, "stem", true, "stem tokens (English) before indexing")
	cmd.Flags().IntVar(&minWordLen, "min-word-length", 2, "drop tokens shorter than this many runes")
	return cmd
}

func newQueryCmd() *cobra.Command {
	var dataDir string
	var inMemory bool
	var stem bool
	var first, k int

	cmd := &cobra.Command{
		Use:   "query <terms...>",
		Short: "Rank documents against a bag-of-words query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(dataDir, inMemory, stem, first, k, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "./strusidx-data", "directory holding the posting store and symbol logs")
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "use an in-memory KV store (only useful combined with a prior --in-memory index in the same process)")
	cmd.Flags().BoolVar(&stem, "stem", true, "stem query tokens the same way --stem indexed them")
	cmd.Flags().IntVar(&first, "first", 0, "result window offset")
	cmd.Flags().IntVar(&k, "k", 10, "number of results to return")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report corpus-wide document count and term statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(dataDir)
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "./strusidx-data", "directory holding the posting store and symbol logs")
	return cmd
}

func runIndex(dataDir string, inMemory bool, cfg AnalyzerConfig, files []string) error {
	start := time.Now()
	c, err := openCorpus(dataDir, inMemory)
	if err != nil {
		return err
	}
	defer c.Close()

	seenDocs, err := loadSeenSet(c.docsLogPath())
	if err != nil {
		return err
	}
	seenTerms, err := loadSeenSet(c.termsLogPath())
	if err != nil {
		return err
	}

	handle := engine.NewStorageHandle(c.store, c.docs, c.types, c.values)
	var newDocIDs, newTermValues []string

	for _, path := range files {
		text, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		docID := sanitizeDocID(path)
		tokens := Analyze(string(text), cfg)

		tx := handle.NewTransaction()
		pd, err := tx.InsertDocument(docID)
		if err != nil {
			return err
		}
		if !seenDocs[docID] {
			newDocIDs = append(newDocIDs, docID)
		}
		tx.SetAttribute(pd, "path", path)
		for _, tok := range tokens {
			if err := tx.AddTerm(pd, termTypeWord, tok.Text, engine.Position(tok.Pos)); err != nil {
				return err
			}
			if !seenTerms[tok.Text] {
				newTermValues = append(newTermValues, tok.Text)
			}
		}
		if len(tokens) > 0 {
			tx.AddStructure(pd, "title", engine.IndexRange{Start: 1, End: engine.Position(min(5, len(tokens))) + 1})
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}

	if err := appendLogLines(c.docsLogPath(), newDocIDs, seenDocs); err != nil {
		return err
	}
	if err := appendLogLines(c.termsLogPath(), newTermValues, seenTerms); err != nil {
		return err
	}

	if msg := handle.FetchStatisticsMessage(); msg != nil {
		ts, err := c.stats.Latest()
		if err != nil {
			return err
		}
		if err := c.stats.Commit(ts.Next(), msg); err != nil {
			return err
		}
	}

	slog.Info("indexed corpus", slog.Int("files", len(files)), slog.Duration("elapsed", time.Since(start)))
	return nil
}

func runQuery(dataDir string, inMemory, stem bool, first, k int, queryText string) error {
	c, err := openCorpus(dataDir, inMemory)
	if err != nil {
		return err
	}
	defer c.Close()

	cache, err := c.statisticsCache()
	if err != nil {
		return err
	}

	tokens := Analyze(queryText, AnalyzerConfig{MinWordLength: 1, Stem: stem})
	if len(tokens) == 0 {
		fmt.Println("query analyzed to zero terms")
		return nil
	}

	typeID, _ := c.types.Lookup(termTypeWord)
	var terms []engine.TermNumber
	var iterators []engine.PostingIterator
	for _, tok := range tokens {
		term, ok := c.values.Lookup(typeID, tok.Text)
		if !ok {
			continue
		}
		it, err := engine.NewPostingLeafIterator(c.store, term)
		if err != nil {
			return err
		}
		terms = append(terms, term)
		iterators = append(iterators, it)
	}
	if len(iterators) == 0 {
		fmt.Println("no query term occurs in the corpus")
		return nil
	}

	union := engine.NewUnionIterator(iterators...)
	eval := engine.NewQueryEvaluator([]engine.SelectionPass{{Priority: 0, Iterator: union}}, first, k)

	fwd := engine.NewForwardIndex(c.store)
	attrs := engine.NewAttributeStore(c.store)
	totalDocs := int(cache.TotalDocuments())
	avgDocLen := corpusAvgDocLen(fwd, c.docs)
	params := engine.DefaultBM25pffParams()

	result := eval.Evaluate(func(doc engine.DocumentNumber) (float64, bool) {
		entries, err := fwd.Get(doc)
		if err != nil {
			return 0, false
		}
		docLen := len(entries)
		tf := make(map[engine.TermNumber]int, len(terms))
		for _, e := range entries {
			tf[e.Term]++
		}

		var stats []engine.TermDocStats
		for _, term := range terms {
			count := tf[term]
			if count == 0 {
				continue
			}
			stats = append(stats, engine.TermDocStats{
				DF: int(cache.DFByTerm(term)),
				TF: count,
			})
		}
		if len(stats) == 0 {
			return 0, false
		}
		return params.DocumentScore(stats, totalDocs, docLen, avgDocLen), true
	})

	matchSummarizer := &engine.MatchSummarizer{
		Postings: iterators,
		Terms:    terms,
		Text:     func(t engine.TermNumber) string { return queryTermText(c, typeID, t) },
	}
	pathSummarizer := &engine.AccumulateVariableSummarizer{Attributes: attrs, Names: []string{"path"}}

	for i, r := range result.Results {
		docID, _ := c.docs.ExternalID(r.Doc)
		fmt.Printf("%d. doc=%s score=%.4f\n", first+i+1, docID, r.Score)
		for _, it := range iterators {
			it.SkipDoc(r.Doc)
		}
		if elems, err := matchSummarizer.Summarize(r.Doc); err == nil {
			for _, e := range elems {
				fmt.Printf("   match: %s (x%.0f)\n", e.Value, e.Weight)
			}
		}
		if elems, err := pathSummarizer.Summarize(r.Doc); err == nil {
			for _, e := range elems {
				fmt.Printf("   %s: %s\n", e.Name, e.Value)
			}
		}
	}
	fmt.Printf("visited=%d ranked=%d pass=%d\n", result.NofVisited, result.NofRanked, result.EvaluationPass)
	return nil
}

func runStats(dataDir string) error {
	c, err := openCorpus(dataDir, false)
	if err != nil {
		return err
	}
	defer c.Close()

	cache, err := c.statisticsCache()
	if err != nil {
		return err
	}
	fmt.Printf("documents: %d\n", cache.TotalDocuments())
	fmt.Printf("distinct terms: %d\n", c.values.Len())

	timestamps, err := c.stats.ListAfter(0)
	if err != nil {
		return err
	}
	fmt.Printf("statistics blobs: %d\n", len(timestamps))
	return nil
}

func queryTermText(c *corpus, typeID uint32, term engine.TermNumber) string {
	var found string
	c.values.VisitType(typeID, func(value string, t engine.TermNumber) bool {
		if t == term {
			found = value
			return false
		}
		return true
	})
	return found
}

// corpusAvgDocLen scans every known document's forward-index length. A bench
// tool indexes corpora small enough that a full scan per query is
// acceptable; a production query path would maintain this as a running
// statistic instead.
func corpusAvgDocLen(fwd *engine.ForwardIndex, docs *engine.DocTable) float64 {
	n := docs.Len()
	if n == 0 {
		return 0
	}
	total := 0
	for doc := engine.DocumentNumber(1); int(doc) <= n; doc++ {
		entries, err := fwd.Get(doc)
		if err != nil {
			continue
		}
		total += len(entries)
	}
	return float64(total) / float64(n)
}
