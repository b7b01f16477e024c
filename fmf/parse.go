// Package fmf extracts players, clubs and competitions from Football Manager
// database archives. Archive is a zip container with XML dumps which have no
// fixed schema: fields can be attributes or elements, spelled differently and
// records may be nested at any depth. Parsing is lenient - only unreadable
// container is an error, bad entries are skipped and absent fields get
// defaults.
package fmf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"

	"fmfc/archive"
)

// DocumentExtension is the extension of archive entries which are decoded.
const DocumentExtension = ".xml"

// Options of a single parse.
type Options struct {
	// Extension of entries to decode, DocumentExtension when empty.
	Extension string
	// Workers limits number of entries processed in parallel, values below 2
	// mean sequential processing.
	Workers int
	// CodePage forces encoding of non UTF-8 entry names.
	CodePage encoding.Encoding
	// Rules override default category rules.
	Rules map[Category]CategoryRule
}

// DefaultOptions returns options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Extension: DocumentExtension, Workers: 1, Rules: DefaultRules()}
}

// entryResult is everything extracted from a single entry.
type entryResult struct {
	name         string
	doc          *Node
	err          *MalformedDocumentError
	players      []Player
	clubs        []Club
	competitions []Competition
}

// Parse reads archive and returns normalized data. Only unreadable archive is
// reported as error (*CorruptArchiveError), entries which cannot be decoded
// are logged and listed in Data.Skipped. Result does not depend on number of
// workers.
func Parse(ctx context.Context, data []byte, opts Options, log *zap.Logger) (*Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.Extension) == 0 {
		opts.Extension = DocumentExtension
	}

	start := time.Now()

	entries, err := archive.ReadEntries(data, archive.Options{Extension: opts.Extension, CodePage: opts.CodePage})
	if err != nil {
		return nil, &CorruptArchiveError{Detected: sniff(data), Err: err}
	}
	log.Debug("Archive opened", zap.Int("entries", len(entries)), zap.String("extension", opts.Extension))

	router := NewRouter(opts.Rules)
	results := make([]entryResult, len(entries))

	var g errgroup.Group
	g.SetLimit(max(1, opts.Workers))
	for i := range entries {
		g.Go(func() error {
			results[i] = extractEntry(entries[i], router)
			return nil
		})
	}
	// workers never fail, entry problems are kept in results
	_ = g.Wait()

	out := &Data{
		Players:      []Player{},
		Clubs:        []Club{},
		Competitions: []Competition{},
		Documents:    make(map[string]*Node, len(results)),
	}
	for _, res := range results {
		if res.err != nil {
			log.Warn("Skipping malformed document", zap.String("entry", res.name), zap.Error(res.err.Err))
			out.Skipped = append(out.Skipped, res.err)
			continue
		}
		key := res.name
		for n := 2; ; n++ {
			if _, taken := out.Documents[key]; !taken {
				break
			}
			key = fmt.Sprintf("%s#%d", res.name, n)
		}
		if key != res.name {
			log.Warn("Duplicate entry name in archive, document renamed", zap.String("entry", res.name), zap.String("document", key))
		}
		out.Documents[key] = res.doc
		out.Players = append(out.Players, res.players...)
		out.Clubs = append(out.Clubs, res.clubs...)
		out.Competitions = append(out.Competitions, res.competitions...)
		log.Debug("Document processed", zap.String("entry", res.name),
			zap.Int("players", len(res.players)), zap.Int("clubs", len(res.clubs)), zap.Int("competitions", len(res.competitions)))
	}

	s := out.Summary()
	log.Debug("Archive parsed", zap.Duration("elapsed", time.Since(start)), zap.Int("documents", s.Documents), zap.Int("skipped", s.Skipped),
		zap.Int("players", s.Players), zap.Int("clubs", s.Clubs), zap.Int("competitions", s.Competitions))
	return out, nil
}

// extractEntry decodes entry and runs extraction for every matching category.
func extractEntry(e archive.Entry, router *Router) entryResult {
	res := entryResult{name: e.Name}

	doc, err := Decode(e.Name, e.Data)
	if err != nil {
		var me *MalformedDocumentError
		if !errors.As(err, &me) {
			me = &MalformedDocumentError{Entry: e.Name, Err: err}
		}
		res.err = me
		return res
	}
	res.doc = doc

	for _, c := range router.Route(e.Name) {
		records := FindRecords(doc, router.Containers(c))
		for i, n := range records {
			switch c {
			case CategoryPlayers:
				res.players = append(res.players, NormalizePlayer(n, i))
			case CategoryClubs:
				res.clubs = append(res.clubs, NormalizeClub(n, i))
			case CategoryCompetitions:
				res.competitions = append(res.competitions, NormalizeCompetition(n, i))
			}
		}
	}
	return res
}

// sniff returns extension of the detected data type, if any.
func sniff(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	head := data
	if len(head) > 262 {
		head = head[:262]
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.Extension
}
