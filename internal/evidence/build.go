// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"io"

	"github.com/pdiddy/profile-engine/internal/convert"
	"github.com/pdiddy/profile-engine/pkg/types"
)

// Build assembles evidence items for one run: every download candidate,
// every metadata-only record, and every admitted biography becomes
// exactly one item. Download and extraction failures degrade the
// document level, they never drop the item; metadata stays citable.
func Build(ctx context.Context, store *Store, extractor convert.Extractor,
	candidates []types.PaperCandidate, outcomes []types.DownloadOutcome,
	metadataOnly, biographies []types.RawRecord, w io.Writer) ([]types.EvidenceItem, error) {

	byCandidate := make(map[string]types.DownloadOutcome, len(outcomes))
	for _, o := range outcomes {
		byCandidate[o.CandidateID] = o
	}

	// All downloaded documents go through one extraction batch up front;
	// candidates whose path is missing from the result degrade below.
	var pdfPaths []string
	for _, c := range candidates {
		if o, ok := byCandidate[c.ID]; ok && o.Downloaded {
			pdfPaths = append(pdfPaths, o.LocalPath)
		}
	}
	texts := map[string]string{}
	if len(pdfPaths) > 0 {
		texts, _ = convert.ExtractBatch(extractor, pdfPaths, w)
	}

	var items []types.EvidenceItem

	for _, c := range candidates {
		item := types.EvidenceItem{
			EvidenceID:  ID(c.Record.Source, c.Title, c.Year),
			Source:      c.Record.Source,
			Kind:        types.RecordPublication,
			Title:       c.Title,
			Authors:     c.Authors,
			Year:        c.Year,
			Venue:       c.Venue,
			CandidateID: c.ID,
		}

		outcome, ok := byCandidate[c.ID]
		var text string
		var extracted bool
		if ok && outcome.Downloaded {
			text, extracted = texts[outcome.LocalPath]
		}
		switch {
		case extracted:
			item.Document = types.DocFullText
			item.Text = text
			item.LocalPath = outcome.LocalPath
		case c.Record.Abstract != "":
			item.Document = types.DocAbstractOnly
			item.Text = c.Record.Abstract
		default:
			item.Document = types.DocMetadataOnly
		}

		items = append(items, item)
	}

	for _, r := range metadataOnly {
		item := types.EvidenceItem{
			EvidenceID: ID(r.Source, r.Title, r.Year),
			Source:     r.Source,
			Kind:       r.Kind,
			Title:      r.Title,
			Authors:    r.Authors,
			Year:       r.Year,
			Venue:      r.Venue,
		}
		if r.Abstract != "" {
			item.Document = types.DocAbstractOnly
			item.Text = r.Abstract
		} else {
			item.Document = types.DocMetadataOnly
		}
		items = append(items, item)
	}

	// Biography extracts arrive as text already; treat them as full text.
	for _, r := range biographies {
		items = append(items, types.EvidenceItem{
			EvidenceID: ID(r.Source, r.Title, r.Year),
			Source:     r.Source,
			Kind:       types.RecordBiography,
			Title:      r.Title,
			Authors:    r.Authors,
			Year:       r.Year,
			Venue:      r.Venue,
			Document:   types.DocFullText,
			Text:       r.Abstract,
		})
	}

	if store != nil {
		if err := store.PutAll(ctx, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}
