// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/profile-engine/internal/fetch"
	"github.com/pdiddy/profile-engine/pkg/types"
)

// Endpoint bases are vars so tests can substitute httptest servers.
var (
	arxivPDFBase      = "https://arxiv.org/pdf/"
	unpaywallAPIBase  = "https://api.unpaywall.org/v2/"
	doiResolverBase   = "https://doi.org/"
	openAlexWorksBase = "https://api.openalex.org/works/"
)

// DirectProvider tries the URLs the scraped record already carried
// (open-access PDF links from Crossref, Semantic Scholar, or OpenAlex).
type DirectProvider struct{}

func (p *DirectProvider) Name() string { return "direct" }

func (p *DirectProvider) Resolve(_ context.Context, c types.PaperCandidate) ([]string, error) {
	return c.CandidateURLs, nil
}

// ArxivProvider derives the arXiv PDF URL from the candidate's arXiv id.
type ArxivProvider struct{}

func (p *ArxivProvider) Name() string { return "arxiv" }

func (p *ArxivProvider) Resolve(_ context.Context, c types.PaperCandidate) ([]string, error) {
	if c.ArxivID == "" {
		return nil, nil
	}
	return []string{arxivPDFBase + url.PathEscape(c.ArxivID)}, nil
}

// UnpaywallProvider asks the Unpaywall API for the best open-access
// location of a DOI.
type UnpaywallProvider struct {
	Gate *fetch.Gate
	Cfg  types.DownloadConfig
}

func (p *UnpaywallProvider) Name() string { return "unpaywall" }

type unpaywallResponse struct {
	BestOALocation *struct {
		URLForPDF string `json:"url_for_pdf"`
		URL       string `json:"url"`
	} `json:"best_oa_location"`
	OALocations []struct {
		URLForPDF string `json:"url_for_pdf"`
	} `json:"oa_locations"`
}

func (p *UnpaywallProvider) Resolve(ctx context.Context, c types.PaperCandidate) ([]string, error) {
	if c.DOI == "" {
		return nil, nil
	}
	email := p.Cfg.UnpaywallEmail
	if email == "" {
		return nil, fmt.Errorf("no Unpaywall email configured")
	}
	reqURL := unpaywallAPIBase + url.PathEscape(c.DOI) + "?email=" + url.QueryEscape(email)

	var up unpaywallResponse
	if err := p.Gate.GetJSON(ctx, "unpaywall", reqURL, p.Cfg.UserAgent, nil, &up); err != nil {
		return nil, err
	}

	var urls []string
	if loc := up.BestOALocation; loc != nil {
		if loc.URLForPDF != "" {
			urls = append(urls, loc.URLForPDF)
		} else if loc.URL != "" {
			urls = append(urls, loc.URL)
		}
	}
	for _, loc := range up.OALocations {
		if loc.URLForPDF != "" && !containsURL(urls, loc.URLForPDF) {
			urls = append(urls, loc.URLForPDF)
		}
	}
	return urls, nil
}

// DOIProvider resolves the DOI through the publisher. This is the least
// likely provider to yield a PDF without credentials, but publishers with
// open archives serve documents directly.
type DOIProvider struct{}

func (p *DOIProvider) Name() string { return "doi" }

func (p *DOIProvider) Resolve(_ context.Context, c types.PaperCandidate) ([]string, error) {
	if c.DOI == "" {
		return nil, nil
	}
	return []string{doiResolverBase + c.DOI}, nil
}

// OpenAlexProvider looks the work up by DOI in OpenAlex as a last-resort
// aggregator of open-access locations.
type OpenAlexProvider struct {
	Gate *fetch.Gate
	Cfg  types.DownloadConfig
}

func (p *OpenAlexProvider) Name() string { return "openalex" }

type openAlexWorkLocations struct {
	BestOALocation *struct {
		PDFURL string `json:"pdf_url"`
	} `json:"best_oa_location"`
	Locations []struct {
		PDFURL string `json:"pdf_url"`
	} `json:"locations"`
}

func (p *OpenAlexProvider) Resolve(ctx context.Context, c types.PaperCandidate) ([]string, error) {
	if c.DOI == "" {
		return nil, nil
	}
	reqURL := openAlexWorksBase + "https://doi.org/" + c.DOI

	var work openAlexWorkLocations
	if err := p.Gate.GetJSON(ctx, "openalex", reqURL, p.Cfg.UserAgent, nil, &work); err != nil {
		return nil, err
	}

	var urls []string
	if loc := work.BestOALocation; loc != nil && loc.PDFURL != "" {
		urls = append(urls, loc.PDFURL)
	}
	for _, loc := range work.Locations {
		if loc.PDFURL != "" && !containsURL(urls, loc.PDFURL) {
			urls = append(urls, loc.PDFURL)
		}
	}
	return urls, nil
}

func containsURL(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
