package kickwelt

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RawProfileCache stores fetched profile page HTML so repeat harvests of the
// same players skip the network. Implementations may drop entries at any time.
type RawProfileCache interface {
	GetRawProfile(ctx context.Context, externalPlayerID string) (string, bool)
	SetRawProfile(ctx context.Context, externalPlayerID, html string)
}

// Ingester turns source pages into parsed rows. It owns no persistence; the
// harvest runner decides what to do with the rows.
type Ingester struct {
	fetcher  Fetcher
	rawCache RawProfileCache
}

// NewIngester creates an ingester without a raw profile cache.
func NewIngester(fetcher Fetcher) *Ingester {
	return &Ingester{fetcher: fetcher}
}

// NewIngesterWithCache creates an ingester that caches raw profile HTML.
func NewIngesterWithCache(fetcher Fetcher, cache RawProfileCache) *Ingester {
	return &Ingester{fetcher: fetcher, rawCache: cache}
}

// Competitions fetches a country listing page for the season and parses its
// competition rows. An empty result is not an error.
func (i *Ingester) Competitions(ctx context.Context, countryPath string, seasonID int) ([]CompetitionRow, error) {
	doc, err := i.fetcher.FetchDocument(ctx, SeasonPath(countryPath, seasonID), "")
	if err != nil {
		return nil, fmt.Errorf("fetch country page %s: %w", countryPath, err)
	}
	return ParseCompetitions(doc), nil
}

// CompetitionPage fetches one competition page for the season and parses the
// header plus club rows.
func (i *Ingester) CompetitionPage(ctx context.Context, competitionPath string, seasonID int, referer string) (*CompetitionPage, error) {
	doc, err := i.fetcher.FetchDocument(ctx, SeasonPath(competitionPath, seasonID), referer)
	if err != nil {
		return nil, fmt.Errorf("fetch competition page %s: %w", competitionPath, err)
	}
	return ParseCompetitionPage(doc), nil
}

// Squad fetches a club roster page and parses its player rows.
func (i *Ingester) Squad(ctx context.Context, rosterPath, referer string) ([]SquadPlayerRow, error) {
	doc, err := i.fetcher.FetchDocument(ctx, rosterPath, referer)
	if err != nil {
		return nil, fmt.Errorf("fetch roster page %s: %w", rosterPath, err)
	}
	return ParseSquadPlayers(doc), nil
}

// Profile fetches one player profile page and parses it. With a raw cache
// attached the page HTML is served from cache unless refresh is set; a cache
// hit still goes through the parser so parsing fixes apply retroactively.
// A page that parses to nothing usable returns (nil, nil).
func (i *Ingester) Profile(ctx context.Context, profilePath, referer string, refresh bool) (*ProfileData, error) {
	externalID := pathSegmentAfter(NormalizePath(profilePath), "/spieler/")

	if i.rawCache != nil && !refresh && externalID != "" {
		if html, ok := i.rawCache.GetRawProfile(ctx, externalID); ok {
			doc, err := documentFromHTML(html)
			if err == nil {
				return profileOrNil(ParsePlayerProfile(doc, profilePath)), nil
			}
			// Unparseable cache entry falls through to a live fetch.
		}
	}

	doc, err := i.fetcher.FetchDocument(ctx, profilePath, referer)
	if err != nil {
		return nil, fmt.Errorf("fetch profile page %s: %w", profilePath, err)
	}

	if i.rawCache != nil && externalID != "" {
		if html, err := doc.Html(); err == nil {
			i.rawCache.SetRawProfile(ctx, externalID, html)
		}
	}

	return profileOrNil(ParsePlayerProfile(doc, profilePath)), nil
}

func documentFromHTML(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func profileOrNil(p *ProfileData) *ProfileData {
	if p == nil || !p.HasIdentity() {
		return nil
	}
	return p
}
