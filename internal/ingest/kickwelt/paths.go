package kickwelt

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Path derivation is pure string work: roster paths are never scraped because
// they encode the season, they are always derived from the club profile path.

var seasonSegmentRe = regexp.MustCompile(`/saison_id/\d+`)

// NormalizePath reduces an absolute or root-relative href to a canonical
// root-relative path.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// RosterPath derives a club's roster listing path for a season from its
// profile path: the profile segment becomes the squad segment, the season
// segment is inserted or rewritten, and the full-layout flag is appended so
// the roster table exposes all columns.
//
//	RosterPath("/acme/startseite/verein/42/saison_id/2024", 2025)
//	  == "/acme/kader/verein/42/saison_id/2025/plus/1"
func RosterPath(profilePath string, season int) string {
	p := NormalizePath(profilePath)
	p = strings.Replace(p, "/startseite/", "/kader/", 1)
	p = SeasonPath(p, season)
	return fullLayout(p)
}

// CompetitionPath normalizes a country-index anchor to the competition's
// canonical listing path.
func CompetitionPath(href string) string {
	return NormalizePath(href)
}

// SeasonPath injects or rewrites the season segment of a listing path.
func SeasonPath(p string, season int) string {
	p = NormalizePath(p)
	if season <= 0 {
		return p
	}
	seg := "/saison_id/" + strconv.Itoa(season)
	if seasonSegmentRe.MatchString(p) {
		return seasonSegmentRe.ReplaceAllString(p, seg)
	}
	return strings.TrimRight(p, "/") + seg
}

func fullLayout(p string) string {
	if strings.HasSuffix(p, "/plus/1") {
		return p
	}
	return strings.TrimRight(p, "/") + "/plus/1"
}

// CountryPath builds the country index listing path for a numeric country id.
func CountryPath(countryID int) string {
	return "/wettbewerbe/national/wettbewerbe/" + strconv.Itoa(countryID)
}

// CompetitionCode extracts the trailing code from a competition path like
// "/super-league/startseite/wettbewerb/L1".
func CompetitionCode(p string) string {
	p = strings.TrimRight(NormalizePath(p), "/")
	if i := strings.Index(p, "/wettbewerb/"); i >= 0 {
		rest := p[i+len("/wettbewerb/"):]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			rest = rest[:j]
		}
		return rest
	}
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// pathSegmentAfter returns the path segment following marker, e.g. the club
// id after "/verein/".
func pathSegmentAfter(p, marker string) string {
	i := strings.Index(p, marker)
	if i < 0 {
		return ""
	}
	rest := p[i+len(marker):]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return rest
}
