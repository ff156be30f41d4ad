package kickwelt

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Parsing is structural, not positional: rows are scanned under the known
// item-table class, and fields are pulled by stable attribute patterns (href
// substrings, image classes) because column counts differ between the compact
// and full table layouts. Rows missing their identity fields are dropped, not
// erred: uneven markup is the normal case.

// ParseCompetitions extracts competition rows from a country listing page.
func ParseCompetitions(doc *goquery.Document) []CompetitionRow {
	var rows []CompetitionRow

	doc.Find("table.items > tbody > tr").Each(func(_ int, s *goquery.Selection) {
		if isSeparatorRow(s) {
			return
		}

		a := s.Find(`a[href*="/wettbewerb/"]`).First()
		if a.Length() == 0 {
			return
		}

		href, _ := a.Attr("href")
		row := CompetitionRow{
			Code:       CompetitionCode(href),
			Name:       strings.TrimSpace(a.Text()),
			SourcePath: CompetitionPath(href),
		}

		nums := centeredCellTexts(s)
		if len(nums) > 0 {
			row.ClubCount = looseIntPtr(nums[0])
		}
		if len(nums) > 1 {
			row.PlayerCount = looseIntPtr(nums[1])
		}
		if len(nums) > 2 {
			row.AverageAge = euroFloatPtr(nums[2])
		}
		if len(nums) > 3 {
			row.ForeignerPct = euroFloatPtr(nums[3])
		}
		row.TotalValueEur = ParseCurrency(s.Find("td.rechts").Last().Text())

		if row.HasIdentity() {
			rows = append(rows, row)
		}
	})

	return rows
}

// CompetitionPage is the parsed form of one competition listing page.
type CompetitionPage struct {
	Name  string
	Clubs []ClubRow
}

// ParseCompetitionPage extracts the competition header and its club rows.
func ParseCompetitionPage(doc *goquery.Document) *CompetitionPage {
	page := &CompetitionPage{
		Name: strings.TrimSpace(doc.Find("h1").First().Text()),
	}

	doc.Find("table.items > tbody > tr").Each(func(_ int, s *goquery.Selection) {
		if isSeparatorRow(s) {
			return
		}

		a := s.Find(`a[href*="/startseite/verein/"]`).First()
		if a.Length() == 0 {
			return
		}

		href, _ := a.Attr("href")
		row := ClubRow{
			ExternalClubID: pathSegmentAfter(NormalizePath(href), "/verein/"),
			Name:           strings.TrimSpace(a.Text()),
			ProfilePath:    NormalizePath(href),
		}
		if row.Name == "" {
			// Crest-only anchors carry the club name in the title attribute.
			row.Name = strings.TrimSpace(a.AttrOr("title", ""))
		}

		nums := centeredCellTexts(s)
		if len(nums) > 0 {
			row.SquadSize = looseIntPtr(nums[0])
		}
		if len(nums) > 1 {
			row.AverageAge = euroFloatPtr(nums[1])
		}
		if len(nums) > 2 {
			row.ForeignerCount = looseIntPtr(nums[2])
		}

		values := s.Find("td.rechts")
		if values.Length() > 1 {
			row.AvgMarketValueEur = ParseCurrency(values.First().Text())
		}
		row.TotalMarketValueEur = ParseCurrency(values.Last().Text())

		if row.HasIdentity() {
			page.Clubs = append(page.Clubs, row)
		}
	})

	return page
}

// ParseSquadPlayers extracts player rows from a roster page in the full
// layout. Date-shaped cells appear in fixed order (birth, joined, contract);
// the birth cell is the one carrying the parenthesized age.
func ParseSquadPlayers(doc *goquery.Document) []SquadPlayerRow {
	var rows []SquadPlayerRow

	doc.Find("table.items > tbody > tr").Each(func(_ int, s *goquery.Selection) {
		if isSeparatorRow(s) {
			return
		}

		a := s.Find(`a[href*="/profil/spieler/"]`).First()
		if a.Length() == 0 {
			return
		}

		href, _ := a.Attr("href")
		row := SquadPlayerRow{
			ExternalPlayerID: pathSegmentAfter(NormalizePath(href), "/spieler/"),
			Name:             strings.TrimSpace(a.Text()),
			ProfilePath:      NormalizePath(href),
		}

		if n, ok := ParseLooseInt(s.Find(".rn_nummer").First().Text()); ok {
			row.ShirtNumber = &n
		}

		// The player cell nests a small table: first row name+portrait,
		// second row position.
		inline := s.Find("table.inline-table")
		row.Position = strings.TrimSpace(inline.Find("tr").Eq(1).Text())
		if img := inline.Find("img").First(); img.Length() > 0 {
			row.ImageURL = img.AttrOr("data-src", img.AttrOr("src", ""))
		}

		var dateCells []string
		s.Find("td").Each(func(_ int, td *goquery.Selection) {
			text := strings.TrimSpace(td.Text())
			if td.Children().Length() == 0 && euroDateRe.MatchString(text) {
				dateCells = append(dateCells, text)
			}

			switch strings.ToLower(text) {
			case "rechts", "links", "beidfüßig":
				row.DominantFoot = strings.ToLower(text)
			}

			if row.HeightCm == nil && heightRe.MatchString(text) {
				if cm, ok := ParseHeightCm(text); ok {
					row.HeightCm = &cm
				}
			}
		})
		assignDates(&row, dateCells)

		s.Find("td.zentriert img.flaggenrahmen").Each(func(_ int, img *goquery.Selection) {
			nat := img.AttrOr("alt", img.AttrOr("title", ""))
			if nat != "" {
				row.Nationalities = append(row.Nationalities, nat)
			}
		})

		if club := s.Find(`a[href*="/startseite/verein/"]`).First(); club.Length() > 0 {
			clubHref, _ := club.Attr("href")
			row.SignedFromClubID = pathSegmentAfter(NormalizePath(clubHref), "/verein/")
		}

		row.MarketValueEur = ParseCurrency(s.Find("td.rechts").Last().Text())

		if row.HasIdentity() {
			rows = append(rows, row)
		}
	})

	return rows
}

// assignDates maps date-shaped cells onto birth/joined/contract. The birth
// cell is identified by its age suffix; of the remaining cells, two mean
// joined then contract, a single one means contract.
func assignDates(row *SquadPlayerRow, cells []string) {
	var rest []string
	for _, cell := range cells {
		if row.BirthDate == nil {
			if age, ok := ParseAgeSuffix(cell); ok {
				if d, ok := ParseEuroDate(cell); ok {
					row.BirthDate = &d
					row.Age = &age
					continue
				}
			}
		}
		rest = append(rest, cell)
	}

	switch len(rest) {
	case 1:
		if d, ok := ParseEuroDate(rest[0]); ok {
			row.ContractUntil = &d
		}
	default:
		if len(rest) >= 2 {
			if d, ok := ParseEuroDate(rest[0]); ok {
				row.JoinedOn = &d
			}
			if d, ok := ParseEuroDate(rest[len(rest)-1]); ok {
				row.ContractUntil = &d
			}
		}
	}
}

// ParsePlayerProfile extracts the enrichment profile from a player page.
func ParsePlayerProfile(doc *goquery.Document, profilePath string) *ProfileData {
	p := &ProfileData{
		ExternalPlayerID: pathSegmentAfter(NormalizePath(profilePath), "/spieler/"),
		FullName:         strings.TrimSpace(doc.Find("h1").First().Text()),
	}

	doc.Find("table.profile-table tr").Each(func(_ int, tr *goquery.Selection) {
		label := strings.TrimSuffix(strings.TrimSpace(tr.Find("th").First().Text()), ":")
		value := tr.Find("td").First()
		text := strings.TrimSpace(value.Text())

		switch label {
		case "Geburtsdatum":
			if d, ok := ParseEuroDate(text); ok {
				p.DateOfBirth = &d
			}
		case "Größe":
			if cm, ok := ParseHeightCm(text); ok {
				p.HeightCm = &cm
			}
		case "Fuß":
			p.DominantFoot = strings.ToLower(text)
		case "Hauptposition":
			p.MainPosition = text
		case "Nebenposition":
			for _, pos := range strings.Split(text, ",") {
				if pos = strings.TrimSpace(pos); pos != "" {
					p.OtherPositions = append(p.OtherPositions, pos)
				}
			}
		case "Nationalität":
			flags := value.Find("img.flaggenrahmen")
			if flags.Length() > 0 {
				flags.Each(func(_ int, img *goquery.Selection) {
					if nat := img.AttrOr("alt", img.AttrOr("title", "")); nat != "" {
						p.Nationalities = append(p.Nationalities, nat)
					}
				})
			} else {
				for _, nat := range strings.Split(text, ",") {
					if nat = strings.TrimSpace(nat); nat != "" {
						p.Nationalities = append(p.Nationalities, nat)
					}
				}
			}
		case "Aktueller Verein":
			p.CurrentClubName = text
		case "Berater":
			p.Agent = text
		case "Vertrag bis":
			if d, ok := ParseEuroDate(text); ok {
				p.ContractUntil = &d
			}
		}
	})

	value := doc.Find("div.marktwert").First()
	if a := value.Find("a").First(); a.Length() > 0 {
		p.MarketValueEur = ParseCurrency(a.Text())
	} else {
		p.MarketValueEur = ParseCurrency(value.Text())
	}

	if img := doc.Find("img.portrait").First(); img.Length() > 0 {
		p.PortraitURL = img.AttrOr("src", "")
	}

	return p
}

// isSeparatorRow detects tier-separator rows that split the item table into
// sections.
func isSeparatorRow(s *goquery.Selection) bool {
	return s.Find("td.extrarow").Length() > 0
}

func centeredCellTexts(s *goquery.Selection) []string {
	var texts []string
	s.Find("td.zentriert").Each(func(_ int, td *goquery.Selection) {
		if td.Children().Length() == 0 {
			texts = append(texts, strings.TrimSpace(td.Text()))
		}
	})
	return texts
}

func looseIntPtr(s string) *int {
	if n, ok := ParseLooseInt(s); ok {
		return &n
	}
	return nil
}

func euroFloatPtr(s string) *float64 {
	if f, ok := ParseEuroFloat(s); ok {
		return &f
	}
	return nil
}
