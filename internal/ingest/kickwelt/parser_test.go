package kickwelt

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return doc
}

const countryPage = `
<html><body>
<table class="items"><tbody>
<tr><td class="extrarow" colspan="6">Erste Ligen</td></tr>
<tr>
  <td><a href="/super-league/startseite/wettbewerb/L1">Super League</a></td>
  <td class="zentriert">18</td>
  <td class="zentriert">512</td>
  <td class="zentriert">24,9</td>
  <td class="zentriert">41,1</td>
  <td class="rechts">&euro;1,20m</td>
</tr>
<tr>
  <td><a href="/pokal/startseite/wettbewerb/CUP1">Landespokal</a></td>
  <td class="zentriert">64</td>
  <td class="rechts">&euro;350k</td>
</tr>
<tr>
  <td><a href="/anon/startseite/wettbewerb/XX"></a></td>
</tr>
</tbody></table>
</body></html>`

func TestParseCompetitions(t *testing.T) {
	rows := ParseCompetitions(mustDoc(t, countryPage))
	if len(rows) != 2 {
		t.Fatalf("got %d competitions, want 2", len(rows))
	}

	league := rows[0]
	if league.Code != "L1" || league.Name != "Super League" {
		t.Errorf("unexpected identity: %+v", league)
	}
	if league.SourcePath != "/super-league/startseite/wettbewerb/L1" {
		t.Errorf("unexpected source path: %q", league.SourcePath)
	}
	if league.ClubCount == nil || *league.ClubCount != 18 {
		t.Errorf("club count = %v, want 18", league.ClubCount)
	}
	if league.PlayerCount == nil || *league.PlayerCount != 512 {
		t.Errorf("player count = %v, want 512", league.PlayerCount)
	}
	if league.AverageAge == nil || *league.AverageAge != 24.9 {
		t.Errorf("average age = %v, want 24.9", league.AverageAge)
	}
	if league.TotalValueEur == nil || *league.TotalValueEur != 1_200_000 {
		t.Errorf("total value = %v, want 1200000", league.TotalValueEur)
	}

	cup := rows[1]
	if cup.Code != "CUP1" {
		t.Errorf("cup code = %q", cup.Code)
	}
	if cup.PlayerCount != nil {
		t.Errorf("cup player count should be nil, got %v", *cup.PlayerCount)
	}
	if cup.TotalValueEur == nil || *cup.TotalValueEur != 350_000 {
		t.Errorf("cup total value = %v, want 350000", cup.TotalValueEur)
	}
}

const competitionPage = `
<html><body>
<h1>Super League</h1>
<table class="items"><tbody>
<tr>
  <td><a href="/fc-adler/startseite/verein/42/saison_id/2025">FC Adler</a></td>
  <td class="zentriert">26</td>
  <td class="zentriert">25,1</td>
  <td class="zentriert">9</td>
  <td class="rechts">&euro;850k</td>
  <td class="rechts">&euro;22,10m</td>
</tr>
<tr><td class="extrarow" colspan="6">Absteiger</td></tr>
<tr>
  <td><a href="/sv-blitz/startseite/verein/77">SV Blitz</a></td>
  <td class="rechts">&euro;5,00m</td>
</tr>
</tbody></table>
</body></html>`

func TestParseCompetitionPage(t *testing.T) {
	page := ParseCompetitionPage(mustDoc(t, competitionPage))
	if page.Name != "Super League" {
		t.Errorf("page name = %q", page.Name)
	}
	if len(page.Clubs) != 2 {
		t.Fatalf("got %d clubs, want 2", len(page.Clubs))
	}

	adler := page.Clubs[0]
	if adler.ExternalClubID != "42" || adler.Name != "FC Adler" {
		t.Errorf("unexpected club identity: %+v", adler)
	}
	if adler.SquadSize == nil || *adler.SquadSize != 26 {
		t.Errorf("squad size = %v, want 26", adler.SquadSize)
	}
	if adler.ForeignerCount == nil || *adler.ForeignerCount != 9 {
		t.Errorf("foreigner count = %v, want 9", adler.ForeignerCount)
	}
	if adler.AvgMarketValueEur == nil || *adler.AvgMarketValueEur != 850_000 {
		t.Errorf("avg market value = %v, want 850000", adler.AvgMarketValueEur)
	}
	if adler.TotalMarketValueEur == nil || *adler.TotalMarketValueEur != 22_100_000 {
		t.Errorf("total market value = %v, want 22100000", adler.TotalMarketValueEur)
	}

	blitz := page.Clubs[1]
	if blitz.ExternalClubID != "77" {
		t.Errorf("club id = %q, want 77", blitz.ExternalClubID)
	}
	if blitz.AvgMarketValueEur != nil {
		t.Errorf("avg market value should be nil with a single value cell, got %v", *blitz.AvgMarketValueEur)
	}
	if blitz.TotalMarketValueEur == nil || *blitz.TotalMarketValueEur != 5_000_000 {
		t.Errorf("total market value = %v, want 5000000", blitz.TotalMarketValueEur)
	}
}

const rosterPage = `
<html><body>
<table class="items"><tbody>
<tr>
  <td class="zentriert"><div class="rn_nummer">7</div></td>
  <td class="posrela">
    <table class="inline-table">
      <tr>
        <td><img src="/img/p9001.png" data-src="/img/p9001-lazy.png"></td>
        <td><a href="/jan-weiss/profil/spieler/9001">Jan Wei&szlig;</a></td>
      </tr>
      <tr><td colspan="2">Rechtsau&szlig;en</td></tr>
    </table>
  </td>
  <td class="zentriert">30.06.2004 (21)</td>
  <td class="zentriert"><img class="flaggenrahmen" alt="Deutschland"><img class="flaggenrahmen" title="Polen"></td>
  <td class="zentriert">1,91m</td>
  <td class="zentriert">rechts</td>
  <td class="zentriert">01.07.2023</td>
  <td class="zentriert"><a href="/sv-blitz/startseite/verein/77"><img src="/img/blitz.png"></a></td>
  <td class="zentriert">30.06.2026</td>
  <td class="rechts">&euro;1,20m</td>
</tr>
<tr><td class="extrarow" colspan="10">Torhüter</td></tr>
<tr>
  <td class="posrela">
    <table class="inline-table">
      <tr><td><a href="/max-kurz/profil/spieler/9002">Max Kurz</a></td></tr>
      <tr><td>Torwart</td></tr>
    </table>
  </td>
  <td class="rechts">-</td>
</tr>
<tr>
  <td><a href="/anon/profil/spieler/"></a></td>
</tr>
</tbody></table>
</body></html>`

func TestParseSquadPlayers(t *testing.T) {
	rows := ParseSquadPlayers(mustDoc(t, rosterPage))
	if len(rows) != 2 {
		t.Fatalf("got %d players, want 2", len(rows))
	}

	jan := rows[0]
	if jan.ExternalPlayerID != "9001" || jan.Name != "Jan Weiß" {
		t.Errorf("unexpected identity: %+v", jan)
	}
	if jan.ProfilePath != "/jan-weiss/profil/spieler/9001" {
		t.Errorf("profile path = %q", jan.ProfilePath)
	}
	if jan.ShirtNumber == nil || *jan.ShirtNumber != 7 {
		t.Errorf("shirt number = %v, want 7", jan.ShirtNumber)
	}
	if jan.Position != "Rechtsaußen" {
		t.Errorf("position = %q", jan.Position)
	}
	if jan.BirthDate == nil || jan.BirthDate.Year() != 2004 {
		t.Errorf("birth date = %v", jan.BirthDate)
	}
	if jan.Age == nil || *jan.Age != 21 {
		t.Errorf("age = %v, want 21", jan.Age)
	}
	if len(jan.Nationalities) != 2 || jan.Nationalities[0] != "Deutschland" || jan.Nationalities[1] != "Polen" {
		t.Errorf("nationalities = %v", jan.Nationalities)
	}
	if jan.HeightCm == nil || *jan.HeightCm != 191 {
		t.Errorf("height = %v, want 191", jan.HeightCm)
	}
	if jan.DominantFoot != "rechts" {
		t.Errorf("dominant foot = %q", jan.DominantFoot)
	}
	if jan.JoinedOn == nil || jan.JoinedOn.Year() != 2023 {
		t.Errorf("joined on = %v", jan.JoinedOn)
	}
	if jan.ContractUntil == nil || jan.ContractUntil.Year() != 2026 {
		t.Errorf("contract until = %v", jan.ContractUntil)
	}
	if jan.SignedFromClubID != "77" {
		t.Errorf("signed from = %q, want 77", jan.SignedFromClubID)
	}
	if jan.MarketValueEur == nil || *jan.MarketValueEur != 1_200_000 {
		t.Errorf("market value = %v, want 1200000", jan.MarketValueEur)
	}
	if jan.ImageURL != "/img/p9001-lazy.png" {
		t.Errorf("image url = %q", jan.ImageURL)
	}

	max := rows[1]
	if max.ExternalPlayerID != "9002" || max.Position != "Torwart" {
		t.Errorf("unexpected second player: %+v", max)
	}
	if max.MarketValueEur != nil {
		t.Errorf("market value should be nil for a dash cell, got %v", *max.MarketValueEur)
	}
}

const profilePage = `
<html><body>
<h1>Jan Wei&szlig;</h1>
<div class="marktwert"><a href="#">&euro;1,20m</a></div>
<img class="portrait" src="/img/jan.png">
<table class="profile-table">
<tr><th>Geburtsdatum:</th><td>30.06.2004</td></tr>
<tr><th>Gr&ouml;&szlig;e:</th><td>1,91m</td></tr>
<tr><th>Fu&szlig;:</th><td>Rechts</td></tr>
<tr><th>Hauptposition:</th><td>Rechtsau&szlig;en</td></tr>
<tr><th>Nebenposition:</th><td>H&auml;ngende Spitze, Mittelst&uuml;rmer</td></tr>
<tr><th>Nationalit&auml;t:</th><td><img class="flaggenrahmen" alt="Deutschland"> Deutschland</td></tr>
<tr><th>Aktueller Verein:</th><td>FC Adler</td></tr>
<tr><th>Berater:</th><td>Sports United</td></tr>
<tr><th>Vertrag bis:</th><td>30.06.2026</td></tr>
</table>
</body></html>`

func TestParsePlayerProfile(t *testing.T) {
	p := ParsePlayerProfile(mustDoc(t, profilePage), "/jan-weiss/profil/spieler/9001")

	if p.ExternalPlayerID != "9001" || p.FullName != "Jan Weiß" {
		t.Errorf("unexpected identity: %+v", p)
	}
	if p.DateOfBirth == nil || p.DateOfBirth.Year() != 2004 {
		t.Errorf("date of birth = %v", p.DateOfBirth)
	}
	if p.HeightCm == nil || *p.HeightCm != 191 {
		t.Errorf("height = %v, want 191", p.HeightCm)
	}
	if p.DominantFoot != "rechts" {
		t.Errorf("dominant foot = %q", p.DominantFoot)
	}
	if p.MainPosition != "Rechtsaußen" {
		t.Errorf("main position = %q", p.MainPosition)
	}
	if len(p.OtherPositions) != 2 || p.OtherPositions[1] != "Mittelstürmer" {
		t.Errorf("other positions = %v", p.OtherPositions)
	}
	if len(p.Nationalities) != 1 || p.Nationalities[0] != "Deutschland" {
		t.Errorf("nationalities = %v", p.Nationalities)
	}
	if p.CurrentClubName != "FC Adler" {
		t.Errorf("current club = %q", p.CurrentClubName)
	}
	if p.Agent != "Sports United" {
		t.Errorf("agent = %q", p.Agent)
	}
	if p.ContractUntil == nil || p.ContractUntil.Year() != 2026 {
		t.Errorf("contract until = %v", p.ContractUntil)
	}
	if p.MarketValueEur == nil || *p.MarketValueEur != 1_200_000 {
		t.Errorf("market value = %v, want 1200000", p.MarketValueEur)
	}
	if p.PortraitURL != "/img/jan.png" {
		t.Errorf("portrait url = %q", p.PortraitURL)
	}
}
