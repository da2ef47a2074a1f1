package scanner

import (
	"regexp"
	"strings"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

// categoryRules se evalúan en orden; gana la primera que matchea.
var categoryRules = []struct {
	category string
	re       *regexp.Regexp
}{
	{domain.CategorySports, regexp.MustCompile(`\b(nba|nfl|nhl|mlb|ufc|fifa|uefa|premier league|champions league|world cup|super bowl|match|game|vs\.?|playoffs?|finals?|tennis|soccer|football|basketball|baseball|hockey|boxing|f1|grand prix|golf|cricket)\b`)},
	{domain.CategoryPolitics, regexp.MustCompile(`\b(election|president|presidential|senate|congress|governor|parliament|prime minister|democrat|republican|vote|poll|primary|cabinet|trump|biden)\b`)},
	{domain.CategoryNews, regexp.MustCompile(`\b(breaking|announce[sd]?|report(ed|s)?|news|statement|resign(s|ed)?|arrest(ed)?|indict(ed|ment)?|court|ruling|war|ceasefire|strike)\b`)},
	{domain.CategoryCrypto, regexp.MustCompile(`\b(bitcoin|btc|ethereum|eth|solana|sol|crypto|token|defi|nft|blockchain|coinbase|binance)\b`)},
	{domain.CategoryFinance, regexp.MustCompile(`\b(stock|stocks|s&p|nasdaq|dow|fed|interest rates?|inflation|cpi|gdp|earnings|ipo|recession|treasury)\b`)},
}

var liveKeywords = regexp.MustCompile(`\b(live|now|currently|today|tonight|this hour)\b`)

// marketText es el texto que miran los clasificadores: pregunta + descripción en minúsculas.
func marketText(m domain.Market) string {
	return strings.ToLower(m.Question + " " + m.Description)
}

// Categorize devuelve la primera categoría cuyo patrón aparece en text, u "other".
func Categorize(text string) string {
	for _, r := range categoryRules {
		if r.re.MatchString(text) {
			return r.category
		}
	}
	return domain.CategoryOther
}

// IsLive aplica la heurística de "en vivo": cierre en menos de 2h, palabras clave
// de inmediatez, o mucho volumen con spread muy ajustado.
func IsLive(text string, hoursToClose, volume, spread float64) bool {
	if hoursToClose < 2 {
		return true
	}
	if liveKeywords.MatchString(text) {
		return true
	}
	return volume > 50000 && spread < 0.02
}
