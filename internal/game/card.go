package game

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/citymemory/backend/internal/models"
)

// City is a matching key on the board
type City string

const (
	Paris    City = "paris"
	London   City = "london"
	Rome     City = "rome"
	Madrid   City = "madrid"
	Berlin   City = "berlin"
	Prague   City = "prague"
	Lisbon   City = "lisbon"
	Tokyo    City = "tokyo"
	Cairo    City = "cairo"
	NewYork  City = "new_york"
	RioDeJan City = "rio_de_janeiro"
	Vienna   City = "vienna"
)

// MinCards is the smallest playable board
const MinCards = 4

// Cities is the full deck in canonical order
var Cities = []City{Paris, London, Rome, Madrid, Berlin, Prague, Lisbon, Tokyo, Cairo, NewYork, RioDeJan, Vienna}

// cityLabels holds the display name of every city per language
var cityLabels = map[string]map[City]string{
	"en": {Paris: "Paris", London: "London", Rome: "Rome", Madrid: "Madrid", Berlin: "Berlin", Prague: "Prague", Lisbon: "Lisbon", Tokyo: "Tokyo", Cairo: "Cairo", NewYork: "New York", RioDeJan: "Rio de Janeiro", Vienna: "Vienna"},
	"es": {Paris: "París", London: "Londres", Rome: "Roma", Madrid: "Madrid", Berlin: "Berlín", Prague: "Praga", Lisbon: "Lisboa", Tokyo: "Tokio", Cairo: "El Cairo", NewYork: "Nueva York", RioDeJan: "Río de Janeiro", Vienna: "Viena"},
	"fr": {Paris: "Paris", London: "Londres", Rome: "Rome", Madrid: "Madrid", Berlin: "Berlin", Prague: "Prague", Lisbon: "Lisbonne", Tokyo: "Tokyo", Cairo: "Le Caire", NewYork: "New York", RioDeJan: "Rio de Janeiro", Vienna: "Vienne"},
	"pt": {Paris: "Paris", London: "Londres", Rome: "Roma", Madrid: "Madri", Berlin: "Berlim", Prague: "Praga", Lisbon: "Lisboa", Tokyo: "Tóquio", Cairo: "Cairo", NewYork: "Nova York", RioDeJan: "Rio de Janeiro", Vienna: "Viena"},
	"cs": {Paris: "Paříž", London: "Londýn", Rome: "Řím", Madrid: "Madrid", Berlin: "Berlín", Prague: "Praha", Lisbon: "Lisabon", Tokyo: "Tokio", Cairo: "Káhira", NewYork: "New York", RioDeJan: "Rio de Janeiro", Vienna: "Vídeň"},
	"de": {Paris: "Paris", London: "London", Rome: "Rom", Madrid: "Madrid", Berlin: "Berlin", Prague: "Prag", Lisbon: "Lissabon", Tokyo: "Tokio", Cairo: "Kairo", NewYork: "New York", RioDeJan: "Rio de Janeiro", Vienna: "Wien"},
	"ja": {Paris: "パリ", London: "ロンドン", Rome: "ローマ", Madrid: "マドリード", Berlin: "ベルリン", Prague: "プラハ", Lisbon: "リスボン", Tokyo: "東京", Cairo: "カイロ", NewYork: "ニューヨーク", RioDeJan: "リオデジャネイロ", Vienna: "ウィーン"},
	"ar": {Paris: "باريس", London: "لندن", Rome: "روما", Madrid: "مدريد", Berlin: "برلين", Prague: "براغ", Lisbon: "لشبونة", Tokyo: "طوكيو", Cairo: "القاهرة", NewYork: "نيويورك", RioDeJan: "ريو دي جانيرو", Vienna: "فيينا"},
}

// MaxCards is the largest board the deck can fill
func MaxCards() int {
	return len(Cities) * 2
}

// Languages returns the supported deck languages, sorted
func Languages() []string {
	langs := make([]string, 0, len(cityLabels))
	for l := range cityLabels {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// IsValidLanguage reports whether a deck exists for lang
func IsValidLanguage(lang string) bool {
	_, ok := cityLabels[lang]
	return ok
}

// ValidateCardCount checks an even board size the deck can fill
func ValidateCardCount(n int) error {
	if n < MinCards || n > MaxCards() || n%2 != 0 {
		return Validationf("cardCount must be an even number between %d and %d", MinCards, MaxCards())
	}
	return nil
}

// Shuffler permutes n elements through swap
type Shuffler func(n int, swap func(i, j int))

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// FisherYates is the default uniform shuffle
func FisherYates(n int, swap func(i, j int)) {
	rngMu.Lock()
	defer rngMu.Unlock()
	rng.Shuffle(n, swap)
}

// BuildDeck returns cardCount cards made of cardCount/2 cities, each twice.
// shuffle picks the cities and permutes the board; a nil shuffle takes the
// first cities of the deck and leaves each pair adjacent.
func BuildDeck(language string, cardCount int, shuffle Shuffler) ([]models.Card, error) {
	if !IsValidLanguage(language) {
		return nil, Validationf("unsupported language %q", language)
	}
	if err := ValidateCardCount(cardCount); err != nil {
		return nil, err
	}

	pool := make([]City, len(Cities))
	copy(pool, Cities)
	if shuffle != nil {
		shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
	}

	labels := cityLabels[language]
	cards := make([]models.Card, 0, cardCount)
	for _, city := range pool[:cardCount/2] {
		c := models.Card{City: string(city), Label: labels[city]}
		cards = append(cards, c, c)
	}

	if shuffle != nil {
		shuffle(len(cards), func(i, j int) {
			cards[i], cards[j] = cards[j], cards[i]
		})
	}

	// ids follow final board position
	for i := range cards {
		cards[i].ID = i
	}
	return cards, nil
}
