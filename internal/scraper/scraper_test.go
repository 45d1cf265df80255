package scraper

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invader-notifier/internal/classifier"
	"invader-notifier/internal/observability"
)

type fakeSource struct {
	body []byte
	err  error
	urls []string
}

func (f *fakeSource) FetchPage(_ context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	return f.body, f.err
}

func newTestScraper(t *testing.T, src PageSource) *Scraper {
	t.Helper()
	s, err := NewScraper(src, "https://example.test/news.php", DefaultSelectors(), observability.NewNop())
	require.NoError(t, err)
	return s
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const newsPage = `<html><body>
<div id="menu"><p>12: Ajout de PA_9999</p></div>
<div id="mois202403">
  <h2>Mars 2024</h2>
  <p>7 : Ajout de PA_1138. Destruction de PA_2200</p>
  <p>5: Dégradation de LDN_12</p>
  <p>2: Réactivation de PA_1</p>
</div>
<div id="mois202402">
  <p>28: Ajout de PA_3000</p>
</div>
</body></html>`

func TestParseNews(t *testing.T) {
	s := newTestScraper(t, nil)

	items, err := s.ParseNews(newsPage)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, date(2024, time.March, 5), items[0].Date)
	assert.Equal(t, "Dégradation de LDN_12", items[0].Content)
	assert.Equal(t, []classifier.ItemCode{"LDN_12"}, items[0].Invaders)
	assert.Equal(t, []classifier.Update{
		{Kind: classifier.KindDegradation, Codes: []classifier.ItemCode{"LDN_12"}},
	}, items[0].Updates)

	assert.Equal(t, "2024-03-07", items[1].DateString())
	assert.Equal(t, []classifier.ItemCode{"PA_1138", "PA_2200"}, items[1].Invaders)
	assert.Equal(t, []classifier.Update{
		{Kind: classifier.KindAddition, Codes: []classifier.ItemCode{"PA_1138"}},
		{Kind: classifier.KindDestruction, Codes: []classifier.ItemCode{"PA_2200"}},
	}, items[1].Updates)
}

func TestParseNewsOrdersOldestFirst(t *testing.T) {
	pages := []string{
		`<div id="mois202403"><p>5: Ajout de PA_1</p><p>7: Ajout de PA_2</p></div>`,
		`<div id="mois202403"><p>7: Ajout de PA_2</p><p>5: Ajout de PA_1</p></div>`,
	}

	s := newTestScraper(t, nil)
	for _, page := range pages {
		items, err := s.ParseNews(page)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "2024-03-05", items[0].DateString())
		assert.Equal(t, "2024-03-07", items[1].DateString())
	}
}

func TestParseNewsStructureMismatch(t *testing.T) {
	s := newTestScraper(t, nil)

	tests := map[string]string{
		"no container":         `<html><body><p>7: Ajout de PA_1</p></body></html>`,
		"container id invalid": `<div id="moisrecent"><p>7: Ajout de PA_1</p></div>`,
		"empty page":           ``,
	}
	for name, page := range tests {
		t.Run(name, func(t *testing.T) {
			items, err := s.ParseNews(page)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestParseNewsSkipsBadEntries(t *testing.T) {
	s := newTestScraper(t, nil)

	page := `<div id="mois202402">
		<p>   </p>
		<p>31: Ajout de PA_1</p>
		<p>3: Ajout de PA_2</p>
	</div>`
	// Only the first two entries are considered; both are unusable.
	items, err := s.ParseNews(page)
	require.NoError(t, err)
	assert.Empty(t, items)

	page = `<div id="mois202402"><p>Photos du mois</p><p>9 :   </p></div>`
	items, err = s.ParseNews(page)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParseNewsEntryWithoutAction(t *testing.T) {
	s := newTestScraper(t, nil)

	items, err := s.ParseNews(`<div id="mois202401"><p>3: Nouvelles photos de PA_5 et X_1</p></div>`)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []classifier.ItemCode{"PA_5"}, items[0].Invaders)
	assert.Equal(t, []classifier.Update{
		{Kind: classifier.KindOther, Codes: []classifier.ItemCode{"PA_5"}},
	}, items[0].Updates)
}

func TestFetchLatest(t *testing.T) {
	src := &fakeSource{body: []byte(newsPage)}
	s := newTestScraper(t, src)

	items, err := s.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, []string{"https://example.test/news.php"}, src.urls)
}

func TestFetchLatestPropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("connection refused")
	s := newTestScraper(t, &fakeSource{err: fetchErr})

	items, err := s.FetchLatest(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)
	assert.Nil(t, items)
}

func TestParsePeriodID(t *testing.T) {
	pattern := regexp.MustCompile(DefaultSelectors().PeriodIDPattern)

	p, err := ParsePeriodID(pattern, "mois202403")
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2024, Month: time.March}, p)
	assert.Equal(t, "2024-03", p.String())

	_, err = ParsePeriodID(pattern, "mois202413")
	assert.Error(t, err)
	_, err = ParsePeriodID(pattern, "news")
	assert.Error(t, err)
}

func TestPeriodDate(t *testing.T) {
	p := Period{Year: 2024, Month: time.March}

	d, err := p.Date(7)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.March, 7), d)

	leap := Period{Year: 2024, Month: time.February}
	_, err = leap.Date(29)
	assert.NoError(t, err)
	_, err = leap.Date(30)
	assert.Error(t, err)
	_, err = p.Date(0)
	assert.Error(t, err)
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		input   string
		day     int
		content string
		ok      bool
	}{
		{"7: Ajout de PA_1", 7, "Ajout de PA_1", true},
		{"  07 :Ajout de PA_1  ", 7, "Ajout de PA_1", true},
		{"23 : Destruction: PA_2", 23, "Destruction: PA_2", true},
		{"123: trop de chiffres", 0, "", false},
		{"Ajout: PA_1", 0, "", false},
		{"4:", 0, "", false},
	}

	for _, tt := range tests {
		day, content, ok := ParseEntry(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.day, day, tt.input)
		assert.Equal(t, tt.content, content, tt.input)
	}
}
