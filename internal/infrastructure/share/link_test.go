package share

import (
	"bytes"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terranova/internal/domain/entity"
)

func TestRoundTrip(t *testing.T) {
	forms := []entity.PlanForm{
		{Name: "Atlantis", Population: 100_000, Terrain: "coastal", EcoPriority: 8, Size: 10},
		{Name: "New Eden & Co", Population: 30_000_000, Terrain: "mountain", EcoPriority: 1, Size: 50},
		{Name: "Zürich?", Population: 50_000, Terrain: "", EcoPriority: 10, Size: 1},
	}
	for _, f := range forms {
		link, err := Encode("https://terranova.example.com/app/index.html?old=1#top", f)
		require.NoError(t, err)
		assert.Contains(t, link, "https://terranova.example.com/app/index.html?city=")
		assert.NotContains(t, link, "old=1")

		got, err := Decode(link)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestEncodeWritesStrings(t *testing.T) {
	link, err := Encode("http://localhost:3000/", entity.PlanForm{Name: "A B", Population: 60000, EcoPriority: 5, Size: 12})
	require.NoError(t, err)
	assert.NotContains(t, link, "+")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"name":"A B","population":"60000","terrain":"","ecoPriority":"5","size":"12"}`,
		u.Query().Get(Param))
}

func TestDecodeAcceptsNumbers(t *testing.T) {
	form, err := Decode(`?city=` + url.QueryEscape(`{"name":"Num","population":75000,"terrain":"plains","ecoPriority":3,"size":20}`))
	require.NoError(t, err)
	assert.Equal(t, entity.PlanForm{Name: "Num", Population: 75000, Terrain: "plains", EcoPriority: 3, Size: 20}, form)

	form, err = Decode(`{"name":"Raw","size":"4"}`)
	require.NoError(t, err)
	assert.Equal(t, 4, form.Size)
}

func TestDecodeMalformed(t *testing.T) {
	for _, link := range []string{
		"https://x.example/?city=%7Bnot-json",
		"https://x.example/?city=" + url.QueryEscape(`{"name":"X","population":"lots"}`),
	} {
		_, err := Decode(link)
		assert.ErrorIs(t, err, entity.ErrMalformedShare, link)
	}

	_, err := Decode("https://x.example/")
	assert.ErrorIs(t, err, ErrNoCity)
}

func TestRestoreLogsAndIgnores(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, ok := Restore("https://x.example/?city=%7Bbroken", logger)
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "Error loading shared city")

	buf.Reset()
	_, ok = Restore("https://x.example/", logger)
	assert.False(t, ok)
	assert.Empty(t, buf.String())

	link, err := Encode("https://x.example/", entity.PlanForm{Name: "Ok", Size: 3})
	require.NoError(t, err)
	form, ok := Restore(link, logger)
	assert.True(t, ok)
	assert.Equal(t, "Ok", form.Name)
}

func TestNewMessage(t *testing.T) {
	m := NewMessage("Atlantis", "https://x.example/?city=1")
	assert.Equal(t, "TerraNova: Atlantis", m.Title)
	assert.Equal(t, "Check out my AI-generated sustainable city: Atlantis", m.Text)
}
