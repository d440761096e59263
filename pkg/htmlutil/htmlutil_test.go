package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "Bife Angosto", expected: "Bife Angosto"},
		{input: `Pollo & "Papas" <x1>`, expected: "Pollo &amp; &#34;Papas&#34; &lt;x1&gt;"},
		{input: "Jam'on", expected: "Jam&#39;on"},
	}

	for _, row := range table {
		escaped := Escape(row.input)
		require.Equal(t, row.expected, escaped.String())
		require.Equal(t, row.input, escaped.Raw())
	}
}

func TestCanonical(t *testing.T) {
	once := Escape(`A & "B" <c>`)
	require.Equal(t, once, Canonical(once.String()))
	require.Equal(t, once, Canonical(`A & "B" <c>`))
	require.Equal(t, "Milanesa &amp; Cía", Canonical("Milanesa & Cía").String())
	require.Equal(t, "Jam&#39;on", Canonical("Jam&#39;on").String())
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "Bondiola de cerdo", CleanText("\n\t  Bondiola \u0000 de\n\ncerdo  "))
	require.Equal(t, "", CleanText(" \n "))
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><span class="p">$ 1.200,00</span> <span class="p">/ kg</span></div>`,
	))
	require.NoError(t, err)
	require.Equal(t, "$ 1.200,00 / kg", SelectionText(doc.Find("span.p")))
}

func TestStripTags(t *testing.T) {
	require.Equal(
		t,
		"Pollo & Papas\nsube",
		StripTags("<b>Pollo &amp; Papas</b>\nsube"),
	)
}
