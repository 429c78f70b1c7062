package rewrite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func englishLabels() Labels {
	return Labels{VisitPrimary: "visit primary site", VisitMirror: "visit mirror site", Primary: "primary site", Mirror: "mirror site"}
}

func TestTable_Order(t *testing.T) {
	d := DefaultDomains()
	l := DefaultLabels()

	assert.Equal(t, []Rule{
		{From: "yfy0109.github.io", To: "yfy0109.top"},
		{From: "访问主站", To: "访问备用站"},
		{From: "主站点", To: "备用站点"},
	}, Table(ModeMirror, d, l))

	assert.Equal(t, []Rule{
		{From: "yfy0109.top", To: "yfy0109.github.io"},
		{From: "访问备用站", To: "访问主站"},
		{From: "备用站点", To: "主站点"},
	}, Table(ModePrimary, d, l))
}

func TestApply(t *testing.T) {
	rules := Table(ModeMirror, DefaultDomains(), DefaultLabels())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"no matches", "<p>hello</p>", "<p>hello</p>"},
		{"domain everywhere", "https://yfy0109.github.io/a and //yfy0109.github.io/b", "https://yfy0109.top/a and //yfy0109.top/b"},
		{"visit label", `<a href="https://yfy0109.github.io">访问主站</a>`, `<a href="https://yfy0109.top">访问备用站</a>`},
		{"site label", "本文发布在主站点", "本文发布在备用站点"},
		{"visit label before site label", "访问主站点", "访问备用站点"},
		{"mirror text untouched", "访问备用站 备用站点 yfy0109.top", "访问备用站 备用站点 yfy0109.top"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.in, rules))
		})
	}
}

func TestApply_CustomLabels(t *testing.T) {
	rules := Table(ModeMirror, DefaultDomains(), englishLabels())
	assert.Equal(t,
		`<a href="https://yfy0109.top">visit mirror site</a> on the mirror site`,
		Apply(`<a href="https://yfy0109.github.io">visit primary site</a> on the primary site`, rules))
}

func TestApply_SkipsEmptyPattern(t *testing.T) {
	assert.Equal(t, "abc", Apply("abc", []Rule{{From: "", To: "x"}}))
}

func TestApply_Idempotent(t *testing.T) {
	inputs := []string{
		`<a href="https://yfy0109.github.io/">visit primary site</a> primary site yfy0109.github.io`,
		"访问主站 at yfy0109.github.io, 主站点",
		"访问主站点 访问备用站",
	}
	for _, mode := range Modes() {
		for _, labels := range []Labels{DefaultLabels(), englishLabels()} {
			rules := Table(mode, DefaultDomains(), labels)
			for _, in := range inputs {
				once := Apply(in, rules)
				assert.Equal(t, once, Apply(once, rules), "mode %s", mode)
			}
		}
	}
}

func TestApply_RoundTrip(t *testing.T) {
	d := DefaultDomains()
	for _, labels := range []Labels{DefaultLabels(), englishLabels()} {
		in := "<html><a href=\"https://yfy0109.github.io/x\">" + labels.VisitPrimary + "</a> " + labels.Primary + "</html>"
		toMirror := Apply(in, Table(ModeMirror, d, labels))
		require.NotEqual(t, in, toMirror)
		back := Apply(toMirror, Table(ModePrimary, d, labels))
		assert.Equal(t, in, back)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Mirror ")
	require.NoError(t, err)
	assert.Equal(t, ModeMirror, m)

	m, err = ParseMode("primary")
	require.NoError(t, err)
	assert.Equal(t, ModePrimary, m)
	assert.Equal(t, ModeMirror, m.Opposite())

	_, err = ParseMode("sideways")
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestValidateTable(t *testing.T) {
	require.NoError(t, ValidateTable(DefaultDomains(), DefaultLabels()))
	require.NoError(t, ValidateTable(DefaultDomains(), englishLabels()))

	tests := []struct {
		name string
		d    Domains
		l    Labels
	}{
		{"empty primary", Domains{Mirror: "m.example"}, DefaultLabels()},
		{"nested domains", Domains{Primary: "example.com", Mirror: "mirror.example.com"}, DefaultLabels()},
		{"nested labels", DefaultDomains(), Labels{VisitPrimary: "go main", VisitMirror: "go main copy", Primary: "main", Mirror: "main copy"}},
		{"visit mirror contains primary", DefaultDomains(), Labels{VisitPrimary: "visit primary site", VisitMirror: "primary site backup", Primary: "primary site", Mirror: "backup"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateTable(tt.d, tt.l), ErrInvalidTable)
		})
	}
}
