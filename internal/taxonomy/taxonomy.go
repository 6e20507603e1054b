// Package taxonomy classifies raw item words into material, period, style,
// and color categories via fixed lookup tables. It is pure and synchronous;
// its only degenerate result is empty lists.
package taxonomy

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

type Classification struct {
	Materials []string `json:"materials"`
	Periods   []string `json:"periods"`
	Styles    []string `json:"styles"`
	Colors    []string `json:"colors"`
}

type Classifier interface {
	Classify(text string) Classification
}

// TableClassifier matches single words and two-word phrases against the
// built-in tables. Matching is case-insensitive on NFKC-normalized text.
type TableClassifier struct {
	materials map[string]string
	periods   map[string]string
	styles    map[string]string
	colors    map[string]string
}

func NewTableClassifier() *TableClassifier {
	return &TableClassifier{
		materials: buildTable(materialWords),
		periods:   buildTable(periodWords),
		styles:    buildTable(styleWords),
		colors:    buildTable(colorWords),
	}
}

func (c *TableClassifier) Classify(text string) Classification {
	tokens := tokenize(text)
	out := Classification{}
	seen := map[string]struct{}{}

	match := func(table map[string]string, dst *[]string, key string) {
		canonical, ok := table[key]
		if !ok {
			return
		}
		if _, dup := seen[canonical]; dup {
			return
		}
		seen[canonical] = struct{}{}
		*dst = append(*dst, canonical)
	}

	for i, tok := range tokens {
		for _, table := range []struct {
			t   map[string]string
			dst *[]string
		}{
			{c.materials, &out.Materials},
			{c.periods, &out.Periods},
			{c.styles, &out.Styles},
			{c.colors, &out.Colors},
		} {
			match(table.t, table.dst, tok)
			if i+1 < len(tokens) {
				match(table.t, table.dst, tok+" "+tokens[i+1])
			}
		}
	}
	return out
}

var foldCaser = cases.Fold()

func tokenize(text string) []string {
	clean := norm.NFKC.String(text)
	clean = foldCaser.String(clean)
	clean = strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', ';', ':', '(', ')', '"', '“', '”', '/':
			return ' '
		}
		return r
	}, clean)
	return strings.Fields(clean)
}

func buildTable(entries map[string][]string) map[string]string {
	table := map[string]string{}
	for canonical, variants := range entries {
		table[foldCaser.String(canonical)] = canonical
		for _, v := range variants {
			table[foldCaser.String(v)] = canonical
		}
	}
	return table
}

// Canonical word tables. Keys are the canonical English category terms fed
// into search queries; values list the raw (mostly Swedish) catalog words
// that map to them.
var materialWords = map[string][]string{
	"glass":     {"glas", "kristall", "crystal"},
	"ceramic":   {"keramik", "stengods", "lergods", "fajans", "stoneware", "earthenware"},
	"porcelain": {"porslin", "flintgods", "benporslin"},
	"silver":    {"sterling", "silverplät", "nysilver"},
	"brass":     {"mässing"},
	"bronze":    {"brons"},
	"pewter":    {"tenn"},
	"oak":       {"ek"},
	"teak":      {},
	"mahogany":  {"mahogny"},
	"birch":     {"björk"},
	"pine":      {"furu", "tall"},
	"leather":   {"läder", "skinn"},
	"wool":      {"ull", "ylle"},
	"linen":     {"linne"},
	"cast iron": {"gjutjärn"},
	"steel":     {"stål"},
	"copper":    {"koppar"},
	"marble":    {"marmor"},
}

var periodWords = map[string][]string{
	"18th century": {"1700-tal", "1700-talet", "rokoko"},
	"19th century": {"1800-tal", "1800-talet"},
	"1900s":        {"1900-tal", "1900-talet", "sekelskifte"},
	"1920s":        {"1920-tal", "1920-talet", "20-tal"},
	"1930s":        {"1930-tal", "1930-talet", "30-tal"},
	"1940s":        {"1940-tal", "1940-talet", "40-tal"},
	"1950s":        {"1950-tal", "1950-talet", "50-tal"},
	"1960s":        {"1960-tal", "1960-talet", "60-tal"},
	"1970s":        {"1970-tal", "1970-talet", "70-tal"},
	"1980s":        {"1980-tal", "1980-talet", "80-tal"},
	"contemporary": {"nutida", "samtida"},
}

var styleWords = map[string][]string{
	"art nouveau":         {"jugend"},
	"art deco":            {},
	"gustavian":           {"gustaviansk", "gustavianskt"},
	"functionalist":       {"funkis", "funktionalism"},
	"scandinavian modern": {"skandinavisk modern", "dansk design", "swedish modern"},
	"baroque":             {"barock"},
	"empire":              {"karl johan"},
	"mid-century":         {"mid century"},
}

var colorWords = map[string][]string{
	"blue":   {"blå", "blått", "koboltblå"},
	"red":    {"röd", "rött"},
	"green":  {"grön", "grönt"},
	"yellow": {"gul", "gult"},
	"white":  {"vit", "vitt"},
	"black":  {"svart"},
	"amber":  {"bärnstensfärgad", "bärnsten"},
	"clear":  {"klarglas", "ofärgat"},
	"smoke":  {"rökfärgad", "rökfärgat"},
}
