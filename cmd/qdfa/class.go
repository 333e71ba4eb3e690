package main

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/qdfa/charset"
)

// parseClass parses a comma separated list of class items into a set.
// An item is a single codepoint ("x"), a range ("a-z") or a Unicode
// category or script name prefixed by a colon (":Lu", ":Greek").
func parseClass(spec string) (charset.Set, error) {
	if spec == "" {
		return charset.Set{}, fmt.Errorf("empty character class")
	}

	var ranges []charset.Range
	var tables []*unicode.RangeTable
	for item := range strings.SplitSeq(spec, ",") {
		switch {
		case item == "":
			return charset.Set{}, fmt.Errorf("empty item in class %q", spec)

		case strings.HasPrefix(item, ":") && len(item) > 1:
			name := item[1:]
			rt, ok := unicode.Categories[name]
			if !ok {
				rt, ok = unicode.Scripts[name]
			}
			if !ok {
				return charset.Set{}, fmt.Errorf("unknown Unicode category or script %q", name)
			}
			tables = append(tables, rt)

		default:
			lo, n := utf8.DecodeRuneInString(item)
			if lo == utf8.RuneError && n <= 1 {
				return charset.Set{}, fmt.Errorf("invalid UTF-8 in class item %q", item)
			}
			rest := item[n:]
			if rest == "" {
				ranges = append(ranges, charset.Range{Lo: lo, Hi: lo})
				continue
			}
			if rest[0] != '-' || len(rest) == 1 {
				return charset.Set{}, fmt.Errorf("invalid class item %q", item)
			}
			hi, m := utf8.DecodeRuneInString(rest[1:])
			if (hi == utf8.RuneError && m <= 1) || m != len(rest)-1 {
				return charset.Set{}, fmt.Errorf("invalid class item %q", item)
			}
			if hi < lo {
				return charset.Set{}, fmt.Errorf("inverted range %q", item)
			}
			ranges = append(ranges, charset.Range{Lo: lo, Hi: hi})
		}
	}

	return charset.FromRanges(ranges...).Union(charset.FromUnicode(tables...)), nil
}
