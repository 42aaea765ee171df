package sniff

import (
	"fmt"
	"regexp"
)

// quoteMatch is one quoted-field occurrence found by a pattern scan.
type quoteMatch struct {
	quote byte
	delim string // empty for patterns without a delimiter position
	space bool   // a single space sat between the delimiter and the quote
}

// guessQuoteAndDelimiter inspects quoted fields in the data. The four scans
// run in order of decreasing specificity and the first one that produces any
// matches wins: delimiter on both sides of the quotes, quote at line start
// with a trailing delimiter, leading delimiter with the quote at line end,
// and finally a bare line-bounded quoted field.
func guessQuoteAndDelimiter(data string) (quote byte, doubled bool, delim string, skipSpace bool) {
	var matches []quoteMatch
	for _, scan := range []func(string) []quoteMatch{
		scanDelimitedBothSides,
		scanLineStartQuoted,
		scanLineEndQuoted,
		scanBareQuoted,
	} {
		matches = scan(data)
		if len(matches) > 0 {
			break
		}
	}
	if len(matches) == 0 {
		return 0, false, "", false
	}

	quotes := newCounter()
	delims := newCounter()
	spaces := 0
	for _, m := range matches {
		quotes.add(string(m.quote))
		if m.delim == "" {
			continue
		}
		delims.add(m.delim)
		if m.space {
			spaces++
		}
	}

	quote = quotes.max()[0]
	if delims.len() > 0 {
		delim = delims.max()
		skipSpace = delims.count(delim) == spaces
	}

	doubled = looksDoubleQuoted(data, quote, delim)
	return quote, doubled, delim, skipSpace
}

// candidateDelim reports whether b may act as a delimiter next to a quote:
// anything but word characters, newlines, and the quote characters
// themselves. Carriage returns qualify on purpose.
func candidateDelim(b byte) bool {
	if b == '\n' || b == '"' || b == '\'' {
		return false
	}
	return !isWordByte(b)
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

func isQuoteByte(b byte) bool {
	return b == '"' || b == '\''
}

// scanDelimitedBothSides finds <delim>[ ]<q>...<q><delim> with the same
// delimiter character on both sides. The quoted span is minimal and may
// cross newlines. Matches do not overlap.
func scanDelimitedBothSides(data string) []quoteMatch {
	var out []quoteMatch
	i := 0
	for i < len(data) {
		d := data[i]
		if !candidateDelim(d) {
			i++
			continue
		}
		j := i + 1
		space := false
		if j < len(data) && data[j] == ' ' {
			space = true
			j++
		}
		if j >= len(data) || !isQuoteByte(data[j]) {
			i++
			continue
		}
		q := data[j]
		closeAt := -1
		for k := j + 1; k+1 < len(data); k++ {
			if data[k] == q && data[k+1] == d {
				closeAt = k
				break
			}
		}
		if closeAt < 0 {
			i++
			continue
		}
		out = append(out, quoteMatch{quote: q, delim: string(d), space: space})
		i = closeAt + 2
	}
	return out
}

// scanLineStartQuoted finds <line start><q>...<q><delim>[ ].
func scanLineStartQuoted(data string) []quoteMatch {
	var out []quoteMatch
	i := 0
	for i < len(data) {
		if !isQuoteByte(data[i]) || !atLineStart(data, i) {
			i++
			continue
		}
		q := data[i]
		closeAt := -1
		for k := i + 1; k+1 < len(data); k++ {
			if data[k] == q && candidateDelim(data[k+1]) {
				closeAt = k
				break
			}
		}
		if closeAt < 0 {
			i++
			continue
		}
		m := quoteMatch{quote: q, delim: string(data[closeAt+1])}
		end := closeAt + 2
		if end < len(data) && data[end] == ' ' {
			m.space = true
			end++
		}
		out = append(out, m)
		i = end
	}
	return out
}

// scanLineEndQuoted finds <delim>[ ]<q>...<q><line end>.
func scanLineEndQuoted(data string) []quoteMatch {
	var out []quoteMatch
	i := 0
	for i < len(data) {
		d := data[i]
		if !candidateDelim(d) {
			i++
			continue
		}
		j := i + 1
		space := false
		if j < len(data) && data[j] == ' ' {
			space = true
			j++
		}
		if j >= len(data) || !isQuoteByte(data[j]) {
			i++
			continue
		}
		q := data[j]
		closeAt := -1
		for k := j + 1; k < len(data); k++ {
			if data[k] == q && atLineEnd(data, k) {
				closeAt = k
				break
			}
		}
		if closeAt < 0 {
			i++
			continue
		}
		out = append(out, quoteMatch{quote: q, delim: string(d), space: space})
		i = closeAt + 1
		if i < len(data) && data[i] == '\n' {
			i++
		}
	}
	return out
}

// scanBareQuoted finds <line start><q>...<q><line end>. No delimiter.
func scanBareQuoted(data string) []quoteMatch {
	var out []quoteMatch
	i := 0
	for i < len(data) {
		if !isQuoteByte(data[i]) || !atLineStart(data, i) {
			i++
			continue
		}
		q := data[i]
		closeAt := -1
		for k := i + 1; k < len(data); k++ {
			if data[k] == q && atLineEnd(data, k) {
				closeAt = k
				break
			}
		}
		if closeAt < 0 {
			i++
			continue
		}
		out = append(out, quoteMatch{quote: q})
		i = closeAt + 1
		if i < len(data) && data[i] == '\n' {
			i++
		}
	}
	return out
}

func atLineStart(data string, i int) bool {
	return i == 0 || data[i-1] == '\n'
}

func atLineEnd(data string, i int) bool {
	return i+1 == len(data) || data[i+1] == '\n'
}

// looksDoubleQuoted reports whether an extra quote appears between
// delimiters, the signature of the doubled-quote escaping convention.
func looksDoubleQuoted(data string, quote byte, delim string) bool {
	d := regexp.QuoteMeta(delim)
	q := regexp.QuoteMeta(string(quote))
	expr := fmt.Sprintf(`(?m)((%s)|^)\W*%s[^%s\n]*%s[^%s\n]*%s\W*((%s)|$)`, d, q, d, q, d, q, d)
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return re.MatchString(data)
}

// counter tallies string keys and remembers first-insertion order so that
// ties break deterministically toward the earliest key.
type counter struct {
	keys   []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(k string) {
	if _, ok := c.counts[k]; !ok {
		c.keys = append(c.keys, k)
	}
	c.counts[k]++
}

func (c *counter) len() int { return len(c.keys) }

func (c *counter) count(k string) int { return c.counts[k] }

// max returns the key with the highest count, earliest-seen on ties.
func (c *counter) max() string {
	best, bestN := "", -1
	for _, k := range c.keys {
		if c.counts[k] > bestN {
			best, bestN = k, c.counts[k]
		}
	}
	return best
}
