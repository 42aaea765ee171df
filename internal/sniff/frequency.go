package sniff

import (
	"sort"
	"strings"
)

// asciiLimit bounds the candidate set to 7-bit characters. Bytes of
// multi-byte UTF-8 sequences fall outside it and never pollute the tallies.
const asciiLimit = 127

// mode is the dominant per-line occurrence count of one character: the
// character appeared freq times on lines "votes" many lines (after
// subtracting the lines that disagreed).
type mode struct {
	freq  int
	votes int
}

// freqTable records, for one character, how many lines contained it exactly
// N times. Keys keep first-insertion order so that mode ties resolve the
// same way on every run.
type freqTable struct {
	order  []int
	counts map[int]int
}

func (t *freqTable) add(freq int) {
	if t.counts == nil {
		t.counts = make(map[int]int)
	}
	if _, ok := t.counts[freq]; !ok {
		t.order = append(t.order, freq)
	}
	t.counts[freq]++
}

// guessDelimiter scores every 7-bit character on how consistently it occurs
// per line, processing the sample in 10-line chunks until one candidate
// stands alone or the sample is exhausted.
func (s *Sniffer) guessDelimiter(data string) (string, bool) {
	var lines []string
	for _, ln := range strings.Split(data, "\n") {
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) == 0 {
		return "", false
	}

	chunkLen := min(10, len(lines))
	var freq [asciiLimit]freqTable
	var modes [asciiLimit]mode
	var hasMode [asciiLimit]bool
	delims := delimSet{modes: make(map[byte]mode)}

	iteration := 0
	for start := 0; start < len(lines); start += chunkLen {
		iteration++
		end := min(start+chunkLen, len(lines))

		for _, line := range lines[start:end] {
			var counts [asciiLimit]int
			for i := 0; i < len(line); i++ {
				if line[i] < asciiLimit {
					counts[line[i]]++
				}
			}
			// Zero counts are recorded too; a line where the candidate is
			// absent argues against it.
			for c := 0; c < asciiLimit; c++ {
				freq[c].add(counts[c])
			}
		}

		for c := 0; c < asciiLimit; c++ {
			t := &freq[c]
			if len(t.order) == 1 && t.order[0] == 0 {
				continue // never appears
			}
			best := t.order[0]
			bestN := t.counts[best]
			for _, f := range t.order[1:] {
				if t.counts[f] > bestN {
					best, bestN = f, t.counts[f]
				}
			}
			if len(t.order) > 1 {
				for _, f := range t.order {
					if f != best {
						bestN -= t.counts[f]
					}
				}
			}
			modes[c] = mode{freq: best, votes: bestN}
			hasMode[c] = true
		}

		total := float64(min(chunkLen*iteration, len(lines)))
		for consistency := 1.0; len(delims.order) == 0 && consistency >= 0.9; consistency -= 0.01 {
			for c := 0; c < asciiLimit; c++ {
				if !hasMode[c] {
					continue
				}
				m := modes[c]
				if m.freq > 0 && m.votes > 0 && float64(m.votes)/total >= consistency {
					delims.set(byte(c), m)
				}
			}
		}

		if len(delims.order) == 1 {
			return delimAndSpace(lines[0], delims.order[0])
		}
	}

	if len(delims.order) == 0 {
		return "", false
	}
	if len(delims.order) > 1 {
		for _, p := range s.Preferred {
			if _, ok := delims.modes[p]; ok {
				return delimAndSpace(lines[0], p)
			}
		}
	}

	// No preference applies; the candidate with the highest occurrence
	// count wins, then line votes, then the character value itself.
	ranked := append([]byte(nil), delims.order...)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := delims.modes[ranked[i]], delims.modes[ranked[j]]
		if a.freq != b.freq {
			return a.freq < b.freq
		}
		if a.votes != b.votes {
			return a.votes < b.votes
		}
		return ranked[i] < ranked[j]
	})
	return delimAndSpace(lines[0], ranked[len(ranked)-1])
}

// delimAndSpace pairs the chosen delimiter with the skip-initial-space
// verdict: every occurrence in the first line is followed by a space.
func delimAndSpace(firstLine string, delim byte) (string, bool) {
	d := string(delim)
	return d, strings.Count(firstLine, d) == strings.Count(firstLine, d+" ")
}

// delimSet is an insertion-ordered byte->mode map.
type delimSet struct {
	order []byte
	modes map[byte]mode
}

func (d *delimSet) set(c byte, m mode) {
	if _, ok := d.modes[c]; !ok {
		d.order = append(d.order, c)
	}
	d.modes[c] = m
}
