// Package content measures how digestible a page's Markdown is for
// retrieval: density, structure, chunking, and readability.
package content

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/contextcli/context-cli/internal/types"
)

const (
	sweetSpotMin = 50
	sweetSpotMax = 150

	// Flesch-Kincaid needs a minimum corpus to say anything meaningful.
	readabilityMinWords = 30
)

var (
	headingRe     = regexp.MustCompile(`(?m)^(#{1,6})\s`)
	headingLineRe = regexp.MustCompile(`(?m)^#{1,6}\s.*$`)
	listRe        = regexp.MustCompile(`(?m)^[ \t]*[-*+]\s`)
	sentenceEndRe = regexp.MustCompile(`[.!?][ \t\n]`)
	sentenceRe    = regexp.MustCompile(`[.!?]+`)
	vowelGroupRe  = regexp.MustCompile(`(?i)[aeiou]+`)
)

// Analyze computes the content pillar metrics for one page's Markdown.
func Analyze(markdown string) *types.ContentReport {
	report := &types.ContentReport{
		WordCount:             len(strings.Fields(markdown)),
		CharCount:             utf8.RuneCountInString(markdown),
		HasHeadings:           headingRe.MatchString(markdown),
		HasLists:              listRe.MatchString(markdown),
		HasCodeBlocks:         strings.Contains(markdown, "```"),
		HeadingHierarchyValid: true,
	}

	analyzeHeadings(markdown, report)
	analyzeChunks(markdown, report)

	if report.WordCount >= readabilityMinWords {
		grade := fleschKincaid(markdown, report.WordCount)
		report.ReadabilityGrade = &grade
	}

	report.Detail = fmt.Sprintf("%d words, %d headings, %d chunks",
		report.WordCount, report.HeadingCount, report.ChunkCount)
	return report
}

// analyzeHeadings counts headings and validates the hierarchy: each heading
// may go at most one level deeper than the deepest level seen so far.
// Going shallower is always fine, and the first heading may sit at any
// level.
func analyzeHeadings(markdown string, report *types.ContentReport) {
	matches := headingRe.FindAllStringSubmatch(markdown, -1)
	report.HeadingCount = len(matches)

	runningMax := 0
	for i, m := range matches {
		level := len(m[1])
		if i > 0 && level > runningMax+1 {
			report.HeadingHierarchyValid = false
		}
		if level > runningMax {
			runningMax = level
		}
	}
}

// analyzeChunks splits the document on heading lines and measures the
// resulting sections: how many land in the 50-150 word retrieval sweet spot
// and how many lead with a declarative sentence.
func analyzeChunks(markdown string, report *types.ContentReport) {
	var chunks []string
	for _, c := range headingLineRe.Split(markdown, -1) {
		if strings.TrimSpace(c) != "" {
			chunks = append(chunks, c)
		}
	}
	report.ChunkCount = len(chunks)
	if len(chunks) == 0 {
		return
	}

	totalWords := 0
	answerFirst := 0
	for _, chunk := range chunks {
		words := len(strings.Fields(chunk))
		totalWords += words
		if words >= sweetSpotMin && words <= sweetSpotMax {
			report.ChunksInSweetSpot++
		}
		if !strings.HasSuffix(firstSentence(chunk), "?") {
			answerFirst++
		}
	}

	report.AvgChunkWords = totalWords / len(chunks)
	report.AnswerFirstRatio = round2(float64(answerFirst) / float64(len(chunks)))
}

// firstSentence returns the leading sentence of a chunk including its
// terminal punctuation, or the whole chunk when no boundary exists.
func firstSentence(chunk string) string {
	chunk = strings.TrimSpace(chunk)
	if loc := sentenceEndRe.FindStringIndex(chunk); loc != nil {
		return chunk[:loc[0]+1]
	}
	return chunk
}

// fleschKincaid computes the Flesch-Kincaid grade level. Syllables are
// approximated as contiguous vowel groups, floored at one per word.
func fleschKincaid(markdown string, wordCount int) float64 {
	sentences := 0
	for _, s := range sentenceRe.Split(markdown, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}

	syllables := 0
	for _, word := range strings.Fields(markdown) {
		n := len(vowelGroupRe.FindAllString(word, -1))
		if n < 1 {
			n = 1
		}
		syllables += n
	}

	words := float64(wordCount)
	grade := 0.39*(words/float64(sentences)) + 11.8*(float64(syllables)/words) - 15.59
	return round1(grade)
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }
