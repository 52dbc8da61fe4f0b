package verify

import "regexp"

// Tone labels the overall sentiment of an article's coverage.
type Tone string

const (
	TonePositive Tone = "POSITIVE"
	ToneNegative Tone = "NEGATIVE"
	ToneNeutral  Tone = "NEUTRAL"
)

// Negative indicators carry extra weight and neutral ones less, so bad news
// surrounded by boilerplate still reads as negative.
const (
	positiveWeight = 1.0
	negativeWeight = 1.2
	neutralWeight  = 0.8
)

var positiveTone = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\braise[sd]?\b|\bgain[sd]?\b|\bsurge[sd]?\b|\bsoar[sd]?\b|\bjump[sd]?\b`),
	regexp.MustCompile(`(?i)\bgrowth\b|\bexpand[sd]?\b|\bexpansion\b|\bprofit[s]?\b|\brevenue\b`),
	regexp.MustCompile(`(?i)\bfund(ed|ing)\b|\bpartnership\b|\bsuccess(ful)?\b|\bwin[s]?\b|\bwon\b`),
	regexp.MustCompile(`(?i)\baward[s]?\b|\bmilestone\b|\bbreakthrough\b|\binnovation\b`),
	regexp.MustCompile(`(?i)\blaunch(es|ed)?\b|\brelease[sd]?\b|\bunveil[sd]?\b|\bintroduce[sd]?\b`),
	regexp.MustCompile(`(?i)\bstrong\b|\bexcellent\b|\boutstanding\b|\bbest\b|\btop\b`),
}

var negativeTone = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfall[s]?\b|\bdecline[sd]?\b|\bdrop[sd]?\b|\bplunge[sd]?\b|\bcrash(es|ed)?\b`),
	regexp.MustCompile(`(?i)\bloss(es)?\b|\blosing\b|\blost\b|\bdecrease[sd]?\b|\breduction\b`),
	regexp.MustCompile(`(?i)\blayoff[s]?\b|\bbreach\b|\bhack(ed)?\b|\bransomware\b|\bcyber\s?attack\b`),
	regexp.MustCompile(`(?i)\bfraud\b|\bscandal\b|\blawsuit\b|\bshutdown\b|\bbankruptcy\b`),
	regexp.MustCompile(`(?i)\bfail(ed|ure)?\b|\bstruggl(es|ed|ing)?\b|\btrouble[sd]?\b|\bcrisis\b`),
	regexp.MustCompile(`(?i)\bweak(ened)?\b|\bconcern[s]?\b|\brisk[s]?\b|\bdisaster\b`),
}

var neutralTone = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bappoint[sd]?\b|\bjoin[sd]?\b|\bannounce[sd]?\b|\bannouncement\b`),
	regexp.MustCompile(`(?i)\bhire[sd]?\b|\bpromote[sd]?\b|\bresign[sd]?\b|\bdeparture\b`),
	regexp.MustCompile(`(?i)\bmerger\b|\bacquisition\b|\binvestment\b|\bdeal\b|\bagreement\b`),
	regexp.MustCompile(`(?i)\bquarterly\b|\bannual\b|\bupdate\b|\breport[sd]?\b|\bresults\b`),
}

// AnalyzeTone classifies the sentiment of an article from its title and
// snippet. Pure function; identical text always yields the identical tone
// and confidence.
func AnalyzeTone(title, snippet string) (Tone, float64) {
	text := title + " " + snippet

	positive := countToneHits(positiveTone, text)
	negative := countToneHits(negativeTone, text)
	neutral := countToneHits(neutralTone, text)

	weightedPositive := float64(positive) * positiveWeight
	weightedNegative := float64(negative) * negativeWeight
	weightedNeutral := float64(neutral) * neutralWeight

	switch {
	case weightedPositive > weightedNegative && weightedPositive > weightedNeutral:
		return TonePositive, minFloat(0.95, 0.6+float64(positive)*0.08)
	case weightedNegative > weightedPositive && weightedNegative > weightedNeutral:
		return ToneNegative, minFloat(0.95, 0.6+float64(negative)*0.08)
	case weightedNeutral > 0 && absFloat(weightedPositive-weightedNegative) < 2:
		return ToneNeutral, minFloat(0.8, 0.4+float64(neutral)*0.1)
	default:
		return ToneNeutral, 0.3
	}
}

func countToneHits(patterns []*regexp.Regexp, text string) int {
	total := 0
	for _, pattern := range patterns {
		total += len(pattern.FindAllString(text, -1))
	}
	return total
}

// ToneEmoji decorates the tone line in an alert.
func ToneEmoji(tone Tone) string {
	switch tone {
	case TonePositive:
		return "✅"
	case ToneNegative:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
