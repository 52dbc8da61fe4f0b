// Package alert renders accepted events into outbound messages and delivers
// them to the configured sink.
package alert

import (
	"fmt"
	"strings"

	"radar/internal/core"
	"radar/internal/verify"
)

// categoryEmoji decorates the message headline per category.
var categoryEmoji = map[core.EventCategory]string{
	core.CategoryFunding:          "🎉",
	core.CategoryExecChange:       "🧭",
	core.CategoryHiring:           "📈",
	core.CategoryProductLaunch:    "🚀",
	core.CategoryAward:            "🏆",
	core.CategoryLayoffs:          "📉",
	core.CategorySecurityIncident: "🛡️",
}

// categoryFlair is the fixed suggestion sentence appended per category.
var categoryFlair = map[core.EventCategory]string{
	core.CategoryFunding:          "Congratulate them! 🎉",
	core.CategoryProductLaunch:    "Give them a shoutout or offer demo space.",
	core.CategoryAward:            "Congratulate them! 🏆",
	core.CategoryHiring:           "Congratulate them and consider amplifying openings to the community.",
	core.CategoryExecChange:       "Share a note; welcome them or support the transition.",
	core.CategoryLayoffs:          "Reach out privately and offer support. Keep the tone compassionate.",
	core.CategorySecurityIncident: "Reach out privately and offer support. Keep the tone compassionate.",
}

// Flair returns the fixed contextual suggestion for a category.
func Flair(category core.EventCategory) string {
	if flair, ok := categoryFlair[category]; ok {
		return flair
	}
	return "Consider a friendly shoutout."
}

// Format renders an accepted event into the outbound message string. The
// template is deterministic: same event, same message.
func Format(event core.AlertEvent) string {
	emoji := categoryEmoji[event.Category]
	if emoji == "" {
		emoji = "📰"
	}

	locationSuffix := ""
	if event.PrimaryLocation != "" {
		locationSuffix = " in " + event.PrimaryLocation
	}

	rationale := event.Headline
	if len(event.MatchedTerms) > 0 {
		rationale = fmt.Sprintf("%s (matched: %s)", event.Headline, strings.Join(event.MatchedTerms, ", "))
	}

	date := ""
	if !event.PublishedAt.IsZero() {
		date = event.PublishedAt.UTC().Format("2006-01-02")
	}

	var b strings.Builder
	if event.VerifyNote != "" {
		statusEmoji := verify.StatusEmoji(event.Verified, event.VerifyConfidence)
		if event.Verified {
			fmt.Fprintf(&b, "%s *VERIFIED* (%.2f) - %s\n", statusEmoji, event.VerifyConfidence, event.VerifyNote)
		} else {
			fmt.Fprintf(&b, "%s *UNVERIFIED* - %s\n", statusEmoji, event.VerifyNote)
		}
	}
	fmt.Fprintf(&b, "%s *%s: %s%s*\n", emoji, event.Category, event.CompanyName, locationSuffix)
	fmt.Fprintf(&b, "%s\n", rationale)
	fmt.Fprintf(&b, "<%s|Evidence>", event.SourceURL)
	if date != "" {
		fmt.Fprintf(&b, " · %s", date)
	}
	fmt.Fprintf(&b, " · Conf %.2f · Sev %.2f\n", event.Confidence, event.Severity)
	if event.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s %s (%.2f)\n", verify.ToneEmoji(verify.Tone(event.Tone)), event.Tone, event.ToneConfidence)
	}
	fmt.Fprintf(&b, "_%s_", event.FlairText)
	return b.String()
}
