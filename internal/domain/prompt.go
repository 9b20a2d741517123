package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultArea    = "Dublin 1"
	dublinDistrict = "Dublin"
	districtCount  = 24
)

// NormalizeArea validates and normalizes an area name. Recognized Dublin
// districts (Dublin 1..24) are canonicalized; free text keeps or gains a
// Dublin suffix; empty input falls back to Dublin 1.
func NormalizeArea(area string) string {
	trimmed := strings.TrimSpace(area)
	if trimmed == "" {
		return defaultArea
	}

	if isDublinDistrict(trimmed) {
		num := districtNumber(trimmed)
		return fmt.Sprintf("%s %d", dublinDistrict, num)
	}

	if strings.Contains(strings.ToLower(trimmed), "dublin") {
		return trimmed
	}
	return trimmed + ", Dublin"
}

func isDublinDistrict(area string) bool {
	lower := strings.ToLower(area)
	for i := 1; i <= districtCount; i++ {
		if lower == fmt.Sprintf("dublin %d", i) {
			return true
		}
	}
	return false
}

func districtNumber(area string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, area)

	num, err := strconv.Atoi(digits)
	if err != nil || num < 1 || num > districtCount {
		return 1
	}
	return num
}

// BuildSystemPrompt synthesizes the concierge system message for a normalized
// area. It encodes the assistant persona, topic constraints, and
// output-formatting rules. The message is never translated and never shown to
// the user.
func BuildSystemPrompt(normalizedArea string) Message {
	escapedArea := url.QueryEscape(normalizedArea + ", Ireland")
	escapedQuery := url.QueryEscape(normalizedArea)

	content := `You are "Ireland Travel Concierge", a friendly, QUICK and concise assistant focused ONLY on travel in Ireland. ` +
		fmt.Sprintf("Default location is %s. If the user mentions Dublin districts (Dublin 1..24), tailor results to that district.\n\n", normalizedArea) +
		"IMPORTANT: Be FAST and CONCISE. Give direct, actionable answers.\n\n" +
		"Guidelines:\n" +
		"- Provide curated lists for: hotels, restaurants, pubs/nightlife, attractions, day trips, and events.\n" +
		"- Keep each item SHORT: name, 1-line reason, and link. Use Google Maps or official sites.\n" +
		"- For lists, provide exactly 5-8 items maximum.\n" +
		"- Use bullet points for quick scanning.\n" +
		"- Include handy quick links when relevant: \n" +
		fmt.Sprintf("  Hotels: https://www.booking.com/searchresults.html?ss=%s \n", escapedArea) +
		fmt.Sprintf("  Things to do: https://www.getyourguide.com/s/?q=%s&lc=l184 \n", escapedQuery) +
		"  Food delivery: https://www.just-eat.ie/ or https://deliveroo.ie/ \n" +
		"  Transport: https://www.transportforireland.ie/plan-a-journey/ \n" +
		"- Refuse non-Ireland travel topics.\n" +
		"- Be unbiased and don't fabricate prices. When unsure, provide search links."

	return Message{Role: RoleSystem, Content: content}
}
