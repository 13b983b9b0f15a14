package types

import (
	"strconv"
	"strings"
)

// Option is a selectable value with its display label.
type Option struct {
	Label string
	Value string
}

var RelationshipTypes = []Option{
	{Label: "Colleague", Value: "colleague"},
	{Label: "Boss", Value: "boss"},
	{Label: "Client", Value: "client"},
	{Label: "Friend", Value: "friend"},
	{Label: "Partner", Value: "partner"},
	{Label: "Family", Value: "family"},
}

var DesiredOutcomes = []Option{
	{Label: "Schedule a meeting", Value: "schedule a meeting"},
	{Label: "Decline politely", Value: "decline politely"},
	{Label: "Show enthusiasm", Value: "show enthusiasm"},
	{Label: "Request more information", Value: "request more information"},
	{Label: "Provide update", Value: "provide update"},
	{Label: "Express gratitude", Value: "express gratitude"},
	{Label: "Apologize professionally", Value: "apologize professionally"},
	{Label: "Confirm understanding", Value: "confirm understanding"},
	{Label: "Ask for clarification", Value: "ask for clarification"},
}

// LookupOption resolves v against opts by value, by label ignoring case, or
// by 1-based position ("3").
func LookupOption(opts []Option, v string) (Option, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return Option{}, false
	}
	for _, o := range opts {
		if o.Value == v || strings.EqualFold(o.Label, v) {
			return o, true
		}
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= len(opts) {
		return opts[n-1], true
	}
	return Option{}, false
}
