// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package boost

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleDef is an uncompiled franchise rule as loaded from configuration.
type RuleDef struct {
	Pattern string
	Name    string
}

// Rule maps titles matching Pattern to the canonical franchise Name.
type Rule struct {
	Pattern *regexp.Regexp
	Name    string
}

// Rules is an ordered franchise table; the first matching rule wins.
type Rules []Rule

// defaultRuleDefs is the built-in franchise table.
var defaultRuleDefs = []RuleDef{
	{`(?i)^star wars\b|\bthe mandalorian\b|\bandor\b|\bobi-wan kenobi\b|\bthe clone wars\b`, "Star Wars"},
	{`(?i)^star trek\b`, "Star Trek"},
	{`(?i)\b(avengers|iron man|captain america|thor|black panther|guardians of the galaxy|ant-man|doctor strange|wandavision|loki)\b`, "Marvel Cinematic Universe"},
	{`(?i)\bspider-man\b`, "Spider-Man"},
	{`(?i)\b(batman|the dark knight|superman|man of steel|wonder woman|justice league|aquaman)\b`, "DC Universe"},
	{`(?i)\bharry potter\b|\bfantastic beasts\b`, "Wizarding World"},
	{`(?i)\bthe lord of the rings\b|\bthe hobbit\b|\bthe rings of power\b`, "Middle-earth"},
	{`(?i)^(the )?fast (and|&) (the )?furious\b|^furious \d|^fast x\b|^fast five\b`, "Fast & Furious"},
	{`(?i)^mission: impossible\b`, "Mission: Impossible"},
	{`(?i)^james bond\b|^007\b|\b(skyfall|spectre|goldeneye|casino royale|no time to die)\b`, "James Bond"},
	{`(?i)^jurassic (park|world)\b`, "Jurassic Park"},
	{`(?i)^toy story\b`, "Toy Story"},
	{`(?i)^alien(s|3| resurrection|: romulus| covenant)?$|^prometheus$`, "Alien"},
	{`(?i)^the matrix\b`, "The Matrix"},
	{`(?i)^john wick\b`, "John Wick"},
	{`(?i)^indiana jones\b|^raiders of the lost ark$`, "Indiana Jones"},
	{`(?i)^pirates of the caribbean\b`, "Pirates of the Caribbean"},
	{`(?i)^the hunger games\b|^mockingjay\b`, "The Hunger Games"},
	{`(?i)^law (&|and) order\b`, "Law & Order"},
	{`(?i)^ncis\b`, "NCIS"},
	{`(?i)^csi\b`, "CSI"},
	{`(?i)^the walking dead\b|^fear the walking dead\b`, "The Walking Dead"},
	{`(?i)^game of thrones\b|^house of the dragon\b`, "A Song of Ice and Fire"},
	{`(?i)^breaking bad\b|^better call saul\b|^el camino\b`, "Breaking Bad"},
}

// DefaultRules returns the compiled built-in franchise table.
func DefaultRules() Rules {
	rules, err := CompileRules(defaultRuleDefs)
	if err != nil {
		panic(fmt.Sprintf("boost: built-in franchise rules do not compile: %v", err))
	}
	return rules
}

// CompileRules compiles rule definitions, preserving their order.
func CompileRules(defs []RuleDef) (Rules, error) {
	rules := make(Rules, 0, len(defs))
	for i, d := range defs {
		re, err := regexp.Compile(d.Pattern)
		if err != nil {
			return nil, fmt.Errorf("franchise rule %d (%s): %w", i, d.Name, err)
		}
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("franchise rule %d: empty name", i)
		}
		rules = append(rules, Rule{Pattern: re, Name: name})
	}
	return rules, nil
}

// Resolve returns the franchise of a title, or "" when it has none.
// A non-empty collection name always wins over title rules.
func (r Rules) Resolve(title, collection string) string {
	if c := canonicalCollection(collection); c != "" {
		return c
	}
	t := strings.TrimSpace(title)
	if t == "" {
		return ""
	}
	for _, rule := range r {
		if rule.Pattern.MatchString(t) {
			return rule.Name
		}
	}
	return ""
}

// canonicalCollection strips the " Collection" suffix media servers append.
func canonicalCollection(collection string) string {
	c := strings.TrimSpace(collection)
	c = strings.TrimSuffix(c, " Collection")
	c = strings.TrimSuffix(c, " collection")
	return strings.TrimSpace(c)
}
