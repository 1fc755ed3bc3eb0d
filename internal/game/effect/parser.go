// Package effect turns free-text card effect descriptions into typed ops.
//
// The grammar is a fixed, ordered list of (pattern, constructor) pairs,
// most specific first. Each successful match records its character span;
// lower-priority patterns that land on an already-covered span are
// skipped, so a two-resource phrase is never double-counted by the
// single-resource fallback. Text outside the grammar yields no ops.
package effect

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dmklda/farmandcity-sub002/internal/game/resources"
)

const resourceWords = `coins?|food|materials?|population|reputation`

// Conversions trade only the spendable pool; reputation has no slot in a
// resource delta and cannot be a trade branch.
const tradeWords = `coins?|food|materials?|population`

// pattern pairs a compiled regex with a constructor for the ops it yields.
type pattern struct {
	re    *regexp.Regexp
	build func(groups []string) []Op
}

// Grammar order is the priority order: conversion, two-resource,
// single-resource, dice-conditioned, upkeep/deduction.
var grammar = []pattern{
	{
		re: regexp.MustCompile(`(?:transform|convert|trade)s? (\d+) (` + tradeWords + `) into (\d+) (` + tradeWords + `) or (\d+) (` + tradeWords + `) into (\d+) (` + tradeWords + `)`),
		build: func(g []string) []Op {
			return []Op{{Kind: OpConversion, Conversion: &Conversion{
				FromResource:    resourceType(g[2]),
				FromAmount:      atoi(g[1]),
				ToResource:      resourceType(g[4]),
				ToAmount:        atoi(g[3]),
				AltFromResource: resourceType(g[6]),
				AltFromAmount:   atoi(g[5]),
				AltToResource:   resourceType(g[8]),
				AltToAmount:     atoi(g[7]),
			}}}
		},
	},
	{
		re: regexp.MustCompile(`produces? (\d+) (` + resourceWords + `) and (\d+) (` + resourceWords + `) (?:per|each) turn`),
		build: func(g []string) []Op {
			return []Op{
				{Kind: OpProduction, Resource: resourceType(g[2]), Amount: atoi(g[1])},
				{Kind: OpProduction, Resource: resourceType(g[4]), Amount: atoi(g[3])},
			}
		},
	},
	{
		re: regexp.MustCompile(`gains? (\d+) (` + resourceWords + `) and (\d+) (` + resourceWords + `)`),
		build: func(g []string) []Op {
			return []Op{
				{Kind: OpInstant, Resource: resourceType(g[2]), Amount: atoi(g[1])},
				{Kind: OpInstant, Resource: resourceType(g[4]), Amount: atoi(g[3])},
			}
		},
	},
	{
		re: regexp.MustCompile(`produces? (\d+) (` + resourceWords + `) (?:per|each) turn`),
		build: func(g []string) []Op {
			return []Op{{Kind: OpProduction, Resource: resourceType(g[2]), Amount: atoi(g[1])}}
		},
	},
	{
		re: regexp.MustCompile(`gains? (\d+) (` + resourceWords + `)`),
		build: func(g []string) []Op {
			return []Op{{Kind: OpInstant, Resource: resourceType(g[2]), Amount: atoi(g[1])}}
		},
	},
	{
		re: regexp.MustCompile(`produces? (\d+) (` + resourceWords + `) when (?:the )?die (?:=|is|equals) (\d)`),
		build: func(g []string) []Op {
			return []Op{{Kind: OpDiceConditioned, Resource: resourceType(g[2]), Amount: atoi(g[1]), DiceValue: atoi(g[3])}}
		},
	},
	{
		re: regexp.MustCompile(`(?:costs?|consumes?) (\d+) (` + resourceWords + `) (?:per|each) turn`),
		build: func(g []string) []Op {
			return []Op{{Kind: OpProduction, Resource: resourceType(g[2]), Amount: -atoi(g[1])}}
		},
	},
	{
		re: regexp.MustCompile(`loses? (\d+) (` + resourceWords + `)`),
		build: func(g []string) []Op {
			return []Op{{Kind: OpInstant, Resource: resourceType(g[2]), Amount: -atoi(g[1])}}
		},
	},
}

// Parse extracts every op the grammar recognizes in effectText, in
// priority order. The parse is pure: the same text always yields the
// same ops.
func Parse(effectText string) []Op {
	text := strings.ToLower(effectText)
	var ops []Op
	var covered []span

	for _, p := range grammar {
		for _, idx := range p.re.FindAllStringSubmatchIndex(text, -1) {
			s := span{start: idx[0], end: idx[1]}
			if s.overlapsAny(covered) {
				continue
			}
			covered = append(covered, s)
			groups := make([]string, len(idx)/2)
			for i := range groups {
				if idx[2*i] >= 0 {
					groups[i] = text[idx[2*i]:idx[2*i+1]]
				}
			}
			ops = append(ops, p.build(groups)...)
		}
	}

	return ops
}

// ParseProduction extracts only the effects that apply every production
// phase. Dice-conditioned phrases are explicitly excluded; the dice
// resolver pulls those itself.
func ParseProduction(effectText string) []Op {
	return filter(Parse(effectText), OpProduction)
}

// ParseInstant extracts only one-shot effects applied at construction or
// activation time, including conversions.
func ParseInstant(effectText string) []Op {
	var out []Op
	for _, op := range Parse(effectText) {
		if op.Kind == OpInstant || op.Kind == OpConversion {
			out = append(out, op)
		}
	}
	return out
}

// ParseDice extracts only dice-conditioned production effects.
func ParseDice(effectText string) []Op {
	return filter(Parse(effectText), OpDiceConditioned)
}

func filter(ops []Op, kind OpKind) []Op {
	var out []Op
	for _, op := range ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

type span struct {
	start, end int
}

func (s span) overlapsAny(spans []span) bool {
	for _, other := range spans {
		if s.start < other.end && other.start < s.end {
			return true
		}
	}
	return false
}

func resourceType(word string) resources.ResourceType {
	switch strings.TrimSuffix(word, "s") {
	case "coin":
		return resources.Coins
	case "food":
		return resources.Food
	case "material":
		return resources.Materials
	case "population":
		return resources.Population
	case "reputation":
		return resources.Reputation
	default:
		return ""
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
