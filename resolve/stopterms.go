package resolve

// stopTerms are formulary topics and generic pronouns that trigger-phrase
// extraction keeps mistaking for drug names. A candidate whose normalized
// form (or filler-stripped form) is in this set is rejected outright:
// "how about the dosage?" must not produce a drug named "the dosage".
var stopTerms = map[string]struct{}{
	"dosage":              {},
	"dose":                {},
	"doses":               {},
	"dosing":              {},
	"side effects":        {},
	"side effect":         {},
	"adverse reactions":   {},
	"adverse effects":     {},
	"undesirable effects": {},
	"indications":         {},
	"indication":          {},
	"uses":                {},
	"contraindications":   {},
	"contraindication":    {},
	"interactions":        {},
	"drug interactions":   {},
	"precautions":         {},
	"warnings":            {},
	"pregnancy":           {},
	"pregnancy category":  {},
	"mechanism of action": {},
	"administration":      {},
	"storage":             {},
	"formulations":        {},
	"overdose":            {},
	"price":               {},
	"stock":               {},
	"availability":        {},
	"comparison":          {},
	"difference":          {},
	"compare":             {},
	"that":                {},
	"it":                  {},
	"this":                {},
	"them":                {},
	"these":               {},
	"those":               {},
	"same":                {},
	"the same":            {},
	"the same drug":       {},
	"both":                {},
	"more":                {},
	"medicine":            {},
	"drug":                {},
	"medication":          {},
}

// fillerDeterminers are leading words stripped from a candidate before the
// stop-term check and before it is used as a hint.
var fillerDeterminers = map[string]struct{}{
	"its":   {},
	"the":   {},
	"their": {},
	"a":     {},
	"an":    {},
	"his":   {},
	"her":   {},
	"my":    {},
	"your":  {},
	"our":   {},
	"this":  {},
	"that":  {},
}

// interrogativeOpeners mark a question as grammatically dependent on prior
// context when it carries no extractable drug of its own.
var interrogativeOpeners = map[string]struct{}{
	"what":   {},
	"which":  {},
	"how":    {},
	"when":   {},
	"why":    {},
	"where":  {},
	"who":    {},
	"can":    {},
	"could":  {},
	"is":     {},
	"are":    {},
	"does":   {},
	"do":     {},
	"should": {},
	"would":  {},
	"will":   {},
}
