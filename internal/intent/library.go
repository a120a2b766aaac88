package intent

// Pattern describes one recognizable intent for the local recognizer.
type Pattern struct {
	// Intent is the name Branch declarations refer to.
	Intent string

	// Keywords score by substring or fuzzy containment in the utterance.
	Keywords []string

	// Synonyms maps a canonical word to variants that are rewritten to it
	// before keyword matching, so "sign up" can hit the "register" keyword.
	Synonyms map[string][]string

	// Patterns are regular expressions matched case-insensitively against
	// the raw utterance. Invalid expressions are skipped at match time but
	// still count toward the score denominator.
	Patterns []string

	// Examples are full utterances used to train the TF-IDF model and for
	// Jaccard comparison against the input.
	Examples []string

	// Weight scales the combined score. Zero means 1.0.
	Weight float64

	// Priority breaks ties between equal scores; higher wins.
	Priority int
}

// CommonPatterns covers the confirmations, cancellations and small talk
// every scenario needs.
func CommonPatterns() []Pattern {
	return []Pattern{
		{
			Intent:   "confirm",
			Keywords: []string{"confirm", "yes", "sure", "right", "correct", "agreed", "fine"},
			Synonyms: map[string][]string{
				"yes":  {"yeah", "yep", "yup", "ok", "okay"},
				"sure": {"certainly", "absolutely", "of course"},
			},
			Patterns: []string{
				`^(yes|yeah|yep|ok|okay|sure|fine|right|correct)\b`,
				`no problem`,
				`confirm`,
			},
			Examples: []string{"yes", "sure", "confirm", "no problem", "sounds good", "that is right"},
			Weight:   1.2,
			Priority: 3,
		},
		{
			Intent:   "cancel",
			Keywords: []string{"cancel", "no", "never", "forget", "stop", "quit"},
			Patterns: []string{
				`^(no|nope|nah)\b`,
				`cancel`,
				`forget it`,
				`never mind`,
			},
			Examples: []string{"cancel", "no thanks", "forget it", "never mind", "stop"},
			Weight:   1.2,
			Priority: 3,
		},
		{
			Intent:   "help",
			Keywords: []string{"help", "how", "what", "explain"},
			Patterns: []string{
				`how (do|can) i`,
				`what (can|should) i`,
			},
			Examples: []string{"help me", "how does this work", "what can I do here"},
			Weight:   0.8,
			Priority: 0,
		},
		{
			Intent:   "back",
			Keywords: []string{"back", "return", "previous"},
			Patterns: []string{`go back`, `previous step`},
			Examples: []string{"go back", "take me back", "previous step"},
			Weight:   1.0,
			Priority: 1,
		},
	}
}

// HospitalPatterns covers the outpatient flow: registration, department
// choice, payment and medicine pickup.
func HospitalPatterns() []Pattern {
	return []Pattern{
		{
			Intent:   "register",
			Keywords: []string{"register", "registration", "appointment", "doctor", "visit", "clinic"},
			Synonyms: map[string][]string{
				"register":    {"sign up", "sign me up", "book in"},
				"appointment": {"appt", "booking"},
			},
			Patterns: []string{
				`want.*(register|appointment)`,
				`see.*doctor`,
				`book.*(visit|appointment)`,
			},
			Examples: []string{
				"i want to register",
				"book me an appointment",
				"i need to see a doctor",
				"register for a clinic visit",
			},
			Weight:   1.0,
			Priority: 1,
		},
		{
			Intent:   "pay",
			Keywords: []string{"pay", "payment", "bill", "fee", "charge", "settle", "cost"},
			Synonyms: map[string][]string{
				"pay": {"pay up", "pay for"},
			},
			Patterns: []string{
				`(pay|settle).*(bill|fee)`,
				`how much`,
				`check.*fee`,
			},
			Examples: []string{
				"i want to pay",
				"settle my bill",
				"check the fees",
				"how much do i owe",
			},
			Weight:   1.0,
			Priority: 1,
		},
		{
			Intent:   "pickup",
			Keywords: []string{"pickup", "medicine", "pharmacy", "prescription", "collect", "drugs"},
			Synonyms: map[string][]string{
				"collect": {"pick up", "fetch", "grab"},
			},
			Patterns: []string{
				`(pick up|collect|get).*(medicine|prescription|drugs)`,
				`where.*pharmacy`,
			},
			Examples: []string{
				"pick up my medicine",
				"collect a prescription",
				"where is the pharmacy",
			},
			Weight:   1.0,
			Priority: 1,
		},
		{
			Intent:   "query",
			Keywords: []string{"check", "look", "status", "inquire", "ask"},
			Patterns: []string{
				`check.*(status|progress)`,
				`look.*up`,
			},
			Examples: []string{"check the status", "look it up for me", "just asking"},
			Weight:   0.8,
			Priority: 0,
		},
		{
			Intent:   "internal_medicine",
			Keywords: []string{"internal", "cold", "fever", "cough", "headache", "stomachache", "flu"},
			Synonyms: map[string][]string{
				"headache":    {"head hurts", "migraine"},
				"stomachache": {"stomach hurts", "belly ache"},
			},
			Patterns: []string{
				`cold|fever|cough|flu`,
				`internal medicine`,
			},
			Examples: []string{
				"i caught a cold",
				"i have a fever",
				"internal medicine please",
				"my head hurts",
			},
			Weight:   1.0,
			Priority: 2,
		},
		{
			Intent:   "surgery",
			Keywords: []string{"surgery", "injury", "injured", "fracture", "sprain", "wound", "broken"},
			Patterns: []string{
				`injured|fracture|sprain|broken`,
				`surgery`,
			},
			Examples: []string{
				"i got injured",
				"i think the bone is broken",
				"surgery department please",
			},
			Weight:   1.0,
			Priority: 2,
		},
	}
}

// RestaurantPatterns covers ordering, menus and checkout.
func RestaurantPatterns() []Pattern {
	return []Pattern{
		{
			Intent:   "order",
			Keywords: []string{"order", "dish", "food", "eat", "take"},
			Synonyms: map[string][]string{
				"order": {"get me", "bring me", "i'll have"},
			},
			Patterns: []string{
				`(order|want|take).*(dish|food|plate|bowl)`,
				`place.*order`,
			},
			Examples: []string{
				"i want to order",
				"i'll have the kung pao chicken",
				"get me a bowl of rice",
			},
			Weight:   1.0,
			Priority: 1,
		},
		{
			Intent:   "menu",
			Keywords: []string{"menu", "dishes", "recommend", "special", "signature"},
			Patterns: []string{
				`(see|show|look).*menu`,
				`what.*(have|recommend)`,
			},
			Examples: []string{
				"show me the menu",
				"what do you recommend",
				"what is the signature dish",
			},
			Weight:   1.0,
			Priority: 1,
		},
		{
			Intent:   "checkout",
			Keywords: []string{"checkout", "bill", "pay", "total", "check"},
			Synonyms: map[string][]string{
				"checkout": {"check out", "settle up"},
			},
			Patterns: []string{
				`(get|bring).*(bill|check)`,
				`how much`,
				`checkout`,
			},
			Examples: []string{"checkout please", "bring the bill", "how much in total"},
			Weight:   1.0,
			Priority: 1,
		},
		{
			Intent:   "add_dish",
			Keywords: []string{"add", "another", "more", "extra"},
			Patterns: []string{
				`(one|another).*more`,
				`add.*(dish|order)`,
			},
			Examples: []string{"one more please", "add another dish", "extra bowl of rice"},
			Weight:   1.0,
			Priority: 1,
		},
	}
}

// TheaterPatterns covers show lookup, seating and ticketing.
func TheaterPatterns() []Pattern {
	return []Pattern{
		{
			Intent:   "buy_ticket",
			Keywords: []string{"buy", "ticket", "book", "reserve"},
			Synonyms: map[string][]string{
				"buy": {"purchase", "get"},
			},
			Patterns: []string{
				`(buy|book|get|reserve).*ticket`,
			},
			Examples: []string{"i want to buy tickets", "book two tickets", "get me a ticket"},
			Weight:   1.0,
			Priority: 1,
		},
		{
			Intent:   "collect_ticket",
			Keywords: []string{"collect", "pickup", "claim", "code"},
			Patterns: []string{
				`(collect|pick up|claim).*ticket`,
				`ticket code`,
			},
			Examples: []string{"collect my tickets", "i am here to pick up tickets", "what is my ticket code"},
			Weight:   1.0,
			Priority: 1,
		},
		{
			Intent:   "shows",
			Keywords: []string{"show", "shows", "performance", "program", "playing"},
			Patterns: []string{
				`what.*(show|playing|on)`,
				`(show|performance).*(today|tonight)`,
			},
			Examples: []string{
				"what shows are on today",
				"what is playing tonight",
				"show me the program",
			},
			Weight:   1.0,
			Priority: 1,
		},
		{
			Intent:   "choose_seat",
			Keywords: []string{"seat", "seats", "row", "front", "balcony"},
			Patterns: []string{
				`(choose|pick|change).*seat`,
				`front row`,
			},
			Examples: []string{"choose my seats", "front row please", "change to a balcony seat"},
			Weight:   1.0,
			Priority: 1,
		},
	}
}

// ScenarioPatterns returns the common patterns plus the named scenario's
// own. An unknown or empty scenario gets everything, which suits generic
// scripts that borrow intents from several domains.
func ScenarioPatterns(scenario string) []Pattern {
	patterns := CommonPatterns()

	switch scenario {
	case "hospital":
		patterns = append(patterns, HospitalPatterns()...)
	case "restaurant":
		patterns = append(patterns, RestaurantPatterns()...)
	case "theater":
		patterns = append(patterns, TheaterPatterns()...)
	default:
		patterns = append(patterns, HospitalPatterns()...)
		patterns = append(patterns, RestaurantPatterns()...)
		patterns = append(patterns, TheaterPatterns()...)
	}

	return patterns
}
