// Package parser converts typed player input into commands.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strconv"
	"strings"
)

// Verb is a command verb.
type Verb string

const (
	VerbAdvance   Verb = "advance" // empty input: continue or skip
	VerbChoose    Verb = "choose"
	VerbExamine   Verb = "examine"
	VerbAnswer    Verb = "answer"
	VerbBack      Verb = "back"
	VerbRead      Verb = "read"
	VerbContacts  Verb = "contacts"
	VerbKeywords  Verb = "keywords"
	VerbAnomalies Verb = "anomalies"
	VerbLog       Verb = "log"
	VerbSave      Verb = "save"
	VerbLoad      Verb = "load"
	VerbSlots     Verb = "slots"
	VerbReset     Verb = "reset"
	VerbState     Verb = "state"
	VerbHelp      Verb = "help"
	VerbQuit      Verb = "quit"
	VerbUnknown   Verb = "unknown"
)

// Command is one parsed line of input.
type Command struct {
	Verb  Verb
	Arg   string // object of the verb; answers keep their original case
	Index int    // zero-based choice index for VerbChoose
}

var verbAliases = map[string]Verb{
	// Choose
	"choose": VerbChoose,
	"c":      VerbChoose,
	"pick":   VerbChoose,
	"select": VerbChoose,

	// Examine
	"examine": VerbExamine,
	"x":       VerbExamine,
	"inspect": VerbExamine,
	"check":   VerbExamine,
	"study":   VerbExamine,
	"look":    VerbExamine,

	// Answer
	"answer": VerbAnswer,
	"solve":  VerbAnswer,
	"enter":  VerbAnswer,
	"type":   VerbAnswer,
	"say":    VerbAnswer,

	// Back
	"back":   VerbBack,
	"b":      VerbBack,
	"return": VerbBack,

	// Messages
	"read":     VerbRead,
	"messages": VerbRead,
	"open":     VerbRead,
	"contacts": VerbContacts,
	"phone":    VerbContacts,

	// Notes
	"keywords":  VerbKeywords,
	"notes":     VerbKeywords,
	"journal":   VerbKeywords,
	"anomalies": VerbAnomalies,
	"log":       VerbLog,
	"note":      VerbLog,
	"report":    VerbLog,

	// Meta
	"save":   VerbSave,
	"load":   VerbLoad,
	"slots":  VerbSlots,
	"saves":  VerbSlots,
	"reset":  VerbReset,
	"state":  VerbState,
	"status": VerbState,
	"stats":  VerbState,
	"help":   VerbHelp,
	"h":      VerbHelp,
	"?":      VerbHelp,
	"quit":   VerbQuit,
	"exit":   VerbQuit,
	"q":      VerbQuit,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw input line into a Command.
func Parse(input string) Command {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "/")
	if input == "" {
		return Command{Verb: VerbAdvance}
	}

	// Bare number: pick that choice.
	if n, ok := choiceNumber(input); ok {
		return Command{Verb: VerbChoose, Index: n}
	}

	fields := strings.Fields(input)
	head := strings.ToLower(fields[0])
	fields = expandMultiWordVerbs(head, fields)
	head = strings.ToLower(fields[0])

	verb, ok := verbAliases[head]
	if !ok {
		return Command{Verb: VerbUnknown, Arg: input}
	}
	rest := fields[1:]

	switch verb {
	case VerbChoose:
		if len(rest) == 1 {
			if n, ok := choiceNumber(rest[0]); ok {
				return Command{Verb: VerbChoose, Index: n}
			}
		}
		return Command{Verb: VerbUnknown, Arg: input}
	case VerbAnswer:
		// Keep the answer verbatim; the engine compares case-insensitively.
		return Command{Verb: VerbAnswer, Arg: strings.Join(rest, " ")}
	case VerbLog:
		if len(rest) == 0 {
			return Command{Verb: VerbAnomalies}
		}
	}

	return Command{Verb: verb, Arg: strings.ToLower(strings.Join(stripArticles(rest), " "))}
}

// choiceNumber parses a 1-based choice number into a 0-based index.
func choiceNumber(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// expandMultiWordVerbs handles "look at", "talk to", "go back" etc.
func expandMultiWordVerbs(head string, words []string) []string {
	if len(words) < 2 {
		return words
	}
	second := strings.ToLower(words[1])

	switch head {
	case "look":
		if second == "at" || second == "in" {
			return append([]string{"examine"}, words[2:]...)
		}
	case "talk", "text", "message":
		if second == "to" || second == "with" {
			return append([]string{"read"}, words[2:]...)
		}
	case "go":
		if second == "back" {
			return append([]string{"back"}, words[2:]...)
		}
	case "log":
		if second == "anomaly" {
			return append([]string{"log"}, words[2:]...)
		}
	}
	return words
}

// stripArticles removes articles ("the", "a", "an") from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[strings.ToLower(w)] {
			result = append(result, w)
		}
	}
	return result
}

// Help lists the commands for display.
var Help = []struct{ Usage, Description string }{
	{"<n>", "pick choice n"},
	{"<enter>", "skip the animation or continue"},
	{"examine <keyword>", "look closer at a highlighted word"},
	{"answer <text>", "answer the current puzzle"},
	{"back", "return from a keyword"},
	{"read [contact]", "open a message thread"},
	{"contacts", "list message threads"},
	{"keywords", "list what you have noticed"},
	{"anomalies", "show the anomaly log"},
	{"log <anomaly>", "record an anomaly you spotted"},
	{"save / load / reset", "manage progress"},
	{"slots", "list saved games"},
	{"state", "show your current state"},
	{"quit", "leave the game"},
}
