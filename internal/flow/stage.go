package flow

import (
	"fmt"
	"strings"

	"github.com/UniNest/NestGuide/internal/models"
)

// assistantInstruction frames the completion service for free-form mode,
// where its reply is shown to the user verbatim.
const assistantInstruction = "You are NestGuide, the friendly assistant of a student housing and " +
	"roommate platform. Help the user with housing, roommates, and their profile. Keep replies short " +
	"and conversational."

// StageDefinition is the static per-stage behavior: what the completion
// service is asked to validate, which reply substrings count as acceptance,
// how profile fields are derived from the raw input, and the messages the
// scheduler reveals around the transition.
type StageDefinition struct {
	Instruction  string
	AcceptTokens []string
	Extract      func(input string) models.ProfileUpdate
	Decorate     func(reply string, fields models.ProfileUpdate) string
	Next         models.Stage
	Question     string
	Reprompt     string
}

var stageTable = map[models.Stage]StageDefinition{
	models.StageName: {
		Instruction: "The user was asked for their full name. If the input looks like a real personal " +
			"name, reply warmly starting with 'Got it'. If it does not look like a name, say it doesn't " +
			"seem like a valid name.",
		AcceptTokens: []string{"got it", "nice to meet", "great"},
		Extract:      extractName,
		Decorate: func(reply string, fields models.ProfileUpdate) string {
			return fmt.Sprintf("%s Nice to meet you, %s!", reply, fields[models.FieldFirstName])
		},
		Next:     models.StageLocation,
		Question: "First things first, what's your full name?",
		Reprompt: "Hmm, that doesn't look like a name to me. Could you tell me your full name?",
	},
	models.StageLocation: {
		Instruction: "The user was asked where they currently live, as 'City, Country'. If the input " +
			"names a real place, reply starting with 'Okay'. Otherwise say you couldn't find that place.",
		AcceptTokens: []string{"okay", "got it", "great"},
		Extract:      extractPlace(models.FieldCurrentLocation),
		Decorate:     decoratePlace(models.FieldCurrentLocation),
		Next:         models.StageHometown,
		Question:     "Where do you live right now? City and country, like \"Chicago, USA\".",
		Reprompt:     "I couldn't place that one. Could you give me your current city and country, like \"Chicago, USA\"?",
	},
	models.StageHometown: {
		Instruction: "The user was asked for their hometown, as 'City, Country'. If the input names a " +
			"real place, reply starting with 'Okay'. Otherwise say you couldn't find that place.",
		AcceptTokens: []string{"okay", "got it", "great"},
		Extract:      extractPlace(models.FieldHometown),
		Decorate:     decoratePlace(models.FieldHometown),
		Next:         models.StageBirthday,
		Question:     "And where are you from originally? Your hometown, city and country.",
		Reprompt:     "I couldn't place that one. What's your hometown? City and country, please.",
	},
	models.StageBirthday: {
		Instruction: "The user selected their date of birth in YYYY-MM-DD format. They must be at " +
			"least 17 years old to use the platform. If the date makes them eligible, reply starting " +
			"with 'Great, you're eligible'. Otherwise explain they are not eligible yet.",
		AcceptTokens: []string{"eligible", "great"},
		Extract: func(input string) models.ProfileUpdate {
			return models.ProfileUpdate{models.FieldBirthday: strings.TrimSpace(input)}
		},
		Next:     models.StageUniversity,
		Question: "When's your birthday? Pick the date below.",
		Reprompt: "Sorry, it looks like that birthday doesn't make you eligible just yet. Double-check the date you picked?",
	},
	models.StageUniversity: {
		Instruction: "The user was asked which university they attend. If the input plausibly names a " +
			"university or college, reply starting with 'Great'. Otherwise say you don't recognize it.",
		AcceptTokens: []string{"great", "got it", "okay"},
		Extract:      extractVerbatim(models.FieldUniversity),
		Next:         models.StageMajor,
		Question:     "Which university do you go to?",
		Reprompt:     "I don't recognize that school. Which university or college do you attend?",
	},
	models.StageMajor: {
		Instruction: "The user was asked what they study. If the input plausibly names a field of " +
			"study, reply starting with 'Great'. Otherwise say you don't recognize it.",
		AcceptTokens: []string{"great", "got it", "okay"},
		Extract:      extractVerbatim(models.FieldMajor),
		Next:         models.StageGraduation,
		Question:     "What's your major?",
		Reprompt:     "That doesn't look like a field of study I know. What do you study?",
	},
	models.StageGraduation: {
		Instruction: "The user selected their expected graduation month and year as 'M/YYYY'. The " +
			"client already verified it is in the future. Reply starting with 'Great' to confirm it.",
		AcceptTokens: []string{"great", "got it", "okay"},
		Extract: func(input string) models.ProfileUpdate {
			return models.ProfileUpdate{models.FieldGraduationDate: strings.TrimSpace(input)}
		},
		Next:     models.StageAssistant,
		Question: "Last one: when do you expect to graduate? Pick a month and year.",
		Reprompt: "That graduation date didn't work. Could you pick the month and year again?",
	},
}

// Definition returns the static definition for an onboarding stage.
func Definition(stage models.Stage) (StageDefinition, bool) {
	def, ok := stageTable[stage]
	return def, ok
}

// containsAcceptToken reports whether the service reply contains any of the
// stage's accept tokens, case-insensitively. A well-formed reply matching no
// token deliberately falls into the not-accepted branch.
func containsAcceptToken(reply string, tokens []string) bool {
	lower := strings.ToLower(reply)
	for _, token := range tokens {
		if strings.Contains(lower, strings.ToLower(token)) {
			return true
		}
	}
	return false
}

// extractName splits on whitespace: first token is the first name, the
// remainder joined is the last name (empty when only one token was given).
func extractName(input string) models.ProfileUpdate {
	parts := strings.Fields(input)
	update := models.ProfileUpdate{
		models.FieldFirstName: "",
		models.FieldLastName:  "",
	}
	if len(parts) > 0 {
		update[models.FieldFirstName] = parts[0]
		update[models.FieldLastName] = strings.Join(parts[1:], " ")
	}
	return update
}

// extractPlace splits 'City, Country' on the first comma and normalizes the
// trimmed segments. Input without a comma is still persisted best-effort;
// place validity is delegated entirely to the completion service.
func extractPlace(field string) func(string) models.ProfileUpdate {
	return func(input string) models.ProfileUpdate {
		city, country, found := strings.Cut(input, ",")
		city = strings.TrimSpace(city)
		country = strings.TrimSpace(country)
		value := city
		if found && country != "" {
			value = city + ", " + country
		}
		return models.ProfileUpdate{field: value}
	}
}

func decoratePlace(field string) func(string, models.ProfileUpdate) string {
	return func(reply string, fields models.ProfileUpdate) string {
		return fmt.Sprintf("%s So, %s it is!", reply, fields[field])
	}
}

func extractVerbatim(field string) func(string) models.ProfileUpdate {
	return func(input string) models.ProfileUpdate {
		return models.ProfileUpdate{field: strings.TrimSpace(input)}
	}
}
