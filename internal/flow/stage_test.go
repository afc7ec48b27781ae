package flow

import (
	"testing"

	"github.com/UniNest/NestGuide/internal/models"
)

func TestExtractNameFull(t *testing.T) {
	update := extractName("Ana Maria Lee")
	if update[models.FieldFirstName] != "Ana" {
		t.Errorf("expected firstName Ana, got %q", update[models.FieldFirstName])
	}
	if update[models.FieldLastName] != "Maria Lee" {
		t.Errorf("expected lastName 'Maria Lee', got %q", update[models.FieldLastName])
	}
}

func TestExtractNameSingleToken(t *testing.T) {
	update := extractName("Ana")
	if update[models.FieldFirstName] != "Ana" {
		t.Errorf("expected firstName Ana, got %q", update[models.FieldFirstName])
	}
	if update[models.FieldLastName] != "" {
		t.Errorf("expected empty lastName, got %q", update[models.FieldLastName])
	}
}

func TestExtractPlaceCityCountry(t *testing.T) {
	update := extractPlace(models.FieldCurrentLocation)("Chicago, USA")
	if update[models.FieldCurrentLocation] != "Chicago, USA" {
		t.Errorf("expected 'Chicago, USA', got %q", update[models.FieldCurrentLocation])
	}
}

func TestExtractPlaceExtraWhitespace(t *testing.T) {
	update := extractPlace(models.FieldHometown)("  Austin ,  US ")
	if update[models.FieldHometown] != "Austin, US" {
		t.Errorf("expected 'Austin, US', got %q", update[models.FieldHometown])
	}
}

func TestExtractPlaceNoComma(t *testing.T) {
	update := extractPlace(models.FieldHometown)("Berlin")
	if update[models.FieldHometown] != "Berlin" {
		t.Errorf("expected best-effort 'Berlin', got %q", update[models.FieldHometown])
	}
}

func TestContainsAcceptTokenCaseInsensitive(t *testing.T) {
	tokens := []string{"got it", "great"}
	if !containsAcceptToken("GOT IT! Nice to meet you.", tokens) {
		t.Error("expected uppercase reply to match")
	}
	if !containsAcceptToken("That's great, thanks.", tokens) {
		t.Error("expected embedded token to match")
	}
	if containsAcceptToken("That doesn't look like a name.", tokens) {
		t.Error("expected rejection reply not to match")
	}
}

func TestStageTableCoversOnboarding(t *testing.T) {
	for stage := models.StageName; stage <= models.StageGraduation; stage++ {
		def, ok := Definition(stage)
		if !ok {
			t.Fatalf("missing definition for stage %d", stage)
		}
		if def.Instruction == "" || def.Question == "" || def.Reprompt == "" {
			t.Errorf("stage %d has empty messaging", stage)
		}
		if len(def.AcceptTokens) == 0 {
			t.Errorf("stage %d has no accept tokens", stage)
		}
		if def.Extract == nil {
			t.Errorf("stage %d has no extractor", stage)
		}
	}
	if _, ok := Definition(models.StageAssistant); ok {
		t.Error("assistant mode should not have a stage definition")
	}
}

func TestStageChainTerminates(t *testing.T) {
	stage := models.StageName
	for range stageTable {
		def, ok := Definition(stage)
		if !ok {
			t.Fatalf("chain broke at stage %d", stage)
		}
		stage = def.Next
	}
	if stage != models.StageAssistant {
		t.Errorf("expected chain to end in assistant mode, got %d", stage)
	}
}
