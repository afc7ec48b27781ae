package models

import "testing"

func TestIsValidStage(t *testing.T) {
	valid := []Stage{StageAssistant, StageName, StageLocation, StageHometown, StageBirthday, StageUniversity, StageMajor, StageGraduation}
	for _, s := range valid {
		if !IsValidStage(s) {
			t.Errorf("expected stage %d to be valid", s)
		}
	}
	for _, s := range []Stage{-2, 7, 100} {
		if IsValidStage(s) {
			t.Errorf("expected stage %d to be invalid", s)
		}
	}
}

func TestProfileMissingFields(t *testing.T) {
	p := Profile{
		FirstName:       "Ana",
		LastName:        "Lee",
		CurrentLocation: "Chicago, US",
		Hometown:        "Austin, US",
		Birthday:        "2001-05-01",
		University:      "NIU",
	}
	missing := p.MissingFields()
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing fields, got %d: %v", len(missing), missing)
	}
	if missing[0] != FieldMajor || missing[1] != FieldGraduationDate {
		t.Errorf("unexpected missing fields: %v", missing)
	}
	if p.IsComplete() {
		t.Error("profile with missing fields should not be complete")
	}

	p.Major = "CS"
	p.GraduationDate = "5/2027"
	if !p.IsComplete() {
		t.Errorf("fully populated profile should be complete, missing: %v", p.MissingFields())
	}
}

func TestProfileWhitespaceCountsAsMissing(t *testing.T) {
	p := Profile{FirstName: "   "}
	missing := p.MissingFields()
	if len(missing) != len(RequiredProfileFields) {
		t.Errorf("whitespace-only field should count as missing, got %v", missing)
	}
}

func TestStageString(t *testing.T) {
	if StageAssistant.String() != "assistant" {
		t.Errorf("unexpected name for assistant stage: %s", StageAssistant.String())
	}
	if Stage(42).String() != "unknown" {
		t.Errorf("unexpected name for bogus stage: %s", Stage(42).String())
	}
}

func TestAPIResponseHelpers(t *testing.T) {
	resp := Success(map[string]string{"k": "v"})
	if resp.Status != string(APIStatusOK) {
		t.Errorf("expected ok status, got %s", resp.Status)
	}
	resp = Error("boom")
	if resp.Status != string(APIStatusError) || resp.Message != "boom" {
		t.Errorf("unexpected error response: %+v", resp)
	}
}
