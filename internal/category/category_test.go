package category

import "testing"

func TestFromCode(t *testing.T) {
	geo := FromCode("GEO")
	if geo.Description != "Geotechnical survey" {
		t.Errorf("Description = %q, want Geotechnical survey", geo.Description)
	}
	if !geo.Geotechnical() {
		t.Error("GEO not reported as geotechnical")
	}

	app := FromCode("APP")
	if app.Geotechnical() {
		t.Error("APP reported as geotechnical")
	}
}

func TestFromCode_UnknownFallsBack(t *testing.T) {
	got := FromCode("NO-SUCH-CODE")
	if got != Fallback {
		t.Errorf("FromCode(unknown) = %+v, want fallback", got)
	}
	if got.Classification != "D" {
		t.Errorf("fallback classification = %q, want D (non-public)", got.Classification)
	}
}
