package provider

import (
	"testing"

	"aidlink/internal/types"
)

func TestVerified(t *testing.T) {
	p := Provider{}
	if p.Verified() {
		t.Errorf("provider without a registration ID must not be verified")
	}
	p.RegistrationID = "NGO-000123"
	if !p.Verified() {
		t.Errorf("provider with a registration ID must be verified")
	}
}

func TestServesCategory(t *testing.T) {
	p := Provider{Categories: []string{types.CategoryFood, types.CategoryShelter}}
	if !p.ServesCategory(types.CategoryFood) {
		t.Errorf("declared category not served")
	}
	if p.ServesCategory(types.CategoryMedical) {
		t.Errorf("undeclared category reported as served")
	}
	empty := Provider{}
	if empty.ServesCategory(types.CategoryFood) {
		t.Errorf("provider with no categories serves nothing")
	}
}
