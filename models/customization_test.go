package models_test

import (
	"testing"

	"github.com/Iseids/restaurant-pos-backend/models"
	"github.com/Iseids/restaurant-pos-backend/utils"
)

func intPtr(v int) *int { return &v }

func spiceAndExtrasGroups() []models.ItemOptionGroup {
	return []models.ItemOptionGroup{
		{
			ID:         1,
			Name:       "Spice Level",
			IsRequired: utils.NewTrue(),
			MaxSelect:  intPtr(1),
			Options: []models.ItemOption{
				{ID: 11, GroupId: 1, Name: "Mild"},
				{ID: 12, GroupId: 1, Name: "Hot"},
			},
		},
		{
			ID:            2,
			Name:          "Extras",
			AllowQuantity: utils.NewTrue(),
			Options: []models.ItemOption{
				{ID: 21, GroupId: 2, Name: "Extra Egg", PriceDelta: dec("500"), MaxQuantity: intPtr(3)},
				{ID: 22, GroupId: 2, Name: "Extra Noodles", PriceDelta: dec("700")},
			},
		},
	}
}

func TestValidateCustomizations_RequiredGroupMissing(t *testing.T) {
	groups := spiceAndExtrasGroups()

	_, err := models.ValidateCustomizations(groups, nil)
	if !utils.IsRuleCode(err, utils.RuleCustomizationRequired) {
		t.Fatalf("expected %s, got %v", utils.RuleCustomizationRequired, err)
	}

	// an extras-only selection still misses the required spice group
	_, err = models.ValidateCustomizations(groups, []models.CustomizationSelection{
		{OptionId: 21, Quantity: dec("1")},
	})
	if !utils.IsRuleCode(err, utils.RuleCustomizationRequired) {
		t.Fatalf("expected %s, got %v", utils.RuleCustomizationRequired, err)
	}
}

func TestValidateCustomizations_QuantityRules(t *testing.T) {
	groups := spiceAndExtrasGroups()

	// quantity 3 on an option whose group does not allow quantities
	_, err := models.ValidateCustomizations(groups, []models.CustomizationSelection{
		{OptionId: 11, Quantity: dec("3")},
	})
	if !utils.IsRuleCode(err, utils.RuleCustomizationInvalid) {
		t.Fatalf("expected %s, got %v", utils.RuleCustomizationInvalid, err)
	}

	// over the option's own max quantity
	_, err = models.ValidateCustomizations(groups, []models.CustomizationSelection{
		{OptionId: 11, Quantity: dec("1")},
		{OptionId: 21, Quantity: dec("4")},
	})
	if !utils.IsRuleCode(err, utils.RuleCustomizationInvalid) {
		t.Fatalf("expected %s, got %v", utils.RuleCustomizationInvalid, err)
	}

	// zero and negative quantities are rejected outright
	for _, qty := range []string{"0", "-1"} {
		_, err = models.ValidateCustomizations(groups, []models.CustomizationSelection{
			{OptionId: 11, Quantity: dec(qty)},
		})
		if !utils.IsRuleCode(err, utils.RuleCustomizationInvalid) {
			t.Fatalf("qty %s: expected %s, got %v", qty, utils.RuleCustomizationInvalid, err)
		}
	}
}

func TestValidateCustomizations_MaxSelectAndUnknownOption(t *testing.T) {
	groups := spiceAndExtrasGroups()

	_, err := models.ValidateCustomizations(groups, []models.CustomizationSelection{
		{OptionId: 11, Quantity: dec("1")},
		{OptionId: 12, Quantity: dec("1")},
	})
	if !utils.IsRuleCode(err, utils.RuleCustomizationInvalid) {
		t.Fatalf("expected %s for max_select breach, got %v", utils.RuleCustomizationInvalid, err)
	}

	_, err = models.ValidateCustomizations(groups, []models.CustomizationSelection{
		{OptionId: 11, Quantity: dec("1")},
		{OptionId: 999, Quantity: dec("1")},
	})
	if !utils.IsRuleCode(err, utils.RuleCustomizationInvalid) {
		t.Fatalf("expected %s for unknown option, got %v", utils.RuleCustomizationInvalid, err)
	}
}

func TestValidateCustomizations_PriceDeltaAndSignature(t *testing.T) {
	groups := spiceAndExtrasGroups()

	result, err := models.ValidateCustomizations(groups, []models.CustomizationSelection{
		{OptionId: 21, Quantity: dec("2")},
		{OptionId: 11, Quantity: dec("1")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.PriceDelta.Equal(dec("1000")) {
		t.Fatalf("price delta expected 1000, got %s", result.PriceDelta)
	}
	if result.Signature == nil {
		t.Fatal("signature should not be nil for a non-empty selection")
	}

	// same selection in a different request order canonicalizes identically
	again, err := models.ValidateCustomizations(groups, []models.CustomizationSelection{
		{OptionId: 11, Quantity: dec("1")},
		{OptionId: 21, Quantity: dec("2")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *again.Signature != *result.Signature {
		t.Fatalf("signatures differ: %q vs %q", *again.Signature, *result.Signature)
	}

	// duplicate selections of one option collapse into a summed quantity
	collapsed, err := models.ValidateCustomizations(groups, []models.CustomizationSelection{
		{OptionId: 11, Quantity: dec("1")},
		{OptionId: 21, Quantity: dec("1")},
		{OptionId: 21, Quantity: dec("1")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *collapsed.Signature != *result.Signature {
		t.Fatalf("collapsed signature %q should equal %q", *collapsed.Signature, *result.Signature)
	}
}

func TestCustomizationSignature_EmptyIsNil(t *testing.T) {
	if sig := models.CustomizationSignature(nil); sig != nil {
		t.Fatalf("expected nil signature, got %q", *sig)
	}
}
