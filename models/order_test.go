package models_test

import (
	"context"
	"testing"

	"github.com/Iseids/restaurant-pos-backend/models"
	"github.com/Iseids/restaurant-pos-backend/utils"
)

func TestMergeOrders_RequiresTwoDistinctIds(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		target  int
		sources []int
	}{
		{"no sources", 1, nil},
		{"source equals target", 1, []int{1}},
		{"duplicate sources collapsing to target", 7, []int{7, 7}},
	}
	for _, tc := range cases {
		_, err := models.MergeOrders(ctx, tc.target, tc.sources)
		if !utils.IsRuleCode(err, utils.RuleMergeMinTwo) {
			t.Fatalf("%s: expected %s, got %v", tc.name, utils.RuleMergeMinTwo, err)
		}
	}
}
