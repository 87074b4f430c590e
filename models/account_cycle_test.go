package models

import (
	"context"
	"testing"

	"github.com/Iseids/restaurant-pos-backend/utils"
)

func parentMapLookup(parents map[int]int) func(int) (*int, error) {
	return func(id int) (*int, error) {
		parent, ok := parents[id]
		if !ok {
			return nil, nil
		}
		return &parent, nil
	}
}

func TestCheckParentCycle(t *testing.T) {
	ctx := context.Background()

	// 3 -> 2 -> 1, no parent above 1
	chain := map[int]int{3: 2, 2: 1}

	if err := checkParentCycle(ctx, 5, 3, parentMapLookup(chain)); err != nil {
		t.Fatalf("acyclic assignment rejected: %v", err)
	}

	// re-parenting 1 under 3 closes the loop 1 -> 3 -> 2 -> 1
	err := checkParentCycle(ctx, 1, 3, parentMapLookup(chain))
	if !utils.IsRuleCode(err, utils.RuleAccountParentCycle) {
		t.Fatalf("expected %s, got %v", utils.RuleAccountParentCycle, err)
	}
}

func TestCheckParentCycle_SelfParent(t *testing.T) {
	err := checkParentCycle(context.Background(), 7, 7, parentMapLookup(nil))
	if !utils.IsRuleCode(err, utils.RuleAccountParentCycle) {
		t.Fatalf("expected %s, got %v", utils.RuleAccountParentCycle, err)
	}
}

func TestCheckParentCycle_DepthBound(t *testing.T) {
	// a pre-existing corrupted loop that never reaches the account itself
	loop := map[int]int{100: 101, 101: 100}

	err := checkParentCycle(context.Background(), 1, 100, parentMapLookup(loop))
	if !utils.IsRuleCode(err, utils.RuleAccountParentCycle) {
		t.Fatalf("expected %s from the depth bound, got %v", utils.RuleAccountParentCycle, err)
	}
}

func TestCheckParentCycle_LongButLegalChain(t *testing.T) {
	parents := map[int]int{}
	for i := 2; i <= 150; i++ {
		parents[i] = i - 1
	}

	if err := checkParentCycle(context.Background(), 999, 150, parentMapLookup(parents)); err != nil {
		t.Fatalf("150-deep chain is within the bound, got %v", err)
	}
}
