package models

import (
	"fmt"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

func TestNextOrderNo_WrapsAt99(t *testing.T) {
	cases := []struct {
		in       int
		expected int
	}{
		{1, 2},
		{50, 51},
		{98, 99},
		{99, 1},
		{150, 1},
	}
	for _, tc := range cases {
		if got := nextOrderNo(tc.in); got != tc.expected {
			t.Fatalf("nextOrderNo(%d) expected %d, got %d", tc.in, tc.expected, got)
		}
	}
}

func TestNextOrderNo_CoversFullRangeOnce(t *testing.T) {
	seen := map[int]bool{}
	n := 1
	for i := 0; i < 99; i++ {
		if seen[n] {
			t.Fatalf("number %d issued twice within one cycle", n)
		}
		seen[n] = true
		n = nextOrderNo(n)
	}
	if n != 1 {
		t.Fatalf("after a full cycle expected to be back at 1, got %d", n)
	}
	for i := 1; i <= 99; i++ {
		if !seen[i] {
			t.Fatalf("number %d never issued", i)
		}
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm duplicated key", fmt.Errorf("create order: %w", gorm.ErrDuplicatedKey), true},
		{"mysql 1062", &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry '2026-08-30-7' for key 'idx_order_date_no'"}, true},
		{"wrapped mysql 1062", fmt.Errorf("create order: %w", &gomysql.MySQLError{Number: 1062}), true},
		{"mysql deadlock", &gomysql.MySQLError{Number: 1213}, false},
		{"record not found", gorm.ErrRecordNotFound, false},
	}
	for _, tc := range cases {
		if got := isDuplicateKeyError(tc.err); got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}
