package airdrop

import (
	"errors"
	"testing"
)

const (
	addrA = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	addrB = "So11111111111111111111111111111111111111112"
	addrC = "SysvarRent111111111111111111111111111111111"
)

func TestBuildPlan_FlatAmount(t *testing.T) {
	plan, err := BuildPlan([]Recipient{
		{Address: addrA, Comments: 7},
		{Address: addrB, Comments: 1},
	}, PlanOptions{Base: 2, Decimals: 6})
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}

	for i, tr := range plan.Transfers {
		if tr.Amount != 2_000_000 {
			t.Errorf("transfer %d amount = %d, want 2000000", i, tr.Amount)
		}
	}
	if plan.TotalRequired != 4_000_000 {
		t.Errorf("TotalRequired = %d, want 4000000", plan.TotalRequired)
	}
}

func TestBuildPlan_MultiplierScalesByCommentCount(t *testing.T) {
	plan, err := BuildPlan([]Recipient{
		{Address: addrA, Comments: 3},
	}, PlanOptions{Base: 1.5, Decimals: 6, Multiplier: 2, MultiplierEnabled: true})
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}

	// floor(1.5 * 2 * 3 * 10^6)
	if got := plan.Transfers[0].Amount; got != 9_000_000 {
		t.Errorf("amount = %d, want 9000000", got)
	}
}

func TestBuildPlan_MultiplierFloorsPartialUnits(t *testing.T) {
	plan, err := BuildPlan([]Recipient{
		{Address: addrA, Comments: 1},
	}, PlanOptions{Base: 0.333, Decimals: 2, Multiplier: 1, MultiplierEnabled: true})
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if got := plan.Transfers[0].Amount; got != 33 {
		t.Errorf("amount = %d, want 33 (floored)", got)
	}
}

func TestBuildPlan_ZeroCommentsCountAsOne(t *testing.T) {
	plan, err := BuildPlan([]Recipient{
		{Address: addrA},
	}, PlanOptions{Base: 1, Decimals: 6, Multiplier: 1, MultiplierEnabled: true})
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if got := plan.Transfers[0].Amount; got != 1_000_000 {
		t.Errorf("amount = %d, want 1000000", got)
	}
}

func TestBuildPlan_RejectsDuplicateRecipient(t *testing.T) {
	_, err := BuildPlan([]Recipient{
		{Address: addrA},
		{Address: addrB},
		{Address: addrA},
	}, PlanOptions{Base: 1, Decimals: 6})
	if !errors.Is(err, ErrDuplicateRecipient) {
		t.Errorf("BuildPlan() error = %v, want ErrDuplicateRecipient", err)
	}
}

func TestBuildPlan_RejectsInvalidAddress(t *testing.T) {
	_, err := BuildPlan([]Recipient{
		{Address: "not-a-wallet"},
	}, PlanOptions{Base: 1, Decimals: 6})
	if err == nil {
		t.Fatal("BuildPlan() error = nil, want invalid address error")
	}
}

func TestBuildPlan_RejectsNonPositiveBase(t *testing.T) {
	for _, base := range []float64{0, -1} {
		_, err := BuildPlan([]Recipient{{Address: addrA}},
			PlanOptions{Base: base, Decimals: 6})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("base %v: error = %v, want ErrInvalidAmount", base, err)
		}
	}
}

func TestBuildPlan_RejectsEmptyRecipients(t *testing.T) {
	_, err := BuildPlan(nil, PlanOptions{Base: 1, Decimals: 6})
	if !errors.Is(err, ErrNoRecipients) {
		t.Errorf("BuildPlan() error = %v, want ErrNoRecipients", err)
	}
}

func TestValidate_SplitsAndDedupes(t *testing.T) {
	valid, invalid := Validate([]string{
		addrA,
		"junk",
		addrB,
		addrA, // duplicate kept once
		"0x1234567890abcdef",
	})
	if len(valid) != 2 {
		t.Errorf("got %d valid, want 2", len(valid))
	}
	if len(invalid) != 2 {
		t.Errorf("got %d invalid, want 2", len(invalid))
	}
}
