package claim

import (
	"testing"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"gorm.io/datatypes"
)

func TestFromClaimProjectsVariants(t *testing.T) {
	v := 99.9
	low, high := 0.0, 30.0
	yes := true

	numericClaim := &types.MaterialClaim{FormKind: types.ClaimFormNumeric, NumericValue: &v, NumericUnit: "%", Authority: types.AuthorityHigh}
	f := FromClaim(numericClaim)
	if f.Kind != types.ClaimFormNumeric || f.Value != 99.9 || f.Unit != "%" || f.Authority != types.AuthorityHigh {
		t.Fatalf("numeric: %+v", f)
	}

	rangeClaim := &types.MaterialClaim{FormKind: types.ClaimFormRange, RangeLow: &low, RangeHigh: &high, NumericUnit: "min"}
	f = FromClaim(rangeClaim)
	if f.Kind != types.ClaimFormRange || f.Low != 0 || f.High != 30 {
		t.Fatalf("range: %+v", f)
	}

	enumClaim := &types.MaterialClaim{FormKind: types.ClaimFormEnum, EnumValues: datatypes.JSON(`["0","30"]`)}
	f = FromClaim(enumClaim)
	if f.Kind != types.ClaimFormEnum || len(f.Values) != 2 {
		t.Fatalf("enum: %+v", f)
	}

	boolClaim := &types.MaterialClaim{FormKind: types.ClaimFormBoolean, BoolValue: &yes}
	f = FromClaim(boolClaim)
	if f.Kind != types.ClaimFormBoolean || !f.Bool {
		t.Fatalf("boolean: %+v", f)
	}

	scoped := &types.MaterialClaim{FormKind: types.ClaimFormNumeric, NumericValue: &v, ScopeDims: datatypes.JSON(`{"edition":"public"}`)}
	f = FromClaim(scoped)
	if f.ScopeDims["edition"] != "public" {
		t.Fatalf("scope dims: %+v", f)
	}
}

func TestFromClaimDegradesMissingValuesToText(t *testing.T) {
	// A numeric row with no value must not compare as 0.
	broken := &types.MaterialClaim{FormKind: types.ClaimFormNumeric, Content: "SLA is high"}
	f := FromClaim(broken)
	if f.Kind != types.ClaimFormText {
		t.Fatalf("want text degradation, got %+v", f)
	}
	if f.Authority != types.AuthorityMedium {
		t.Fatalf("default authority: %+v", f)
	}

	emptyEnum := &types.MaterialClaim{FormKind: types.ClaimFormEnum}
	if f := FromClaim(emptyEnum); f.Kind != types.ClaimFormText {
		t.Fatalf("empty enum must degrade: %+v", f)
	}
}
