package validate

import (
	"errors"
	"reflect"
	"testing"

	"toolgate/internal/domain"
)

func faultKind(t *testing.T, err error) domain.FaultKind {
	t.Helper()
	var f *domain.Fault
	if !errors.As(err, &f) {
		t.Fatalf("Expected a Fault, got: %v", err)
	}
	return f.Kind
}

func calcDef() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name: "calc",
		Params: []domain.ParameterSpec{
			{Name: "a", Kind: domain.KindInteger, Required: true},
			{Name: "b", Kind: domain.KindInteger, Default: 0},
			{Name: "op", Kind: domain.KindString, Default: "add", Enum: []any{"add", "sub"}},
		},
	}
}

func TestNormalize_WhenRequiredMissing_ShouldNameTheParameter(t *testing.T) {
	_, err := Normalize(calcDef(), domain.Args{"b": 3})
	if faultKind(t, err) != domain.FaultMissingParameter {
		t.Errorf("Expected MissingRequiredParameter, got: %v", err)
	}
	var f *domain.Fault
	errors.As(err, &f)
	if f.Message != `missing required parameter "a"` {
		t.Errorf("Message should name the parameter, got: %q", f.Message)
	}
}

func TestNormalize_WhenUnknownKey_ShouldRejectNotDrop(t *testing.T) {
	_, err := Normalize(calcDef(), domain.Args{"a": 1, "bogus": true})
	if faultKind(t, err) != domain.FaultUnknownParameter {
		t.Errorf("Expected UnknownParameter, got: %v", err)
	}
}

func TestNormalize_WhenOptionalAbsent_ShouldFillDefaults(t *testing.T) {
	got, err := Normalize(calcDef(), domain.Args{"a": 5})
	if err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}
	want := domain.Args{"a": int64(5), "b": int64(0), "op": "add"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestNormalize_WhenOptionalWithoutDefaultAbsent_ShouldOmitKey(t *testing.T) {
	def := domain.ToolDefinition{
		Name: "t",
		Params: []domain.ParameterSpec{
			{Name: "x", Kind: domain.KindString, Required: true},
			{Name: "note", Kind: domain.KindString},
		},
	}
	got, err := Normalize(def, domain.Args{"x": "v"})
	if err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}
	if _, present := got["note"]; present {
		t.Error("Absent optional without default must stay absent")
	}
}

func TestNormalize_WhenTypeMismatch_ShouldBeInvalidArguments(t *testing.T) {
	cases := []domain.Args{
		{"a": "7"},           // numeric string is not an integer
		{"a": 1.5},           // non-integral number
		{"a": true},          // wrong type entirely
		{"a": 1, "op": 3},    // string parameter given a number
		{"a": 1, "b": "two"}, // optional still type-checked when present
	}
	for _, raw := range cases {
		_, err := Normalize(calcDef(), raw)
		if faultKind(t, err) != domain.FaultInvalidArguments {
			t.Errorf("Args %v: expected InvalidArguments, got %v", raw, err)
		}
	}
}

func TestNormalize_WhenEnumViolated_ShouldBeInvalidArguments(t *testing.T) {
	_, err := Normalize(calcDef(), domain.Args{"a": 1, "op": "mul"})
	if faultKind(t, err) != domain.FaultInvalidArguments {
		t.Errorf("Expected InvalidArguments for enum violation, got: %v", err)
	}
}

func TestNormalize_WhenEnumMembersAreLists_ShouldNotPanic(t *testing.T) {
	// Registration rejects enums on non-scalar kinds, but Normalize must stay
	// total even for a definition built by hand.
	def := domain.ToolDefinition{
		Name: "pick_group",
		Params: []domain.ParameterSpec{
			{Name: "choice", Kind: domain.KindList, Required: true,
				Enum: []any{[]any{"a"}, []any{"b"}}},
		},
	}

	got, err := Normalize(def, domain.Args{"choice": []any{"a"}})
	if err != nil {
		t.Fatalf("Expected member value to pass, got: %v", err)
	}
	if !reflect.DeepEqual(got["choice"], []any{"a"}) {
		t.Errorf("Expected the list value preserved, got %v", got["choice"])
	}

	_, err = Normalize(def, domain.Args{"choice": []any{"c"}})
	if faultKind(t, err) != domain.FaultInvalidArguments {
		t.Errorf("Expected InvalidArguments for non-member list, got: %v", err)
	}
}

func TestNormalize_WhenIntegerArrivesAsFloat_ShouldCanonicalizeToInt64(t *testing.T) {
	// JSON decoding always produces float64 for numbers.
	got, err := Normalize(calcDef(), domain.Args{"a": float64(5)})
	if err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}
	if got["a"] != int64(5) {
		t.Errorf("Expected canonical int64(5), got %T(%v)", got["a"], got["a"])
	}
}

func TestNormalize_WhenListHasItemKind_ShouldCheckElements(t *testing.T) {
	def := domain.ToolDefinition{
		Name: "browse",
		Params: []domain.ParameterSpec{
			{Name: "urls", Kind: domain.KindList, ItemKind: domain.KindString, Required: true},
		},
	}

	if _, err := Normalize(def, domain.Args{"urls": []any{"https://a", "https://b"}}); err != nil {
		t.Fatalf("Homogeneous list should pass: %v", err)
	}

	_, err := Normalize(def, domain.Args{"urls": []any{"https://a", 42}})
	if faultKind(t, err) != domain.FaultInvalidArguments {
		t.Errorf("Expected InvalidArguments for mixed list, got: %v", err)
	}
}

func TestNormalize_ShouldBeIdempotent(t *testing.T) {
	raw := domain.Args{"a": 9, "op": "sub"}
	first, err := Normalize(calcDef(), raw)
	if err != nil {
		t.Fatalf("First pass failed: %v", err)
	}
	second, err := Normalize(calcDef(), first)
	if err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Normalization must be idempotent: %v vs %v", first, second)
	}
}

func TestNormalize_ShouldNotMutateRawArgs(t *testing.T) {
	raw := domain.Args{"a": float64(5)}
	if _, err := Normalize(calcDef(), raw); err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}
	if _, isFloat := raw["a"].(float64); !isFloat {
		t.Error("Raw argument map must not be mutated")
	}
	if len(raw) != 1 {
		t.Error("Defaults must not leak into the raw map")
	}
}

func TestNormalize_WhenObjectSchemaViolated_ShouldBeInvalidArguments(t *testing.T) {
	def := domain.ToolDefinition{
		Name: "create",
		Params: []domain.ParameterSpec{
			{
				Name:     "record_data",
				Kind:     domain.KindObject,
				Required: true,
				Schema:   []byte(`{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`),
			},
		},
	}

	if _, err := Normalize(def, domain.Args{"record_data": map[string]any{"name": "ok"}}); err != nil {
		t.Fatalf("Conforming object should pass: %v", err)
	}

	_, err := Normalize(def, domain.Args{"record_data": map[string]any{"other": 1}})
	if faultKind(t, err) != domain.FaultInvalidArguments {
		t.Errorf("Expected InvalidArguments for schema violation, got: %v", err)
	}
}
