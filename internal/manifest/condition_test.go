package manifest

import "testing"

func TestEvaluateCondition(t *testing.T) {
	tests := []struct {
		expr string
		ctx  BuildContext
		want bool
	}{
		{"tag IS present", BuildContext{Tag: "v1.0"}, true},
		{"tag IS present", BuildContext{}, false},
		{"tag IS blank", BuildContext{}, true},
		{"tag IS blank", BuildContext{Tag: "v1.0"}, false},
		{"tag IS NOT blank", BuildContext{Tag: "v1.0"}, true},
		{"NOT tag IS present", BuildContext{}, true},
		{"branch = master", BuildContext{Branch: "master"}, true},
		{"branch = master", BuildContext{Branch: "dev"}, false},
		{"branch != master", BuildContext{Branch: "dev"}, true},
		{"branch == master", BuildContext{Branch: "master"}, true},
		{`branch = "release branch"`, BuildContext{Branch: "release branch"}, true},
		{"tag IS present AND branch = master", BuildContext{Tag: "v1", Branch: "master"}, true},
		{"tag IS present AND branch = master", BuildContext{Tag: "v1", Branch: "dev"}, false},
		{"tag IS present OR branch = master", BuildContext{Branch: "master"}, true},
		{"(tag IS blank OR branch = master) AND branch != dev", BuildContext{Branch: "master"}, true},
		// keywords are case-insensitive
		{"tag is present and branch = master", BuildContext{Tag: "v1", Branch: "master"}, true},
	}
	for _, tt := range tests {
		got, err := EvaluateCondition(tt.expr, tt.ctx)
		if err != nil {
			t.Fatalf("EvaluateCondition(%q): %v", tt.expr, err)
		}
		if got != tt.want {
			t.Fatalf("EvaluateCondition(%q, %+v) = %v, want %v", tt.expr, tt.ctx, got, tt.want)
		}
	}
}

func TestParseConditionErrors(t *testing.T) {
	exprs := []string{
		"",
		"tag",
		"tag IS",
		"tag IS sometimes",
		"commit IS present",
		"tag = ",
		"(tag IS present",
		"tag IS present extra",
		"tag ! present",
	}
	for _, expr := range exprs {
		if _, err := ParseCondition(expr); err == nil {
			t.Fatalf("ParseCondition(%q): expected error", expr)
		}
	}
}
