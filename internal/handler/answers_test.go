package handler

import (
	"errors"
	"strings"
	"testing"

	"adreset/internal/ad"
	"adreset/internal/config"
)

func defaultResetConfig() config.ResetConfig {
	return config.ResetConfig{
		RequiredAnswers:      3,
		AnswersMinimumLength: 2,
	}
}

func TestValidateNewAnswers(t *testing.T) {
	inputs := []answerInput{
		{QuestionID: 1, Answer: "Blue"},
		{QuestionID: 2, Answer: "Rex"},
		{QuestionID: 3, Answer: "Springfield"},
	}
	normalized, err := validateNewAnswers(inputs, defaultResetConfig())
	if err != nil {
		t.Fatalf("validateNewAnswers returned an error: %v", err)
	}
	if len(normalized) != 3 {
		t.Fatalf("got %d normalized answers, want 3", len(normalized))
	}
	// Case-insensitive deployments store the lowercased form.
	if normalized[1] != "blue" {
		t.Errorf("normalized[1] = %q, want %q", normalized[1], "blue")
	}
}

func TestValidateNewAnswersCaseSensitive(t *testing.T) {
	cfg := defaultResetConfig()
	cfg.CaseSensitiveAnswers = true

	inputs := []answerInput{
		{QuestionID: 1, Answer: "Blue"},
		{QuestionID: 2, Answer: "Rex"},
		{QuestionID: 3, Answer: "Springfield"},
	}
	normalized, err := validateNewAnswers(inputs, cfg)
	if err != nil {
		t.Fatalf("validateNewAnswers returned an error: %v", err)
	}
	if normalized[1] != "Blue" {
		t.Errorf("normalized[1] = %q, want the original casing", normalized[1])
	}
}

func TestValidateNewAnswersRejections(t *testing.T) {
	cfg := defaultResetConfig()

	tests := []struct {
		name    string
		inputs  []answerInput
		cfg     config.ResetConfig
		wantMsg string
	}{
		{
			"too few answers",
			[]answerInput{{QuestionID: 1, Answer: "Blue"}},
			cfg,
			"1 answer was supplied but 3 are required",
		},
		{
			"too many answers",
			[]answerInput{
				{QuestionID: 1, Answer: "aa"}, {QuestionID: 2, Answer: "bb"},
				{QuestionID: 3, Answer: "cc"}, {QuestionID: 4, Answer: "dd"},
			},
			cfg,
			"4 answers were supplied but 3 are required",
		},
		{
			"missing answer field",
			[]answerInput{
				{QuestionID: 1, Answer: "aa"}, {QuestionID: 2}, {QuestionID: 3, Answer: "cc"},
			},
			cfg,
			`"question_id" and "answer"`,
		},
		{
			"missing question field",
			[]answerInput{
				{QuestionID: 1, Answer: "aa"}, {Answer: "bb"}, {QuestionID: 3, Answer: "cc"},
			},
			cfg,
			`"question_id" and "answer"`,
		},
		{
			"answer too short",
			[]answerInput{
				{QuestionID: 1, Answer: "a"}, {QuestionID: 2, Answer: "bb"}, {QuestionID: 3, Answer: "cc"},
			},
			cfg,
			"at least 2 characters",
		},
		{
			"duplicate question",
			[]answerInput{
				{QuestionID: 1, Answer: "aa"}, {QuestionID: 1, Answer: "bb"}, {QuestionID: 3, Answer: "cc"},
			},
			cfg,
			"unique questions",
		},
		{
			"duplicate answers",
			[]answerInput{
				{QuestionID: 1, Answer: "aa"}, {QuestionID: 2, Answer: "aa"}, {QuestionID: 3, Answer: "cc"},
			},
			cfg,
			"unique answers",
		},
		{
			"duplicate answers by case folding",
			[]answerInput{
				{QuestionID: 1, Answer: "Rex"}, {QuestionID: 2, Answer: "rex"}, {QuestionID: 3, Answer: "cc"},
			},
			cfg,
			"unique answers",
		},
	}
	for _, tt := range tests {
		_, err := validateNewAnswers(tt.inputs, tt.cfg)
		var validationErr *ad.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("%s: validateNewAnswers = %v, want a validation error", tt.name, err)
			continue
		}
		if !strings.Contains(validationErr.Msg, tt.wantMsg) {
			t.Errorf("%s: message %q does not contain %q", tt.name, validationErr.Msg, tt.wantMsg)
		}
	}
}

func TestValidateNewAnswersDuplicatesAllowed(t *testing.T) {
	cfg := defaultResetConfig()
	cfg.AllowDuplicateAnswers = true

	inputs := []answerInput{
		{QuestionID: 1, Answer: "aa"},
		{QuestionID: 2, Answer: "aa"},
		{QuestionID: 3, Answer: "aa"},
	}
	if _, err := validateNewAnswers(inputs, cfg); err != nil {
		t.Errorf("validateNewAnswers rejected duplicates despite the allowance: %v", err)
	}
}
