package core

import (
	"errors"
	"testing"
)

func TestValidateClause(t *testing.T) {
	tests := []struct {
		name    string
		clause  *Clause
		wantErr error
	}{
		{
			name: "valid clause",
			clause: &Clause{
				Id:      1,
				RawText: "Meeverzekerd is schade door storm tot een maximum van EUR 500.",
			},
			wantErr: nil,
		},
		{
			name: "valid clause without normalization yet",
			clause: &Clause{
				RawText:        "some clause text",
				NormalizedText: "",
			},
			wantErr: nil,
		},
		{
			name:    "nil clause",
			clause:  nil,
			wantErr: ErrInvalidClause,
		},
		{
			name: "empty raw text",
			clause: &Clause{
				Id:      1,
				RawText: "",
			},
			wantErr: ErrEmptyText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClause(tt.clause)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateClause() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateClause() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSection(t *testing.T) {
	tests := []struct {
		name    string
		section *ReferenceSection
		wantErr error
	}{
		{
			name: "valid section",
			section: &ReferenceSection{
				Id:             1,
				Title:          "Artikel 4 Storm",
				NormalizedText: "storm damage is covered up to the insured amount",
			},
			wantErr: nil,
		},
		{
			name:    "nil section",
			section: nil,
			wantErr: ErrInvalidSection,
		},
		{
			name: "empty text",
			section: &ReferenceSection{
				Id:    1,
				Title: "Artikel 4",
			},
			wantErr: ErrEmptySectionText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSection(tt.section)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSection() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSection() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAdvice(t *testing.T) {
	tests := []struct {
		name    string
		advice  *Advice
		wantErr error
	}{
		{
			name: "valid advice",
			advice: &Advice{
				ClusterId:  1,
				Action:     ActionRemove,
				Confidence: ConfidenceHigh,
				Reason:     "exact substring match in conditions",
			},
			wantErr: nil,
		},
		{
			name:    "nil advice",
			advice:  nil,
			wantErr: ErrInvalidAdvice,
		},
		{
			name: "zero action",
			advice: &Advice{
				ClusterId:  1,
				Confidence: ConfidenceHigh,
			},
			wantErr: ErrInvalidAction,
		},
		{
			name: "action out of range",
			advice: &Advice{
				ClusterId:  1,
				Action:     Action(42),
				Confidence: ConfidenceHigh,
			},
			wantErr: ErrInvalidAction,
		},
		{
			name: "zero confidence",
			advice: &Advice{
				ClusterId: 1,
				Action:    ActionKeep,
			},
			wantErr: ErrInvalidConfidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdvice(tt.advice)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateAdvice() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAdvice() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateScore(t *testing.T) {
	tests := []struct {
		name    string
		score   float64
		wantErr bool
	}{
		{"zero", 0.0, false},
		{"one", 1.0, false},
		{"mid", 0.5, false},
		{"negative", -0.01, true},
		{"above one", 1.01, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScore(tt.score)
			if tt.wantErr && !errors.Is(err, ErrScoreOutOfRange) {
				t.Errorf("ValidateScore(%g) error = %v, want ErrScoreOutOfRange", tt.score, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateScore(%g) error = %v, want nil", tt.score, err)
			}
		})
	}
}
