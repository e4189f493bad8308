package bigquery

import (
	"errors"
	"strings"
	"testing"

	"github.com/dvloznov/efinance/internal/domain"
)

func TestTableFor(t *testing.T) {
	tests := []struct {
		kind    domain.Kind
		want    string
		wantErr bool
	}{
		{kind: domain.KindTransaction, want: "transactions"},
		{kind: domain.KindExpense, want: "expenses"},
		{kind: domain.KindInvestment, want: "investments"},
		{kind: domain.Kind("loan"), wantErr: true},
	}
	for _, tt := range tests {
		got, err := tableFor(tt.kind)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("tableFor(%q) error = %v, want ErrValidation", tt.kind, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("tableFor(%q) = %q, %v; want %q", tt.kind, got, err, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", maxErrorMessageLen+50)
	if got := truncate(long, maxErrorMessageLen); len(got) != maxErrorMessageLen {
		t.Errorf("len(truncate) = %d, want %d", len(got), maxErrorMessageLen)
	}
	if got := truncate("short", maxErrorMessageLen); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
}

func TestNewBigQueryRepositoryWithClientDefaultsDataset(t *testing.T) {
	repo := NewBigQueryRepositoryWithClient(nil, "")
	if repo.datasetID != DefaultDatasetID {
		t.Errorf("datasetID = %q, want %q", repo.datasetID, DefaultDatasetID)
	}
	if err := repo.Close(); err != nil {
		t.Errorf("Close() with nil client error = %v", err)
	}
}
