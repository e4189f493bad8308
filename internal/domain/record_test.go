package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func validRecord(kind Kind, typ string) Record {
	return Record{
		Kind:        kind,
		UserID:      "user_1",
		Date:        civil.Date{Year: 2025, Month: time.January, Day: 15},
		Description: "Groceries",
		Amount:      decimal.RequireFromString("500"),
		Type:        typ,
	}
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Record)
		kind    Kind
		typ     string
		wantErr string
	}{
		{name: "valid transaction", kind: KindTransaction, typ: TypeDebit},
		{name: "valid expense", kind: KindExpense, typ: "Healthcare"},
		{name: "valid investment", kind: KindInvestment, typ: "Mutual Funds"},
		{name: "zero amount allowed", kind: KindTransaction, typ: TypeCredit, mutate: func(r *Record) { r.Amount = decimal.Zero }},
		{name: "missing user", kind: KindTransaction, typ: TypeCredit, mutate: func(r *Record) { r.UserID = " " }, wantErr: "userId"},
		{name: "missing description", kind: KindTransaction, typ: TypeCredit, mutate: func(r *Record) { r.Description = "" }, wantErr: "description"},
		{name: "missing investment name", kind: KindInvestment, typ: "Bonds", mutate: func(r *Record) { r.Description = "" }, wantErr: "name"},
		{name: "negative amount", kind: KindTransaction, typ: TypeCredit, mutate: func(r *Record) { r.Amount = decimal.NewFromInt(-1) }, wantErr: "negative"},
		{name: "zero date", kind: KindTransaction, typ: TypeCredit, mutate: func(r *Record) { r.Date = civil.Date{} }, wantErr: "date"},
		{name: "wrong type for kind", kind: KindTransaction, typ: "Food", wantErr: "type"},
		{name: "type is case sensitive", kind: KindTransaction, typ: "debit", wantErr: "type"},
		{name: "bad expense category", kind: KindExpense, typ: "Travel", wantErr: "category"},
		{name: "unknown kind", kind: Kind("loan"), typ: TypeCredit, wantErr: "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord(tt.kind, tt.typ)
			if tt.mutate != nil {
				tt.mutate(&r)
			}
			err := r.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error %v does not wrap ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "transaction", want: KindTransaction},
		{in: "Transactions", want: KindTransaction},
		{in: "expenses", want: KindExpense},
		{in: " investment ", want: KindInvestment},
		{in: "loans", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKindTypesIsACopy(t *testing.T) {
	types := KindExpense.Types()
	types[0] = "Mutated"
	if !KindExpense.ValidType("Food") {
		t.Error("Types() returned the shared slice")
	}
}

func TestRecordMarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		typ      string
		contains []string
		absent   []string
	}{
		{
			name:     "transaction",
			kind:     KindTransaction,
			typ:      TypeDebit,
			contains: []string{`"date":"2025-01-15"`, `"type":"Debit"`, `"userId":"user_1"`, `"description":"Groceries"`},
			absent:   []string{`"category"`, `"name"`},
		},
		{
			name:     "expense carries category",
			kind:     KindExpense,
			typ:      "Food",
			contains: []string{`"category":"Food"`, `"type":"Food"`},
			absent:   []string{`"name"`},
		},
		{
			name:     "investment carries name",
			kind:     KindInvestment,
			typ:      "Stocks",
			contains: []string{`"name":"Groceries"`},
			absent:   []string{`"category"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(validRecord(tt.kind, tt.typ))
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			out := string(data)
			for _, c := range tt.contains {
				if !strings.Contains(out, c) {
					t.Errorf("JSON %s missing %s", out, c)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("JSON %s should not contain %s", out, a)
				}
			}
		})
	}
}
