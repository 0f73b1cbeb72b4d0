package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordKindValid(t *testing.T) {
	for _, k := range RecordKinds {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, RecordKind("widget").Valid())
	assert.False(t, RecordKind("").Valid())
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"lead uses name", Record{Kind: KindLead, Name: "Acme Plumbing"}, "Acme Plumbing"},
		{"contact joins first and last", Record{Kind: KindContact, FirstName: "Jane", LastName: "Doe"}, "Jane Doe"},
		{"contact first only", Record{Kind: KindContact, FirstName: "Jane"}, "Jane"},
		{"contact last only", Record{Kind: KindContact, LastName: "Doe"}, "Doe"},
		{"contact prefers explicit name", Record{Kind: KindContact, Name: "J. Doe", FirstName: "Jane", LastName: "Doe"}, "J. Doe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.DisplayName())
		})
	}
}
