package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSection(t *testing.T) {
	tests := []struct {
		input string
		want  Section
		ok    bool
	}{
		{"clients", SectionClients, true},
		{"deals", SectionDeals, true},
		{"tasks", SectionTasks, true},
		{" deals ", Section(" deals "), false},
		{"CLIENTS", Section("CLIENTS"), false},
		{"unknown", Section("unknown"), false},
		{"", Section(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseSection(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSection_ReportPrefix(t *testing.T) {
	assert.Equal(t, "CRM — Отчёт Клиенты", SectionClients.ReportPrefix())
	assert.Equal(t, "CRM — Отчёт Сделки", SectionDeals.ReportPrefix())
	assert.Equal(t, "CRM — Отчёт Задачи", SectionTasks.ReportPrefix())
	assert.Empty(t, Section("other").ReportPrefix())

	seen := make(map[string]bool)
	for _, s := range Sections {
		prefix := s.ReportPrefix()
		assert.NotEmpty(t, prefix)
		assert.False(t, seen[prefix], "prefix %q must be unique", prefix)
		seen[prefix] = true
	}
}
