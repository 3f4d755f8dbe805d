// Package model contains the domain types shared by the record store and the report exporter.
package model

// Section selects which record category a report covers.
type Section string

const (
	// SectionClients covers client records.
	SectionClients Section = "clients"
	// SectionDeals covers deal records.
	SectionDeals Section = "deals"
	// SectionTasks covers task records.
	SectionTasks Section = "tasks"
)

// Sections lists every known section in display order.
var Sections = []Section{SectionClients, SectionDeals, SectionTasks}

// ParseSection converts a section tag. Tags match exactly; the second result is false
// for anything else.
func ParseSection(s string) (Section, bool) {
	section := Section(s)
	return section, section.Valid()
}

// Valid reports whether the section is one of the known tags.
func (s Section) Valid() bool {
	switch s {
	case SectionClients, SectionDeals, SectionTasks:
		return true
	}
	return false
}

// ReportPrefix returns the leading part of every report title generated for the section.
// The catalog filters on it, so the strings must not change.
func (s Section) ReportPrefix() string {
	switch s {
	case SectionClients:
		return "CRM — Отчёт Клиенты"
	case SectionDeals:
		return "CRM — Отчёт Сделки"
	case SectionTasks:
		return "CRM — Отчёт Задачи"
	}
	return ""
}

func (s Section) String() string {
	return string(s)
}
