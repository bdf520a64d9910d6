package model

import (
	"strings"
	"time"
)

// Section is one optional part of a generated issue body.
type Section string

const (
	SectionSteps    Section = "has_steps"
	SectionImpact   Section = "has_impact"
	SectionLocation Section = "has_location"
	SectionExpected Section = "has_expected"
	SectionCulprit  Section = "has_culprit"
)

// SectionInfo ties a Section key to the label sent to the inference model.
type SectionInfo struct {
	Key   Section
	Label string
}

// AllSections is the closed set of sections, in prompt order. The store
// schema, request validation and prompt labels are all derived from it.
var AllSections = []SectionInfo{
	{Key: SectionSteps, Label: "Steps to reproduce"},
	{Key: SectionImpact, Label: "Impact"},
	{Key: SectionLocation, Label: "Location"},
	{Key: SectionExpected, Label: "Expected behaviour"},
	{Key: SectionCulprit, Label: "Suspected culprit"},
}

// ParseSection returns the Section for key, or false if key is not one of AllSections.
func ParseSection(key string) (Section, bool) {
	key = strings.TrimSpace(key)
	for _, s := range AllSections {
		if string(s.Key) == key {
			return s.Key, true
		}
	}
	return "", false
}

// SectionSet holds one flag per Section.
type SectionSet map[Section]bool

// NewSectionSet returns a SectionSet with the given sections switched on.
func NewSectionSet(on ...Section) SectionSet {
	set := make(SectionSet, len(AllSections))
	for _, s := range AllSections {
		set[s.Key] = false
	}
	for _, s := range on {
		set[s] = true
	}
	return set
}

// Labels returns the labels of the enabled sections, in AllSections order.
func (s SectionSet) Labels() []string {
	labels := []string{}
	for _, info := range AllSections {
		if s[info.Key] {
			labels = append(labels, info.Label)
		}
	}
	return labels
}

// Enabled returns the enabled section keys, in AllSections order.
func (s SectionSet) Enabled() []Section {
	keys := []Section{}
	for _, info := range AllSections {
		if s[info.Key] {
			keys = append(keys, info.Key)
		}
	}
	return keys
}

// Lingo is a named writing style owned by one user. Name is unique per user.
type Lingo struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Style     string     `json:"style"`
	Sections  SectionSet `json:"sections"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
