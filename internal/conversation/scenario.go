// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"fmt"
	"strings"
)

// Roles the backend knows about.
const (
	RoleSalesSpecialist = "sales specialist"
	RoleCustomer        = "customer"
)

// Scenarios the backend knows about.
const (
	ScenarioProductPitch      = "product_pitch"
	ScenarioObjectionHandling = "objection_handling"
	ScenarioNegotiation       = "negotiation"
	ScenarioUpselling         = "upselling"
)

// KnownRoles lists roles for completion and hints. The backend is the
// authority; unknown values are still sent.
var KnownRoles = []string{RoleSalesSpecialist, RoleCustomer}

// KnownScenarios lists scenarios for completion and hints.
var KnownScenarios = []string{
	ScenarioProductPitch,
	ScenarioObjectionHandling,
	ScenarioNegotiation,
	ScenarioUpselling,
}

// IsKnownRole reports whether role is one of KnownRoles.
func IsKnownRole(role string) bool {
	return contains(KnownRoles, NormalizeRole(role))
}

// IsKnownScenario reports whether scenario is one of KnownScenarios.
func IsKnownScenario(scenario string) bool {
	return contains(KnownScenarios, NormalizeScenario(scenario))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// NormalizeRole lowercases and collapses separators, so "Sales_Specialist"
// and "sales-specialist" both become "sales specialist".
func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	role = strings.NewReplacer("_", " ", "-", " ").Replace(role)
	return strings.Join(strings.Fields(role), " ")
}

// NormalizeScenario lowercases and joins words with underscores, so
// "Objection Handling" becomes "objection_handling".
func NormalizeScenario(scenario string) string {
	scenario = strings.ToLower(strings.TrimSpace(scenario))
	scenario = strings.ReplaceAll(scenario, "-", " ")
	return strings.Join(strings.Fields(strings.ReplaceAll(scenario, "_", " ")), "_")
}

// ScenarioWords renders a scenario identifier as words.
func ScenarioWords(scenario string) string {
	return strings.ReplaceAll(scenario, "_", " ")
}

// RoleLabel renders a role for banners: upper case, or "Unknown" when empty.
func RoleLabel(role string) string {
	if role == "" {
		return "Unknown"
	}
	return strings.ToUpper(role)
}

// ParseStartArgs reads "[role words...] [scenario]" on top of the current
// selection. A single argument is the scenario when it names a known one
// and the role otherwise.
func ParseStartArgs(args []string, role, scenario string) (string, string) {
	switch len(args) {
	case 0:
		return role, scenario
	case 1:
		if IsKnownScenario(args[0]) {
			return role, args[0]
		}
		return args[0], scenario
	default:
		return strings.Join(args[:len(args)-1], " "), args[len(args)-1]
	}
}

// PreviewGuidance is shown after a role and scenario are chosen but before
// the backend has supplied real guidance.
func PreviewGuidance(role, scenario string) string {
	if role == "" || scenario == "" {
		return ""
	}
	return fmt.Sprintf("As a %s in a %s scenario, you'll need to adapt your communication strategy accordingly. Start the conversation to see specific guidance.",
		role, ScenarioWords(scenario))
}

func startedNotice(role, assistant, scenario string) string {
	return fmt.Sprintf("[Conversation started] You are the %s, the AI is the %s. Scenario: %s.",
		RoleLabel(role), RoleLabel(assistant), ScenarioWords(scenario))
}

func switchedNotice(role, assistant string) string {
	return fmt.Sprintf("[Roles switched] You are now the %s, the AI is the %s.",
		RoleLabel(role), RoleLabel(assistant))
}

func scenarioNotice(scenario string) string {
	return fmt.Sprintf("[Scenario switched] Scenario: %s.", ScenarioWords(scenario))
}

func resetNotice(role, assistant, scenario string) string {
	return fmt.Sprintf("[Conversation reset] You are the %s, the AI is the %s. Scenario: %s.",
		RoleLabel(role), RoleLabel(assistant), ScenarioWords(scenario))
}
