// Copyright 2026 Echotwin Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rag

import (
	"strings"

	"github.com/echotwin/echotwin/core"
)

// matchKeywordRule finds the canned response rule triggered by a message.
// A rule matches when any of its comma-separated keywords appears in the
// message, case-insensitively. Among matching rules the lowest Priority wins,
// with stored order breaking ties, so the outcome is deterministic.
func matchKeywordRule(rules []core.KeywordRule, message string) (*core.KeywordRule, bool) {
	lowered := strings.ToLower(message)

	var winner *core.KeywordRule
	for i := range rules {
		rule := &rules[i]
		if !ruleMatches(rule, lowered) {
			continue
		}
		if winner == nil || rule.Priority < winner.Priority {
			winner = rule
		}
	}
	return winner, winner != nil
}

// ruleMatches reports whether any keyword of the rule occurs in the
// lowercased message. Blank keywords after splitting are ignored.
func ruleMatches(rule *core.KeywordRule, loweredMessage string) bool {
	for _, keyword := range strings.Split(rule.Keywords, ",") {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(loweredMessage, keyword) {
			return true
		}
	}
	return false
}
