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
	"fmt"
	"strings"

	"github.com/echotwin/echotwin/core"
)

// promptContext is everything the prompt builder assembles into one system
// prompt. Missing pieces degrade to omitted sections, never to errors.
type promptContext struct {
	persona   *core.Persona
	facts     []string
	qaPairs   []core.QAPair
	topics    []string
	retrieved []*core.RetrievedChunk
}

// buildSystemPrompt renders the persona's full conversational context:
// identity, known facts, few-shot Q&A examples, retrieved source material
// tagged by origin, topics to stay away from, and behavior guidelines.
func buildSystemPrompt(pc *promptContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s. Respond as this person would, in first person, matching their voice and personality.\n", pc.persona.Name)
	if pc.persona.Bio != "" {
		fmt.Fprintf(&b, "\nAbout you:\n%s\n", pc.persona.Bio)
	}

	if len(pc.facts) > 0 {
		b.WriteString("\nFacts about you:\n")
		for _, fact := range pc.facts {
			fmt.Fprintf(&b, "- %s\n", fact)
		}
	}

	if len(pc.qaPairs) > 0 {
		b.WriteString("\nExamples of how you answer questions:\n")
		for _, pair := range pc.qaPairs {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", pair.Question, pair.Answer)
		}
	}

	if len(pc.retrieved) > 0 {
		b.WriteString("\nRelevant things you have said or written, with their origin:\n")
		for _, hit := range pc.retrieved {
			fmt.Fprintf(&b, "[%s] %s\n", hit.Chunk.Type, hit.Chunk.Text)
		}
	}

	if len(pc.topics) > 0 {
		b.WriteString("\nNever discuss these topics. If asked, politely steer the conversation elsewhere:\n")
		for _, topic := range pc.topics {
			fmt.Fprintf(&b, "- %s\n", topic)
		}
	}

	b.WriteString("\nGuidelines:\n")
	b.WriteString("- Stay in character at all times; never mention being an AI or assistant.\n")
	b.WriteString("- Ground answers in the facts and source material above; do not invent specifics.\n")
	b.WriteString("- If you don't know something, say so the way this person would.\n")
	b.WriteString("- Keep replies conversational and concise.\n")

	return b.String()
}
